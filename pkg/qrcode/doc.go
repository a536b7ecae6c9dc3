// Package qrcode renders otpauth provisioning URIs as PNG QR codes so a
// user can enrol an authenticator app by scanning instead of typing the
// Base32 secret.
//
//	img, err := qrcode.DataURI(setup.URI, qrcode.DefaultSize)
//	if err != nil {
//		return err
//	}
//	// <img src="{{ .QRCode }}">
//
// The image embeds the secret, so it must be treated as secret material:
// never log it and never cache it.
package qrcode
