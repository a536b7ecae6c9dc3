package totp

import (
	"net/url"
	"strconv"
	"strings"
)

// URIParams contains the parameters for provisioning URI generation.
type URIParams struct {
	Secret      string // Base32-encoded TOTP secret key (required)
	AccountName string // User identifier like email (required)
	Issuer      string // Service name displayed in authenticator apps (required)
}

// Validate ensures all required URI parameters are present and valid.
func (p URIParams) Validate() error {
	if p.Secret == "" {
		return ErrMissingSecret
	}
	if _, err := DecodeSecret(p.Secret); err != nil {
		return err
	}
	if strings.TrimSpace(p.AccountName) == "" {
		return ErrMissingAccountName
	}
	if strings.TrimSpace(p.Issuer) == "" {
		return ErrMissingIssuer
	}
	// the label separates issuer and account with a colon
	if strings.Contains(p.Issuer, ":") || strings.Contains(p.AccountName, ":") {
		return ErrInvalidLabel
	}
	return nil
}

// ProvisioningURI builds the otpauth URI understood by authenticator apps:
//
//	otpauth://totp/{issuer}:{account}?secret=...&issuer=...&algorithm=SHA1&digits=6&period=30
//
// The query is assembled by hand because url.Values sorts its keys and the
// parameter order is part of the format.
// See https://github.com/google/google-authenticator/wiki/Key-Uri-Format
func ProvisioningURI(params URIParams) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("otpauth://totp/")
	b.WriteString(url.PathEscape(params.Issuer))
	b.WriteByte(':')
	b.WriteString(url.PathEscape(params.AccountName))
	b.WriteString("?secret=")
	b.WriteString(url.QueryEscape(params.Secret))
	b.WriteString("&issuer=")
	b.WriteString(url.QueryEscape(params.Issuer))
	b.WriteString("&algorithm=" + Algorithm)
	b.WriteString("&digits=" + strconv.Itoa(Digits))
	b.WriteString("&period=" + strconv.Itoa(Period))

	return b.String(), nil
}
