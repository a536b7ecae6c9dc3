// Package httpapi serves a twofactor.Service as a small JSON API.
//
//	h := httpapi.NewHandler(svc, httpapi.NewHeaderIdentityResolver(),
//		httpapi.WithQRCode(256),
//		httpapi.WithClientIP(ips),
//	)
//	r.Mount("/2fa", h.Handle())
//
// Routes:
//
//	POST /setup                    start enrollment
//	POST /setup/verify             {"code"} confirm enrollment
//	POST /verify                   {"code"} TOTP or backup code
//	GET  /status
//	POST /disable                  {"code"}
//	POST /backup-codes/regenerate  {"code"}
//
// Routes are typed handler.HandlerFunc values wrapped with handler.Wrap;
// code bodies are decoded by binder.JSON. Responses use the
// handler.JSONResponse envelope: {"data": ...} on success and
// {"error": {"code", "message"}, "meta": {...}} on failure. Service errors
// map to core.HTTPError values: 422 for malformed input, 409 when the
// credential is in the wrong state, 401 for a wrong code or missing
// identity, 415 for a non-JSON body, 429 with Retry-After (also in
// meta.retry_after) when throttled and 500 otherwise.
package httpapi
