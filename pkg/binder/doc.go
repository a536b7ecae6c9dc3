// Package binder decodes HTTP request bodies into typed request structs.
//
// JSON returns a binder for application/json bodies. It enforces the media
// type, caps the body size (DefaultMaxJSONSize unless WithMaxSize is given),
// rejects unknown fields and rejects trailing data after the top-level
// value. Optional lets body-less requests through untouched.
//
// Binders plug into handler.Wrap:
//
//	r.Post("/verify", handler.Wrap(h.verify,
//		handler.WithBinders[handler.Context, codeRequest](binder.JSON(binder.WithMaxSize(4<<10))),
//		handler.WithErrorHandler[handler.Context, codeRequest](h.errorHandler),
//	))
//
// Failures wrap one of the package errors (ErrMissingContentType,
// ErrUnsupportedMediaType, ErrBodyTooLarge, ErrFailedToParseJSON) so error
// handlers can map them with errors.Is.
package binder
