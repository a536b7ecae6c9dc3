package handler

import "net/http"

// errorResponse hands its error to the error handler instead of rendering.
type errorResponse struct {
	err error
}

func (e errorResponse) Render(http.ResponseWriter, *http.Request) error {
	return e.err
}

// Error returns a Response that routes err to the configured error handler.
//
// Example:
//
//	res, err := svc.Status(ctx, id)
//	if err != nil {
//		return handler.Error(err)
//	}
func Error(err error) Response {
	return errorResponse{err: err}
}
