// Package handler turns typed handler functions into http.HandlerFunc.
//
// A HandlerFunc receives a Context and a request value decoded by the
// configured binders, and returns a Response. Wrap runs the binders, calls
// the function and renders the response; binder failures and render errors
// go to the ErrorHandler.
//
//	type codeRequest struct {
//		Code string `json:"code"`
//	}
//
//	func (h *Handler) verify(ctx handler.Context, req codeRequest) handler.Response {
//		res, err := h.svc.Verify(ctx, id, req.Code)
//		if err != nil {
//			return handler.Error(err)
//		}
//		return handler.JSON(res)
//	}
//
//	r.Post("/verify", handler.Wrap(h.verify,
//		handler.WithBinders[handler.Context, codeRequest](binder.JSON()),
//		handler.WithErrorHandler[handler.Context, codeRequest](h.errorHandler),
//	))
//
// # Responses
//
// JSON wraps a value in the JSONResponse envelope ({"data": ...}); JSONError
// fills its error member. Error hands an error to the error handler instead
// of rendering anything itself.
//
// # Errors
//
// NewErrorHandler renders errors as JSON. ErrorHandlerConfig.Map translates
// application errors into core.HTTPError values, which supply the status
// code and the error code. Anything that is not an HTTPError renders as a
// generic 500. Client errors are logged at warn level, server errors at
// error level.
package handler
