package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmitrymomot/twofactor/core"
	"github.com/dmitrymomot/twofactor/pkg/logger"
	"github.com/dmitrymomot/twofactor/pkg/requestid"
)

// ErrorHandlerConfig configures the JSON error handler
type ErrorHandlerConfig struct {
	// Map translates application errors into the HTTPError to respond with.
	// A zero HTTPError falls back to errors.As on err itself.
	Map func(err error) core.HTTPError

	// Expose reports whether err's text may be sent as the message of a
	// client error. Server errors always get the generic message.
	Expose func(err error) bool

	// Options adds per-error response options such as headers or metadata.
	Options func(err error) []JSONOption
}

// ErrorInfo contains classified error information
type ErrorInfo struct {
	StatusCode int
	Code       string
	Message    string
	LogLevel   slog.Level
}

func isClientError(statusCode int) bool {
	return statusCode >= http.StatusBadRequest && statusCode < http.StatusInternalServerError
}

// determineLogLevel maps HTTP status codes to appropriate log levels
func determineLogLevel(statusCode int) slog.Level {
	if isClientError(statusCode) {
		return slog.LevelWarn
	}
	return slog.LevelError
}

// classifyError analyzes the error and returns structured error information
func classifyError(cfg ErrorHandlerConfig, err error) ErrorInfo {
	var httpErr core.HTTPError
	if cfg.Map != nil {
		httpErr = cfg.Map(err)
	}
	if httpErr.Code == 0 && !errors.As(err, &httpErr) {
		httpErr = core.ErrInternalServerError
	}

	info := ErrorInfo{
		StatusCode: httpErr.Code,
		Code:       httpErr.Key,
		Message:    strings.ToLower(http.StatusText(httpErr.Code)),
		LogLevel:   determineLogLevel(httpErr.Code),
	}
	if isClientError(info.StatusCode) && cfg.Expose != nil && cfg.Expose(err) {
		info.Message = err.Error()
	}
	return info
}

func logError(log *slog.Logger, ctx Context, err error, info ErrorInfo) {
	r := ctx.Request()
	log.LogAttrs(r.Context(), info.LogLevel, "request error",
		logger.Error(err),
		slog.Int("status_code", info.StatusCode),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		logger.Component("error_handler"),
	)
}

// NewErrorHandler creates an error handler that renders errors as the
// JSONResponse envelope. The request id, when present, is added to the
// response metadata.
func NewErrorHandler(log *slog.Logger, cfg ErrorHandlerConfig) ErrorHandler[Context] {
	if log == nil {
		log = slog.Default()
	}

	return func(ctx Context, err error) {
		info := classifyError(cfg, err)
		logError(log, ctx, err, info)

		opts := []JSONOption{WithJSONStatus(info.StatusCode)}
		if id, ok := requestid.FromContext(ctx.Request().Context()); ok {
			opts = append(opts, WithJSONMeta(map[string]any{"request_id": id}))
		}
		if cfg.Options != nil {
			opts = append(opts, cfg.Options(err)...)
		}

		response := JSONError(&ErrorDetail{Code: info.Code, Message: info.Message}, opts...)
		if renderErr := response.Render(ctx.ResponseWriter(), ctx.Request()); renderErr != nil {
			log.LogAttrs(ctx.Request().Context(), slog.LevelError, "failed to render error response",
				logger.Error(renderErr),
				logger.Event("render_error_response"),
			)
		}
	}
}
