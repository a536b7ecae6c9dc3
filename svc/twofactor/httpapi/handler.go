package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/twofactor/handler"
	"github.com/dmitrymomot/twofactor/pkg/binder"
	"github.com/dmitrymomot/twofactor/pkg/clientip"
	"github.com/dmitrymomot/twofactor/pkg/logger"
	"github.com/dmitrymomot/twofactor/pkg/qrcode"
	"github.com/dmitrymomot/twofactor/svc/twofactor"
)

const maxBodySize = 4 << 10

// Handler exposes a twofactor.Service over JSON.
type Handler struct {
	svc          *twofactor.Service
	identity     IdentityResolver
	ips          *clientip.Resolver
	log          *slog.Logger
	qrSize       int
	errorHandler handler.ErrorHandler[handler.Context]
}

// Option configures a Handler.
type Option func(*Handler)

// WithQRCode adds a PNG data URI of the provisioning URI to setup
// responses. A zero size uses qrcode.DefaultSize.
func WithQRCode(size int) Option {
	return func(h *Handler) {
		if size <= 0 {
			size = qrcode.DefaultSize
		}
		h.qrSize = size
	}
}

// WithClientIP sets how client addresses are resolved. Defaults to the
// TCP peer address.
func WithClientIP(r *clientip.Resolver) Option {
	return func(h *Handler) {
		if r != nil {
			h.ips = r
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// NewHandler returns a Handler. Mount Handle() under the prefix of your choice.
func NewHandler(svc *twofactor.Service, resolver IdentityResolver, opts ...Option) *Handler {
	h := &Handler{
		svc:      svc,
		identity: resolver,
		ips:      clientip.New(),
		log:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.errorHandler = handler.NewErrorHandler(h.log, handler.ErrorHandlerConfig{
		Map:     httpError,
		Expose:  exposeError,
		Options: errorOptions,
	})
	return h
}

// Handle returns the router.
func (h *Handler) Handle() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.NoCache, h.requestInfo)

	r.Post("/setup", handler.Wrap(h.setup,
		handler.WithErrorHandler[handler.Context, emptyRequest](h.errorHandler),
	))
	r.Get("/status", handler.Wrap(h.status,
		handler.WithErrorHandler[handler.Context, emptyRequest](h.errorHandler),
	))

	codeRoutes := map[string]handler.HandlerFunc[handler.Context, codeRequest]{
		"/setup/verify":            h.verifySetup,
		"/verify":                  h.verify,
		"/disable":                 h.disable,
		"/backup-codes/regenerate": h.regenerateBackup,
	}
	for path, fn := range codeRoutes {
		r.Post(path, handler.Wrap(fn,
			handler.WithBinders[handler.Context, codeRequest](binder.JSON(binder.WithMaxSize(maxBodySize))),
			handler.WithErrorHandler[handler.Context, codeRequest](h.errorHandler),
		))
	}

	return r
}

func (h *Handler) requestInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := twofactor.WithRequestInfo(r.Context(), twofactor.RequestInfo{
			IP:        h.ips.IP(r),
			UserAgent: r.UserAgent(),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type emptyRequest struct{}

type codeRequest struct {
	Code string `json:"code"`
}

type setupResponse struct {
	Secret      string   `json:"secret"`
	URI         string   `json:"uri"`
	BackupCodes []string `json:"backup_codes"`
	QRCode      string   `json:"qr_code,omitempty"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type verifyResponse struct {
	Success              bool `json:"success"`
	Verified             bool `json:"verified"`
	RemainingBackupCodes *int `json:"remaining_backup_codes,omitempty"`
}

type statusResponse struct {
	Enabled              bool       `json:"enabled"`
	Pending              bool       `json:"pending"`
	VerifiedAt           *time.Time `json:"verified_at,omitempty"`
	LastUsedAt           *time.Time `json:"last_used_at,omitempty"`
	BackupCodesRemaining int        `json:"backup_codes_remaining"`
}

type backupCodesResponse struct {
	Success     bool     `json:"success"`
	BackupCodes []string `json:"backup_codes"`
}

func (h *Handler) setup(ctx handler.Context, _ emptyRequest) handler.Response {
	id, err := h.identity.Resolve(ctx.Request())
	if err != nil {
		return handler.Error(err)
	}

	res, err := h.svc.Setup(ctx, id)
	if err != nil {
		return handler.Error(err)
	}

	body := setupResponse{Secret: res.Secret, URI: res.URI, BackupCodes: res.BackupCodes}
	if h.qrSize > 0 {
		uri, err := qrcode.DataURI(res.URI, h.qrSize)
		if err != nil {
			h.log.WarnContext(ctx, "qr code generation failed", logger.Error(err), logger.UserID(id.UserID))
		} else {
			body.QRCode = uri
		}
	}
	return handler.JSON(body)
}

func (h *Handler) status(ctx handler.Context, _ emptyRequest) handler.Response {
	id, err := h.identity.Resolve(ctx.Request())
	if err != nil {
		return handler.Error(err)
	}

	res, err := h.svc.Status(ctx, id)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(statusResponse{
		Enabled:              res.Enabled,
		Pending:              res.Pending,
		VerifiedAt:           res.VerifiedAt,
		LastUsedAt:           res.LastUsedAt,
		BackupCodesRemaining: res.BackupCodesRemaining,
	})
}

func (h *Handler) verifySetup(ctx handler.Context, req codeRequest) handler.Response {
	id, err := h.identity.Resolve(ctx.Request())
	if err != nil {
		return handler.Error(err)
	}

	res, err := h.svc.VerifySetup(ctx, id, req.Code)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(successResponse{Success: res.Success})
}

func (h *Handler) verify(ctx handler.Context, req codeRequest) handler.Response {
	id, err := h.identity.Resolve(ctx.Request())
	if err != nil {
		return handler.Error(err)
	}

	res, err := h.svc.Verify(ctx, id, req.Code)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(verifyResponse{
		Success:              res.Success,
		Verified:             res.Verified,
		RemainingBackupCodes: res.RemainingBackupCodes,
	})
}

func (h *Handler) disable(ctx handler.Context, req codeRequest) handler.Response {
	id, err := h.identity.Resolve(ctx.Request())
	if err != nil {
		return handler.Error(err)
	}

	res, err := h.svc.Disable(ctx, id, req.Code)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(successResponse{Success: res.Success})
}

func (h *Handler) regenerateBackup(ctx handler.Context, req codeRequest) handler.Response {
	id, err := h.identity.Resolve(ctx.Request())
	if err != nil {
		return handler.Error(err)
	}

	res, err := h.svc.RegenerateBackup(ctx, id, req.Code)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(backupCodesResponse{Success: res.Success, BackupCodes: res.BackupCodes})
}
