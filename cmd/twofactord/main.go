// Command twofactord serves the two-factor API over HTTP.
//
// It expects an authenticating gateway in front that sets X-User-ID and
// X-User-Email. Drivers are picked with STORE_DRIVER, THROTTLE_DRIVER and
// AUDIT_DRIVER; each driver reads its own connection settings.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/twofactor/pkg/clientip"
	"github.com/dmitrymomot/twofactor/pkg/config"
	"github.com/dmitrymomot/twofactor/pkg/httpserver"
	"github.com/dmitrymomot/twofactor/pkg/logger"
	"github.com/dmitrymomot/twofactor/pkg/requestid"
	"github.com/dmitrymomot/twofactor/pkg/secrets"
	"github.com/dmitrymomot/twofactor/svc/twofactor"
	"github.com/dmitrymomot/twofactor/svc/twofactor/httpapi"
)

const serviceName = "twofactord"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var app appConfig
	config.MustLoad(&app)

	log := logger.New(
		logger.WithEnvironment(app.Env, serviceName),
		logger.WithContextExtractors(requestid.LogExtractor),
	)
	logger.SetAsDefault(log)

	if err := run(ctx, app, log); err != nil {
		log.Error("service stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, app appConfig, log *slog.Logger) error {
	var (
		tfCfg  twofactor.Config
		keyCfg secrets.Config
		srvCfg httpserver.Config
	)
	if err := errors.Join(config.Load(&tfCfg), config.Load(&keyCfg), config.Load(&srvCfg)); err != nil {
		return err
	}

	keys, err := keyCfg.Provider()
	if err != nil {
		return err
	}

	d := &deps{log: log}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), srvCfg.ShutdownTimeout)
		defer cancel()
		d.close(closeCtx)
	}()

	store, err := d.store(ctx, app.StoreDriver)
	if err != nil {
		return err
	}
	throttle, err := d.throttle(ctx, app.ThrottleDriver, tfCfg)
	if err != nil {
		return err
	}
	auditLog, err := d.auditLogger(ctx, app.AuditDriver)
	if err != nil {
		return err
	}

	svc, err := twofactor.New(store, secrets.NewCipher(keys), throttle,
		twofactor.WithConfig(tfCfg),
		twofactor.WithAuditLogger(auditLog),
		twofactor.WithLogger(log),
	)
	if err != nil {
		return err
	}

	ips, err := clientIPResolver(app)
	if err != nil {
		return err
	}

	router := newRouter(app, log, svc, ips, d.checks)

	go twofactor.RunAttemptPruner(ctx, store, app.AttemptRetention, app.PruneInterval, log)

	log.InfoContext(ctx, "starting",
		slog.String("addr", srvCfg.Addr),
		slog.String("store", app.StoreDriver),
		slog.String("throttle", app.ThrottleDriver),
		slog.String("audit", app.AuditDriver),
	)

	return httpserver.NewFromConfig(srvCfg, httpserver.WithLogger(log)).Run(ctx, router)
}

func clientIPResolver(app appConfig) (*clientip.Resolver, error) {
	proxies, err := clientip.ParsePrefixes(app.TrustedProxies)
	if err != nil {
		return nil, err
	}
	if len(proxies) == 0 {
		return clientip.New(), nil
	}
	return clientip.New(
		clientip.WithTrustedProxies(proxies...),
		clientip.WithTrustedHeaders(app.TrustedHeaders...),
	), nil
}

func newRouter(app appConfig, log *slog.Logger, svc *twofactor.Service, ips *clientip.Resolver, checks []httpserver.Check) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)

	r.Get("/healthz", httpserver.HealthHandler(log, app.HealthTimeout, checks...))

	api := httpapi.NewHandler(svc, httpapi.NewHeaderIdentityResolver(),
		httpapi.WithQRCode(app.QRCodeSize),
		httpapi.WithClientIP(ips),
		httpapi.WithLogger(log),
	)
	r.Mount(app.RoutePrefix, api.Handle())

	return r
}
