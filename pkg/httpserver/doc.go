// Package httpserver runs the daemon's HTTP listener with graceful shutdown
// and serves the dependency health endpoint.
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//
//	srv := httpserver.NewFromConfig(cfg.HTTP,
//		httpserver.WithLogger(log),
//		httpserver.WithStopHook(func(*slog.Logger) { pool.Close() }),
//	)
//	if err := srv.Run(ctx, router); err != nil {
//		return err
//	}
package httpserver
