package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/twofactor/pkg/audit"
	"github.com/dmitrymomot/twofactor/pkg/config"
	"github.com/dmitrymomot/twofactor/pkg/httpserver"
	"github.com/dmitrymomot/twofactor/pkg/logger"
	"github.com/dmitrymomot/twofactor/pkg/mongo"
	"github.com/dmitrymomot/twofactor/pkg/opensearch"
	"github.com/dmitrymomot/twofactor/pkg/pg"
	"github.com/dmitrymomot/twofactor/pkg/ratelimit"
	"github.com/dmitrymomot/twofactor/pkg/redis"
	"github.com/dmitrymomot/twofactor/pkg/requestid"
	"github.com/dmitrymomot/twofactor/svc/twofactor"
	"github.com/dmitrymomot/twofactor/svc/twofactor/mongostore"
	"github.com/dmitrymomot/twofactor/svc/twofactor/pgstore"
)

// deps collects what the selected drivers opened: health checks for
// /healthz and closers for shutdown, run in reverse order.
type deps struct {
	log     *slog.Logger
	checks  []httpserver.Check
	closers []func(context.Context) error
}

func (d *deps) onClose(fn func(context.Context) error) {
	d.closers = append(d.closers, fn)
}

func (d *deps) close(ctx context.Context) {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](ctx); err != nil {
			d.log.ErrorContext(ctx, "shutdown step failed", logger.Error(err))
		}
	}
}

type store interface {
	twofactor.Store
	twofactor.AttemptPruner
}

func (d *deps) store(ctx context.Context, driver string) (store, error) {
	log := d.log.With(logger.Driver(driver))

	switch driver {
	case driverPostgres:
		var cfg pg.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		pool, err := pg.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		d.onClose(func(context.Context) error { pool.Close(); return nil })
		d.checks = append(d.checks, httpserver.Check{Name: "postgres", Probe: pg.Healthcheck(pool)})

		if err := pg.MigrateFS(ctx, pool, pgstore.Migrations, pgstore.MigrationsDir, cfg, log); err != nil {
			return nil, err
		}
		log.InfoContext(ctx, "credential store ready")
		return pgstore.New(pool), nil

	case driverMongo:
		var cfg mongo.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		db, err := mongo.NewWithDatabase(ctx, cfg)
		if err != nil {
			return nil, err
		}
		d.onClose(func(ctx context.Context) error { return db.Client().Disconnect(ctx) })
		d.checks = append(d.checks, httpserver.Check{Name: "mongo", Probe: mongo.Healthcheck(db.Client())})

		s := mongostore.New(db)
		if err := s.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		log.InfoContext(ctx, "credential store ready")
		return s, nil

	default:
		log.WarnContext(ctx, "credentials are kept in memory and lost on restart")
		return twofactor.NewMemoryStore(), nil
	}
}

func (d *deps) throttle(ctx context.Context, driver string, cfg twofactor.Config) (*twofactor.RateLimitThrottle, error) {
	var limits ratelimit.SlidingWindowStore

	switch driver {
	case driverRedis:
		var rcfg redis.Config
		if err := config.Load(&rcfg); err != nil {
			return nil, err
		}
		client, err := redis.Connect(ctx, rcfg)
		if err != nil {
			return nil, err
		}
		d.onClose(func(context.Context) error { return client.Close() })
		d.checks = append(d.checks, httpserver.Check{Name: "redis", Probe: redis.Healthcheck(client)})
		limits = ratelimit.NewRedisStore(client, rcfg.KeyPrefix)

	default:
		mem := ratelimit.NewMemoryStore()
		d.onClose(func(context.Context) error { return mem.Close() })
		limits = mem
	}

	return twofactor.NewThrottle(limits, cfg)
}

func (d *deps) auditLogger(ctx context.Context, driver string) (*audit.Logger, error) {
	var sink audit.Storage

	switch driver {
	case driverOpenSearch:
		var cfg opensearch.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		client, err := opensearch.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		d.checks = append(d.checks, httpserver.Check{Name: "opensearch", Probe: opensearch.Healthcheck(client)})

		writer := audit.NewAsyncWriter(audit.NewOpenSearchStorage(client, cfg.Index), audit.AsyncOptions{
			BufferSize:     1024,
			BatchSize:      100,
			BatchTimeout:   time.Second,
			StorageTimeout: 5 * time.Second,
		})
		d.onClose(writer.Close)
		sink = writer

	case driverMemory:
		sink = audit.NewMemoryStorage()

	default:
		sink = audit.NewSlogStorage(d.log.With(logger.Component("audit")))
	}

	return audit.NewLogger(sink,
		audit.WithRequestIDExtractor(requestid.FromContext),
		audit.WithMetadataFilter(audit.NewMetadataFilter(nil)),
	), nil
}
