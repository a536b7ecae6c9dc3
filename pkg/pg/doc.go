// Package pg connects to PostgreSQL through pgx/v5 and applies goose
// migrations shipped inside the binary.
//
// # Usage
//
//	cfg, err := config.Load[pg.Config]()
//	if err != nil {
//		return err
//	}
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.MigrateFS(ctx, pool, pgstore.Migrations, pgstore.MigrationsDir, cfg, log); err != nil {
//		return err
//	}
//
// Connect retries with Fibonacci backoff starting at Config.RetryInterval.
// MigrateFS serialises access to goose's global settings, so it is safe to
// call from parallel tests.
//
// # Error Handling
//
// IsNotFoundError and IsDuplicateKeyError classify pgx errors so store code
// can translate them into its own sentinels.
package pg
