// Package mongo opens MongoDB clients with retry and exposes a health check.
//
//	cfg, err := config.Load[mongo.Config]()
//	if err != nil {
//		return err
//	}
//	db, err := mongo.NewWithDatabase(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer db.Client().Disconnect(context.Background())
//
// Connection failures are reported as ErrFailedToConnectToMongo joined with
// the last driver error.
package mongo
