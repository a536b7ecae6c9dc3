// Package redis opens go-redis clients with retry and exposes a health
// check. The client backs the distributed attempt throttle
// (ratelimit.RedisStore) when several engine instances share limits.
//
//	cfg, err := config.Load[redis.Config]()
//	if err != nil {
//		return err
//	}
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	store := ratelimit.NewRedisStore(client, cfg.KeyPrefix)
package redis
