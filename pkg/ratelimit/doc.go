// Package ratelimit provides a sliding window rate limiter with pluggable
// storage.
//
// SlidingWindow records the timestamp of every allowed request and allows a
// new one only while fewer than limit timestamps fall inside the trailing
// window. Denied requests are not recorded, so a caller that keeps retrying
// is unblocked as soon as its oldest allowed request ages out.
//
// Two stores are provided:
//
//   - MemoryStore keeps timestamps in process memory and removes idle keys on
//     a background ticker. Call Close to stop it.
//   - RedisStore keeps one sorted set per key and evaluates every check in a
//     single Lua script, so limits hold across processes.
//
// # Usage
//
//	store := ratelimit.NewMemoryStore()
//	defer store.Close()
//
//	limiter, _ := ratelimit.NewSlidingWindow(store, 5, time.Minute)
//	res, err := limiter.Allow(ctx, ratelimit.Key("login", userID))
//	if err != nil {
//	    // handle error
//	}
//	if !res.Allowed {
//	    w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())))
//	}
package ratelimit
