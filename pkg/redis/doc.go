// Package redis connects the optional Redis deployment that mirrors usage counters.
//
// Connect parses REDIS_URL, pings with retries and returns a *redis.Client from
// github.com/redis/go-redis/v9. An empty URL means Redis is disabled and callers
// should run without the counter mirror.
package redis
