package auth

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

type LoginChecker struct {
	ttl         time.Duration
	redisClient *redis.Client
	now         func() time.Time
}

func NewLoginChecker(ttl time.Duration, redisClient *redis.Client) *LoginChecker {
	return &LoginChecker{
		ttl:         ttl,
		redisClient: redisClient,
		now:         time.Now,
	}
}

// IsLogged reports the user behind token, if the session exists and is not older than the TTL.
func (lc *LoginChecker) IsLogged(ctx context.Context, token string) (int, bool, error) {
	val, err := lc.redisClient.Get(ctx, sessionKeyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, err
	}

	sess, err := decodeSession(val)
	if err != nil {
		return 0, false, err
	}

	if sess.expired(lc.now(), lc.ttl) {
		return 0, false, nil
	}

	return sess.userID, true, nil
}
