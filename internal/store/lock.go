package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// unlockScript deletes the lock only while it still holds our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// GestureLock is a SET NX lock per gesture key, so two conduit processes
// cannot submit the same gesture at once.
type GestureLock struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewGestureLock(rdb *redis.Client, logger *zap.Logger) *GestureLock {
	return &GestureLock{rdb: rdb, logger: logger}
}

func lockKey(key string) string {
	return "gesture:" + key
}

// Acquire takes the lock for ttl. ok is false when another holder has it.
func (l *GestureLock) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, lockKey(key), token, ttl).Result()
	if err != nil || !ok {
		return nil, false, err
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := unlockScript.Run(ctx, l.rdb, []string{lockKey(key)}, token).Err(); err != nil {
			l.logger.Warn("failed to release gesture lock", zap.String("gesture", key), zap.Error(err))
		}
	}, true, nil
}
