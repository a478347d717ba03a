package redis

import (
	"context"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"
)

// logAdapter routes go-redis internal messages through the structured logger
// so connection warnings land in the same stream as service logs.
type logAdapter struct{}

func (logAdapter) Printf(ctx context.Context, format string, v ...interface{}) {
	logger.Global().WithCtx(ctx).Infof(format, v...)
}

func init() {
	goredis.SetLogger(logAdapter{})
}
