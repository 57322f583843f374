package retry

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	defaultAttempts = 2
	defaultDelay    = 1 * time.Second
	defaultMaxDelay = 4 * time.Second
)

type RetryConfig struct {
	Attempts uint          `env:"ATTEMPTS" envDefault:"2"`
	Delay    time.Duration `env:"DELAY" envDefault:"1s"`
	MaxDelay time.Duration `env:"MAX_DELAY" envDefault:"4s"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"0s"` // per attempt, 0 disables
}

// ToRetryOptions builds retry-go options bound to ctx. Every failed attempt is
// logged through the context logger under the given operation name.
func (rc *RetryConfig) ToRetryOptions(ctx context.Context, operation string, retryIf retry.RetryIfFunc) []retry.Option {
	attempts := rc.Attempts
	if attempts == 0 {
		attempts = defaultAttempts
	}

	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(rc.Delay),
		retry.MaxDelay(rc.MaxDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			ctxzap.Warn(ctx, "attempt failed",
				zap.String("operation", operation),
				zap.Uint("attempt", n+1),
				zap.Uint("max_attempts", attempts),
				zap.Error(err),
			)
		}),
	}

	if retryIf != nil {
		opts = append(opts, retry.RetryIf(retryIf))
	}

	return opts
}

// AttemptContext derives the context of a single attempt.
func (rc *RetryConfig) AttemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if rc.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, rc.Timeout)
}

func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		Attempts: defaultAttempts,
		Delay:    defaultDelay,
		MaxDelay: defaultMaxDelay,
	}
}
