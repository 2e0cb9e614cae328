package gateway

import (
	"context"
	"errors"
	"time"
)

// SleepFunc pausa durante d o hasta que ctx termine.
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryPolicy reintenta una operación con delay lineal: antes del reintento
// que sigue al intento n espera n × BaseInterval.
type RetryPolicy struct {
	MaxAttempts  int
	BaseInterval time.Duration

	// Sleep por defecto usa un timer y respeta ctx.
	Sleep SleepFunc
	// Retryable por defecto reintenta todo salvo pool cerrado o lease liberado.
	Retryable func(error) bool
	// OnRetry se llama antes de cada pausa.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// Delay retorna la pausa previa al reintento que sigue al intento attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	return time.Duration(attempt) * p.BaseInterval
}

// Do ejecuta fn hasta que tenga éxito o se agoten los intentos. El error
// devuelto es el del último intento, sin envolver.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	attempts := max(p.MaxAttempts, 1)
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = defaultRetryable
	}

	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(ctx, attempt); err == nil {
			return nil
		}
		if attempt >= attempts || ctx.Err() != nil || !retryable(err) {
			return err
		}
		delay := p.Delay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}
		if sleep(ctx, delay) != nil {
			return err
		}
	}
}

func defaultRetryable(err error) bool {
	return !errors.Is(err, ErrPoolClosed) && !errors.Is(err, ErrLeaseReleased)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
