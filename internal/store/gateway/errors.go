package gateway

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidConfig = errors.New("gateway: invalid pool configuration")
	ErrProbeFailed   = errors.New("gateway: initial database probe failed")
	ErrPoolClosed    = errors.New("gateway: connection pool closed")
	ErrLeaseReleased = errors.New("gateway: connection used after release")
	ErrDrainTimeout  = errors.New("gateway: timed out draining leased connections")
)

// Phase indica en qué punto de la operación se excedió un límite de tiempo.
type Phase string

const (
	PhaseAcquire   Phase = "acquire"
	PhaseStatement Phase = "statement"
)

// TimeoutError se devuelve cuando la adquisición de una conexión o la ejecución
// de un statement superan su límite. Es distinto de un error de ejecución, pero
// ambos consumen el mismo presupuesto de reintentos.
type TimeoutError struct {
	Phase Phase
	Limit time.Duration
	Err   error
}

func (e *TimeoutError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway: %s timeout after %s: %v", e.Phase, e.Limit, e.Err)
	}
	return fmt.Sprintf("gateway: %s timeout after %s", e.Phase, e.Limit)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// IsTimeout reporta si err es un *TimeoutError de la fase indicada ("" = cualquiera).
func IsTimeout(err error, phase Phase) bool {
	var te *TimeoutError
	if !errors.As(err, &te) {
		return false
	}
	return phase == "" || te.Phase == phase
}
