package gateway

import (
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/usuarios-admin/internal/observability/logger"
)

// EventKind identifica un evento del ciclo de vida del pool.
type EventKind string

const (
	// EventConnect: se estableció una conexión física nueva.
	EventConnect EventKind = "connect"
	// EventError: falló una conexión ociosa o el chequeo de fondo.
	EventError EventKind = "error"
	// EventRemove: una conexión salió del pool y se cerró.
	EventRemove EventKind = "remove"
)

type Event struct {
	Kind EventKind
	At   time.Time
	// PID del backend de postgres, 0 si no aplica.
	PID uint32
	Err error
}

// Observer recibe los eventos del pool. Se invoca de forma síncrona desde
// goroutines del pool: no debe bloquear.
type Observer interface {
	OnPoolEvent(Event)
}

// ObserverFunc adapta una función a Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnPoolEvent(ev Event) { f(ev) }

// LogObserver reenvía los eventos al logger.
func LogObserver(l *zap.Logger) Observer {
	if l == nil {
		l = logger.Named("gateway")
	}
	return ObserverFunc(func(ev Event) {
		fields := []zap.Field{logger.Event(string(ev.Kind))}
		if ev.PID != 0 {
			fields = append(fields, zap.Uint32("pid", ev.PID))
		}
		switch ev.Kind {
		case EventConnect:
			l.Debug("pg connection established", fields...)
		case EventError:
			l.Error("pg pool background error", append(fields, logger.Err(ev.Err))...)
		case EventRemove:
			l.Debug("pg connection removed", fields...)
		default:
			l.Warn("pg pool unknown event", fields...)
		}
	})
}
