package logger

import (
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// CAMPOS - HTTP
// =================================================================================

func RequestID(v string) zap.Field { return zap.String("request_id", v) }

func Method(v string) zap.Field { return zap.String("method", v) }

func Path(v string) zap.Field { return zap.String("path", v) }

func Status(v int) zap.Field { return zap.Int("status", v) }

func DurationMs(v int64) zap.Field { return zap.Int64("duration_ms", v) }

func Bytes(v int) zap.Field { return zap.Int("bytes", v) }

// Code es el código máquina de un rechazo (NO_TOKEN, INVALID_TOKEN, ...).
func Code(v string) zap.Field { return zap.String("code", v) }

// =================================================================================
// CAMPOS - IDENTIDAD
// =================================================================================

func UserID(v string) zap.Field { return zap.String("user_id", v) }

func Role(v string) zap.Field { return zap.String("role", v) }

// =================================================================================
// CAMPOS - BASE DE DATOS
// =================================================================================

// Event es el tipo de evento del pool (connect, error, remove).
func Event(v string) zap.Field { return zap.String("event", v) }

func Attempt(v int) zap.Field { return zap.Int("attempt", v) }

func Delay(v time.Duration) zap.Field { return zap.Duration("delay", v) }

func Table(v string) zap.Field { return zap.String("table", v) }

func File(v string) zap.Field { return zap.String("file", v) }

// =================================================================================
// CAMPOS - GENÉRICOS
// =================================================================================

func Component(v string) zap.Field { return zap.String("component", v) }

func Op(v string) zap.Field { return zap.String("op", v) }

func Err(err error) zap.Field { return zap.Error(err) }

func Count(v int) zap.Field { return zap.Int("count", v) }

func Any(key string, v any) zap.Field { return zap.Any(key, v) }

func String(key, v string) zap.Field { return zap.String(key, v) }

func Int(key string, v int) zap.Field { return zap.Int(key, v) }
