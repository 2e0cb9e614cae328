package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError es la forma estándar de los errores que llegan al cliente HTTP.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // causa original, solo para logs
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// Is compara por código, así errors.Is(err, ErrNoToken) funciona con copias.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

func New(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

func Wrap(err error, status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// FromError convierte cualquier error en AppError. Lo que no es AppError
// termina como error interno conservando la causa.
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServerError.WithCause(err)
}

// WithDetail devuelve una copia; los errores predefinidos no se mutan.
func (e *AppError) WithDetail(detail string) *AppError {
	c := *e
	c.Detail = detail
	return &c
}

// WithCause devuelve una copia con la causa original.
func (e *AppError) WithCause(err error) *AppError {
	c := *e
	c.Err = err
	return &c
}

// ---------------------------------------------------------------------------
// Rechazos del control de acceso
// ---------------------------------------------------------------------------

var (
	ErrNoToken = &AppError{
		Code:       "NO_TOKEN",
		Message:    "No se proporcionó un token de acceso.",
		HTTPStatus: http.StatusUnauthorized,
	}

	// Token mal firmado, malformado o expirado: mismo código en todos los casos.
	ErrInvalidToken = &AppError{
		Code:       "INVALID_TOKEN",
		Message:    "Token inválido o expirado.",
		HTTPStatus: http.StatusForbidden,
	}

	ErrNotAuthenticated = &AppError{
		Code:       "NOT_AUTHENTICATED",
		Message:    "Usuario no autenticado.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrInsufficientPermissions = &AppError{
		Code:       "INSUFFICIENT_PERMISSIONS",
		Message:    "No tenés permisos para acceder a este recurso.",
		HTTPStatus: http.StatusForbidden,
	}
)

// ---------------------------------------------------------------------------
// Generales
// ---------------------------------------------------------------------------

var (
	ErrInvalidParameter = &AppError{
		Code:       "INVALID_PARAMETER",
		Message:    "Uno de los parámetros de la URL es inválido.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "El recurso solicitado no existe.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrInternalServerError = &AppError{
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    "Ocurrió un error inesperado en el servidor.",
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrServiceUnavailable = &AppError{
		Code:       "SERVICE_UNAVAILABLE",
		Message:    "El servicio no está disponible temporalmente.",
		HTTPStatus: http.StatusServiceUnavailable,
	}

	ErrDatabaseTimeout = &AppError{
		Code:       "DATABASE_TIMEOUT",
		Message:    "La base de datos no respondió a tiempo.",
		HTTPStatus: http.StatusGatewayTimeout,
	}
)
