package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound       = errors.New("recurso no encontrado")
	ErrInvalidInput   = errors.New("entrada inválida")
	ErrUnauthorized   = errors.New("no autorizado")
	ErrForbidden      = errors.New("acceso denegado")
	ErrUnknownFormula = errors.New("fórmula de consumo desconocida")
)

// StorageError envuelve cualquier fallo de lectura/escritura del backend relacional.
// Conserva el mensaje crudo del backend para que el llamador pueda mostrarlo.
type StorageError struct {
	Op  string
	Err error
}

// NewStorageError construye un *StorageError; devuelve nil si err es nil.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// BackendMessage devuelve el mensaje original del backend.
func (e *StorageError) BackendMessage() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}
