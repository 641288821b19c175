package consumption

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jhoicas/vivero-api/internal/domain"
)

// validIDs verifica que todos los ids sean UUID válidos (no vacíos).
func validIDs(ids ...string) bool {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}
	return true
}

// liftError deja pasar errores de dominio y convierte el resto en *domain.StorageError.
func liftError(op string, err error) error {
	var se *domain.StorageError
	if errors.As(err, &se) ||
		errors.Is(err, domain.ErrInvalidInput) ||
		errors.Is(err, domain.ErrUnknownFormula) {
		return err
	}
	return domain.NewStorageError(op, err)
}
