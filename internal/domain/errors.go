package domain

import "strings"

// ValidationError reports a rejected write payload: forbidden fields, an
// invalid enum value, or an update with nothing left to apply. It maps to a
// 400 response.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string { return e.Message }

func errImmutable(fields []string) *ValidationError {
	return &ValidationError{
		Message: "No se pueden modificar: " + strings.Join(fields, ", "),
		Fields:  fields,
	}
}

func errInvalidStatus() *ValidationError {
	return &ValidationError{
		Message: "status inválido. Permitidos: " + strings.Join(AllowedStatuses, ", "),
		Fields:  []string{"status"},
	}
}

// ErrNoUpdatableFields rejects an update whose payload, after filtering to
// the mutable set, has nothing to apply.
var ErrNoUpdatableFields = &ValidationError{Message: "sin campos válidos para actualizar"}
