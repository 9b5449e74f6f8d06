package repository

import "errors"

var (
	// ErrNotFound indica que el recurso solicitado no existe.
	ErrNotFound = errors.New("not found")

	// ErrConflict indica una clave natural duplicada.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indica datos que el store no puede persistir.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnavailable indica que el almacenamiento no responde.
	ErrUnavailable = errors.New("store unavailable")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }
