package repository

import "errors"

var (
	// ErrNotFound запись не найдена
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate дубликат записи (нарушение уникальности)
	ErrDuplicate = errors.New("duplicate record")

	// ErrInvalidData неверные данные
	ErrInvalidData = errors.New("invalid data")

	// ErrConcurrency конфликт конкурентной записи; вызывающий должен
	// перечитать состояние и повторить операцию один раз
	ErrConcurrency = errors.New("concurrent modification conflict")
)
