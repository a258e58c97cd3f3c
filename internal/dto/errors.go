package dto

import (
	"errors"
)

// Сентинели слоя хранилища: репозитории транслируют в них ошибки pgx
// (ErrNoRows, нарушение уникальности), выше по стеку они мапятся на
// HTTP-статусы и ошибки домена.
var (
	ErrNotFound      = errors.New("errRecordNotFound")
	ErrAlreadyExists = errors.New("errAlreadyExists")
)
