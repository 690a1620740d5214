package apperrors

import "errors"

var (
	ErrEmptyQuestion = errors.New("question is empty")
	ErrNoDatasource  = errors.New("reporting datasource not configured")
)
