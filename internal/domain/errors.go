package domain

import "errors"

var (
	ErrKeywordNotFound = errors.New("keyword not found")
	ErrVersionConflict = errors.New("keyword version conflict")
)
