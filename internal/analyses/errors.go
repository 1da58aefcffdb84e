package analyses

import "errors"

var (
	ErrNotFound = errors.New("not found")
)

const (
	ErrorCodeExtraction    = "EXTRACTION_ERROR"
	ErrorCodeConfiguration = "CONFIGURATION_ERROR"
	ErrorCodeValidation    = "VALIDATION_ERROR"
	ErrorCodeStorage       = "STORAGE_ERROR"
	ErrorCodeInternal      = "INTERNAL_ERROR"
)
