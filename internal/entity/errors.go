package entity

import "errors"

// Domain errors
var (
	// Plan errors
	ErrPlanNotFound = errors.New("treatment plan not found")

	// Knowledge store errors
	ErrCollectionNotFound = errors.New("knowledge collection not found")
	ErrStoreUnavailable   = errors.New("knowledge store unavailable")

	// Model errors
	ErrLLMUnavailable = errors.New("language model unavailable")
	ErrEmptyPrompt    = errors.New("empty prompt")
	ErrEmbedding      = errors.New("embedding failed")

	// Validation errors
	ErrMissingField      = errors.New("required field is missing")
	ErrInvalidFormat     = errors.New("invalid format")
	ErrInvalidParameter  = errors.New("invalid parameter")
	ErrUnsupportedFormat = errors.New("unsupported export format")
)
