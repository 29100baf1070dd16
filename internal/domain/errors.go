package domain

import "errors"

// Error kinds surfaced by the forecasting pipeline. Callers classify with errors.Is.
var (
	// ErrArtifactMissing means the model or scaler file is absent, unreadable or corrupt.
	ErrArtifactMissing = errors.New("forecast artifact missing")
	// ErrNotFound means the product does not exist or is inactive.
	ErrNotFound = errors.New("not found")
	// ErrValidation means the request is outside the accepted contract.
	ErrValidation = errors.New("validation failed")
	// ErrInference means the forward pass failed unexpectedly.
	ErrInference = errors.New("inference failed")
	// ErrServiceUnavailable means forecasting cannot run until artifacts are provided.
	ErrServiceUnavailable = errors.New("forecasting unavailable")
	// ErrInternal covers every other pipeline failure.
	ErrInternal = errors.New("internal error")
)
