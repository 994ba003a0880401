package errors

// Error codes for standardized error responses
const (
	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeMissingField     = "missing_field"

	// Flow errors
	ErrCodeInvalidPhase   = "invalid_phase"
	ErrCodeAnswerRequired = "answer_required"
	ErrCodeTextTooShort   = "text_too_short"
	ErrCodeBusy           = "busy"
	ErrCodeEmptyBank      = "empty_bank"

	// Resource errors
	ErrCodeNotFound     = "not_found"
	ErrCodeBankNotFound = "bank_not_found"

	// Collaborator errors
	ErrCodeExtractionFailed = "extraction_failed"
	ErrCodeGenerationFailed = "generation_failed"

	// Server errors
	ErrCodeInternalError = "internal_error"
	ErrCodeUpstreamError = "upstream_error"
)
