package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error
// (HTTP 429 with code insufficient_quota).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// QuotaExceededMessage is the user-facing text shown when the provider
// reports an exhausted quota. Other provider errors surface their own message.
const QuotaExceededMessage = "The API quota has been exceeded. Please check your API plan and billing details, or try again later."

// ProviderError carries a non-quota provider error message so the HTTP
// boundary can surface the provider's own text verbatim.
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string { return e.Message }
