package llm

import "errors"

var (
	ErrEmptyResponse   = errors.New("llm provider returned no choices")
	ErrProviderRefused = errors.New("llm provider returned an error response")
)
