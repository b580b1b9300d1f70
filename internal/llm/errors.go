package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrGeneration matches a *GenerationError: the model kept producing
	// output that did not satisfy the schema.
	ErrGeneration = errors.New("generation failed")
	// ErrProvider matches a *ProviderError: the call to the model failed.
	ErrProvider = errors.New("provider failed")

	ErrUnsupportedProvider = errors.New("unsupported llm provider")
	ErrInvalidMessages     = errors.New("invalid messages")
)

type GenerationError struct {
	Schema   string
	Attempts int
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: no valid %s after %d attempt(s): %v", ErrGeneration, e.Schema, e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func (e *GenerationError) Is(target error) bool { return target == ErrGeneration }

type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrProvider, e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool { return target == ErrProvider }

// ParseError reports model output that was not a decodable JSON object.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("response is not a valid JSON object: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
