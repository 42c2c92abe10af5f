package genai

import "errors"

// ErrUnconfigured is returned when no API key is configured; callers fall
// back to the deterministic template draft.
var ErrUnconfigured = errors.New("GENAI_UNCONFIGURED")

// ErrEmptyResponse is returned when the backend answered without any
// usable text.
var ErrEmptyResponse = errors.New("GENAI_EMPTY_TEXT")
