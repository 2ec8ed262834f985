package bedrock

import (
	"errors"

	"github.com/aws/smithy-go"
)

var (
	// ErrNoCredentials is returned when neither the access key id nor the
	// secret access key is available.
	ErrNoCredentials = errors.New("no credentials available")
	// ErrPartialCredentials is returned when only one half of the key pair
	// is available.
	ErrPartialCredentials = errors.New("partial credentials available")
	// ErrMalformedCredentials is returned by NewClient for values the SDK
	// would only reject later, at signing time.
	ErrMalformedCredentials = errors.New("malformed credentials")
	// ErrMissingRegion is returned by NewClient when no region is set.
	ErrMissingRegion = errors.New("region is required")
	// ErrNoText is returned when a model response carries no content block.
	ErrNoText = errors.New("no text content in model response")
)

// UpstreamError marks a failure of the inference call itself. Its message is
// the message of the wrapped error, so callers can surface provider details
// unchanged.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string { return e.Err.Error() }

func (e *UpstreamError) Unwrap() error { return e.Err }

// IsCredentialsError reports whether err was caused by missing or partial
// credentials.
func IsCredentialsError(err error) bool {
	return errors.Is(err, ErrNoCredentials) || errors.Is(err, ErrPartialCredentials)
}

// ErrorCode returns the provider error code carried by err
// (e.g. "ThrottlingException"), or "" when err is not an API error.
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
