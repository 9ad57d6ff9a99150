package pipeline

import "time"

// Default values for the extraction call.
// These can be overridden via configuration.
const (
	// DefaultModelName is the default Gemini model used for extraction.
	DefaultModelName = "gemini-2.5-flash"

	// DefaultMaxAttempts is the total number of attempts (first call plus two retries).
	DefaultMaxAttempts = 3

	// DefaultBackoffUnit is the linear backoff time-unit: one unit before the
	// second attempt, two before the third.
	DefaultBackoffUnit = time.Second

	// responseMIMEType is the declared output type of every extraction call.
	responseMIMEType = "application/json"
)
