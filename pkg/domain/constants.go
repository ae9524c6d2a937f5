package domain

// Defaults applied when a profile leaves a field unset.
const (
	// DefaultDialect is the encoder used by profiles without a dialect.
	DefaultDialect = "hpgl"

	// DefaultDevice names the device used when a request does not name one.
	DefaultDevice = "default"
)
