package telemetry

// Config controls OTLP trace export for a jfsck run. A checker scan or
// a single jio commit is usually too short-lived to need a sampled
// trace, so Enabled defaults to false; it exists for operators
// reproducing an intermittent recovery problem who want the span tree
// for one run without instrumenting their own code.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string

	// Endpoint is the OTLP/gRPC collector address, e.g. "localhost:4317".
	Endpoint string

	// Insecure skips TLS when dialing Endpoint.
	Insecure bool

	// SampleRate is the fraction of checker runs and commits traced,
	// from 0.0 (none) to 1.0 (all).
	SampleRate float64
}

// DefaultConfig returns telemetry disabled, so jfsck never dials an
// OTLP collector unless one was configured.
func DefaultConfig() Config {
	return Config{
		Enabled:        false,
		ServiceName:    "jfsck",
		ServiceVersion: "dev",
		Endpoint:       "localhost:4317",
		Insecure:       true,
		SampleRate:     1.0,
	}
}
