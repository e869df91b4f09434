package domain

import "time"

// Telemetry span names recorded by the analysis context.
const (
	MeasureParse   = "parse"
	MeasureScan    = "scan"
	MeasureAnalyze = "analyze"

	// URLAttribute is the span attribute carrying the measured document URL.
	URLAttribute = "sieve.url"
)

// Measurement is the timing of one analysis phase for one document.
type Measurement struct {
	Kind       string        `json:"kind"`
	Identifier string        `json:"identifier"`
	Elapsed    time.Duration `json:"elapsed"`
}

// ElapsedMs returns the elapsed time in fractional milliseconds.
func (m Measurement) ElapsedMs() float64 {
	return float64(m.Elapsed) / float64(time.Millisecond)
}

// LogLevel represents the severity of a log message, mirroring the standard slog levels.
type LogLevel int

const (
	// LogLevelDebug represents debug-level verbosity.
	LogLevelDebug LogLevel = -4
	// LogLevelInfo represents informational verbosity.
	LogLevelInfo LogLevel = 0
	// LogLevelWarn represents warning verbosity.
	LogLevelWarn LogLevel = 4
	// LogLevelError represents error verbosity.
	LogLevelError LogLevel = 8
)

// ParseLogLevel maps a configuration string to a LogLevel. Unknown values map to info.
func ParseLogLevel(s string) LogLevel {
	switch s {
	case "debug":
		return LogLevelDebug
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}
