package domain

// Severity ranks a warning.
type Severity string

const (
	// SeverityError marks a problem that makes part of the analysis unreliable.
	SeverityError Severity = "error"
	// SeverityWarning marks a likely problem.
	SeverityWarning Severity = "warning"
	// SeverityInfo marks an informational note.
	SeverityInfo Severity = "info"
)

// Warning codes attached by the analysis engine.
const (
	WarningCouldNotLoad    = "could-not-load"
	WarningCouldNotResolve = "could-not-resolve"
	WarningParseError      = "parse-error"
	WarningScriptError     = "script-error"
)

// Warning is a non-fatal problem found while analyzing a document.
type Warning struct {
	Code     string       `json:"code"`
	Message  string       `json:"message"`
	Severity Severity     `json:"severity"`
	Range    *SourceRange `json:"range,omitempty"`
}

// String renders the warning on one line.
func (w Warning) String() string {
	prefix := ""
	if w.Range != nil {
		prefix = w.Range.String() + ": "
	}
	return prefix + string(w.Severity) + " [" + w.Code + "] " + w.Message
}
