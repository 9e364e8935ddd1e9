package constants

// PIIFields lists the field names whose values are always redacted from
// emitted log lines, regardless of what the caller configures.
// Used in: logging/logger.go when building the line redactor.
var PIIFields = []string{
	"name",
	"email",
	"phone",
	"ssn",
	"password",
}

const (
	// RedactionToken is the string substituted for a sensitive field value.
	// Used in: logging/logger.go, redact callers.
	RedactionToken = "XXX"

	// FieldSeparator is the delimiter that terminates a field=value segment
	// within a rendered log line. Values are only redacted when they are
	// followed by this separator.
	FieldSeparator = " "
)
