// Package redact scrubs sensitive field values out of key=value formatted
// text. It implements the minimal-span substitution "field=<value><sep>" ->
// "field=<token><sep>" without a regular expression engine: for each field it
// locates every occurrence of "field=" and replaces the shortest run of
// characters up to the next separator.
package redact

import "strings"

// Filter returns message with the value of every listed field obfuscated.
// For each field, every non-overlapping occurrence of
// "field=<value><separator>" becomes "field=<redaction><separator>", where
// <value> is the shortest run of characters before the next separator.
// Matching scans left to right and never crosses a separator boundary; text
// outside matched spans is untouched.
//
// A value that is not followed by the separator (the last field on a line
// with no trailing separator) is left as-is. An empty field list or an empty
// separator returns message unchanged; an empty separator is a configuration
// error and is rejected by config validation before it reaches this point.
func Filter(fields []string, redaction, message, separator string) string {
	if separator == "" {
		return message
	}
	for _, field := range fields {
		message = filterField(field, redaction, message, separator, false)
	}
	return message
}

// filterField rewrites every "field=<value><separator>" span in message.
// When terminateAtEnd is set, end-of-input also counts as a terminator and
// the rewritten span keeps no trailing separator.
func filterField(field, redaction, message, separator string, terminateAtEnd bool) string {
	prefix := field + "="
	var b strings.Builder
	rest := message

	for {
		i := strings.Index(rest, prefix)
		if i < 0 {
			b.WriteString(rest)
			return b.String()
		}

		valueStart := i + len(prefix)
		end := strings.Index(rest[valueStart:], separator)
		if end < 0 {
			if !terminateAtEnd {
				// No terminating separator; leave the value alone.
				b.WriteString(rest)
				return b.String()
			}
			b.WriteString(rest[:valueStart])
			b.WriteString(redaction)
			return b.String()
		}

		b.WriteString(rest[:valueStart])
		b.WriteString(redaction)
		b.WriteString(separator)
		rest = rest[valueStart+end+len(separator):]
	}
}

// Redactor applies a fixed redaction policy to rendered log lines. The field
// set is copied at construction and never mutated, so a Redactor is safe to
// share across goroutines.
type Redactor struct {
	fields         []string
	redaction      string
	separator      string
	terminateAtEnd bool
}

// New returns a Redactor that replaces the values of the given fields with
// redaction, using separator as the value terminator.
func New(fields []string, redaction, separator string) Redactor {
	return Redactor{
		fields:    append([]string(nil), fields...),
		redaction: redaction,
		separator: separator,
	}
}

// TerminateAtEnd returns a copy of r that also treats end-of-input as a value
// terminator, so a trailing "field=value" with no separator after it is
// redacted too. The default policy matches only values followed by the
// separator.
func (r Redactor) TerminateAtEnd() Redactor {
	r.terminateAtEnd = true
	return r
}

// Apply returns line with all sensitive field values obfuscated.
func (r Redactor) Apply(line string) string {
	if r.separator == "" {
		return line
	}
	for _, field := range r.fields {
		line = filterField(field, r.redaction, line, r.separator, r.terminateAtEnd)
	}
	return line
}

// Fields returns a copy of the redacted field names.
func (r Redactor) Fields() []string {
	return append([]string(nil), r.fields...)
}
