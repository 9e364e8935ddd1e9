package constants

// Context keys for storing and retrieving values from contexts.
const (
	// ContextKeyRunID is the context key for storing export run IDs.
	// Used in: logging/logger.go
	// Purpose: Correlating every log line of a single export run
	ContextKeyRunID = "run_id"
)
