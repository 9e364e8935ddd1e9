package constants

import "time"

// Timeout and duration constants used throughout the application.
const (
	// QueryTimeout is the maximum time allowed for the export query.
	// Used in: stream/stream.go
	// Purpose: Prevents a stuck row source from blocking the run indefinitely
	// Default: 30 seconds
	QueryTimeout = 30 * time.Second

	// ConnectTimeout is the maximum time allowed to establish and verify
	// the database connection.
	// Used in: cmd/veil/main.go
	// Default: 10 seconds
	ConnectTimeout = 10 * time.Second

	// SlowQueryThreshold is the duration threshold for logging slow queries.
	// Used in: logging/logger.go
	// Default: 500 milliseconds
	SlowQueryThreshold = 500 * time.Millisecond
)
