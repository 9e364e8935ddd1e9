package constants

// DefaultExportTable is the table streamed when no table is configured.
// The original pipeline exports the users table of the personal-data store.
const DefaultExportTable = "users"
