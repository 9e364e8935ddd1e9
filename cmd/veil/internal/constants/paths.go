package constants

import "os"

// Default file and directory paths used by the application.
const (
	// DefaultConfigPath is the configuration file read when no -config
	// flag is given.
	DefaultConfigPath = "/etc/veil.conf"

	// DirPermissions is the mode for directories created at startup.
	DirPermissions os.FileMode = 0755

	// FilePermissions is the mode for log files created at startup.
	FilePermissions os.FileMode = 0644
)
