package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return configPath
}

func TestLoad_Defaults(t *testing.T) {
	configPath := writeConfig(t, "")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Database.Connection != "sqlite" {
		t.Errorf("Expected default connection sqlite, got %s", cfg.Database.Connection)
	}
	if cfg.Database.Database != Defaults.Database.Database {
		t.Errorf("Expected default database path, got %s", cfg.Database.Database)
	}
	if cfg.Logging.Format != "simple" {
		t.Errorf("Expected default format simple, got %s", cfg.Logging.Format)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Expected default level info, got %s", cfg.Logging.Level)
	}
	if cfg.Export.Table != "users" {
		t.Errorf("Expected default table users, got %s", cfg.Export.Table)
	}
	if cfg.Logging.Truncate {
		t.Error("Expected truncate to default to false")
	}
}

func TestLoad_FileValues(t *testing.T) {
	configPath := writeConfig(t, `database:
  connection: postgres
  database: personal_data
  user: reader
  password: s3cret
  host: db.internal
logging:
  path: /tmp/veil-logs
  format: json
  level: debug
  truncate: true
  additional_sensitive_fields:
    - token
export:
  table: accounts
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Database.Connection != "postgres" {
		t.Errorf("Expected postgres, got %s", cfg.Database.Connection)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("Expected host db.internal, got %s", cfg.Database.Host)
	}
	if cfg.Export.Table != "accounts" {
		t.Errorf("Expected table accounts, got %s", cfg.Export.Table)
	}
	if len(cfg.Logging.AdditionalSensitiveFields) != 1 || cfg.Logging.AdditionalSensitiveFields[0] != "token" {
		t.Errorf("Expected additional sensitive field token, got %v", cfg.Logging.AdditionalSensitiveFields)
	}
	if !cfg.Logging.Truncate {
		t.Error("Expected truncate true from file")
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	_, err := Load(missing)
	if err == nil {
		t.Error("Expected error for missing explicit config file, got nil")
	}
}

func TestLoad_EnvCredentialFallback(t *testing.T) {
	configPath := writeConfig(t, `database:
  connection: mysql
`)

	t.Setenv(EnvDBUsername, "envuser")
	t.Setenv(EnvDBPassword, "envpass")
	t.Setenv(EnvDBHost, "envhost")
	t.Setenv(EnvDBName, "envdb")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Database.User != "envuser" {
		t.Errorf("Expected env user, got %s", cfg.Database.User)
	}
	if cfg.Database.Password != "envpass" {
		t.Errorf("Expected env password, got %s", cfg.Database.Password)
	}
	if cfg.Database.Host != "envhost" {
		t.Errorf("Expected env host, got %s", cfg.Database.Host)
	}
	if cfg.Database.Database != "envdb" {
		t.Errorf("Expected env database, got %s", cfg.Database.Database)
	}
}

func TestLoad_FileOverridesEnvDefaultsNotSet(t *testing.T) {
	configPath := writeConfig(t, `database:
  connection: mysql
  user: fileuser
  database: filedb
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Database.User != "fileuser" {
		t.Errorf("Expected file user, got %s", cfg.Database.User)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "unsupported connection",
			content: `database:
  connection: oracle
`,
			wantErr: "unsupported database connection type",
		},
		{
			name: "invalid logging format",
			content: `logging:
  format: xml
`,
			wantErr: "unsupported logging format",
		},
		{
			name: "invalid logging level",
			content: `logging:
  level: verbose
`,
			wantErr: "unsupported logging level",
		},
		{
			name: "zero query timeout",
			content: `database:
  query_timeout: 0
`,
			wantErr: "query_timeout",
		},
		{
			name: "bad table name with quotes",
			content: `export:
  table: "users; drop table users"
`,
			wantErr: "invalid export table name",
		},
		{
			name: "table name starting with digit",
			content: `export:
  table: 1users
`,
			wantErr: "invalid export table name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := writeConfig(t, tt.content)

			_, err := Load(configPath)
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoad_SQLitePathNormalized(t *testing.T) {
	configPath := writeConfig(t, `database:
  connection: sqlite
  database: relative/path.db
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if !filepath.IsAbs(cfg.Database.Database) {
		t.Errorf("Expected absolute sqlite path, got %s", cfg.Database.Database)
	}
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	tests := []struct {
		name string
		cfg  DatabaseConfig
		want string
	}{
		{
			name: "sqlite",
			cfg:  DatabaseConfig{Connection: "sqlite", Database: "/opt/veil/sqlite.db"},
			want: "sqlite:///opt/veil/sqlite.db",
		},
		{
			name: "postgres with credentials",
			cfg:  DatabaseConfig{Connection: "postgres", Database: "pd", User: "u", Password: "p", Host: "h"},
			want: "postgres://u:p@h/pd",
		},
		{
			name: "postgres without credentials",
			cfg:  DatabaseConfig{Connection: "postgres", Database: "pd", Host: "h"},
			want: "postgres://h/pd",
		},
		{
			name: "mysql with credentials",
			cfg:  DatabaseConfig{Connection: "mysql", Database: "pd", User: "u", Password: "p", Host: "h"},
			want: "mysql://u:p@h/pd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.ConnectionString(); got != tt.want {
				t.Errorf("ConnectionString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDatabaseConfig_Redacted(t *testing.T) {
	cfg := DatabaseConfig{Connection: "mysql", Database: "pd", User: "u", Password: "hunter2", Host: "h"}

	got := cfg.Redacted()
	if strings.Contains(got, "hunter2") {
		t.Errorf("Redacted() leaked password: %q", got)
	}
	if got != "mysql://u:XXX@h/pd" {
		t.Errorf("Redacted() = %q", got)
	}
}

func TestVersion(t *testing.T) {
	if Version() == "" {
		t.Error("Version() returned empty string")
	}
}
