package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Precedence(t *testing.T) {
	path := writeFile(t, `
server:
  addr: ":9000"
  read_timeout: 5s
auth:
  jwt_secret: from-file
search:
  page_size: 20
log:
  format: json
`)
	for _, name := range []string{"CONFIG_FILE", "IHOME_ADDR", "JWT_SECRET", "LOG_FORMAT", "LOG_LEVEL", "READ_TIMEOUT"} {
		t.Setenv(name, "")
	}
	t.Setenv("PAGE_SIZE", "7")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr, "file overrides default")
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout, "default kept when the file is silent")
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, 7, cfg.Search.PageSize, "environment overrides file")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "@every 10m", cfg.Jobs.IndexRefresh)
}

func TestLoad_EnvironmentOnly(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("TOKEN_TTL", "2h")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "server: [not, a, map]"))
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "")
	_, err = Load(writeFile(t, "log:\n  level: info\n"))
	assert.ErrorContains(t, err, "jwt secret")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		expect string
	}{
		{name: "Valid", mutate: func(c *Config) {}},
		{name: "NoDatabase", mutate: func(c *Config) { c.Database.URL = "" }, expect: "database url"},
		{name: "ZeroPageSize", mutate: func(c *Config) { c.Search.PageSize = 0 }, expect: "page size"},
		{name: "BadLevel", mutate: func(c *Config) { c.Log.Level = "loud" }, expect: "log level"},
		{name: "BadFormat", mutate: func(c *Config) { c.Log.Format = "xml" }, expect: "log format"},
		{name: "NoSchedule", mutate: func(c *Config) { c.Jobs.IndexRefresh = "" }, expect: "index refresh"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Auth.JWTSecret = "secret"
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.expect == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.expect)
		})
	}
}
