package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/trivial-activity-tracker/internal/config"
)

func TestLoadFromWritesTemplateOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg, err := config.LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, config.DefaultTenantID, cfg.Outlook.TenantID)
	assert.Equal(t, config.DefaultClientID, cfg.Outlook.ClientID)
	assert.Equal(t, config.DefaultProject, cfg.Outlook.DefaultProject)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.NotEmpty(t, cfg.DataDir)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(written), "// tat configuration")
}

func TestLoadFromStripsCommentsAndFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `// header comment
{
  // where events live
  "data_dir": "/tmp/tat-data",
  "log": {"level": "debug"},
  "outlook": {
    "tenant_id": "",
    "default_project": "Calls",
    "timezone": "Europe/Berlin"
  }
}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/tat-data", cfg.DataDir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, config.DefaultTenantID, cfg.Outlook.TenantID)
	assert.Equal(t, config.DefaultClientID, cfg.Outlook.ClientID)
	assert.Equal(t, "Calls", cfg.Outlook.DefaultProject)
	assert.Equal(t, "Europe/Berlin", cfg.Outlook.Timezone)
}

func TestLoadFromEnvironmentOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"log": {"level": "error"}}`), 0o600))

	t.Setenv("TAT_LOG_LEVEL", "info")
	t.Setenv("TAT_OUTLOOK_TENANT_ID", "my-tenant")
	t.Setenv("TAT_DATA_DIR", "/srv/tat")

	cfg, err := config.LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "my-tenant", cfg.Outlook.TenantID)
	assert.Equal(t, "/srv/tat", cfg.DataDir)
}

func TestLoadFromRejectsBrokenJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := config.LoadFrom(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete the file to regenerate defaults")
}

func TestFilePathHonoursEnv(t *testing.T) {
	t.Setenv(config.EnvConfigPath, "/etc/tat.json")
	path, err := config.FilePath()
	require.NoError(t, err)
	assert.Equal(t, "/etc/tat.json", path)
}
