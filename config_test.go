package odbc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "odbc.yml")
	data := "truncate: true\nforward_only: true\nmanual_commit: true\nlog_file: /tmp/sql.log\n"
	require.NoError(t, os.WriteFile(fname, []byte(data), 0o600))

	cfg, err := LoadConfig(fname)
	require.NoError(t, err)
	assert.Equal(t, &Config{Truncate: true, ForwardOnly: true, ManualCommit: true, LogFile: "/tmp/sql.log"}, cfg)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig("/dev/null/nope.yml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "can't read config")

	fname := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(fname, []byte("truncate: [1, 2"), 0o600))
	_, err = LoadConfig(fname)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "can't unmarshal config")
}

func TestConfigDefaults(t *testing.T) {
	assert.Error(t, Config{}.validate())
	assert.NotNil(t, Config{}.logger())
}

func TestLoadConfigFileInline(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "app.yml")
	data := "truncate: true\nlog_file: q.log\nname: reports\n"
	require.NoError(t, os.WriteFile(fname, []byte(data), 0o600))

	var res struct {
		Config `yaml:",inline"`
		Name   string `yaml:"name"`
	}
	require.NoError(t, LoadConfigFile(fname, &res))
	assert.True(t, res.Truncate)
	assert.Equal(t, "q.log", res.LogFile)
	assert.Equal(t, "reports", res.Name)

	err := LoadConfigFile("/dev/null/nope.yml", &res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "can't read config")
}
