package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
analysis:
  backend: regex
  framework: hardhat
  concurrency: 8
  strip_libraries: false
  snapshot_file: .gas-snapshot
  generate_snapshot: true
report:
  dir: out
  format: json
database:
  driver: mysql
  host: 127.0.0.1
  port: "3306"
  user: root
  password: secret
  name: gasguardian
log:
  dir: var/log
  enabled: false
ai:
  enabled: true
  provider: deepseek
  model: deepseek-coder
  timeout: 30
  max_suggestions: 2
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigFrom(t *testing.T) {
	cfg, err := LoadConfigFrom(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "hardhat", cfg.Analysis.Framework)
	assert.Equal(t, 8, cfg.Analysis.Concurrency)
	require.NotNil(t, cfg.Analysis.StripLibraries)
	assert.False(t, *cfg.Analysis.StripLibraries)
	assert.Equal(t, "json", cfg.Report.Format)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "var/log", cfg.Log.Dir)
}

func TestLoadConfigFrom_Errors(t *testing.T) {
	_, err := LoadConfigFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read configuration file")

	_, err = LoadConfigFrom(writeConfig(t, "analysis: [unclosed"))
	assert.ErrorContains(t, err, "failed to parse configuration file")
}

func TestApplyAppConfig(t *testing.T) {
	cfg, err := LoadConfigFrom(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	scan := DefaultScanConfiguration()
	scan.ApplyAppConfig(cfg)

	assert.Equal(t, "hardhat", scan.Framework)
	assert.Equal(t, 8, scan.Concurrency)
	assert.False(t, scan.StripLibraries)
	assert.Equal(t, "out", scan.ReportDir)
	assert.Equal(t, "json", scan.ReportFormat)
	assert.Equal(t, "mysql", scan.Database.Driver)
	assert.Equal(t, "var/log", scan.LogDir)
	assert.False(t, scan.LogEnabled)
	assert.True(t, scan.GenerateSnapshot)
	assert.True(t, scan.LLM)
	assert.Equal(t, "deepseek", scan.AI.Provider)
	assert.Equal(t, "deepseek-coder", scan.AI.Model)
	assert.Equal(t, 30, scan.AI.Timeout)
	assert.Equal(t, 2, scan.AI.MaxSuggestions)
}

func TestApplyAppConfig_KeepsDefaultsForMissingKeys(t *testing.T) {
	cfg, err := LoadConfigFrom(writeConfig(t, "report:\n  dir: elsewhere\n"))
	require.NoError(t, err)

	scan := DefaultScanConfiguration()
	scan.ApplyAppConfig(cfg)

	assert.Equal(t, "elsewhere", scan.ReportDir)
	assert.True(t, scan.StripLibraries)
	assert.True(t, scan.LogEnabled)
	assert.Equal(t, 4, scan.Concurrency)
	assert.Equal(t, "sqlite", scan.Database.Driver)
	assert.False(t, scan.GenerateSnapshot)
	assert.False(t, scan.LLM)

	scan.ApplyAppConfig(nil)
	assert.Equal(t, "elsewhere", scan.ReportDir)
}

func TestDSN(t *testing.T) {
	cfg, err := LoadConfigFrom(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	withDB := cfg.GetDatabaseDSN(true)
	assert.True(t, strings.HasPrefix(withDB, "root:secret@tcp(127.0.0.1:3306)/gasguardian?"))
	assert.Contains(t, withDB, "parseTime=true")
	assert.Contains(t, withDB, "charset=utf8mb4")

	root := cfg.GetDatabaseDSN(false)
	assert.True(t, strings.HasPrefix(root, "root:secret@tcp(127.0.0.1:3306)/?"))

	assert.Equal(t,
		"host=127.0.0.1 port=3306 user=root password=secret dbname=gasguardian sslmode=disable",
		cfg.GetPostgresDSN())
}

func TestNewSQLiteDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	db, err := NewSQLiteDB(path)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.NoError(t, sqlDB.Ping())
	assert.NoError(t, sqlDB.Close())

	_, err = os.Stat(filepath.Dir(path))
	assert.NoError(t, err)
}
