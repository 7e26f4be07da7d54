package cmd

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VectorBits/GasGuardian/src/internal/config"
	"github.com/VectorBits/GasGuardian/src/internal/static_analyzer"
)

func TestParseArgs_DefaultCommand(t *testing.T) {
	cfg, err := ParseArgs([]string{"-concurrency", "8", "-f", "JSON", "a.sol", "b.sol"})
	require.NoError(t, err)

	assert.Equal(t, CommandAnalyze, cfg.Command)
	assert.Equal(t, []string{"a.sol", "b.sol"}, cfg.Inputs)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, "json", cfg.ReportFormat)
	assert.Nil(t, cfg.StripLibraries)
}

func TestParseArgs_Subcommands(t *testing.T) {
	cfg, err := ParseArgs([]string{"report", "-strip-libs=false", "-no-save", "-o", "out.md", "x.sol"})
	require.NoError(t, err)
	assert.Equal(t, CommandReport, cfg.Command)
	require.NotNil(t, cfg.StripLibraries)
	assert.False(t, *cfg.StripLibraries)
	assert.True(t, cfg.NoSave)
	assert.Equal(t, "out.md", cfg.Output)

	cfg, err = ParseArgs([]string{"history", "-n", "5", "-db", "none"})
	require.NoError(t, err)
	assert.Equal(t, CommandHistory, cfg.Command)
	assert.Equal(t, 5, cfg.Limit)
	assert.Equal(t, "none", cfg.Driver)

	cfg, err = ParseArgs([]string{"history", "-n", "0"})
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Limit)

	cfg, err = ParseArgs([]string{"parse", "x.sol"})
	require.NoError(t, err)
	assert.Equal(t, CommandParse, cfg.Command)

	cfg, err = ParseArgs([]string{"suggest", "-llm", "-framework", "Hardhat", "-gen-snapshot", "x.sol"})
	require.NoError(t, err)
	assert.Equal(t, CommandSuggest, cfg.Command)
	assert.Equal(t, "hardhat", cfg.Framework)
	require.NotNil(t, cfg.LLM)
	assert.True(t, *cfg.LLM)
	require.NotNil(t, cfg.GenerateSnapshot)
	assert.True(t, *cfg.GenerateSnapshot)

	cfg, err = ParseArgs([]string{"x.sol"})
	require.NoError(t, err)
	assert.Nil(t, cfg.LLM)
	assert.Nil(t, cfg.GenerateSnapshot)
}

func TestParseArgs_Errors(t *testing.T) {
	_, err := ParseArgs([]string{"analyze"})
	assert.Error(t, err)

	_, err = ParseArgs([]string{"-f", "html", "a.sol"})
	assert.Error(t, err)

	_, err = ParseArgs([]string{"-concurrency", "-1", "a.sol"})
	assert.Error(t, err)

	_, err = ParseArgs([]string{"parse", "-f", "json", "a.sol"})
	assert.Error(t, err)

	_, err = ParseArgs([]string{"-framework", "truffle", "a.sol"})
	assert.ErrorIs(t, err, static_analyzer.ErrUnsupportedFramework)

	_, err = ParseArgs([]string{"parse", "-llm", "a.sol"})
	assert.Error(t, err)

	_, err = ParseArgs([]string{"help", "history"})
	assert.ErrorIs(t, err, flag.ErrHelp)
}

func TestMergeConfigs_Precedence(t *testing.T) {
	yamlStrip := false
	app := &config.AppConfig{
		Analysis: config.AnalysisConfig{Backend: "noop", Concurrency: 2, StripLibraries: &yamlStrip},
		Report:   config.ReportConfig{Dir: "yaml-reports", Format: "json"},
		Database: config.DatabaseConfig{Driver: "postgres", Host: "db"},
	}

	cliStrip := true
	c := &CLIConfig{
		Command:        CommandAnalyze,
		Backend:        "regex",
		StripLibraries: &cliStrip,
		Driver:         "none",
		Output:         "x.md",
	}
	got := c.MergeConfigs(app)

	assert.Equal(t, "regex", got.Backend)
	assert.Equal(t, 2, got.Concurrency)
	assert.True(t, got.StripLibraries)
	assert.Equal(t, "yaml-reports", got.ReportDir)
	assert.Equal(t, "json", got.ReportFormat)
	assert.Equal(t, "none", got.Database.Driver)
	assert.Equal(t, "db", got.Database.Host)
	assert.Equal(t, "x.md", got.Output)

	defaults := (&CLIConfig{Command: CommandAnalyze}).MergeConfigs(nil)
	assert.Equal(t, config.DefaultScanConfiguration().Backend, defaults.Backend)
	assert.Equal(t, 4, defaults.Concurrency)
	assert.False(t, defaults.LLM)
	assert.False(t, defaults.GenerateSnapshot)
}

func TestMergeConfigs_LLMAndGeneration(t *testing.T) {
	yamlGenerate := true
	app := &config.AppConfig{
		Analysis: config.AnalysisConfig{GenerateSnapshot: &yamlGenerate},
		AI:       config.AIConfig{Enabled: true, Provider: "ollama"},
	}

	got := (&CLIConfig{Command: CommandAnalyze}).MergeConfigs(app)
	assert.True(t, got.LLM)
	assert.True(t, got.GenerateSnapshot)
	assert.Equal(t, "ollama", got.AI.Provider)

	off := false
	got = (&CLIConfig{Command: CommandAnalyze, LLM: &off, GenerateSnapshot: &off}).MergeConfigs(app)
	assert.False(t, got.LLM)
	assert.False(t, got.GenerateSnapshot)
}

func TestResolveFiles(t *testing.T) {
	dir := t.TempDir()
	mustWrite := func(rel string) string {
		p := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte("contract A {}"), 0644))
		return p
	}
	a := mustWrite("src/A.sol")
	b := mustWrite("src/nested/B.sol")
	mustWrite("src/readme.md")
	mustWrite("lib/forge-std/Test.sol")
	mustWrite("src/node_modules/x/X.sol")
	extra := mustWrite("extra/C.sol")

	list := filepath.Join(dir, "list.txt")
	require.NoError(t, os.WriteFile(list, []byte(extra+"\n"+a+"\n"), 0644))

	c := &CLIConfig{Inputs: []string{filepath.Join(dir, "src"), a, filepath.Join(dir, "lib")}, ListFile: list}
	files, err := c.ResolveFiles()
	require.NoError(t, err)

	// lib 作为输入根目录本身时不跳过
	assert.Equal(t, []string{a, b, filepath.Join(dir, "lib", "forge-std", "Test.sol"), extra}, files)

	missing := filepath.Join(dir, "missing.sol")
	files, err = (&CLIConfig{Inputs: []string{missing}}).ResolveFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{missing}, files)

	emptyDir := filepath.Join(dir, "none")
	require.NoError(t, os.MkdirAll(emptyDir, 0755))
	_, err = (&CLIConfig{Inputs: []string{emptyDir}}).ResolveFiles()
	assert.Error(t, err)
}
