package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/quizhunter/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/quizhunter/internal/core/services"
)

// resetFlags restores every flag in the tree to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

// setupTestServices gives each test in-memory settings and snapshots.
func setupTestServices(t *testing.T) {
	t.Helper()
	oldSettings, oldSnapshots := settingsService, memorySnapshots
	settingsService = services.NewSettingsService(memory.NewConfigStore(), nil)
	memorySnapshots = memory.NewSnapshotStore()
	t.Cleanup(func() {
		settingsService, memorySnapshots = oldSettings, oldSnapshots
		resetFlags(rootCmd)
	})
}

// execute runs the root command with args and returns its combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "quizhunter", rootCmd.Use)
	assert.True(t, rootCmd.SilenceUsage)
}

func TestRootCmd_GlobalFlags(t *testing.T) {
	for _, name := range []string{"verbose", "ephemeral", "data-dir", "config-dir", "env-file"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
	assert.Equal(t, "v", rootCmd.PersistentFlags().Lookup("verbose").Shorthand)
}

func TestRootCmd_Subcommands(t *testing.T) {
	var names []string
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{"index", "search", "similar", "items", "mcp", "settings", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestSetup_EphemeralUsesMemorySettings(t *testing.T) {
	old := settingsService
	settingsService = nil
	t.Cleanup(func() {
		settingsService = old
		resetFlags(rootCmd)
	})

	_, err := execute(t, "version", "--ephemeral")

	require.NoError(t, err)
	require.NotNil(t, settingsService)
	settings, err := settingsService.Get()
	require.NoError(t, err)
	assert.Equal(t, 5, settings.Search.TopK)
}

func TestSetup_FileSettings(t *testing.T) {
	old := settingsService
	settingsService = nil
	t.Cleanup(func() {
		settingsService = old
		resetFlags(rootCmd)
	})
	dir := t.TempDir()

	_, err := execute(t, "settings", "set", "search.top_k", "9", "--config-dir", dir)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "config.toml"))
	data, err := os.ReadFile(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "top_k = 9")
}

func TestSetup_LoadsEnvFile(t *testing.T) {
	setupTestServices(t)
	const key = "QUIZHUNTER_TEST_ENV_FILE"
	require.NoError(t, os.Unsetenv(key))
	t.Cleanup(func() { _ = os.Unsetenv(key) })
	path := writeFile(t, t.TempDir(), "test.env", key+"=loaded\n")

	_, err := execute(t, "version", "--env-file", path)

	require.NoError(t, err)
	assert.Equal(t, "loaded", os.Getenv(key))
}

func TestSetup_MissingEnvFileIsIgnored(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "version", "--env-file", filepath.Join(t.TempDir(), "absent.env"))

	assert.NoError(t, err)
}

func TestSetVersion(t *testing.T) {
	old := version
	t.Cleanup(func() { version = old })

	SetVersion("")
	assert.Equal(t, old, version)
	SetVersion("1.2.3")
	assert.Equal(t, "1.2.3", version)
}
