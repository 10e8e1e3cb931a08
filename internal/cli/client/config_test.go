package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withTempConfigDir(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	origDirFunc := getConfigDirFunc
	getConfigDirFunc = func() (string, error) {
		return tmpDir, nil
	}
	t.Cleanup(func() {
		getConfigDirFunc = origDirFunc
	})

	return tmpDir
}

func TestGlobalConfig_SaveAndLoad(t *testing.T) {
	withTempConfigDir(t)

	config := &GlobalConfig{
		WorkspaceID: "ws-abc",
		APIURL:      "http://localhost:9090",
	}
	require.NoError(t, SaveGlobalConfig(config))

	loaded, err := LoadGlobalConfig()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "ws-abc", loaded.WorkspaceID)
	assert.Equal(t, "http://localhost:9090", loaded.APIURL)
}

func TestGlobalConfig_LoadMissingReturnsNil(t *testing.T) {
	withTempConfigDir(t)

	loaded, err := LoadGlobalConfig()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestGlobalConfig_LoadInvalidJSON(t *testing.T) {
	tmpDir := withTempConfigDir(t)

	configPath := filepath.Join(tmpDir, "config.json")
	require.NoError(t, os.WriteFile(configPath, []byte("not json"), 0600))

	_, err := LoadGlobalConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestGlobalConfig_SaveNil(t *testing.T) {
	withTempConfigDir(t)

	err := SaveGlobalConfig(nil)
	require.Error(t, err)
}

func TestGlobalConfig_SavePermissions(t *testing.T) {
	tmpDir := withTempConfigDir(t)

	require.NoError(t, SaveGlobalConfig(&GlobalConfig{WorkspaceID: "ws-1"}))

	info, err := os.Stat(filepath.Join(tmpDir, "config.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestGlobalConfig_DeleteIsIdempotent(t *testing.T) {
	withTempConfigDir(t)

	require.NoError(t, SaveGlobalConfig(&GlobalConfig{WorkspaceID: "ws-1"}))
	require.NoError(t, DeleteGlobalConfig())

	loaded, err := LoadGlobalConfig()
	require.NoError(t, err)
	assert.Nil(t, loaded)

	// Deleting a missing config is not an error.
	require.NoError(t, DeleteGlobalConfig())
}
