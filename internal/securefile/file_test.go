package securefile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

func TestWriteReadJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "state.json")
	want := sample{Name: "tokens", Items: []string{"a", "b"}}

	require.NoError(t, WriteJSON(path, want))
	assert.True(t, Exists(path))
	assert.False(t, Exists(path+".tmp"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := ReadJSON[sample](path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReadJSON_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := ReadJSON[sample](filepath.Join(dir, "missing.json"))
	require.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o600))
	_, err = ReadJSON[sample](bad)
	require.ErrorContains(t, err, "unmarshal bad.json")
}

func TestConfigPathCandidates(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SNAP_REAL_HOME", "")

	paths, err := ConfigPathCandidates("simpledex-client", "assets.json")
	require.NoError(t, err)
	require.NotEmpty(t, paths)
	assert.Equal(t, filepath.Join(home, ".config", "simpledex-client", "assets.json"), paths[0])

	_, err = ConfigPathCandidates("", "assets.json")
	require.Error(t, err)
	_, err = ConfigPathCandidates("app", "")
	require.Error(t, err)
}
