package config_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simplstream/config"
	"simplstream/internal/storage"
	"simplstream/models"
	"simplstream/services/auth"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv(config.EnvDataDir, "")
	t.Setenv(config.EnvStoreBackend, "")
	mgr := config.NewManagerFs(afero.NewMemMapFs(), "/etc/simplstream/settings.json")

	settings, err := mgr.Load()
	require.NoError(t, err)
	assert.Equal(t, config.BackendSQLite, settings.Storage.Backend)
	assert.Equal(t, models.MaxProfiles, settings.Profiles.MaxProfiles)
	assert.False(t, settings.Auth.ScopedRecovery)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv(config.EnvDataDir, "")
	t.Setenv(config.EnvStoreBackend, "")
	fs := afero.NewMemMapFs()
	mgr := config.NewManagerFs(fs, "/cfg/settings.json")

	settings := config.DefaultSettings()
	settings.Storage = config.StorageSettings{Backend: config.BackendBadger, Path: "/data/badger"}
	settings.Auth.ScopedRecovery = true
	settings.Profiles.MaxProfiles = 4
	require.NoError(t, mgr.Save(settings))

	exists, _ := afero.Exists(fs, "/cfg/settings.json.tmp")
	assert.False(t, exists, "temp file must be renamed away")

	loaded, err := mgr.Load()
	require.NoError(t, err)
	assert.Equal(t, settings, loaded)
}

func TestLoadAppliesEnvironment(t *testing.T) {
	t.Setenv(config.EnvDataDir, "/srv/simplstream")
	t.Setenv(config.EnvStoreBackend, "BADGER")
	mgr := config.NewManagerFs(afero.NewMemMapFs(), "settings.json")

	settings, err := mgr.Load()
	require.NoError(t, err)
	assert.Equal(t, config.BackendBadger, settings.Storage.Backend)
	assert.Equal(t, filepath.Join("/srv/simplstream", "badger"), settings.Storage.Path)
}

func TestLoadRejectsBadSettings(t *testing.T) {
	t.Setenv(config.EnvDataDir, "")
	t.Setenv(config.EnvStoreBackend, "")
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "settings.json", []byte(`{"storage":{"backend":"mongo"}}`), 0o600))

	_, err := config.NewManagerFs(fs, "settings.json").Load()
	assert.True(t, errors.Is(err, models.ErrValidation), "got %v", err)

	require.NoError(t, afero.WriteFile(fs, "settings.json", []byte(`{`), 0o600))
	_, err = config.NewManagerFs(fs, "settings.json").Load()
	assert.Error(t, err)
}

func TestOpenStoreBackends(t *testing.T) {
	dir := t.TempDir()
	cases := []config.StorageSettings{
		{Backend: config.BackendMemory},
		{Backend: config.BackendSQLite, Path: filepath.Join(dir, "kv.db")},
		{Backend: config.BackendBadger, Path: filepath.Join(dir, "badger")},
	}
	for _, settings := range cases {
		backend, err := config.OpenStore(settings)
		require.NoError(t, err, settings.Backend)

		require.NoError(t, backend.Store.Set(storage.KeyTheme, "dark"))
		v, ok, err := backend.Store.Get(storage.KeyTheme)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "dark", v)
		assert.Equal(t, settings.Backend, backend.Name)
		require.NoError(t, backend.Close())
	}

	_, err := config.OpenStore(config.StorageSettings{Backend: "mongo"})
	assert.Error(t, err)
}

func TestRecoveryScope(t *testing.T) {
	assert.Equal(t, auth.RecoveryAnyProfile, config.AuthSettings{}.RecoveryScope())
	assert.Equal(t, auth.RecoverySelectedProfile, config.AuthSettings{ScopedRecovery: true}.RecoveryScope())
}
