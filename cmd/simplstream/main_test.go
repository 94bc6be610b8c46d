package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simplstream/config"
)

type cli struct {
	t    *testing.T
	base []string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	t.Setenv(config.EnvDataDir, "")
	t.Setenv(config.EnvStoreBackend, "")
	dir := t.TempDir()
	return &cli{t: t, base: []string{
		"--config", filepath.Join(dir, "settings.json"),
		"--data-dir", filepath.Join(dir, "data"),
	}}
}

func (c *cli) run(stdin string, args ...string) (string, error) {
	c.t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append(append([]string{}, c.base...), args...))
	err := root.Execute()
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run("", args...)
	require.NoError(c.t, err, "simplstream %s: %s", strings.Join(args, " "), out)
	return out
}

func createdID(t *testing.T, out string) string {
	t.Helper()
	id, _, ok := strings.Cut(strings.TrimSpace(out), "\t")
	require.True(t, ok, "unexpected create output %q", out)
	return id
}

func TestProfileLifecycleThroughCLI(t *testing.T) {
	c := newCLI(t)

	id := createdID(t, c.mustRun("profiles", "create", "Ana Lopez"))
	out := c.mustRun("profiles", "list")
	assert.Contains(t, out, "AL\tAna Lopez")

	c.mustRun("watchlist", "add", id, "Fight Club", "--tmdb", "550")
	out = c.mustRun("watchlist", "add", id, "Fight Club", "--tmdb", "550")
	assert.Contains(t, out, "already in watchlist")

	c.mustRun("search", "add", id, "Dune")
	c.mustRun("search", "add", id, "dune")
	out = c.mustRun("search", "list", id)
	assert.Equal(t, "dune\n", out)

	c.mustRun("profiles", "delete", id)
	out = c.mustRun("watchlist", "list", id)
	assert.Empty(t, out)
	out = c.mustRun("search", "list", id)
	assert.Empty(t, out)
}

func TestProtectedProfileFlows(t *testing.T) {
	c := newCLI(t)
	id := createdID(t, c.mustRun("profiles", "create", "Kid", "--pin", "4321", "--security-word", "corgi"))

	out, err := c.run("0000\n4321\n", "profiles", "unlock", id)
	require.NoError(t, err)
	assert.Contains(t, out, "2 attempts remaining")
	assert.Contains(t, out, "unlocked")

	out, err = c.run("0000\n0000\n0000\n", "profiles", "unlock", id)
	assert.Error(t, err)
	assert.Contains(t, out, "locked for 60s")
	assert.Contains(t, out, "profiles recover")

	out, err = c.run("poodle\ncorgi\n", "profiles", "recover", id)
	require.NoError(t, err)
	assert.Contains(t, out, "PIN: 4321")

	_, err = c.run("", "profiles", "delete", id)
	assert.Error(t, err, "protected profiles need a PIN to delete")
	c.mustRun("profiles", "delete", id, "--pin", "4321")
}

func TestExportImportThroughCLI(t *testing.T) {
	c := newCLI(t)
	id := createdID(t, c.mustRun("profiles", "create", "Ana"))
	c.mustRun("ratings", "set", id, "550", "5")
	c.mustRun("history", "record", id, "GoT", "--tmdb", "1399", "--type", "tv", "--season", "1", "--episode", "2")

	file := filepath.Join(t.TempDir(), "ana")
	path := strings.TrimSpace(c.mustRun("export", id, "-o", file))
	assert.Equal(t, file+".ssp", path)

	newID := createdID(t, c.mustRun("import", path))
	assert.NotEqual(t, id, newID)
	assert.Contains(t, c.mustRun("ratings", "list", newID), "movie/550\t5")
	assert.Contains(t, c.mustRun("history", "list", newID), "tv:1399\tGoT")
}

func TestAccessLockThroughCLI(t *testing.T) {
	c := newCLI(t)
	for i := 0; i < 5; i++ {
		c.mustRun("access", "record-failure", "bot")
	}
	assert.Equal(t, "true\n", c.mustRun("access", "status"))

	_, err := c.run("", "profiles", "create", "Blocked")
	assert.Error(t, err)

	_, err = c.run("", "access", "unlock", "wrong")
	assert.Error(t, err)
	c.mustRun("access", "unlock", "3f12b")
	assert.Equal(t, "false\n", c.mustRun("access", "status"))
	c.mustRun("profiles", "create", "Allowed")
}

func TestPreferencesThroughCLI(t *testing.T) {
	c := newCLI(t)
	assert.Equal(t, "system\n", c.mustRun("theme"))
	c.mustRun("theme", "dark")
	assert.Equal(t, "dark\n", c.mustRun("theme"))

	_, err := c.run("", "theme", "sepia")
	assert.Error(t, err)

	c.mustRun("server", "vidsrc")
	assert.Equal(t, "vidsrc\n", c.mustRun("server"))

	_, err = c.run("", "reset")
	assert.Error(t, err)
	c.mustRun("reset", "--yes")
	assert.Equal(t, "system\n", c.mustRun("theme"))
}
