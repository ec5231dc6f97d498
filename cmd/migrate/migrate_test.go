package main

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locallibrary/internal/testutil"
)

func TestEnvOr(t *testing.T) {
	t.Setenv("MIGRATIONS_DIR", "/custom/migrations")
	assert.Equal(t, "/custom/migrations", envOr("MIGRATIONS_DIR", "db/migrations"))

	t.Setenv("MIGRATIONS_DIR", "")
	assert.Equal(t, "db/migrations", envOr("MIGRATIONS_DIR", "db/migrations"))
}

func TestMigrations_AreContiguous(t *testing.T) {
	ms, err := goose.CollectMigrations(testutil.MigrationsDir(), 0, goose.MaxVersion)
	require.NoError(t, err)
	require.NotEmpty(t, ms)

	for i, m := range ms {
		assert.Equal(t, int64(i+1), m.Version, filepath.Base(m.Source))
	}
}

var (
	createTable = regexp.MustCompile(`(?i)CREATE TABLE (\w+)`)
	dropTable   = regexp.MustCompile(`(?i)DROP TABLE IF EXISTS (\w+)`)
)

func TestMigrations_DownUndoesUp(t *testing.T) {
	dir := testutil.MigrationsDir()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		t.Run(e.Name(), func(t *testing.T) {
			b, err := os.ReadFile(filepath.Join(dir, e.Name()))
			require.NoError(t, err)

			up, down, ok := strings.Cut(string(b), "-- +goose Down")
			require.True(t, ok, "missing '-- +goose Down'")
			require.Contains(t, up, "-- +goose Up")

			dropped := map[string]bool{}
			for _, m := range dropTable.FindAllStringSubmatch(down, -1) {
				dropped[strings.ToLower(m[1])] = true
			}
			for _, m := range createTable.FindAllStringSubmatch(up, -1) {
				assert.True(t, dropped[strings.ToLower(m[1])], "down does not drop %s", m[1])
			}
		})
	}
}
