package database_test

import (
	"errors"
	"io"
	"io/fs"
	"testing"

	"taskmaster/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationSource_UpAndDownForEveryVersion(t *testing.T) {
	src, err := database.MigrationSource()
	require.NoError(t, err)
	defer src.Close()

	version, err := src.First()
	require.NoError(t, err)

	var versions []uint
	for {
		versions = append(versions, version)

		up, _, err := src.ReadUp(version)
		require.NoError(t, err, "up migration for %d", version)
		body, err := io.ReadAll(up)
		up.Close()
		require.NoError(t, err)
		assert.NotEmpty(t, body)

		down, _, err := src.ReadDown(version)
		require.NoError(t, err, "down migration for %d", version)
		down.Close()

		next, err := src.Next(version)
		if errors.Is(err, fs.ErrNotExist) {
			break
		}
		require.NoError(t, err)
		version = next
	}

	assert.Equal(t, []uint{1, 2, 3}, versions)
}

func TestMigrationSource_IssueLinksCascade(t *testing.T) {
	src, err := database.MigrationSource()
	require.NoError(t, err)
	defer src.Close()

	up, _, err := src.ReadUp(3)
	require.NoError(t, err)
	defer up.Close()
	body, err := io.ReadAll(up)
	require.NoError(t, err)

	assert.Contains(t, string(body), "REFERENCES tasks (id) ON DELETE CASCADE")
	assert.Contains(t, string(body), "UNIQUE INDEX IF NOT EXISTS idx_issue_links_task_id")
}
