package files

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dosense/dohub/internal/errors"
	"github.com/dosense/dohub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveStoreAndStream(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	repo, err := NewArchiveRepository(FileConfig{BasePath: base})
	require.NoError(t, err)

	log := &models.ExportLog{
		ID:        "exp_1",
		UserID:    "usr_1",
		SensorID:  "sen_1",
		FileName:  "do-sensor-data_2024-01-01_2024-01-08.csv",
		CreatedAt: 1704067200,
	}
	rel, err := repo.Store(ctx, log, []byte("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("usr_1", "sen_1", "20240101_000000_exp_1_do-sensor-data_2024-01-01_2024-01-08.csv"), rel)

	var buf bytes.Buffer
	require.NoError(t, repo.Stream(ctx, rel, &buf))
	assert.Equal(t, "a,b\n", buf.String())

	err = repo.Stream(ctx, filepath.Join("usr_1", "missing.csv"), &buf)
	assert.True(t, errors.IsNotFound(err))

	err = repo.Stream(ctx, filepath.Join("..", "etc", "passwd"), &buf)
	assert.True(t, errors.IsValidation(err))

	require.NoError(t, repo.DeleteByUser(ctx, "usr_1"))
	_, err = os.Stat(filepath.Join(base, "usr_1"))
	assert.True(t, os.IsNotExist(err))
}

func TestArchiveDeleteOlderThan(t *testing.T) {
	ctx := context.Background()
	repo, err := NewArchiveRepository(FileConfig{BasePath: t.TempDir()})
	require.NoError(t, err)

	oldRel, err := repo.Store(ctx, &models.ExportLog{ID: "old", UserID: "u", SensorID: "s", FileName: "a.csv"}, []byte("x"))
	require.NoError(t, err)
	_, err = repo.Store(ctx, &models.ExportLog{ID: "new", UserID: "u", SensorID: "s", FileName: "b.csv"}, []byte("y"))
	require.NoError(t, err)

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(repo.config.BasePath, oldRel), past, past))

	deleted, err := repo.DeleteOlderThan(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
}

func TestNewArchiveRepositoryRequiresPath(t *testing.T) {
	_, err := NewArchiveRepository(FileConfig{})
	assert.True(t, errors.IsValidation(err))
}
