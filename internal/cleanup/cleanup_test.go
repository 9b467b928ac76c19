package cleanup

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dosense/dohub/internal/config"
	"github.com/dosense/dohub/internal/database"
	"github.com/dosense/dohub/internal/errors"
	"github.com/dosense/dohub/internal/models"
	"github.com/dosense/dohub/internal/repository/files"
	"github.com/dosense/dohub/internal/repository/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc         *CleanupService
	users       *postgres.UserRepo
	sensors     *postgres.SensorRepo
	readings    *postgres.ReadingRepo
	calibration *postgres.CalibrationRepo
	exports     *postgres.ExportLogRepo
	archive     *files.ArchiveRepo
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	ctx := context.Background()
	db, err := database.New(ctx, config.DatabaseConfig{Driver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "hub.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	archive, err := files.NewArchiveRepository(files.FileConfig{BasePath: t.TempDir()})
	require.NoError(t, err)

	f := &fixture{
		users:       postgres.NewUserRepository(db),
		sensors:     postgres.NewSensorRepository(db),
		readings:    postgres.NewReadingRepository(db),
		calibration: postgres.NewCalibrationRepository(db),
		exports:     postgres.NewExportLogRepository(db),
		archive:     archive,
	}
	f.svc = New(f.users, f.sensors, f.readings, f.calibration, f.exports, Options{
		Archive:       archive,
		RetentionDays: 30,
		Now:           func() time.Time { return now },
	})
	return f
}

func (f *fixture) seed(t *testing.T, userID string, sensorIDs ...string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.users.Create(ctx, &models.User{ID: userID, Email: userID + "@x.io", Name: "n", PasswordHash: "h", Role: models.RoleOperator}))
	for _, id := range sensorIDs {
		require.NoError(t, f.sensors.Create(ctx, &models.Sensor{ID: id, UserID: userID, Name: "p", APIKey: "k" + id, SensorType: "t"}))
		require.NoError(t, f.readings.Insert(ctx, &models.Reading{SensorID: id, CapturedAt: 100}))
		require.NoError(t, f.calibration.UpsertDAC(ctx, &models.DACSetting{SensorID: id, UpdatedAt: 1}))
	}
}

type recorder struct {
	mu  sync.Mutex
	ids []string
}

func (r *recorder) add(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

func TestDeleteAccountCascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Unix(1_000_000, 0))
	f.seed(t, "usr_a", "sen_1", "sen_2")
	f.seed(t, "usr_b", "sen_3")

	log := &models.ExportLog{ID: "exp_1", UserID: "usr_a", SensorID: "sen_1", Format: "csv", FileName: "f.csv", ContentType: "text/csv"}
	path, err := f.archive.Store(ctx, log, []byte("x"))
	require.NoError(t, err)
	log.ArchivePath = path
	require.NoError(t, f.exports.Create(ctx, log))

	accounts, sensors := &recorder{}, &recorder{}
	f.svc.OnCleanup(EventAccountDeleted, accounts.add)
	f.svc.OnCleanup(EventSensorDeleted, sensors.add)

	require.NoError(t, f.svc.DeleteAccount(ctx, "usr_a"))

	_, err = f.users.Get(ctx, "usr_a")
	assert.True(t, errors.IsNotFound(err))
	remaining, err := f.sensors.ListByUser(ctx, "usr_a")
	require.NoError(t, err)
	assert.Empty(t, remaining)
	_, err = f.calibration.GetDAC(ctx, "sen_1")
	assert.True(t, errors.IsNotFound(err))
	logs, err := f.exports.ListByUser(ctx, "usr_a", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, logs)

	other, err := f.readings.Stats(ctx, "sen_3")
	require.NoError(t, err)
	assert.Equal(t, int64(1), other.TotalReadings)

	assert.Eventually(t, func() bool { return len(accounts.snapshot()) == 1 && len(sensors.snapshot()) == 2 },
		time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"usr_a"}, accounts.snapshot())
	assert.ElementsMatch(t, []string{"sen_1", "sen_2"}, sensors.snapshot())
}

func TestDeleteAccountUnknownUserRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Now())

	err := f.svc.DeleteAccount(ctx, "usr_missing")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestDeleteSensor(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Now())
	f.seed(t, "usr_a", "sen_1", "sen_2")

	require.NoError(t, f.svc.DeleteSensor(ctx, "sen_1"))

	_, err := f.sensors.Get(ctx, "sen_1")
	assert.True(t, errors.IsNotFound(err))
	stats, err := f.readings.Stats(ctx, "sen_1")
	require.NoError(t, err)
	assert.Zero(t, stats.TotalReadings)
	_, err = f.sensors.Get(ctx, "sen_2")
	assert.NoError(t, err)
}

func TestPruneReadings(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(100*86400, 0)
	f := newFixture(t, now)
	f.seed(t, "usr_a", "sen_1")
	require.NoError(t, f.readings.Insert(ctx, &models.Reading{SensorID: "sen_1", CapturedAt: now.Unix() - 86400}))

	pruned := &recorder{}
	f.svc.OnCleanup(EventReadingsPruned, pruned.add)

	deleted, err := f.svc.PruneReadings(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	stats, err := f.readings.Stats(ctx, "sen_1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalReadings)

	assert.Eventually(t, func() bool { return len(pruned.snapshot()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"1"}, pruned.snapshot())
}
