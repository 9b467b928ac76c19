package postgres

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dosense/dohub/internal/config"
	"github.com/dosense/dohub/internal/database"
	"github.com/dosense/dohub/internal/errors"
	"github.com/dosense/dohub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func newTestDB(t *testing.T) database.DB {
	t.Helper()
	db, err := database.New(context.Background(), config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "hub.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedUserAndSensor(t *testing.T, db database.DB, userID, sensorID string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, NewUserRepository(db).Create(ctx, &models.User{
		ID: userID, Email: userID + "@example.com", Name: "Test", PasswordHash: "x", Role: models.RoleOperator,
		CreatedAt: 1, UpdatedAt: 1,
	}))
	require.NoError(t, NewSensorRepository(db).Create(ctx, &models.Sensor{
		ID: sensorID, UserID: userID, Name: "Tank sensor", APIKey: "key-" + sensorID, SensorType: models.DefaultSensorType,
		CreatedAt: 1, UpdatedAt: 1,
	}))
}

func TestUserRepo(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewUserRepository(db)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	user := &models.User{ID: "usr_1", Email: "Ana@Example.com", Name: "Ana", PasswordHash: "hash", Role: models.RoleOperator, CreatedAt: 10, UpdatedAt: 10}
	require.NoError(t, repo.Create(ctx, user))

	err = repo.Create(ctx, &models.User{ID: "usr_2", Email: "Ana@Example.com", Name: "Dup", PasswordHash: "h", Role: models.RoleOperator})
	require.Error(t, err)

	got, err := repo.GetByEmail(ctx, "ana@example.COM")
	require.NoError(t, err)
	assert.Equal(t, "usr_1", got.ID)
	assert.Nil(t, got.ResetToken)

	token, expires := "reset-token-123", int64(999)
	got.ResetToken, got.ResetExpires = &token, &expires
	got.Timezone = "Europe/Berlin"
	require.NoError(t, repo.Update(ctx, got))

	byToken, err := repo.GetByResetToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", byToken.Timezone)
	assert.Equal(t, int64(999), *byToken.ResetExpires)

	_, err = repo.Get(ctx, "usr_missing")
	assert.True(t, errors.IsNotFound(err))

	err = repo.Update(ctx, &models.User{ID: "usr_missing"})
	assert.True(t, errors.IsNotFound(err))
}

func TestSensorRepoOwnership(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedUserAndSensor(t, db, "usr_a", "sen_a")
	seedUserAndSensor(t, db, "usr_b", "sen_b")
	repo := NewSensorRepository(db)

	s, err := repo.GetByIDAndUser(ctx, "sen_a", "usr_a")
	require.NoError(t, err)
	assert.Equal(t, "key-sen_a", s.APIKey)

	_, err = repo.GetByIDAndUser(ctx, "sen_a", "usr_b")
	assert.True(t, errors.IsNotFound(err))

	require.NoError(t, repo.Create(ctx, &models.Sensor{ID: "sen_a2", UserID: "usr_a", Name: "Second", APIKey: "k2", SensorType: "t", CreatedAt: 5, UpdatedAt: 5}))
	list, err := repo.ListByUser(ctx, "usr_a")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "sen_a2", list[0].ID)

	require.NoError(t, repo.UpdateAPIKey(ctx, "sen_a", "rotated", 50))
	byKey, err := repo.GetByAPIKey(ctx, "rotated")
	require.NoError(t, err)
	assert.Equal(t, "sen_a", byKey.ID)
	_, err = repo.GetByAPIKey(ctx, "key-sen_a")
	assert.True(t, errors.IsNotFound(err))

	require.NoError(t, repo.UpdateLastSeen(ctx, "sen_a", 77))
	s, err = repo.Get(ctx, "sen_a")
	require.NoError(t, err)
	require.NotNil(t, s.LastSeen)
	assert.Equal(t, int64(77), *s.LastSeen)

	assert.True(t, errors.IsNotFound(repo.UpdateLastSeen(ctx, "sen_missing", 1)))
}

func TestReadingRepo(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedUserAndSensor(t, db, "usr_a", "sen_a")
	seedUserAndSensor(t, db, "usr_b", "sen_b")
	repo := NewReadingRepository(db)

	// inserted out of capture order
	for _, ts := range []int64{300, 100, 200, 400} {
		require.NoError(t, repo.Insert(ctx, &models.Reading{SensorID: "sen_a", CapturedAt: ts, DOConcentration: f64(float64(ts) / 100), CreatedAt: 1}))
	}
	require.NoError(t, repo.Insert(ctx, &models.Reading{SensorID: "sen_b", CapturedAt: 150, Temperature: f64(20), CreatedAt: 1}))

	rows, err := repo.ListRange(ctx, "sen_a", 100, 300)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []int64{100, 200, 300}, []int64{rows[0].CapturedAt, rows[1].CapturedAt, rows[2].CapturedAt})
	assert.Equal(t, 1.0, *rows[0].DOConcentration)
	assert.Nil(t, rows[0].Temperature)
	assert.NotEmpty(t, rows[0].ID)

	recent, err := repo.ListRecent(ctx, "sen_a", 0, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, int64(300), recent[0].CapturedAt)
	assert.Equal(t, int64(400), recent[1].CapturedAt)

	latest, err := repo.Latest(ctx, "sen_a")
	require.NoError(t, err)
	assert.Equal(t, int64(400), latest.CapturedAt)
	_, err = repo.Latest(ctx, "sen_none")
	assert.True(t, errors.IsNotFound(err))

	stats, err := repo.Stats(ctx, "sen_a")
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalReadings)
	assert.Equal(t, int64(100), *stats.EarliestTimestamp)
	assert.Equal(t, int64(400), *stats.LatestTimestamp)

	empty, err := repo.Stats(ctx, "sen_none")
	require.NoError(t, err)
	assert.Zero(t, empty.TotalReadings)
	assert.Nil(t, empty.EarliestTimestamp)

	count, err := repo.CountByUser(ctx, "usr_a")
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	buckets, err := repo.Buckets(ctx, "sen_a", 0, 1000, 200)
	require.NoError(t, err)
	require.Len(t, buckets, 3)
	assert.Equal(t, int64(0), buckets[0].Timestamp)
	assert.Equal(t, int64(1), buckets[0].Count)
	assert.Equal(t, int64(200), buckets[1].Timestamp)
	assert.Equal(t, int64(2), buckets[1].Count)
	assert.InDelta(t, 2.5, *buckets[1].DOConcentration, 1e-9)
	assert.Nil(t, buckets[1].Temperature)

	deleted, err := repo.DeleteOlderThan(ctx, 250)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
}

func TestCalibrationRepo(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedUserAndSensor(t, db, "usr_a", "sen_a")
	repo := NewCalibrationRepository(db)

	require.NoError(t, repo.CreateEvent(ctx, &models.CalibrationEvent{SensorID: "sen_a", Mode: models.CalibrationZero, Timestamp: 10, CreatedAt: 10}))
	require.NoError(t, repo.CreateEvent(ctx, &models.CalibrationEvent{SensorID: "sen_a", Mode: models.CalibrationSpan, Value: f64(9.1), Timestamp: 20, CreatedAt: 20}))

	events, err := repo.ListEvents(ctx, "sen_a", 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.CalibrationSpan, events[0].Mode)
	assert.Equal(t, 9.1, *events[0].Value)
	assert.Nil(t, events[1].Value)

	_, err = repo.GetDAC(ctx, "sen_a")
	assert.True(t, errors.IsNotFound(err))

	require.NoError(t, repo.UpsertDAC(ctx, &models.DACSetting{SensorID: "sen_a", CorrectedDO: f64(7.5), UpdatedAt: 1}))
	require.NoError(t, repo.UpsertDAC(ctx, &models.DACSetting{SensorID: "sen_a", CorrectedDO: f64(8.5), UpdatedAt: 2}))
	dac, err := repo.GetDAC(ctx, "sen_a")
	require.NoError(t, err)
	assert.Equal(t, 8.5, *dac.CorrectedDO)
	assert.Equal(t, int64(2), dac.UpdatedAt)
}

func TestExportLogRepo(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedUserAndSensor(t, db, "usr_a", "sen_a")
	repo := NewExportLogRepository(db)

	for i := int64(1); i <= 3; i++ {
		require.NoError(t, repo.Create(ctx, &models.ExportLog{
			UserID: "usr_a", SensorID: "sen_a", Format: "csv", Records: int(i), SizeBytes: 10 * i,
			Compressed: i == 3, FileName: "f.csv", ContentType: "text/csv", CreatedAt: i,
		}))
	}

	page, err := repo.ListByUser(ctx, "usr_a", 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, 3, page[0].Records)
	assert.True(t, page[0].Compressed)
	assert.False(t, page[0].Archived())

	next, err := repo.ListByUser(ctx, "usr_a", 2, 2)
	require.NoError(t, err)
	require.Len(t, next, 1)

	got, err := repo.Get(ctx, page[1].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), got.SizeBytes)
}

func TestAccountCascadeInTransaction(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedUserAndSensor(t, db, "usr_a", "sen_a")
	seedUserAndSensor(t, db, "usr_b", "sen_b")

	users := NewUserRepository(db)
	sensors := NewSensorRepository(db)
	readings := NewReadingRepository(db)
	calibration := NewCalibrationRepository(db)
	exports := NewExportLogRepository(db)

	require.NoError(t, readings.Insert(ctx, &models.Reading{SensorID: "sen_a", CapturedAt: 1, CreatedAt: 1}))
	require.NoError(t, readings.Insert(ctx, &models.Reading{SensorID: "sen_b", CapturedAt: 1, CreatedAt: 1}))
	require.NoError(t, calibration.UpsertDAC(ctx, &models.DACSetting{SensorID: "sen_a", UpdatedAt: 1}))
	require.NoError(t, calibration.CreateEvent(ctx, &models.CalibrationEvent{SensorID: "sen_a", Mode: models.CalibrationZero, Timestamp: 1, CreatedAt: 1}))
	require.NoError(t, exports.Create(ctx, &models.ExportLog{UserID: "usr_a", SensorID: "sen_a", Format: "csv", FileName: "f", ContentType: "text/csv", CreatedAt: 1}))

	tx, err := users.BeginTx(ctx)
	require.NoError(t, err)
	ids := []string{"sen_a"}
	require.NoError(t, readings.DeleteBySensorIDs(ctx, ids, tx))
	require.NoError(t, calibration.DeleteBySensorIDs(ctx, ids, tx))
	require.NoError(t, exports.DeleteByUser(ctx, "usr_a", tx))
	require.NoError(t, sensors.DeleteByUser(ctx, "usr_a", tx))
	require.NoError(t, users.DeleteWithTx(ctx, "usr_a", tx))
	require.NoError(t, users.Commit(tx))

	_, err = users.Get(ctx, "usr_a")
	assert.True(t, errors.IsNotFound(err))
	stats, err := readings.Stats(ctx, "sen_b")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalReadings)
	count, err := users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRollbackKeepsData(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedUserAndSensor(t, db, "usr_a", "sen_a")
	sensors := NewSensorRepository(db)

	tx, err := sensors.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, sensors.DeleteWithTx(ctx, "sen_a", tx))
	require.NoError(t, sensors.Rollback(tx))

	_, err = sensors.Get(ctx, "sen_a")
	assert.NoError(t, err)
}
