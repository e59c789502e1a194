package sqlstore

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/lineboard/internal/config"
	"github.com/platformbuilds/lineboard/internal/models"
	"github.com/platformbuilds/lineboard/pkg/logger"
)

func newMockStore(t *testing.T, driver string, cfg config.DatabaseConfig) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, driver), cfg, logger.NewNop()), mock
}

func appTime(h, m int) time.Time {
	return time.Date(2024, time.March, 4, h, m, 0, 0, models.AppLocation)
}

func TestDSNFrom_Config(t *testing.T) {
	dsn := dsnFrom(config.DatabaseConfig{Driver: "mysql", Host: "db.local", Port: 3307, Name: "prod", User: "u", Password: "p"})
	assert.Contains(t, dsn, "u:p@tcp(db.local:3307)/prod")
	assert.Contains(t, dsn, "parseTime=true")

	dsn = dsnFrom(config.DatabaseConfig{Driver: "postgres", Host: "pg", Name: "prod", User: "u", Password: "p"})
	assert.Equal(t, "postgres://u:p@pg:5432/prod?sslmode=disable", dsn)

	dsn = dsnFrom(config.DatabaseConfig{Driver: "mysql", DSN: "explicit"})
	assert.Equal(t, "explicit", dsn)
}

func TestStore_Units(t *testing.T) {
	s, mock := newMockStore(t, "mysql", config.DatabaseConfig{})
	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT `UnitName` FROM `ProductRecordLogView` ORDER BY `UnitName`")).
		WillReturnRows(sqlmock.NewRows([]string{"UnitName"}).AddRow("L1").AddRow("L2"))

	units, err := s.Units(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"L1", "L2"}, units)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Records(t *testing.T) {
	s, mock := newMockStore(t, "mysql", config.DatabaseConfig{})
	rows := sqlmock.NewRows([]string{"model", "ts", "passed", "target_rate"}).
		AddRow("M1", time.Date(2024, 3, 4, 6, 0, 5, 0, time.UTC), 1, 100.0).
		AddRow("M1", time.Date(2024, 3, 4, 6, 1, 0, 0, time.UTC), 0, 100.0).
		AddRow("M2", time.Date(2024, 3, 4, 6, 2, 0, 0, time.UTC), 1, nil)
	mock.ExpectQuery("SELECT `Model` AS model, `KayitTarihi` AS ts .* FROM `ProductRecordLogView` WHERE `UnitName` = \\? AND `KayitTarihi` BETWEEN \\? AND \\?").
		WithArgs("L1", "2024-03-04 06:00:00", "2024-03-04 07:00:00").
		WillReturnRows(rows)

	// The window end is given in UTC; it must be queried as app-zone wall clock.
	got, err := s.Records(context.Background(), "L1", appTime(6, 0), appTime(7, 0).UTC())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].Passed)
	assert.False(t, got[1].Passed)
	assert.True(t, got[0].Timestamp.Equal(appTime(6, 0).Add(5*time.Second)))
	require.NotNil(t, got[0].TargetRate)
	assert.Equal(t, 100.0, *got[0].TargetRate)
	assert.Nil(t, got[2].TargetRate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ModelCountsPostgres(t *testing.T) {
	s, mock := newMockStore(t, "postgres", config.DatabaseConfig{View: "plant.production_log"})
	assert.True(t, strings.Contains(s.qCounts, `FROM "plant"."production_log"`))
	assert.True(t, strings.Contains(s.qCounts, `"UnitName" = $1`))

	mock.ExpectQuery(`SUM\(CASE WHEN "TestSonucu" = 1`).
		WithArgs("L2", "2024-03-04 06:00:00", "2024-03-04 06:30:00").
		WillReturnRows(sqlmock.NewRows([]string{"model", "success_qty", "fail_qty", "target_rate"}).
			AddRow("M1", 80, 20, 100.0).
			AddRow("M2", 4, nil, nil))

	got, err := s.ModelCounts(context.Background(), "L2", appTime(6, 0), appTime(6, 30))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(80), got[0].SuccessQty)
	assert.Equal(t, int64(20), got[0].FailQty)
	assert.Equal(t, int64(0), got[1].FailQty)
	assert.Nil(t, got[1].TargetRate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_FailuresTripBreaker(t *testing.T) {
	s, mock := newMockStore(t, "mysql", config.DatabaseConfig{
		Breaker: config.BreakerConfig{ConsecutiveFailures: 2, OpenTimeout: time.Minute},
	})
	boom := errors.New("connection refused")
	mock.ExpectQuery("SELECT DISTINCT").WillReturnError(boom)
	mock.ExpectQuery("SELECT DISTINCT").WillReturnError(boom)

	ctx := context.Background()
	_, err := s.Units(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.ErrorIs(t, err, boom)

	_, err = s.Units(ctx)
	require.Error(t, err)

	// Open breaker: no query reaches the database.
	_, err = s.Units(ctx)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Ping(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	s := New(sqlx.NewDb(db, "mysql"), config.DatabaseConfig{}, logger.NewNop())

	mock.ExpectPing()
	assert.NoError(t, s.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("down"))
	assert.ErrorIs(t, s.Ping(context.Background()), ErrSourceUnavailable)
}
