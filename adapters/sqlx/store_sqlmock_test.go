package sqlx_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	libsqlx "github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	storage "seasonkit/adapters/sqlx"
	"seasonkit/core"
)

func newMockStore(t *testing.T) (*storage.Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	xdb := storage.NewWithDB(libsqlx.NewDb(db, "postgres"), storage.DriverPostgres)
	cleanup := func() {
		_ = db.Close()
	}
	return xdb, mock, cleanup
}

func TestSQLMock_EnsureLeaderboards(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	defs := []core.LeaderboardDef{
		{ID: "holiday2024:all-time", Index: 100, Title: "Top Donors"},
		{ID: "holiday2024:day", Index: 101, Title: "Top Donors Today"},
	}
	for _, d := range defs {
		mock.ExpectExec(`INSERT INTO event_leaderboard`).
			WithArgs(d.ID, d.Index, d.Title, d.Description, d.ScoringDescription).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	require.NoError(t, store.EnsureLeaderboards(context.Background(), defs))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_ReplaceDayResults(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	day := time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC)
	rows := []core.LeaderboardResult{
		{LeaderboardID: "holiday2024:red", Date: day, UserID: 2, Score: 100, Position: 1},
		{LeaderboardID: "holiday2024:red", Date: day, UserID: 4, Score: 40, Position: 2},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM event_leaderboard_result`).
		WithArgs("holiday2024:red", day).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO event_leaderboard_result`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, store.ReplaceDayResults(context.Background(), "holiday2024:red", day, rows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_ReplaceDayResults_EmptySetStillDeletes(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	day := time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM event_leaderboard_result`).
		WithArgs("holiday2024:green", day).
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectCommit()

	require.NoError(t, store.ReplaceDayResults(context.Background(), "holiday2024:green", day, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_ReplaceDayResults_RollbackOnInsertFailure(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	day := time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC)
	rows := []core.LeaderboardResult{
		{LeaderboardID: "holiday2024:red", Date: day, UserID: 2, Score: 100, Position: 1},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM event_leaderboard_result`).
		WithArgs("holiday2024:red", day).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO event_leaderboard_result`).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	require.Error(t, store.ReplaceDayResults(context.Background(), "holiday2024:red", day, rows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_MarkCosmeticWinner(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectExec(`UPDATE cosmetic SET winner`).
		WithArgs(int64(1000)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.MarkCosmeticWinner(context.Background(), 1000))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_UnequipCosmetics(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectExec(`UPDATE user_cosmetic SET equipped_at = NULL`).
		WithArgs(int64(10), int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 7))

	require.NoError(t, store.UnequipCosmetics(context.Background(), []int64{10, 11}))
	require.NoError(t, mock.ExpectationsWereMet())

	// Empty input never reaches the database.
	require.NoError(t, store.UnequipCosmetics(context.Background(), nil))
}

func TestSQLMock_UserCosmeticData(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	ctx := context.Background()
	user := core.UserID(2)

	mock.ExpectQuery(`SELECT donated, purchased FROM user_cosmetic`).
		WithArgs(user, int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"donated", "purchased"}).AddRow(75, 20))

	data, err := store.UserCosmeticData(ctx, user, 42)
	require.NoError(t, err)
	require.Equal(t, int64(75), data.Donated)
	require.Equal(t, int64(20), data.Purchased)

	// Missing row reads as a zero value, not an error.
	mock.ExpectQuery(`SELECT donated, purchased FROM user_cosmetic`).
		WithArgs(user, int64(43)).
		WillReturnError(sql.ErrNoRows)

	data, err = store.UserCosmeticData(ctx, user, 43)
	require.NoError(t, err)
	require.Equal(t, core.UserCosmeticData{}, data)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_SetCosmeticCounter(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectExec(`INSERT INTO user_cosmetic \(user_id, cosmetic_id, donated\)`).
		WithArgs(core.UserID(2), int64(42), int64(100)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.SetCosmeticCounter(context.Background(), 2, 42, core.CounterDonated, 100))
	require.NoError(t, mock.ExpectationsWereMet())

	require.Error(t, store.SetCosmeticCounter(context.Background(), 2, 42, "bogus", 1))
}

func TestSQLMock_LatestCollectionImage(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT url, username FROM collection_image`).
		WithArgs("holiday-entries").
		WillReturnRows(sqlmock.NewRows([]string{"url", "username"}).AddRow("latest.png", "alice"))

	url, username, err := store.LatestCollectionImage(context.Background(), "holiday-entries")
	require.NoError(t, err)
	require.Equal(t, "latest.png", url)
	require.Equal(t, "alice", username)

	mock.ExpectQuery(`SELECT url, username FROM collection_image`).
		WithArgs("empty").
		WillReturnError(sql.ErrNoRows)

	url, username, err = store.LatestCollectionImage(context.Background(), "empty")
	require.NoError(t, err)
	require.Empty(t, url)
	require.Empty(t, username)
	require.NoError(t, mock.ExpectationsWereMet())
}
