package sqlstore

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jrsteele09/go-accounts-dashboard/accounting"
	"github.com/jrsteele09/go-accounts-dashboard/groups"
	"github.com/jrsteele09/go-accounts-dashboard/internal/errors"
	"github.com/jrsteele09/go-accounts-dashboard/reports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{"id", "title", "description", "tenants", "report", "reported_at", "created_at"}

func setupMockDB(t *testing.T, d Dialect) (*sql.DB, sqlmock.Sqlmock, *Store) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, New(db, d)
}

func TestInsertUsesDialectPlaceholders(t *testing.T) {
	created := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)
	g := &groups.Group{ID: "g1", Title: "G1", Description: "desc", Tenants: []string{"tid1", "tid2"}, CreatedAt: created}

	t.Run("postgres", func(t *testing.T) {
		db, mock, store := setupMockDB(t, &PostgresDialect{})
		defer db.Close()

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO dashboard_groups (id, title, description, tenants, report, created_at) VALUES ($1, $2, $3, $4, $5, $6)")).
			WithArgs("g1", "G1", "desc", `["tid1","tid2"]`, `[]`, created).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, store.Insert(context.Background(), g))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("sqlite", func(t *testing.T) {
		db, mock, store := setupMockDB(t, &SQLiteDialect{})
		defer db.Close()

		mock.ExpectExec(regexp.QuoteMeta("VALUES (?, ?, ?, ?, ?, ?)")).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, store.Insert(context.Background(), g))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestInsertFailureIsPersistenceError(t *testing.T) {
	db, mock, store := setupMockDB(t, &PostgresDialect{})
	defer db.Close()

	mock.ExpectExec(`INSERT`).WillReturnError(sql.ErrConnDone)

	err := store.Insert(context.Background(), &groups.Group{ID: "g1"})
	assert.True(t, errors.Is(err, errors.ErrPersistence))
	assert.Equal(t, "exec", errors.CauseOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListDecodesRowsInOrder(t *testing.T) {
	db, mock, store := setupMockDB(t, &PostgresDialect{})
	defer db.Close()

	created := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(columns).
		AddRow("g1", "G1", "desc", `["tid1","tid2"]`, `[]`, nil, created).
		AddRow("g2", "G2", "", `["tid2","tid2"]`, `[{"tenantId":"tid2","tenantName":"Two","report":{"ReportID":"ProfitAndLoss"}}]`, created.Add(time.Hour), created.Add(time.Minute))
	mock.ExpectQuery(regexp.QuoteMeta("FROM dashboard_groups ORDER BY created_at, id")).WillReturnRows(rows)

	list, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, []string{"tid1", "tid2"}, list[0].Tenants)
	assert.True(t, list[0].ReportedAt.IsZero())
	assert.Empty(t, list[0].Report)
	assert.Equal(t, []string{"tid2", "tid2"}, list[1].Tenants)
	require.Len(t, list[1].Report, 1)
	assert.Equal(t, "Two", list[1].Report[0].TenantName)
	assert.Equal(t, "ProfitAndLoss", list[1].Report[0].Report.ReportID)
	assert.Equal(t, created.Add(time.Hour), list[1].ReportedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListCorruptColumn(t *testing.T) {
	db, mock, store := setupMockDB(t, &PostgresDialect{})
	defer db.Close()

	rows := sqlmock.NewRows(columns).AddRow("g1", "G1", "", `not json`, `[]`, nil, time.Now())
	mock.ExpectQuery(`SELECT`).WillReturnRows(rows)

	_, err := store.List(context.Background())
	assert.True(t, errors.Is(err, errors.ErrPersistence))
	assert.Equal(t, "scan", errors.CauseOf(err))
}

func TestGetNotFound(t *testing.T) {
	db, mock, store := setupMockDB(t, &PostgresDialect{})
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	g, err := store.Get(context.Background(), "missing")
	assert.Nil(t, g)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetReportReplaces(t *testing.T) {
	db, mock, store := setupMockDB(t, &PostgresDialect{})
	defer db.Close()

	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	report := []reports.Result{{TenantID: "tid1", TenantName: "One", Report: accounting.Report{ReportID: "r"}}}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE dashboard_groups SET report = $1, reported_at = $2 WHERE id = $3")).
		WithArgs(`[{"tenantId":"tid1","tenantName":"One","report":{"ReportID":"r"}}]`, at, "g1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE`).
		WithArgs(`[]`, at, "gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.SetReport(context.Background(), "g1", report, at))
	err := store.SetReport(context.Background(), "gone", nil, at)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	defer store.Close()

	base := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Insert(ctx, &groups.Group{ID: "01B", Title: "Second", Tenants: []string{"t2"}, CreatedAt: base.Add(time.Second)}))
	require.NoError(t, store.Insert(ctx, &groups.Group{ID: "01A", Title: "First", Description: "d", Tenants: []string{"t1", "t1"}, CreatedAt: base}))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "First", list[0].Title)
	assert.Equal(t, []string{"t1", "t1"}, list[0].Tenants)
	assert.True(t, base.Equal(list[0].CreatedAt))
	assert.Equal(t, "Second", list[1].Title)

	at := base.Add(time.Hour)
	first := []reports.Result{{TenantID: "t1", Report: accounting.Report{ReportID: "one"}}, {TenantID: "t1", Report: accounting.Report{ReportID: "two"}}}
	require.NoError(t, store.SetReport(ctx, "01A", first, at))
	require.NoError(t, store.SetReport(ctx, "01A", first[:1], at))

	g, err := store.Get(ctx, "01A")
	require.NoError(t, err)
	require.Len(t, g.Report, 1)
	assert.Equal(t, "one", g.Report[0].Report.ReportID)
	assert.True(t, at.Equal(g.ReportedAt))

	_, err = store.Get(ctx, "nope")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
