package database

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatementsCoverAllTables(t *testing.T) {
	stmts := Statements()
	require.Len(t, stmts, 8)

	joined := strings.Join(stmts, "\n")
	for _, table := range []string{"customer", "shows", "episode", "actor", "main_cast", "recurring_cast", "cust_queue", "watched"} {
		assert.Contains(t, joined, "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
	assert.Contains(t, joined, "UNIQUE KEY uq_customer_username (username)")
	assert.Contains(t, joined, "PRIMARY KEY (custID, showID, episodeID, datewatched)")
}

func TestMigrateExecutesEachStatement(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer raw.Close()
	db := sqlx.NewDb(raw, "mysql")

	for _, stmt := range Statements() {
		mock.ExpectExec(regexp.QuoteMeta(stmt)).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDSN(t *testing.T) {
	dsn := DSN("app", "secret", "db", "3306", "streamtv")
	assert.True(t, strings.HasPrefix(dsn, "app:secret@tcp(db:3306)/streamtv?"))
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}
