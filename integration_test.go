//go:build integration

package netql_test

import (
	"context"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/biyonik/go-netql"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("netql"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

type order struct {
	ID     int64   `db:"id"`
	UserID int64   `db:"user_id"`
	Total  float64 `db:"total"`
	Note   *string `db:"note"`
}

type newOrder struct {
	UserID int64   `db:"user_id"`
	Total  float64 `db:"total"`
	Note   *string `db:"note"`
}

func TestPostgresStatements(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	db, err := netql.Connect("pgx", dsn)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.ExecContext(ctx, `CREATE TABLE orders (id BIGSERIAL PRIMARY KEY, user_id BIGINT NOT NULL, total NUMERIC(10,2) NOT NULL, note TEXT)`)
	require.NoError(t, err)

	note := "gift"
	_, err = db.Insert("orders").Bulk([]newOrder{
		{UserID: 1, Total: 10.5},
		{UserID: 1, Total: 99.9, Note: &note},
		{UserID: 2, Total: 150},
	}).Execute(nil)
	require.NoError(t, err)

	big, err := netql.ReadAsList[order](ctx, db.From("orders").
		WhereOp("total", ">", 50).
		WhereIn("user_id", func(sub *netql.Builder) {
			sub.Select("user_id", "orders").WhereNotNull("note")
		}).
		Asc("id"))
	require.NoError(t, err)
	require.Len(t, big, 1)
	assert.Equal(t, 99.9, big[0].Total)
	require.NotNil(t, big[0].Note)
	assert.Equal(t, "gift", *big[0].Note)

	sum, ok, err := netql.ReadSingle[float64](ctx, db.Query("SELECT SUM(total) FROM orders WHERE user_id = :uid").Param("uid", 1))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 110.4, sum, 0.001)

	b := db.Builder().Transaction(true)
	_, err = b.Update("orders").SetValue("total", 0).Where("user_id", 2).Execute(nil)
	require.NoError(t, err)
	require.NoError(t, b.Rollback())

	total, _, err := netql.ReadSingle[float64](ctx, db.Select("total", "orders").Where("user_id", 2))
	require.NoError(t, err)
	assert.Equal(t, 150.0, total)

	found, err := db.From("orders").Where("user_id", 3).IsExist()
	require.NoError(t, err)
	assert.False(t, found)
}
