package source

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/ahrav/go-luckydraw/internal/ports"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE people (id INTEGER PRIMARY KEY, name TEXT, team TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO people (name, team) VALUES
		('Alice', 'red'), ('Bob', 'blue'), (NULL, 'red'), ('Carol', 'red')`)
	require.NoError(t, err)
	return db
}

func TestSQLSource_Load(t *testing.T) {
	db := openTestDB(t)

	t.Run("all rows", func(t *testing.T) {
		src := NewSQLSource(db, "people", `SELECT name FROM people ORDER BY id`)
		labels, err := src.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"Alice", "Bob", "Carol"}, labels, "NULL names are skipped")
	})

	t.Run("with args", func(t *testing.T) {
		src := NewSQLSource(db, "people", `SELECT name FROM people WHERE team = ? ORDER BY id`, "red")
		labels, err := src.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"Alice", "Carol"}, labels)
	})

	t.Run("rejects multi-column queries", func(t *testing.T) {
		src := NewSQLSource(db, "people", `SELECT id, name FROM people`)
		_, err := src.Load(context.Background())
		assert.ErrorIs(t, err, ports.ErrInvalidResponse)
	})

	t.Run("bad query", func(t *testing.T) {
		src := NewSQLSource(db, "people", `SELECT nope FROM nowhere`)
		_, err := src.Load(context.Background())
		var srcErr *ports.SourceError
		require.ErrorAs(t, err, &srcErr)
		assert.Equal(t, "query", srcErr.Operation)
		assert.Equal(t, "people", srcErr.Source)
	})
}

func TestOpenSQLSource(t *testing.T) {
	src, db, err := OpenSQLSource(context.Background(), "sqlite", ":memory:", `SELECT 'solo'`)
	require.NoError(t, err)
	defer db.Close()

	labels, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"solo"}, labels)

	_, _, err = OpenSQLSource(context.Background(), "no-such-driver", "x", "SELECT 1")
	assert.Error(t, err)
}
