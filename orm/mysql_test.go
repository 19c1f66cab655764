package orm

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPool connects to the COUNTER_TEST_MYSQL dsn,the test is skipped when
// it is not set
func testPool(t *testing.T) *Pool {
	dsn := os.Getenv("COUNTER_TEST_MYSQL")
	if dsn == "" {
		t.Skip("COUNTER_TEST_MYSQL is not set")
	}
	db, err := sql.Open("mysql", dsn)
	require.Nil(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPool("test", db)
}

func TestDoInTrans(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	_, err := pool.DB().Exec("CREATE TABLE IF NOT EXISTS orm_tx_test (id INT PRIMARY KEY)")
	require.Nil(t, err)
	_, err = pool.DB().Exec("DELETE FROM orm_tx_test")
	require.Nil(t, err)

	err = pool.DoInTrans(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO orm_tx_test (id) VALUES (1)")
		return err
	})
	assert.Nil(t, err)

	fail := errors.New("fail")
	err = pool.DoInTrans(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO orm_tx_test (id) VALUES (2)"); err != nil {
			return err
		}
		return fail
	})
	assert.Equal(t, fail, err)

	var n int
	assert.Nil(t, pool.DB().QueryRow("SELECT COUNT(*) FROM orm_tx_test").Scan(&n))
	assert.Equal(t, 1, n)
}
