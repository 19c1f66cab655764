// Package orm supplies the database pool and transaction helpers
package orm

import (
	"context"
	"database/sql"
	"fmt"

	c "github.com/d0ngw/counter/common"
)

// DBError the database operation error
type DBError struct {
	Msg string
	Err error
}

func (e *DBError) Error() string {
	return fmt.Sprintf("DBError msg:%s,err:%v", e.Msg, e.Err)
}

// Unwrap the cause
func (e *DBError) Unwrap() error {
	return e.Err
}

// NewDBError create DBError
func NewDBError(err error, msg string) *DBError {
	return &DBError{Msg: msg, Err: err}
}

// NewDBErrorf create DBError with fmt.Sprintf
func NewDBErrorf(err error, msgFormat string, args ...interface{}) *DBError {
	return &DBError{Msg: fmt.Sprintf(msgFormat, args...), Err: err}
}

// TxFunc runs in a transaction
type TxFunc func(tx *sql.Tx) error

// Pool the database connection pool
type Pool struct {
	name string
	db   *sql.DB
}

// NewPool wrap db
func NewPool(name string, db *sql.DB) *Pool {
	return &Pool{name: name, db: db}
}

// Name the pool name
func (p *Pool) Name() string {
	return p.name
}

// DB the underlying sql.DB
func (p *Pool) DB() *sql.DB {
	return p.db
}

// Close close the pool
func (p *Pool) Close() error {
	return p.db.Close()
}

// DoInTrans runs op in a transaction,commit when op succeeds and rollback otherwise
func (p *Pool) DoInTrans(ctx context.Context, op TxFunc) (err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return NewDBError(err, "begin transaction")
	}
	succ := false
	defer func() {
		if succ {
			if cerr := tx.Commit(); cerr != nil {
				err = NewDBError(cerr, "commit")
			}
			return
		}
		if rerr := tx.Rollback(); rerr != nil {
			c.Errorf("rollback %s fail,err:%v", p.name, rerr)
		}
	}()
	if err = op(tx); err != nil {
		c.Errorf("operation in %s fail:%v", p.name, err)
		return err
	}
	succ = true
	return nil
}
