package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	c "github.com/d0ngw/counter/common"
	"github.com/d0ngw/counter/counter"
	"github.com/d0ngw/counter/orm"
	perrors "github.com/pkg/errors"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// DBSink merges the drained fields into a mysql row of the key.
//
// The table has the columns id (primary key),val (the fields as json) and
// ut (last update,unix milliseconds).
type DBSink struct {
	pool  *orm.Pool
	table string
}

// NewDBSink create DBSink on table
func NewDBSink(pool *orm.Pool, table string) (*DBSink, error) {
	if pool == nil {
		return nil, errors.New("pool must not be nil")
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &DBSink{pool: pool, table: table}, nil
}

// CreateTable create the table when it does not exist
func (p *DBSink) CreateTable(ctx context.Context) error {
	_, err := p.pool.DB().ExecContext(ctx, fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS `%s` (`id` VARCHAR(128) NOT NULL PRIMARY KEY,`val` TEXT NOT NULL,`ut` BIGINT NOT NULL)", p.table))
	return perrors.Wrapf(err, "create table %s", p.table)
}

// Store implements counter.Sink
func (p *DBSink) Store(ctx context.Context, key string, fields counter.Fields) error {
	if fields.IsZero() {
		return nil
	}
	err := p.pool.DoInTrans(ctx, func(tx *sql.Tx) error {
		stored, err := p.load(ctx, tx, key, true)
		if err != nil {
			return err
		}
		stored.Add(fields)
		val, err := c.JSON.Marshal(stored)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, fmt.Sprintf(
			"INSERT INTO `%s` (`id`,`val`,`ut`) VALUES (?,?,?) ON DUPLICATE KEY UPDATE `val`=VALUES(`val`),`ut`=VALUES(`ut`)", p.table),
			key, string(val), time.Now().UnixMilli())
		return err
	})
	return perrors.Wrapf(err, "store %s", key)
}

// Load the stored fields of key,empty fields when the row does not exist
func (p *DBSink) Load(ctx context.Context, key string) (counter.Fields, error) {
	fields, err := p.load(ctx, p.pool.DB(), key, false)
	return fields, perrors.Wrapf(err, "load %s", key)
}

// Del delete the row of key
func (p *DBSink) Del(ctx context.Context, key string) (bool, error) {
	rs, err := p.pool.DB().ExecContext(ctx, fmt.Sprintf("DELETE FROM `%s` WHERE `id`=?", p.table), key)
	if err != nil {
		return false, perrors.Wrapf(err, "del %s", key)
	}
	n, err := rs.RowsAffected()
	return n > 0, err
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (p *DBSink) load(ctx context.Context, q queryer, key string, forUpdate bool) (counter.Fields, error) {
	query := fmt.Sprintf("SELECT `val` FROM `%s` WHERE `id`=?", p.table)
	if forUpdate {
		query += " FOR UPDATE"
	}
	var val string
	err := q.QueryRowContext(ctx, query, key).Scan(&val)
	if err == sql.ErrNoRows {
		return counter.Fields{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeFields(val)
}

func decodeFields(val string) (counter.Fields, error) {
	fields := counter.Fields{}
	if val == "" {
		return fields, nil
	}
	if err := c.JSON.UnmarshalFromString(val, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
