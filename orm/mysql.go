package orm

import (
	"database/sql"
	"time"

	"github.com/go-sql-driver/mysql"
)

// MySQLDSN the data source name of a parsed config
func MySQLDSN(conf *DBConfig) string {
	dsn := mysql.NewConfig()
	dsn.User = conf.User
	dsn.Passwd = conf.Pass
	dsn.Net = "tcp"
	dsn.Addr = conf.Addr
	dsn.DBName = conf.Schema
	dsn.ParseTime = true
	dsn.Loc = time.Local
	dsn.Timeout = conf.timeout
	if conf.Charset != "" {
		dsn.Params = map[string]string{"charset": conf.Charset}
	}
	return dsn.FormatDSN()
}

// NewMySQLDBPool parse conf and open the mysql pool,the connections are
// established lazily
func NewMySQLDBPool(conf *DBConfig) (*Pool, error) {
	if conf == nil {
		return nil, NewDBError(nil, "nil db config")
	}
	if err := conf.Parse(); err != nil {
		return nil, NewDBError(err, "invalid db config")
	}

	db, err := sql.Open("mysql", MySQLDSN(conf))
	if err != nil {
		return nil, NewDBError(err, "open "+conf.Addr)
	}
	db.SetMaxOpenConns(conf.MaxOpen)
	db.SetMaxIdleConns(conf.MaxIdle)
	db.SetConnMaxLifetime(conf.maxLifetime)
	return NewPool(conf.Addr+"/"+conf.Schema, db), nil
}
