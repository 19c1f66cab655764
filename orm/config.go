package orm

import (
	"errors"
	"fmt"
	"time"
)

// DBConfig the mysql config
type DBConfig struct {
	User   string `yaml:"user"`
	Pass   string `yaml:"pass"`
	Addr   string `yaml:"addr"`
	Schema string `yaml:"schema"`
	// Charset utf8mb4 when empty
	Charset string `yaml:"charset"`
	MaxOpen int    `yaml:"max_open"`
	MaxIdle int    `yaml:"max_idle"`
	// MaxLifetime and Timeout are durations such as "5m",empty means no limit
	MaxLifetime string `yaml:"max_lifetime"`
	Timeout     string `yaml:"timeout"`

	maxLifetime time.Duration
	timeout     time.Duration
}

// Parse implements common.Configurer
func (p *DBConfig) Parse() (err error) {
	if p.Addr == "" || p.Schema == "" {
		return errors.New("db needs addr and schema")
	}
	if p.Charset == "" {
		p.Charset = "utf8mb4"
	}
	if p.maxLifetime, err = parseDuration(p.MaxLifetime); err != nil {
		return fmt.Errorf("invalid max_lifetime %s,err:%w", p.MaxLifetime, err)
	}
	if p.timeout, err = parseDuration(p.Timeout); err != nil {
		return fmt.Errorf("invalid timeout %s,err:%w", p.Timeout, err)
	}
	return nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
