package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/d0ngw/counter/cache"
	c "github.com/d0ngw/counter/common"
	"github.com/d0ngw/counter/counter"
	"github.com/d0ngw/counter/counter/persist"
	"github.com/d0ngw/counter/http"
	"github.com/d0ngw/counter/orm"
)

// Config the counterd config
type Config struct {
	c.AppConfig `yaml:",inline"`
	Counter     *CounterConfig   `yaml:"counter"`
	Redis       *cache.RedisConf `yaml:"redis"`
	DB          *orm.DBConfig    `yaml:"db"`
	Journal     *JournalConfig   `yaml:"journal"`
	HTTP        *http.Config     `yaml:"http"`
}

// Parse implements Configurer
func (p *Config) Parse() error {
	if p.Counter == nil {
		p.Counter = &CounterConfig{}
	}
	return c.Parse(p)
}

// CounterConfig the aggregator config
type CounterConfig struct {
	Name       string   `yaml:"name"`
	Fields     []string `yaml:"fields"`
	Strategy   string   `yaml:"strategy"`
	Interval   string   `yaml:"interval"`
	SlowWait   string   `yaml:"slow_wait"`
	Log        bool     `yaml:"log"`         // log every drained key
	RedisGroup string   `yaml:"redis_group"` // store to redis when set
	KeyPrefix  string   `yaml:"key_prefix"`
	Expire     int      `yaml:"expire"` // seconds
	DBTable    string   `yaml:"db_table"`

	schema   *counter.Schema
	strategy counter.Strategy
	interval time.Duration
	slowWait time.Duration
}

// Parse implements Configurer
func (p *CounterConfig) Parse() (err error) {
	if p.Name == "" {
		p.Name = "counter"
	}
	if len(p.Fields) == 0 {
		p.Fields = []string{"like", "comment"}
	}
	if p.schema, err = counter.NewSchema(p.Fields...); err != nil {
		return
	}
	if p.Strategy != "" {
		if p.strategy, err = counter.ParseStrategy(p.Strategy); err != nil {
			return
		}
	}
	p.interval = counter.DefaultDrainInterval
	if p.Interval != "" {
		if p.interval, err = time.ParseDuration(p.Interval); err != nil {
			return fmt.Errorf("invalid interval %s,err:%w", p.Interval, err)
		}
	}
	if p.SlowWait != "" {
		if p.slowWait, err = time.ParseDuration(p.SlowWait); err != nil {
			return fmt.Errorf("invalid slow_wait %s,err:%w", p.SlowWait, err)
		}
	}
	return nil
}

// JournalConfig the journal file config
type JournalConfig struct {
	FileName   string            `yaml:"file_name"`
	MaxSize    datasize.ByteSize `yaml:"max_size"`
	MaxBackups int               `yaml:"max_backups"`
	MaxAge     int               `yaml:"max_age"` // days
	Compress   bool              `yaml:"compress"`
}

// Parse implements Configurer
func (p *JournalConfig) Parse() error {
	if p.FileName == "" {
		return fmt.Errorf("journal needs file_name")
	}
	if p.MaxSize == 0 {
		p.MaxSize = 100 * datasize.MB
	}
	if p.MaxSize < datasize.MB {
		return fmt.Errorf("journal max_size %s is less than 1MB", p.MaxSize.HumanReadable())
	}
	return nil
}

func (p *JournalConfig) persistConfig() *persist.JournalConfig {
	return &persist.JournalConfig{
		FileName:   p.FileName,
		MaxSizeMB:  int(p.MaxSize / datasize.MB),
		MaxBackups: p.MaxBackups,
		MaxAge:     p.MaxAge,
		Compress:   p.Compress,
	}
}

// loadConfig loads path and then the optional <name>.local<ext> next to it
func loadConfig(path string) (*Config, error) {
	conf := &Config{}
	if path == "" {
		return conf, nil
	}
	ext := filepath.Ext(path)
	local := strings.TrimSuffix(path, ext) + ".local" + ext
	if err := c.LoadConfig(conf, "", "", c.Required(path), c.Optional(local)); err != nil {
		return nil, err
	}
	return conf, nil
}
