package main

import (
	"fmt"
	"io"

	"github.com/d0ngw/counter/cache"
	c "github.com/d0ngw/counter/common"
	"github.com/d0ngw/counter/counter"
	"github.com/d0ngw/counter/counter/persist"
	"github.com/d0ngw/counter/http"
	"github.com/d0ngw/counter/orm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the counter service",
	Long: `Start the counter service with the YAML config. Flags and the environment
variables COUNTERD_<flag> (e.g. COUNTERD_HTTP_ADDR=:8080) override the config.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("config", "c", "", "the YAML config file")
	serveCmd.Flags().String("http-addr", "", "the admin http address,overrides http.addr")
	serveCmd.Flags().String("strategy", "", "the guard strategy (epoch, optimistic),overrides counter.strategy")
	serveCmd.Flags().String("interval", "", "the drain interval,overrides counter.interval")
}

// applyOverrides copies the flags and env variables set into conf
func applyOverrides(conf *Config) {
	if conf.Counter == nil {
		conf.Counter = &CounterConfig{}
	}
	if v := viper.GetString("strategy"); v != "" {
		conf.Counter.Strategy = v
	}
	if v := viper.GetString("interval"); v != "" {
		conf.Counter.Interval = v
	}
	if v := viper.GetString("http-addr"); v != "" {
		if conf.HTTP == nil {
			conf.HTTP = http.NewConfig(v)
		}
		conf.HTTP.Addr = v
	}
	if v := viper.GetString("log-level"); v != "" {
		if conf.LogConfig == nil {
			conf.LogConfig = &c.LogConfig{}
		}
		conf.LogConfig.Level = v
	}
}

// app is the wired counterd
type app struct {
	aggregator *counter.Aggregator[string]
	schedule   *counter.DrainSchedule[string]
	admin      *http.Service
	services   *c.Services
	closers    []io.Closer
}

func newApp(conf *Config) (a *app, err error) {
	cc := conf.Counter
	a = &app{}
	a.aggregator = counter.New[string](cc.Name, cc.schema,
		counter.WithStrategy(cc.strategy),
		counter.WithSlowWait(cc.slowWait))

	sink, err := a.buildSink(conf)
	if err != nil {
		a.close()
		return nil, err
	}

	if a.schedule, err = counter.NewDrainSchedule[string](a.aggregator, sink, cc.interval); err != nil {
		a.close()
		return nil, err
	}
	services := []c.Service{a.schedule}

	if conf.HTTP != nil {
		if err = http.RegMetrics(conf.HTTP); err != nil {
			a.close()
			return nil, err
		}
		if err = http.NewCounterHandler(a.aggregator).Register(conf.HTTP); err != nil {
			a.close()
			return nil, err
		}
		a.admin = http.NewService("admin", conf.HTTP)
		a.admin.Order = 1
		services = append(services, a.admin)
	}
	a.services = c.NewServices(services...)
	return a, nil
}

func (p *app) buildSink(conf *Config) (counter.Sink[string], error) {
	cc := conf.Counter
	var sinks persist.MultiSink[string]

	if cc.Log {
		logger := c.NewZapLogger(conf.logConfig()).Structured()
		sinks = append(sinks, persist.Instrument[string](cc.Name, "log", persist.NewLogSink[string](logger.Named(cc.Name))))
	}
	if cc.RedisGroup != "" {
		if conf.Redis == nil || len(conf.Redis.Group(cc.RedisGroup)) == 0 {
			return nil, fmt.Errorf("can't find redis group %s", cc.RedisGroup)
		}
		p.closers = append(p.closers, closerFunc(func() error { conf.Redis.Close(); return nil }))
		redisSink, err := persist.NewRedisSink(conf.Redis.NewClient(), cacheParam(cc))
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, persist.Instrument[string](cc.Name, "redis", redisSink))
	}
	if cc.DBTable != "" {
		if conf.DB == nil {
			return nil, fmt.Errorf("db_table %s needs the db config", cc.DBTable)
		}
		pool, err := orm.NewMySQLDBPool(conf.DB)
		if err != nil {
			return nil, err
		}
		p.closers = append(p.closers, pool)
		dbSink, err := persist.NewDBSink(pool, cc.DBTable)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, persist.Instrument[string](cc.Name, "db", dbSink))
	}
	if conf.Journal != nil {
		journal, err := persist.NewFileJournalSink(conf.Journal.persistConfig())
		if err != nil {
			return nil, err
		}
		p.closers = append(p.closers, journal)
		sinks = append(sinks, persist.Instrument[string](cc.Name, "journal", journal))
	}

	switch len(sinks) {
	case 0:
		c.Warnf("no sink configured for %s,drained values are logged", cc.Name)
		return persist.NewLogSink[string](zap.L()), nil
	case 1:
		return sinks[0], nil
	}
	return sinks, nil
}

func (p *app) close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i].Close(); err != nil {
			c.Errorf("close fail,err:%v", err)
		}
	}
	p.closers = nil
}

func (p *app) start() error {
	if !p.services.Init() {
		return fmt.Errorf("init services fail")
	}
	if !p.services.Start() {
		p.close()
		return fmt.Errorf("start services fail")
	}
	return nil
}

// stop stops the services,the drain schedule drains once more before the sinks close
func (p *app) stop() {
	p.services.Stop()
	p.close()
}

func cacheParam(cc *CounterConfig) cache.KeySpace {
	return cache.NewKeySpace(cc.RedisGroup, cc.KeyPrefix, cc.Expire)
}

type closerFunc func() error

func (f closerFunc) Close() error {
	return f()
}

func (p *Config) logConfig() *c.LogConfig {
	if p.LogConfig != nil {
		return p.LogConfig
	}
	return &c.LogConfig{}
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := viper.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
		return err
	}
	conf, err := loadConfig(viper.GetString("config"))
	if err != nil {
		return err
	}
	applyOverrides(conf)
	if err = conf.Parse(); err != nil {
		return err
	}

	a, err := newApp(conf)
	if err != nil {
		return err
	}
	if err = a.start(); err != nil {
		a.close()
		return err
	}
	c.Infof("counterd v%s started,counter:%s,strategy:%s,interval:%s", Version, conf.Counter.Name, a.aggregator.Strategy(), a.schedule.Interval())

	hook := c.NewShutdownhook()
	hook.AddHook(a.stop)
	hook.AddHook(c.SyncLogger)
	hook.WaitShutdown()
	return nil
}
