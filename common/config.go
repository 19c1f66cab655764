package common

import (
	"fmt"
	"os"
	"reflect"
	"runtime"
	"strings"
)

// ConfigLoader reads raw config content by path
type ConfigLoader interface {
	Load(path string) ([]byte, error)
	// Exist is false for a missing path or a directory
	Exist(path string) (bool, error)
}

type fileLoader struct{}

func (fileLoader) Load(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (fileLoader) Exist(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return false, nil
	case err != nil:
		return false, err
	}
	return !info.IsDir(), nil
}

// FileLoader loads config from the local file system
var FileLoader ConfigLoader = fileLoader{}

// Configurer is a parsable config section
type Configurer interface {
	Parse() error
}

// LogConfig the log config
type LogConfig struct {
	Env        string `yaml:"env"`
	FileName   string `yaml:"file_name"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	NoCaller   bool   `yaml:"no_caller"`
	Level      string `yaml:"level"`
}

// Parse init the global logger with the config
func (p *LogConfig) Parse() error {
	return initLogger(p)
}

// RuntimeConfig the go runtime settings
type RuntimeConfig struct {
	// Maxprocs sets GOMAXPROCS when > 0
	Maxprocs int `yaml:"maxprocs"`
}

// Parse implements Configurer
func (p *RuntimeConfig) Parse() error {
	if p.Maxprocs > 0 {
		prev := runtime.GOMAXPROCS(p.Maxprocs)
		Infof("set GOMAXPROCS to %d,was %d", p.Maxprocs, prev)
	}
	return nil
}

// AppConfig the sections every application config embeds inline
type AppConfig struct {
	*LogConfig     `yaml:"log"`
	*RuntimeConfig `yaml:"runtime"`
}

// Parse implements Configurer
func (p *AppConfig) Parse() error {
	return Parse(p)
}

// Parse calls Parse on the exported fields of the struct conf points to
// which implement Configurer,in field order. Nil pointer fields are skipped,
// the error names the yaml key of the failing field.
func Parse(conf interface{}) error {
	v := reflect.Indirect(reflect.ValueOf(conf))
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("can't parse %T,not a struct", conf)
	}
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		sf := t.Field(i)
		field := v.Field(i)
		if !sf.IsExported() || (field.Kind() == reflect.Ptr && field.IsNil()) {
			continue
		}
		if field.Kind() != reflect.Ptr {
			if !field.CanAddr() {
				continue
			}
			field = field.Addr()
		}
		section, ok := field.Interface().(Configurer)
		if !ok {
			continue
		}
		if err := section.Parse(); err != nil {
			return fmt.Errorf("%s: %w", sectionName(sf), err)
		}
	}
	return nil
}

func sectionName(sf reflect.StructField) string {
	if name, _, _ := strings.Cut(sf.Tag.Get("yaml"), ","); name != "" {
		return name
	}
	return sf.Name
}
