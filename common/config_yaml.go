package common

import (
	"errors"
	"fmt"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrNoConfig is returned when there is nothing to load
var ErrNoConfig = errors.New("no config content")

// LoadYAML loads the YAML data into target
func LoadYAML(data []byte, target interface{}) error {
	if len(data) == 0 {
		return ErrNoConfig
	}
	return yaml.Unmarshal(data, target)
}

// ConfigSource is a config file under the config dir,an Optional one is
// skipped when the loader can't find it
type ConfigSource struct {
	Path     string
	Optional bool
}

// Required a source which must exist
func Required(path string) ConfigSource { return ConfigSource{Path: path} }

// Optional a source loaded only when it exists
func Optional(path string) ConfigSource { return ConfigSource{Path: path, Optional: true} }

// LoadConfig loads the sources under configDir with FileLoader
func LoadConfig(config Configurer, inline string, configDir string, sources ...ConfigSource) error {
	return LoadConfigWithLoader(FileLoader, config, inline, configDir, sources...)
}

// LoadConfigWithLoader decodes inline and then the sources in order into
// config,a key set by a later source overrides the earlier value.
// config.Parse is left to the caller.
func LoadConfigWithLoader(loader ConfigLoader, config Configurer, inline string, configDir string, sources ...ConfigSource) error {
	if loader == nil {
		return errors.New("nil config loader")
	}

	loaded := false
	if inline != "" {
		if err := LoadYAML([]byte(inline), config); err != nil {
			return fmt.Errorf("load inline config fail,err:%w", err)
		}
		loaded = true
	}
	for _, src := range sources {
		path := src.Path
		if configDir != "" && !filepath.IsAbs(path) {
			path = filepath.Join(configDir, path)
		}
		if src.Optional {
			exist, err := loader.Exist(path)
			if err != nil {
				return fmt.Errorf("check config %s fail,err:%w", path, err)
			}
			if !exist {
				Debugf("skip absent config %s", path)
				continue
			}
		}
		Infof("load conf from:%s", path)
		data, err := loader.Load(path)
		if err != nil {
			return fmt.Errorf("load config %s fail,err:%w", path, err)
		}
		if len(data) == 0 {
			Warnf("empty content in %s", path)
			continue
		}
		if err = LoadYAML(data, config); err != nil {
			return fmt.Errorf("decode config %s fail,err:%w", path, err)
		}
		loaded = true
	}
	if !loaded {
		return ErrNoConfig
	}
	return nil
}
