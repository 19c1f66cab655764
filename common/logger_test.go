package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog(t *testing.T) {
	SetLogLevel(Debug)
	Debugf("this is a test")
	assert.True(t, DebugEnabled())
	assert.True(t, InfoEnabled())
	SetLogLevel(Info)
	assert.False(t, DebugEnabled())
	assert.True(t, InfoEnabled())
	Debugf("this is a test, no debug")
	Infof("this is a test, info")
	SetLogLevel(0)
	assert.False(t, DebugEnabled())
	assert.True(t, InfoEnabled())
	Infof("this is a test, no level")
	Logf(Warn, "The is a test, warn")
	assert.True(t, WarnEnabled())
	SetLogLevel(Error)
	assert.False(t, DebugEnabled())
	assert.False(t, InfoEnabled())
	assert.False(t, WarnEnabled())
	assert.True(t, ErrorEnabled())
	Infof("this is a test, no error")
	Errorf("this is a test, error")
	SetLogLevel(Info)
}

func TestParseLogLevel(t *testing.T) {
	for _, level := range []LogLevel{Debug, Info, Warn, Error} {
		parsed, err := ParseLogLevel(level.String())
		assert.Nil(t, err)
		assert.Equal(t, level, parsed)
	}
	level, err := ParseLogLevel(" WARNING")
	assert.Nil(t, err)
	assert.Equal(t, Warn, level)

	_, err = ParseLogLevel("trace")
	assert.NotNil(t, err)
}

func TestLogConfig(t *testing.T) {
	old := currentLogger()
	defer SetLogger(old)

	conf := &LogConfig{Env: EnvProduction, Level: "error", NoCaller: true}
	assert.Nil(t, conf.Parse())
	assert.False(t, InfoEnabled())
	assert.True(t, ErrorEnabled())

	conf = &LogConfig{Level: "loud"}
	assert.NotNil(t, conf.Parse())

	SetLogger(nil)
	assert.NotNil(t, currentLogger())
}

func TestZapLoggerFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "counter.log")
	l := NewZapLogger(&LogConfig{Env: EnvProduction, FileName: file, MaxSize: 1})
	assert.False(t, l.DebugEnabled())
	l.Debugf("hidden %d", 1)
	l.Infof("drained %d keys", 3)
	l.Structured().Warn("slow drain")
	l.SetLevel(Debug)
	l.Debugf("visible %d", 2)
	l.Sync()

	data, err := os.ReadFile(file)
	require.Nil(t, err)
	out := string(data)
	assert.Contains(t, out, "drained 3 keys")
	assert.Contains(t, out, "slow drain")
	assert.Contains(t, out, "visible 2")
	assert.NotContains(t, out, "hidden")
}
