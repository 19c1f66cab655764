package persist

import (
	"context"
	"net"
	"os"
	"strconv"
	"testing"

	"github.com/d0ngw/counter/cache"
	"github.com/d0ngw/counter/counter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRedisSink(t *testing.T) *RedisSink {
	addr := os.Getenv("COUNTER_TEST_REDIS")
	if addr == "" {
		t.Skip("COUNTER_TEST_REDIS is not set")
	}
	host, port, err := net.SplitHostPort(addr)
	require.Nil(t, err)
	portNum, err := strconv.Atoi(port)
	require.Nil(t, err)

	conf := &cache.RedisConf{
		Servers: []*cache.RedisServer{{ID: "test", Host: host, Port: portNum}},
		Groups:  map[string][]string{"counter": {"test"}},
	}
	require.Nil(t, conf.Parse())
	t.Cleanup(conf.Close)

	sink, err := NewRedisSink(conf.NewClient(), cache.NewKeySpace("counter", "persist_test_", 60))
	require.Nil(t, err)
	return sink
}

func TestRedisSink(t *testing.T) {
	sink := testRedisSink(t)
	_, err := sink.Del("1")
	require.Nil(t, err)

	a := counter.New[string]("redis_sink", counter.MustSchema("like", "comment"))
	a.Add("1", 2, 4)
	_, err = a.Drain(context.Background(), sink)
	assert.Nil(t, err)
	a.Add("1", 1)
	_, err = a.Drain(context.Background(), sink)
	assert.Nil(t, err)

	fields, err := sink.Load("1")
	assert.Nil(t, err)
	assert.Equal(t, counter.Fields{"like": 3, "comment": 4}, fields)

	deleted, err := sink.Del("1")
	assert.Nil(t, err)
	assert.True(t, deleted)
}

func TestNewRedisSink(t *testing.T) {
	_, err := NewRedisSink(nil, cache.NewKeySpace("counter", "", 0))
	assert.NotNil(t, err)
}
