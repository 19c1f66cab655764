package persist

import (
	"context"
	"errors"

	"github.com/d0ngw/counter/cache"
	"github.com/d0ngw/counter/counter"
	perrors "github.com/pkg/errors"
)

// RedisSink adds the drained fields to the redis hash of the key,the hash is
// named by the key space prefix plus "h:" plus the key
type RedisSink struct {
	client *cache.RedisClient
	keys   cache.KeySpace
}

// NewRedisSink create RedisSink
func NewRedisSink(client *cache.RedisClient, keys cache.KeySpace) (*RedisSink, error) {
	if client == nil {
		return nil, errors.New("nil redis client")
	}
	return &RedisSink{client: client, keys: keys.Sub("h:")}, nil
}

// Store implements counter.Sink
func (p *RedisSink) Store(ctx context.Context, key string, fields counter.Fields) error {
	deltas := make(map[string]int64, len(fields))
	for field, delta := range fields {
		if delta != 0 {
			deltas[field] = delta
		}
	}
	if len(deltas) == 0 {
		return nil
	}
	if _, err := p.client.HIncrBy(p.keys.Key(key), deltas); err != nil {
		return perrors.Wrapf(err, "hincrby %s", key)
	}
	return nil
}

// Load the stored fields of key
func (p *RedisSink) Load(key string) (counter.Fields, error) {
	values, err := p.client.HGetAllInt64(p.keys.Key(key))
	if err != nil {
		return nil, perrors.Wrapf(err, "hgetall %s", key)
	}
	return counter.Fields(values), nil
}

// Del delete the stored fields of key
func (p *RedisSink) Del(key string) (bool, error) {
	return p.client.Del(p.keys.Key(key))
}
