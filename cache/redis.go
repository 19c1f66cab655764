package cache

import (
	"fmt"

	c "github.com/d0ngw/counter/common"
	"github.com/gomodule/redigo/redis"
)

// RedisClient the redis client sharding keys in groups
type RedisClient struct {
	groups map[string][]*RedisServer
}

// NewRedisClient create redis client
func NewRedisClient(groups map[string][]*RedisServer) *RedisClient {
	return &RedisClient{groups: groups}
}

// Server the server of the param's key
func (p *RedisClient) Server(param Param) (*RedisServer, error) {
	servers := p.groups[param.Group()]
	if len(servers) == 0 {
		return nil, fmt.Errorf("can't find redis group %s", param.Group())
	}
	if len(servers) == 1 {
		return servers[0], nil
	}
	return servers[c.Fnv32Hashcode(param.Key())%len(servers)], nil
}

// Conn acquire the conn of the param's key,the caller must close it
func (p *RedisClient) Conn(param Param) (redis.Conn, error) {
	server, err := p.Server(param)
	if err != nil {
		return nil, err
	}
	return server.GetConn()
}

// Do execute the command on the server of param
func (p *RedisClient) Do(param Param, cmd string, args ...interface{}) (reply interface{}, err error) {
	conn, err := p.Conn(param)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return conn.Do(cmd, args...)
}

// Pipeline sends the commands queued by fn in one round trip,
// the replies are returned in order
func (p *RedisClient) Pipeline(param Param, fn func(conn redis.Conn) (int, error)) (replies []interface{}, err error) {
	conn, err := p.Conn(param)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	n, err := fn(conn)
	if err != nil {
		return nil, err
	}
	if err = conn.Flush(); err != nil {
		return nil, err
	}
	replies = make([]interface{}, 0, n)
	for i := 0; i < n; i++ {
		reply, rerr := conn.Receive()
		if rerr != nil {
			return replies, rerr
		}
		replies = append(replies, reply)
	}
	return replies, nil
}

// Del delete the param's key
func (p *RedisClient) Del(param Param) (deleted bool, err error) {
	n, err := redis.Int(p.Do(param, "DEL", param.Key()))
	return n > 0, err
}

// Exists check the param's key
func (p *RedisClient) Exists(param Param) (bool, error) {
	return redis.Bool(p.Do(param, "EXISTS", param.Key()))
}

// HIncrBy increase the hash fields of the param's key and set its expire when
// the param has one
func (p *RedisClient) HIncrBy(param Param, fieldAndDelta map[string]int64) (map[string]int64, error) {
	fields := make([]string, 0, len(fieldAndDelta))
	replies, err := p.Pipeline(param, func(conn redis.Conn) (int, error) {
		for field, delta := range fieldAndDelta {
			if err := conn.Send("HINCRBY", param.Key(), field, delta); err != nil {
				return 0, err
			}
			fields = append(fields, field)
		}
		n := len(fields)
		if param.Expire() > 0 {
			if err := conn.Send("EXPIRE", param.Key(), param.Expire()); err != nil {
				return 0, err
			}
			n++
		}
		return n, nil
	})
	if err != nil {
		return nil, err
	}
	values := make(map[string]int64, len(fields))
	for i, field := range fields {
		v, err := redis.Int64(replies[i], nil)
		if err != nil {
			return nil, err
		}
		values[field] = v
	}
	return values, nil
}

// HGetAllInt64 get all the hash fields of the param's key
func (p *RedisClient) HGetAllInt64(param Param) (map[string]int64, error) {
	return redis.Int64Map(p.Do(param, "HGETALL", param.Key()))
}
