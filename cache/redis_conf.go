package cache

import (
	"fmt"
	"net"
	"sort"
	"strconv"
	"time"

	c "github.com/d0ngw/counter/common"
	"github.com/gomodule/redigo/redis"
)

// RedisPoolConf the pool of every server in a group,zero fields take the defaults
type RedisPoolConf struct {
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxIdle        int           `yaml:"max_idle"`
	MaxActive      int           `yaml:"max_active"`
}

var defaultPool = RedisPoolConf{
	ConnectTimeout: 5 * time.Second,
	ReadTimeout:    5 * time.Second,
	WriteTimeout:   5 * time.Second,
	IdleTimeout:    time.Minute,
	MaxIdle:        2,
	MaxActive:      100,
}

// withDefaults fills the zero fields of p from defaultPool
func (p *RedisPoolConf) withDefaults() RedisPoolConf {
	if p == nil {
		return defaultPool
	}
	conf := *p
	for _, f := range []struct {
		v   *time.Duration
		def time.Duration
	}{
		{&conf.ConnectTimeout, defaultPool.ConnectTimeout},
		{&conf.ReadTimeout, defaultPool.ReadTimeout},
		{&conf.WriteTimeout, defaultPool.WriteTimeout},
		{&conf.IdleTimeout, defaultPool.IdleTimeout},
	} {
		if *f.v <= 0 {
			*f.v = f.def
		}
	}
	if conf.MaxIdle <= 0 {
		conf.MaxIdle = defaultPool.MaxIdle
	}
	return conf
}

// RedisServer a redis instance
type RedisServer struct {
	ID   string `yaml:"id"`
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	Auth string `yaml:"auth"`
	DB   int    `yaml:"db"`
	pool *redis.Pool
}

// Addr the host:port of the server
func (p *RedisServer) Addr() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

func (p *RedisServer) initPool(conf RedisPoolConf) error {
	if p.pool != nil {
		return fmt.Errorf("redis %s already has a pool", p.ID)
	}
	options := []redis.DialOption{
		redis.DialConnectTimeout(conf.ConnectTimeout),
		redis.DialReadTimeout(conf.ReadTimeout),
		redis.DialWriteTimeout(conf.WriteTimeout),
		redis.DialDatabase(p.DB),
	}
	if p.Auth != "" {
		options = append(options, redis.DialPassword(p.Auth))
	}
	addr := p.Addr()
	p.pool = &redis.Pool{
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", addr, options...)
		},
		// ping the connections idle for more than a minute
		TestOnBorrow: func(conn redis.Conn, idleSince time.Time) error {
			if time.Since(idleSince) < time.Minute {
				return nil
			}
			_, err := conn.Do("PING")
			return err
		},
		MaxActive:   conf.MaxActive,
		MaxIdle:     conf.MaxIdle,
		IdleTimeout: conf.IdleTimeout,
		Wait:        true,
	}
	return nil
}

func (p *RedisServer) initPoolWithDefault() error {
	return p.initPool(defaultPool)
}

// GetConn acquire a conn from the pool,the caller must close it
func (p *RedisServer) GetConn() (redis.Conn, error) {
	if p.pool == nil {
		return nil, fmt.Errorf("redis %s has no pool", p.ID)
	}
	return p.pool.Get(), nil
}

// Close close the pool
func (p *RedisServer) Close() error {
	if p.pool == nil {
		return nil
	}
	return p.pool.Close()
}

// RedisConf declares the redis servers and groups them,a key is sharded over
// the servers of its group
type RedisConf struct {
	Servers []*RedisServer `yaml:"servers"`
	// Groups group id -> server ids
	Groups map[string][]string `yaml:"groups"`
	// Pool the pool of the groups missing from GroupPools
	Pool       *RedisPoolConf            `yaml:"pool"`
	GroupPools map[string]*RedisPoolConf `yaml:"group_pools"`

	groups map[string][]*RedisServer
}

// Parse implements common.Configurer,every group gets its own pools
func (p *RedisConf) Parse() error {
	if p == nil {
		return nil
	}
	servers, err := p.indexServers()
	if err != nil {
		return err
	}
	groups := make(map[string][]*RedisServer, len(p.Groups))
	for groupID, ids := range p.Groups {
		pool := p.Pool
		if gp, ok := p.GroupPools[groupID]; ok {
			pool = gp
		}
		group, err := buildGroup(groupID, ids, servers, pool.withDefaults())
		if err != nil {
			return err
		}
		groups[groupID] = group
	}
	p.groups = groups
	return nil
}

func (p *RedisConf) indexServers() (map[string]*RedisServer, error) {
	servers := make(map[string]*RedisServer, len(p.Servers))
	addrs := make(map[string]string, len(p.Servers))
	for _, server := range p.Servers {
		if c.IsEmpty(server.ID, server.Host) || server.Port <= 0 {
			return nil, fmt.Errorf("invalid redis server %q,id,host and port are required", server.ID)
		}
		if _, ok := servers[server.ID]; ok {
			return nil, fmt.Errorf("duplicate redis server id %s", server.ID)
		}
		addr := server.Addr()
		if id, ok := addrs[addr]; ok {
			return nil, fmt.Errorf("redis servers %s and %s share %s", id, server.ID, addr)
		}
		servers[server.ID] = server
		addrs[addr] = server.ID
	}
	return servers, nil
}

// buildGroup copies the servers of ids so that each group owns its pools,the
// servers are sorted by id so the sharding does not depend on the config order
func buildGroup(groupID string, ids []string, servers map[string]*RedisServer, pool RedisPoolConf) ([]*RedisServer, error) {
	if groupID == "" || len(ids) == 0 {
		return nil, fmt.Errorf("redis group %q has no servers", groupID)
	}
	ids = append([]string(nil), ids...)
	sort.Strings(ids)
	group := make([]*RedisServer, 0, len(ids))
	for i, id := range ids {
		if i > 0 && ids[i-1] == id {
			return nil, fmt.Errorf("duplicate redis server %s in group %s", id, groupID)
		}
		server := servers[id]
		if server == nil {
			return nil, fmt.Errorf("can't find redis server %s of group %s", id, groupID)
		}
		copied := &RedisServer{ID: server.ID, Host: server.Host, Port: server.Port, Auth: server.Auth, DB: server.DB}
		if err := copied.initPool(pool); err != nil {
			return nil, err
		}
		group = append(group, copied)
	}
	return group, nil
}

// Group the servers of group
func (p *RedisConf) Group(groupID string) []*RedisServer {
	return p.groups[groupID]
}

// NewClient create the client of all parsed groups
func (p *RedisConf) NewClient() *RedisClient {
	return NewRedisClient(p.groups)
}

// Close close the pools of all groups
func (p *RedisConf) Close() {
	for groupID, servers := range p.groups {
		for _, server := range servers {
			if err := server.Close(); err != nil {
				c.Errorf("close redis %s of group %s fail,err:%v", server.ID, groupID, err)
			}
		}
	}
}
