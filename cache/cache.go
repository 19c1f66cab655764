// Package cache shards counter hashes over groups of redis servers
package cache

// Param locates one redis key
type Param interface {
	// Group the redis group holding the key
	Group() string
	Key() string
	// Expire the ttl in seconds,0 keeps the key
	Expire() int
}

// KeySpace is a redis group and a key prefix,every id maps to one key in it
type KeySpace struct {
	group  string
	prefix string
	ttl    int
}

// NewKeySpace create KeySpace,ttl is in seconds
func NewKeySpace(group, prefix string, ttl int) KeySpace {
	return KeySpace{group: group, prefix: prefix, ttl: ttl}
}

// Group the redis group
func (p KeySpace) Group() string {
	return p.group
}

// Prefix the prefix of every key
func (p KeySpace) Prefix() string {
	return p.prefix
}

// TTL the expire seconds of every key
func (p KeySpace) TTL() int {
	return p.ttl
}

// Sub a key space nested in p by appending prefix
func (p KeySpace) Sub(prefix string) KeySpace {
	p.prefix += prefix
	return p
}

// Key the param of id
func (p KeySpace) Key(id string) Param {
	return spaceKey{space: p, key: p.prefix + id}
}

type spaceKey struct {
	space KeySpace
	key   string
}

func (p spaceKey) Group() string { return p.space.group }
func (p spaceKey) Key() string   { return p.key }
func (p spaceKey) Expire() int   { return p.space.ttl }
