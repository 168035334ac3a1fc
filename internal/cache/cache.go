// Package cache holds the short-lived subscription-state entries that
// webhook fulfillment invalidates.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const AllLiveUsersKey = "all_live_users_map"

func LiveDataKey(remnawaveUUID string) string { return "live_data_" + remnawaveUUID }
func NodesKey(remnawaveUUID string) string    { return "nodes_" + remnawaveUUID }

type Cache struct {
	c *gocache.Cache
}

func New(defaultTTL time.Duration) *Cache {
	return &Cache{c: gocache.New(defaultTTL, 2*defaultTTL)}
}

func (c *Cache) Get(key string) (interface{}, bool) {
	return c.c.Get(key)
}

func (c *Cache) Set(key string, value interface{}, ttl time.Duration) {
	c.c.Set(key, value, ttl)
}

func (c *Cache) Delete(key string) {
	c.c.Delete(key)
}

// InvalidateUser drops every cached view of one panel user.
func (c *Cache) InvalidateUser(remnawaveUUID string) {
	c.c.Delete(LiveDataKey(remnawaveUUID))
	c.c.Delete(NodesKey(remnawaveUUID))
	c.c.Delete(AllLiveUsersKey)
}
