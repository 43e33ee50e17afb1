package match

import (
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cinebot_match_cache_hits_total",
		Help: "Match outcomes served from the cache.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cinebot_match_cache_misses_total",
		Help: "Match outcomes computed because the cache missed.",
	})
)

// Cache memoizes outcomes per snapshot generation, so a reload makes every
// older entry unreachable without an explicit purge.
type Cache struct {
	lru *expirable.LRU[string, Outcome]
}

// NewCache returns a cache of size entries; size <= 0 disables caching.
func NewCache(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		return &Cache{}
	}
	return &Cache{lru: expirable.NewLRU[string, Outcome](size, nil, ttl)}
}

func (c *Cache) Get(generation uint64, query string) (Outcome, bool) {
	if c == nil || c.lru == nil {
		return Outcome{}, false
	}
	out, ok := c.lru.Get(cacheKey(generation, query))
	if ok {
		cacheHitsTotal.Inc()
		return out, true
	}
	cacheMissesTotal.Inc()
	return Outcome{}, false
}

func (c *Cache) Add(generation uint64, query string, out Outcome) {
	if c == nil || c.lru == nil {
		return
	}
	c.lru.Add(cacheKey(generation, query), out)
}

func (c *Cache) Len() int {
	if c == nil || c.lru == nil {
		return 0
	}
	return c.lru.Len()
}

func cacheKey(generation uint64, query string) string {
	return strconv.FormatUint(generation, 10) + "\x00" + query
}
