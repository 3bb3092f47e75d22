package application

import (
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/example/campground/internal/interval"
)

// availabilityCache stores recently computed availability snapshots while no
// write has committed since they were read. Each read records the generation
// it started in; a snapshot is only stored if no invalidation happened since.
type availabilityCache struct {
	mu         sync.Mutex
	generation uint64
	entries    *expirable.LRU[string, []Campsite]
}

func newAvailabilityCache(size int, ttl time.Duration) *availabilityCache {
	if size <= 0 {
		return nil
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &availabilityCache{entries: expirable.NewLRU[string, []Campsite](size, nil, ttl)}
}

func (c *availabilityCache) Generation() uint64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

func (c *availabilityCache) Get(key string) ([]Campsite, bool) {
	if c == nil {
		return nil, false
	}
	campsites, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	return cloneCampsites(campsites), true
}

func (c *availabilityCache) Store(key string, generation uint64, campsites []Campsite) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return
	}
	c.entries.Add(key, cloneCampsites(campsites))
}

// Invalidate drops every snapshot.
func (c *availabilityCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.generation++
	c.entries.Purge()
	c.mu.Unlock()
}

func cloneCampsites(campsites []Campsite) []Campsite {
	if campsites == nil {
		return nil
	}
	out := make([]Campsite, len(campsites))
	copy(out, campsites)
	return out
}

func buildAvailabilityCacheKey(stay interval.Interval, types []SiteType) string {
	builder := strings.Builder{}
	builder.WriteString(stay.Start.UTC().Format(time.RFC3339Nano))
	builder.WriteString("|")
	builder.WriteString(stay.End.UTC().Format(time.RFC3339Nano))
	builder.WriteString("|")
	for i, t := range types {
		if i > 0 {
			builder.WriteString(",")
		}
		builder.WriteString(string(t))
	}
	return builder.String()
}
