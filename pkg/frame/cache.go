package frame

import (
	"errors"
	"sync"

	"github.com/user/framereader/pkg/video"
)

// DefaultCacheSize is the number of frames kept by the playback cache.
const DefaultCacheSize = 100

// ErrNotIncreasing is returned by Add when the timestamp does not follow the last frame.
var ErrNotIncreasing = errors.New("frame: timestamp not increasing")

// Cache is the playback window: frames in playback order with one cursor.
//
// Timestamps increase along the cache, except for a single wraparound from the
// working zone end back to its start. The engine is the only writer; display
// code may read concurrently.
type Cache struct {
	mu       sync.RWMutex
	frames   []*Frame
	cursor   int
	capacity int
	zone     video.Section

	// wrapAt is the index of the first frame after a wraparound, 0 when none.
	wrapAt int
}

// NewCache creates a cache holding at most capacity frames.
func NewCache(capacity int) *Cache {
	if capacity < 1 {
		capacity = DefaultCacheSize
	}
	return &Cache{cursor: -1, capacity: capacity}
}

// SetWorkingZone sets the range used to recognise a wraparound.
func (c *Cache) SetWorkingZone(zone video.Section) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zone = zone
}

// WorkingZone returns the working zone.
func (c *Cache) WorkingZone() video.Section {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.zone
}

// Capacity returns the maximum number of frames.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Len returns the number of cached frames.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.frames)
}

// Empty reports whether the cache holds no frame.
func (c *Cache) Empty() bool {
	return c.Len() == 0
}

// Current returns the frame under the cursor, or nil when empty.
func (c *Cache) Current() *Frame {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cursor < 0 {
		return nil
	}
	return c.frames[c.cursor]
}

// Timestamps returns the cached timestamps in playback order.
func (c *Cache) Timestamps() []int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]int64, len(c.frames))
	for i, f := range c.frames {
		out[i] = f.Timestamp
	}
	return out
}

// Contains reports whether a MoveTo(ts) can be served without decoding:
// either a frame has exactly ts, or ts falls between two consecutive frames.
func (c *Cache) Contains(ts int64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.indexOf(ts) >= 0
}

// Holds reports whether a frame has exactly ts.
func (c *Cache) Holds(ts int64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, f := range c.frames {
		if f.Timestamp == ts {
			return true
		}
	}
	return false
}

func (c *Cache) indexOf(ts int64) int {
	for i, f := range c.frames {
		if f.Timestamp == ts {
			return i
		}
		if i > 0 && c.frames[i-1].Timestamp < ts && ts < f.Timestamp {
			return i
		}
	}
	return -1
}

// HasNext reports whether MoveNext can be served from the cache.
func (c *Cache) HasNext() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cursor >= 0 && c.cursor < len(c.frames)-1
}

// MoveNext advances the cursor. Returns false when the next frame is not cached.
func (c *Cache) MoveNext() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cursor < 0 || c.cursor >= len(c.frames)-1 {
		return false
	}
	c.cursor++
	return true
}

// MoveTo places the cursor on the frame displayed at ts. Returns false when
// ts is not covered by the cache.
func (c *Cache) MoveTo(ts int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(ts)
	if i < 0 {
		return false
	}
	c.cursor = i
	return true
}

// Add appends a frame and moves the cursor onto it. The cache takes ownership
// of the frame only on success.
func (c *Cache) Add(f *Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n := len(c.frames); n > 0 {
		last := c.frames[n-1].Timestamp
		wrap := c.wrapAt == 0 && !c.zone.Empty() &&
			f.Timestamp == c.zone.Start && last == c.zone.End && last != c.zone.Start
		switch {
		case f.Timestamp > last:
		case wrap:
			c.wrapAt = n
		default:
			return ErrNotIncreasing
		}
	}

	c.frames = append(c.frames, f)
	c.cursor = len(c.frames) - 1

	// Drop frames from before the wraparound that the new lap has reached.
	for c.wrapAt > 0 && c.frames[0].Timestamp <= f.Timestamp {
		c.evictFront()
	}
	for len(c.frames) > c.capacity {
		c.evictFront()
	}
	return nil
}

func (c *Cache) evictFront() {
	c.frames[0].Release()
	c.frames[0] = nil
	c.frames = c.frames[1:]
	if c.wrapAt > 0 {
		c.wrapAt--
	}
	if c.cursor > 0 {
		c.cursor--
	}
	if len(c.frames) == 0 {
		c.cursor = -1
	}
}

// Clear releases every frame.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, f := range c.frames {
		f.Release()
		c.frames[i] = nil
	}
	c.frames = nil
	c.cursor = -1
	c.wrapAt = 0
}
