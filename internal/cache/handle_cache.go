package cache

import (
	"fmt"
	"io"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/atomic"

	"github.com/annel0/mcworld/internal/logging"
)

// HandleCache хранит не более capacity открытых дескрипторов и закрывает
// давно не использованный при вставке сверх лимита.
//
// Использование:
//
//	c, _ := cache.NewHandleCache[coords.RegionPos, *region.File]("region", 16)
//	err := c.Use(pos, openFile, func(f *region.File) error {
//		entry, err = f.LoadEntry(x, z)
//		return err
//	})
type HandleCache[K comparable, V io.Closer] struct {
	name   string
	logger *logging.Logger

	mu       sync.Mutex
	lru      *lru.Cache[K, V]
	capacity int
	closed   bool
	purging  bool

	// счётчики читаются без mu
	requests  atomic.Int64
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// NewHandleCache создаёт кеш; capacity <= 0 означает DefaultCapacity.
func NewHandleCache[K comparable, V io.Closer](name string, capacity int) (*HandleCache[K, V], error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	c := &HandleCache[K, V]{
		name:     name,
		logger:   logging.GetCacheLogger(),
		capacity: capacity,
	}

	l, err := lru.NewWithEvict[K, V](capacity, c.onEvict)
	if err != nil {
		return nil, fmt.Errorf("создание LRU для %s: %w", name, err)
	}
	c.lru = l
	return c, nil
}

// onEvict вызывается синхронно из Add/Purge, т.е. под c.mu.
func (c *HandleCache[K, V]) onEvict(key K, handle V) {
	if !c.purging {
		c.evictions.Inc()
		c.logger.Debug("📤 [%s] вытеснен дескриптор %v", c.name, key)
	}
	if err := handle.Close(); err != nil {
		c.logger.Warn("⚠️ [%s] ошибка закрытия дескриптора %v: %v", c.name, key, err)
	}
}

// Use находит или открывает дескриптор для key и вызывает fn.
// Поиск, открытие, вставка и fn выполняются в одной критической секции,
// поэтому дескриптор не может быть закрыт, пока fn с ним работает.
func (c *HandleCache[K, V]) Use(key K, open func(K) (V, error), fn func(V) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrCacheClosed
	}

	c.requests.Inc()
	handle, ok := c.lru.Get(key)
	if ok {
		c.hits.Inc()
	} else {
		c.misses.Inc()
		h, err := open(key)
		if err != nil {
			return fmt.Errorf("%w: %v: %w", ErrOpenFailed, key, err)
		}
		handle = h
		c.lru.Add(key, handle)
	}

	return fn(handle)
}

// Len возвращает число открытых дескрипторов.
func (c *HandleCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Keys возвращает ключи от самого старого к самому свежему.
func (c *HandleCache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Keys()
}

// Capacity возвращает предел числа дескрипторов.
func (c *HandleCache[K, V]) Capacity() int {
	return c.capacity
}

// Stats возвращает снимок метрик. Не блокируется на Use.
func (c *HandleCache[K, V]) Stats() CacheMetrics {
	m := CacheMetrics{
		TotalRequests: c.requests.Load(),
		CacheHits:     c.hits.Load(),
		CacheMisses:   c.misses.Load(),
		Evictions:     c.evictions.Load(),
		OpenHandles:   c.lru.Len(),
		Capacity:      c.capacity,
		LastUpdate:    time.Now(),
	}
	if m.TotalRequests > 0 {
		m.HitRatio = float64(m.CacheHits) / float64(m.TotalRequests)
	}
	return m
}

// Close закрывает все дескрипторы. Повторный вызов ничего не делает.
func (c *HandleCache[K, V]) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	c.purging = true
	c.lru.Purge()
	c.purging = false
	return nil
}
