package cache

import (
	"time"
)

// DefaultCapacity - число одновременно открытых дескрипторов по умолчанию.
const DefaultCapacity = 16

// StatsSource - всё, что умеет отдавать метрики кеша.
type StatsSource interface {
	Stats() CacheMetrics
}

// CacheMetrics содержит метрики кеша дескрипторов.
type CacheMetrics struct {
	TotalRequests int64   `json:"total_requests"`
	CacheHits     int64   `json:"cache_hits"`
	CacheMisses   int64   `json:"cache_misses"`
	HitRatio      float64 `json:"hit_ratio"`

	Evictions   int64 `json:"evictions"`
	OpenHandles int   `json:"open_handles"`
	Capacity    int   `json:"capacity"`

	LastUpdate time.Time `json:"last_update"`
}

// Ошибки кеша
var (
	ErrCacheClosed = NewCacheError("cache closed")
	ErrOpenFailed  = NewCacheError("open handle failed")
)

// CacheError представляет ошибку кеша.
type CacheError struct {
	Message string
}

func (e *CacheError) Error() string {
	return e.Message
}

func NewCacheError(message string) *CacheError {
	return &CacheError{Message: message}
}
