package api

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// ServerMetrics собирает сведения о процессе сервиса
type ServerMetrics struct {
	StartTime time.Time
	proc      *process.Process
}

// NewServerMetrics создает новый экземпляр метрик
func NewServerMetrics() *ServerMetrics {
	sm := &ServerMetrics{StartTime: time.Now()}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		sm.proc = p
	}
	return sm
}

// GetUptime возвращает время работы сервиса
func (sm *ServerMetrics) GetUptime() string {
	uptime := time.Since(sm.StartTime)

	days := int(uptime.Hours()) / 24
	hours := int(uptime.Hours()) % 24
	minutes := int(uptime.Minutes()) % 60
	seconds := int(uptime.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dд %dч %dм", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dч %dм %dс", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dм %dс", minutes, seconds)
	default:
		return fmt.Sprintf("%dс", seconds)
	}
}

// ProcessStats - сведения о процессе для /api/stats
type ProcessStats struct {
	Uptime     string  `json:"uptime"`
	HeapMB     float64 `json:"heap_mb"`
	RSSMB      float64 `json:"rss_mb,omitempty"`
	OpenFiles  int32   `json:"open_fds,omitempty"`
	CPUPercent float64 `json:"cpu_percent,omitempty"`
	Goroutines int     `json:"goroutines"`
	NumGC      uint32  `json:"num_gc"`
}

// Collect снимает текущие сведения. Поля, недоступные на платформе
// (дескрипторы, RSS), остаются нулевыми.
func (sm *ServerMetrics) Collect() ProcessStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := ProcessStats{
		Uptime:     sm.GetUptime(),
		HeapMB:     float64(m.HeapAlloc) / 1024 / 1024,
		Goroutines: runtime.NumGoroutine(),
		NumGC:      m.NumGC,
	}

	if sm.proc == nil {
		return stats
	}
	if n, err := sm.proc.NumFDs(); err == nil {
		stats.OpenFiles = n
	}
	if mem, err := sm.proc.MemoryInfo(); err == nil {
		stats.RSSMB = float64(mem.RSS) / 1024 / 1024
	}
	if cpu, err := sm.proc.CPUPercent(); err == nil {
		stats.CPUPercent = cpu
	}
	return stats
}
