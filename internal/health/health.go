package health

import (
	"context"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// Pinger is any dependency that can report reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusDegraded  = "degraded"
	StatusDisabled  = "disabled"
)

type HealthChecker struct {
	upstream Pinger
	redis    Pinger
	db       Pinger
	started  time.Time
}

type HealthStatus struct {
	Status   string           `json:"status"`
	Upstream DependencyHealth `json:"upstream"`
	Redis    DependencyHealth `json:"redis"`
	Database DependencyHealth `json:"database"`
}

type DependencyHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
	Error        string `json:"error,omitempty"`
}

type SystemStats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsed    string  `json:"memory_used"`
	MemoryTotal   string  `json:"memory_total"`
	DiskPercent   float64 `json:"disk_percent"`
	DiskUsed      string  `json:"disk_used"`
	DiskTotal     string  `json:"disk_total"`
	Goroutines    int     `json:"goroutines"`
	Uptime        string  `json:"uptime"`
}

type DetailedStatus struct {
	HealthStatus
	System SystemStats `json:"system"`
}

// NewHealthChecker builds a checker. Redis and db may be nil when not configured.
func NewHealthChecker(upstream, redis, db Pinger) *HealthChecker {
	return &HealthChecker{upstream: upstream, redis: redis, db: db, started: time.Now()}
}

// CheckBasic pings every dependency. The service is unhealthy when the
// upstream API or a configured database is down; a missing redis only
// disables request deduplication, so it degrades.
func (h *HealthChecker) CheckBasic(ctx context.Context) HealthStatus {
	s := HealthStatus{
		Upstream: check(ctx, h.upstream),
		Redis:    check(ctx, h.redis),
		Database: check(ctx, h.db),
		Status:   StatusHealthy,
	}

	switch {
	case s.Upstream.Status == StatusUnhealthy, s.Database.Status == StatusUnhealthy:
		s.Status = StatusUnhealthy
	case s.Redis.Status == StatusUnhealthy:
		s.Status = StatusDegraded
	}
	return s
}

// CheckDetailed adds host resource usage for the monitoring dashboard
func (h *HealthChecker) CheckDetailed(ctx context.Context) DetailedStatus {
	d := DetailedStatus{HealthStatus: h.CheckBasic(ctx)}

	d.System.Goroutines = runtime.NumGoroutine()
	d.System.Uptime = time.Since(h.started).Round(time.Second).String()

	if percents, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false); err == nil && len(percents) > 0 {
		d.System.CPUPercent = percents[0]
	}
	if memStats, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		d.System.MemoryPercent = memStats.UsedPercent
		d.System.MemoryUsed = humanize.IBytes(memStats.Used)
		d.System.MemoryTotal = humanize.IBytes(memStats.Total)
	}
	if diskStats, err := disk.UsageWithContext(ctx, "/"); err == nil {
		d.System.DiskPercent = diskStats.UsedPercent
		d.System.DiskUsed = humanize.IBytes(diskStats.Used)
		d.System.DiskTotal = humanize.IBytes(diskStats.Total)
	}
	return d
}

func check(ctx context.Context, p Pinger) DependencyHealth {
	if p == nil {
		return DependencyHealth{Status: StatusDisabled}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := p.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return DependencyHealth{
			Status:       StatusUnhealthy,
			ResponseTime: responseTime,
			Error:        err.Error(),
		}
	}

	return DependencyHealth{
		Status:       StatusHealthy,
		ResponseTime: responseTime,
	}
}
