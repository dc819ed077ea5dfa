package health

import (
	"context"
	"errors"
	"testing"
)

func up(context.Context) error   { return nil }
func down(context.Context) error { return errors.New("connection refused") }

func TestCheckBasic(t *testing.T) {
	tests := []struct {
		name      string
		upstream  Pinger
		redis     Pinger
		db        Pinger
		want      string
		wantRedis string
		wantDB    string
	}{
		{"all up", PingFunc(up), PingFunc(up), PingFunc(up), StatusHealthy, StatusHealthy, StatusHealthy},
		{"optional deps absent", PingFunc(up), nil, nil, StatusHealthy, StatusDisabled, StatusDisabled},
		{"upstream down", PingFunc(down), PingFunc(up), nil, StatusUnhealthy, StatusHealthy, StatusDisabled},
		{"database down", PingFunc(up), nil, PingFunc(down), StatusUnhealthy, StatusDisabled, StatusUnhealthy},
		{"redis down", PingFunc(up), PingFunc(down), nil, StatusDegraded, StatusUnhealthy, StatusDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewHealthChecker(tt.upstream, tt.redis, tt.db).CheckBasic(context.Background())
			if got.Status != tt.want {
				t.Errorf("Status = %q, want %q", got.Status, tt.want)
			}
			if got.Redis.Status != tt.wantRedis {
				t.Errorf("Redis = %q, want %q", got.Redis.Status, tt.wantRedis)
			}
			if got.Database.Status != tt.wantDB {
				t.Errorf("Database = %q, want %q", got.Database.Status, tt.wantDB)
			}
		})
	}
}

func TestCheckBasicReportsError(t *testing.T) {
	got := NewHealthChecker(PingFunc(down), nil, nil).CheckBasic(context.Background())
	if got.Upstream.Error != "connection refused" {
		t.Errorf("Upstream.Error = %q", got.Upstream.Error)
	}
}

func TestCheckDetailed(t *testing.T) {
	got := NewHealthChecker(PingFunc(up), nil, nil).CheckDetailed(context.Background())
	if got.Status != StatusHealthy {
		t.Errorf("Status = %q", got.Status)
	}
	if got.System.Goroutines <= 0 {
		t.Error("goroutine count should be reported")
	}
	if got.System.Uptime == "" {
		t.Error("uptime should be reported")
	}
}
