package session

import (
	"context"
	"testing"
	"time"

	"rentflow-backend/internal/models"
)

type stubBackend struct{}

func (stubBackend) RecordManualPayment(context.Context, *models.Occupancy, float64, string, string) (*models.PaymentResult, error) {
	return &models.PaymentResult{Success: true}, nil
}

func (stubBackend) ProcessSystemPayment(context.Context, *models.Occupancy, float64, string, models.Provider, string) (*models.PaymentResult, error) {
	return &models.PaymentResult{Success: true}, nil
}

func (stubBackend) GetOccupancies(context.Context) ([]models.Occupancy, error) {
	return nil, nil
}

func (stubBackend) GetRentSchedule(context.Context, models.ScheduleFilter) ([]models.RentScheduleEntry, error) {
	return nil, nil
}

func (stubBackend) ListPaymentHistory(context.Context, models.PaymentFilter) ([]models.Payment, error) {
	return nil, nil
}

type stubPayments struct{}

func (stubPayments) ListPendingManualPayments(context.Context) ([]models.PendingPayment, error) {
	return nil, nil
}

func (stubPayments) ConfirmManualPayment(context.Context, string, models.ConfirmAction, string) (string, error) {
	return "ok", nil
}

func newTestRegistry(ttl time.Duration) (*Registry, *time.Time) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	r := NewRegistry(Deps{Tenant: stubBackend{}, Payments: stubPayments{}}, ttl)
	r.now = func() time.Time { return now }
	return r, &now
}

func TestRegistryGetReusesSession(t *testing.T) {
	r, _ := newTestRegistry(time.Hour)
	actor := models.Actor{UserID: "1", Role: "tenant"}

	a := r.Get(actor)
	b := r.Get(actor)
	if a != b {
		t.Error("same actor should get the same session")
	}
	if a.Flow == nil || a.Confirmations == nil || a.Dashboard == nil {
		t.Fatal("session should carry all state containers")
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}

	other := r.Get(models.Actor{UserID: "2", Role: "tenant"})
	if other == a {
		t.Error("different users must not share a session")
	}
}

func TestRegistryRoleChangeStartsFresh(t *testing.T) {
	r, _ := newTestRegistry(time.Hour)
	a := r.Get(models.Actor{UserID: "1", Role: "tenant"})
	b := r.Get(models.Actor{UserID: "1", Role: "landlord"})
	if a == b {
		t.Error("role change should create a new session")
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}

func TestRegistrySweep(t *testing.T) {
	r, now := newTestRegistry(30 * time.Minute)

	r.Get(models.Actor{UserID: "old", Role: "tenant"})
	*now = now.Add(20 * time.Minute)
	r.Get(models.Actor{UserID: "fresh", Role: "tenant"})
	*now = now.Add(15 * time.Minute)

	if n := r.Sweep(); n != 1 {
		t.Fatalf("Sweep removed %d, want 1", n)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}

	// touching keeps a session alive
	r.Get(models.Actor{UserID: "fresh", Role: "tenant"})
	*now = now.Add(29 * time.Minute)
	if n := r.Sweep(); n != 0 {
		t.Errorf("Sweep removed %d, want 0", n)
	}
}

func TestRegistryRemove(t *testing.T) {
	r, _ := newTestRegistry(time.Hour)
	actor := models.Actor{UserID: "1", Role: "tenant"}
	a := r.Get(actor)

	r.Remove("1")
	r.Remove("missing")

	if r.Len() != 0 {
		t.Errorf("Len = %d, want 0", r.Len())
	}
	if r.Get(actor) == a {
		t.Error("removed session should not come back")
	}
}
