package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"rentflow-backend/internal/apperrors"
	"rentflow-backend/internal/models"
	"rentflow-backend/internal/timeutil"
	"rentflow-backend/internal/upstream"
)

// TenantPaymentService is the tenant's view of rent: occupancies, schedule,
// history, and payment submission.
type TenantPaymentService struct {
	client *upstream.Client
	retry  apperrors.RetryPolicy
	now    func() time.Time
}

func NewTenantPaymentService(client *upstream.Client, retry apperrors.RetryPolicy) *TenantPaymentService {
	return &TenantPaymentService{client: client, retry: retry, now: timeutil.Now}
}

// GetOccupancies returns the tenant's unit assignments
func (s *TenantPaymentService) GetOccupancies(ctx context.Context) ([]models.Occupancy, error) {
	return apperrors.WithRetry(ctx, s.retry, func(ctx context.Context) ([]models.Occupancy, error) {
		var body interface{}
		if err := s.client.Get(ctx, pathOccupancies, nil, &body); err != nil {
			return nil, err
		}

		items := listFrom(body, "occupancies")
		occupancies := make([]models.Occupancy, 0, len(items))
		for _, item := range items {
			occupancies = append(occupancies, FormatOccupancyForDisplay(item))
		}
		return occupancies, nil
	})
}

// GetRentSchedule returns schedule entries matching the filter
func (s *TenantPaymentService) GetRentSchedule(ctx context.Context, filter models.ScheduleFilter) ([]models.RentScheduleEntry, error) {
	return apperrors.WithRetry(ctx, s.retry, func(ctx context.Context) ([]models.RentScheduleEntry, error) {
		var body interface{}
		if err := s.client.Get(ctx, pathRentSchedule, ScheduleQuery(filter), &body); err != nil {
			return nil, err
		}

		items := listFrom(body, "schedules", "schedule")
		entries := make([]models.RentScheduleEntry, 0, len(items))
		for _, item := range items {
			entries = append(entries, FormatScheduleEntryForDisplay(item))
		}
		return entries, nil
	})
}

// ListPaymentHistory returns the tenant's past payments
func (s *TenantPaymentService) ListPaymentHistory(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error) {
	return apperrors.WithRetry(ctx, s.retry, func(ctx context.Context) ([]models.Payment, error) {
		var body interface{}
		if err := s.client.Get(ctx, pathTenantHistory, PaymentQuery(filter), &body); err != nil {
			return nil, err
		}
		return paymentsFrom(body), nil
	})
}

// RecordManualPayment records a payment the tenant made outside the system.
// The payment starts pending until the landlord confirms it.
func (s *TenantPaymentService) RecordManualPayment(ctx context.Context, unit *models.Occupancy, amount float64, notes, idempotencyKey string) (*models.PaymentResult, error) {
	if err := validateUnit(unit); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, apperrors.Invalid("amount", "amount must be greater than zero")
	}

	today := s.now().In(timeutil.EAT)
	start, end := unit.BillingPeriod(today)
	req := models.ManualPaymentRequest{
		UnitID:      unit.UnitID,
		PropertyID:  unit.PropertyID,
		Amount:      amount,
		PaymentDate: today.Format(timeutil.DateLayout),
		PeriodStart: start.Format(timeutil.DateLayout),
		PeriodEnd:   end.Format(timeutil.DateLayout),
		Notes:       strings.TrimSpace(notes),
	}

	return s.submit(ctx, pathRecordManual, req, idempotencyKey)
}

// ProcessSystemPayment initiates a provider payment for the unit. The
// transaction id sent upstream is the idempotency key when one is given.
func (s *TenantPaymentService) ProcessSystemPayment(ctx context.Context, unit *models.Occupancy, amount float64, accountNumber string, provider models.Provider, idempotencyKey string) (*models.PaymentResult, error) {
	if err := validateUnit(unit); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, apperrors.Invalid("amount", "amount must be greater than zero")
	}
	accountNumber = strings.TrimSpace(accountNumber)
	if accountNumber == "" {
		return nil, apperrors.Required("account_number")
	}
	if provider == "" {
		return nil, apperrors.Required("provider")
	}
	if !provider.Valid() {
		return nil, apperrors.Invalid("provider", "unsupported provider %q", provider)
	}

	transactionID := idempotencyKey
	if transactionID == "" {
		transactionID = uuid.NewString()
	}

	start, end := unit.BillingPeriod(s.now().In(timeutil.EAT))
	req := models.SystemPaymentRequest{
		PropertyID:    unit.PropertyID,
		UnitID:        unit.UnitID,
		Amount:        amount,
		TransactionID: transactionID,
		PeriodStart:   start.Format(timeutil.DateLayout),
		PeriodEnd:     end.Format(timeutil.DateLayout),
		AccountNumber: accountNumber,
		Provider:      provider,
	}

	res, err := s.submit(ctx, pathProcessSystem, req, idempotencyKey)
	if err != nil {
		return nil, err
	}
	if res.TransactionID == "" {
		res.TransactionID = transactionID
	}
	return res, nil
}

func (s *TenantPaymentService) submit(ctx context.Context, path string, req interface{}, idempotencyKey string) (*models.PaymentResult, error) {
	var body map[string]interface{}
	if err := s.client.Post(ctx, path, req, &body, upstream.WithIdempotencyKey(idempotencyKey)); err != nil {
		return nil, err
	}

	res := formatResult(body)
	if !res.Success {
		msg := res.Message
		if msg == "" {
			msg = "payment was not accepted"
		}
		return nil, errors.New(msg)
	}
	return &res, nil
}

func validateUnit(unit *models.Occupancy) error {
	if unit == nil || strings.TrimSpace(unit.UnitID) == "" {
		return apperrors.Required("unit_id")
	}
	if strings.TrimSpace(unit.PropertyID) == "" {
		return apperrors.Required("property_id")
	}
	return nil
}

func paymentsFrom(body interface{}) []models.Payment {
	items := listFrom(body, "payments", "history")
	payments := make([]models.Payment, 0, len(items))
	for _, item := range items {
		payments = append(payments, FormatPaymentForDisplay(item))
	}
	return payments
}

