package services

import (
	"context"
	"strings"

	"rentflow-backend/internal/apperrors"
	"rentflow-backend/internal/models"
	"rentflow-backend/internal/upstream"
)

// PartnerPaymentService covers partner commission wallets and payouts
type PartnerPaymentService struct {
	client *upstream.Client
	retry  apperrors.RetryPolicy
}

func NewPartnerPaymentService(client *upstream.Client, retry apperrors.RetryPolicy) *PartnerPaymentService {
	return &PartnerPaymentService{client: client, retry: retry}
}

func (s *PartnerPaymentService) GetWallet(ctx context.Context) (*models.PartnerWallet, error) {
	return apperrors.WithRetry(ctx, s.retry, func(ctx context.Context) (*models.PartnerWallet, error) {
		var body interface{}
		if err := s.client.Get(ctx, pathPartnerWallet, nil, &body); err != nil {
			return nil, err
		}
		wallet := FormatWalletForDisplay(objectFrom(body, "wallet"))
		return &wallet, nil
	})
}

func (s *PartnerPaymentService) ListPayouts(ctx context.Context, filter models.PayoutFilter) ([]models.Payout, error) {
	return apperrors.WithRetry(ctx, s.retry, func(ctx context.Context) ([]models.Payout, error) {
		var body interface{}
		if err := s.client.Get(ctx, pathPartnerPayouts, PayoutQuery(filter), &body); err != nil {
			return nil, err
		}

		items := listFrom(body, "payouts")
		payouts := make([]models.Payout, 0, len(items))
		for _, item := range items {
			payouts = append(payouts, FormatPayoutForDisplay(item))
		}
		return payouts, nil
	})
}

// RequestPayout withdraws from the wallet. The amount must be at least the
// minimum payout and no more than the available balance.
func (s *PartnerPaymentService) RequestPayout(ctx context.Context, req models.PayoutRequest) (*models.Payout, error) {
	req.AccountNumber = strings.TrimSpace(req.AccountNumber)
	req.Notes = strings.TrimSpace(req.Notes)
	if req.Amount <= 0 {
		return nil, apperrors.Invalid("amount", "amount must be greater than zero")
	}
	if req.Method == "" {
		return nil, apperrors.Required("payment_method")
	}
	if !req.Method.Valid() || req.Method == models.MethodManual {
		return nil, apperrors.Invalid("payment_method", "payouts go to mobile_money or bank accounts")
	}
	if req.AccountNumber == "" {
		return nil, apperrors.Required("account_number")
	}

	wallet, err := s.GetWallet(ctx)
	if err != nil {
		return nil, err
	}
	if req.Amount < wallet.MinimumPayout {
		return nil, apperrors.Invalid("amount", "minimum payout is %s", FormatCurrency(wallet.MinimumPayout))
	}
	if req.Amount > wallet.Balance {
		return nil, apperrors.Invalid("amount", "amount exceeds available balance of %s", FormatCurrency(wallet.Balance))
	}

	var body interface{}
	if err := s.client.Post(ctx, pathRequestPayout, req, &body); err != nil {
		return nil, err
	}
	payout := FormatPayoutForDisplay(objectFrom(body, "payout"))
	if payout.Amount == 0 {
		payout.Amount = req.Amount
	}
	if payout.Method == models.MethodUnknown {
		payout.Method = req.Method
	}
	if payout.AccountNumber == "" {
		payout.AccountNumber = req.AccountNumber
	}
	return &payout, nil
}
