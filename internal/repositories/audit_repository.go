package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"rentflow-backend/internal/models"
)

// AuditRepository writes payment workflow decisions to payment_audit_log
type AuditRepository struct {
	DB *pgxpool.Pool
}

func NewAuditRepository(db *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{DB: db}
}

// Record inserts an entry and fills in its id and timestamp
func (r *AuditRepository) Record(ctx context.Context, entry *models.AuditEntry) error {
	query := `
		INSERT INTO payment_audit_log
			(event_type, actor_id, actor_role, payment_id, unit_id, amount, reason, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	return r.DB.QueryRow(ctx, query,
		entry.EventType,
		entry.ActorID,
		entry.ActorRole,
		entry.PaymentID,
		entry.UnitID,
		entry.Amount,
		entry.Reason,
		entry.IdempotencyKey,
	).Scan(&entry.ID, &entry.CreatedAt)
}

// ListByActor returns the most recent entries for a user
func (r *AuditRepository) ListByActor(ctx context.Context, actorID string, limit int) ([]*models.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, event_type, actor_id, actor_role, payment_id, unit_id,
		       amount::float8, reason, idempotency_key, created_at
		FROM payment_audit_log
		WHERE actor_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.DB.Query(ctx, query, actorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.AuditEntry
	for rows.Next() {
		e := &models.AuditEntry{}
		if err := rows.Scan(
			&e.ID, &e.EventType, &e.ActorID, &e.ActorRole, &e.PaymentID, &e.UnitID,
			&e.Amount, &e.Reason, &e.IdempotencyKey, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
