package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/taxfolio/taxfolio/internal/domain/entities"
)

// ProfileRepository implements the tax profile store interface using PostgreSQL
type ProfileRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewProfileRepository creates a new tax profile repository
func NewProfileRepository(db *sqlx.DB, logger *zap.Logger) *ProfileRepository {
	return &ProfileRepository{
		db:     db,
		logger: logger,
	}
}

// Get retrieves the user's tax profile
func (r *ProfileRepository) Get(ctx context.Context, userID uuid.UUID) (*entities.TaxProfile, error) {
	var profile entities.TaxProfile
	query := `
		SELECT user_id, filing_status, federal_st_rate, federal_lt_rate,
		       state_code, state_st_rate, state_lt_rate, niit_rate,
		       carry_forward_losses, updated_at
		FROM tax_profiles WHERE user_id = $1`

	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tax profile: %w", err)
	}
	return &profile, nil
}

// Upsert creates or replaces the user's tax profile
func (r *ProfileRepository) Upsert(ctx context.Context, profile *entities.TaxProfile) error {
	query := `
		INSERT INTO tax_profiles (
			user_id, filing_status, federal_st_rate, federal_lt_rate,
			state_code, state_st_rate, state_lt_rate, niit_rate,
			carry_forward_losses, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id) DO UPDATE SET
			filing_status = EXCLUDED.filing_status,
			federal_st_rate = EXCLUDED.federal_st_rate,
			federal_lt_rate = EXCLUDED.federal_lt_rate,
			state_code = EXCLUDED.state_code,
			state_st_rate = EXCLUDED.state_st_rate,
			state_lt_rate = EXCLUDED.state_lt_rate,
			niit_rate = EXCLUDED.niit_rate,
			carry_forward_losses = EXCLUDED.carry_forward_losses,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		profile.UserID,
		string(profile.FilingStatus),
		profile.FederalSTRate,
		profile.FederalLTRate,
		profile.StateCode,
		profile.StateSTRate,
		profile.StateLTRate,
		profile.NIITRate,
		profile.CarryForwardLosses,
		profile.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to upsert tax profile", zap.Error(err), zap.String("user_id", profile.UserID.String()))
		return fmt.Errorf("failed to upsert tax profile: %w", err)
	}
	return nil
}
