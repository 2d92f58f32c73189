package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/storefront_api/internal/database"
	"github.com/GTDGit/storefront_api/internal/models"
)

// settingsLockKey serialises writers of site_settings.
const settingsLockKey = 7_261_001

// SettingsRepository stores versioned site settings. Rows are never updated;
// each save appends a new version.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository creates a new SettingsRepository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Current returns the highest version, or sql.ErrNoRows when none was saved.
func (r *SettingsRepository) Current(ctx context.Context) (*models.SiteSettings, error) {
	var s models.SiteSettings
	if err := r.db.GetContext(ctx, &s, `SELECT * FROM site_settings ORDER BY version DESC LIMIT 1`); err != nil {
		return nil, err
	}
	return &s, nil
}

// Append stores s as a new version if the current version equals
// expectedVersion (0 when nothing was saved yet). Otherwise it returns
// ErrVersionConflict.
func (r *SettingsRepository) Append(ctx context.Context, expectedVersion int64, s *models.SiteSettings) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, settingsLockKey); err != nil {
			return err
		}
		var current int64
		if err := tx.GetContext(ctx, &current, `SELECT COALESCE(MAX(version), 0) FROM site_settings`); err != nil {
			return err
		}
		if current != expectedVersion {
			return ErrVersionConflict
		}

		const q = `
			INSERT INTO site_settings (
				exchange_rate, momo_number, momo_name, equity_account_name,
				equity_account_ssp, equity_account_usd, equity_branch, updated_by
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING version, created_at`
		return tx.QueryRowxContext(ctx, q,
			s.ExchangeRate, s.MomoNumber, s.MomoName, s.EquityAccountName,
			s.EquityAccountSSP, s.EquityAccountUSD, s.EquityBranch, s.UpdatedBy,
		).Scan(&s.Version, &s.CreatedAt)
	})
}
