package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/GTDGit/storefront_api/internal/config"
	"github.com/GTDGit/storefront_api/internal/models"
	"github.com/GTDGit/storefront_api/internal/repository"
	"github.com/GTDGit/storefront_api/internal/utils"
)

// UpdateSettingsRequest saves a new settings version. ExpectedVersion is the
// version the admin edited; 0 when no settings were saved yet.
type UpdateSettingsRequest struct {
	ExpectedVersion   *int64          `json:"expectedVersion" binding:"required,gte=0"`
	ExchangeRate      decimal.Decimal `json:"exchangeRate"`
	MomoNumber        string          `json:"momoNumber" binding:"max=40"`
	MomoName          string          `json:"momoName" binding:"max=120"`
	EquityAccountName string          `json:"equityAccountName" binding:"max=120"`
	EquityAccountSSP  string          `json:"equityAccountSsp" binding:"max=40"`
	EquityAccountUSD  string          `json:"equityAccountUsd" binding:"max=40"`
	EquityBranch      string          `json:"equityBranch" binding:"max=120"`
}

// SettingsService reads and versions the site settings.
type SettingsService struct {
	store    SettingsStore
	fallback config.PayoutConfig
}

// NewSettingsService constructs a SettingsService. fallback is served until
// the first version is saved.
func NewSettingsService(store SettingsStore, fallback config.PayoutConfig) *SettingsService {
	return &SettingsService{store: store, fallback: fallback}
}

// Current returns the latest settings version, or version 0 built from the
// configured defaults when nothing was saved.
func (s *SettingsService) Current(ctx context.Context) (*models.SiteSettings, error) {
	current, err := s.store.Current(ctx)
	if err == nil {
		return current, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	rate, err := decimal.NewFromString(s.fallback.ExchangeRate)
	if err != nil || !rate.IsPositive() {
		log.Warn().Str("exchange_rate", s.fallback.ExchangeRate).Msg("Invalid default exchange rate, using 1")
		rate = decimal.NewFromInt(1)
	}
	return &models.SiteSettings{
		ExchangeRate:      rate,
		MomoNumber:        s.fallback.MomoNumber,
		MomoName:          s.fallback.MomoName,
		EquityAccountName: s.fallback.EquityAccountName,
		EquityAccountSSP:  s.fallback.EquityAccountSSP,
		EquityAccountUSD:  s.fallback.EquityAccountUSD,
		EquityBranch:      s.fallback.EquityBranch,
	}, nil
}

// Update appends a new version when req.ExpectedVersion is still current.
func (s *SettingsService) Update(ctx context.Context, adminID int64, req *UpdateSettingsRequest) (*models.SiteSettings, error) {
	if req.ExpectedVersion == nil {
		return nil, fmt.Errorf("%w: expectedVersion is required", utils.ErrInvalidInput)
	}
	if !req.ExchangeRate.IsPositive() {
		return nil, fmt.Errorf("%w: exchange rate must be positive", utils.ErrInvalidInput)
	}

	next := &models.SiteSettings{
		ExchangeRate:      req.ExchangeRate,
		MomoNumber:        strings.TrimSpace(req.MomoNumber),
		MomoName:          strings.TrimSpace(req.MomoName),
		EquityAccountName: strings.TrimSpace(req.EquityAccountName),
		EquityAccountSSP:  strings.TrimSpace(req.EquityAccountSSP),
		EquityAccountUSD:  strings.TrimSpace(req.EquityAccountUSD),
		EquityBranch:      strings.TrimSpace(req.EquityBranch),
		UpdatedBy:         &adminID,
	}
	if err := s.store.Append(ctx, *req.ExpectedVersion, next); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, utils.ErrSettingsVersionConflict
		}
		return nil, fmt.Errorf("save settings: %w", err)
	}

	log.Info().Int64("version", next.Version).Int64("admin_id", adminID).Msg("Site settings updated")
	return next, nil
}
