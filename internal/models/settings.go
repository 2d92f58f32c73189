package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SiteSettings is one immutable version of the admin-editable site
// configuration. The highest version is the current one.
type SiteSettings struct {
	Version           int64           `db:"version" json:"version"`
	ExchangeRate      decimal.Decimal `db:"exchange_rate" json:"exchangeRate"` // SSP per 1 USD
	MomoNumber        string          `db:"momo_number" json:"momoNumber"`
	MomoName          string          `db:"momo_name" json:"momoName"`
	EquityAccountName string          `db:"equity_account_name" json:"equityAccountName"`
	EquityAccountSSP  string          `db:"equity_account_ssp" json:"equityAccountSsp"`
	EquityAccountUSD  string          `db:"equity_account_usd" json:"equityAccountUsd"`
	EquityBranch      string          `db:"equity_branch" json:"equityBranch"`
	UpdatedBy         *int64          `db:"updated_by" json:"updatedBy,omitempty"`
	CreatedAt         time.Time       `db:"created_at" json:"createdAt"`
}
