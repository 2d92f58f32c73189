package service

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/storefront_api/internal/models"
	"github.com/GTDGit/storefront_api/internal/utils"
)

func TestCalculateTotal(t *testing.T) {
	p := &models.Product{ID: 1, PriceCents: 10000, MultiUsePriceCents: 5000, DeployPriceCents: 2500}

	tests := []struct {
		license  models.LicenseType
		delivery models.DeliveryType
		want     int64
	}{
		{models.LicenseSingle, models.DeliveryDownload, 10000},
		{models.LicenseMulti, models.DeliveryDownload, 15000},
		{models.LicenseSingle, models.DeliveryDeploy, 12500},
		{models.LicenseSingle, models.DeliveryBoth, 12500},
		{models.LicenseMulti, models.DeliveryBoth, 17500},
	}
	for _, tt := range tests {
		t.Run(string(tt.license)+"/"+string(tt.delivery), func(t *testing.T) {
			got, err := CalculateTotal(p, tt.license, tt.delivery)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculateTotalRejectsBadInput(t *testing.T) {
	_, err := CalculateTotal(&models.Product{PriceCents: -1}, models.LicenseSingle, models.DeliveryDownload)
	assert.ErrorIs(t, err, utils.ErrInvalidPricing)

	_, err = CalculateTotal(&models.Product{PriceCents: 1}, "team", models.DeliveryDownload)
	assert.ErrorIs(t, err, utils.ErrInvalidInput)

	_, err = CalculateTotal(&models.Product{PriceCents: 1}, models.LicenseSingle, "courier")
	assert.ErrorIs(t, err, utils.ErrInvalidInput)

	_, err = CalculateTotal(nil, models.LicenseSingle, models.DeliveryDownload)
	assert.ErrorIs(t, err, utils.ErrProductNotFound)
}

func TestCalculateTotalRejectsOverflow(t *testing.T) {
	tests := []struct {
		name     string
		product  models.Product
		license  models.LicenseType
		delivery models.DeliveryType
	}{
		{"multi surcharge", models.Product{PriceCents: math.MaxInt64, MultiUsePriceCents: 1}, models.LicenseMulti, models.DeliveryDownload},
		{"deploy add-on", models.Product{PriceCents: math.MaxInt64 - 5, DeployPriceCents: 6}, models.LicenseSingle, models.DeliveryDeploy},
		{"double wrap", models.Product{PriceCents: math.MaxInt64, MultiUsePriceCents: math.MaxInt64, DeployPriceCents: 10}, models.LicenseMulti, models.DeliveryBoth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CalculateTotal(&tt.product, tt.license, tt.delivery)
			assert.ErrorIs(t, err, utils.ErrInvalidPricing)
		})
	}

	got, err := CalculateTotal(&models.Product{PriceCents: math.MaxInt64 - 10, DeployPriceCents: 10}, models.LicenseSingle, models.DeliveryBoth)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), got)
}

func TestCalculateTotalFreeProduct(t *testing.T) {
	got, err := CalculateTotal(&models.Product{}, models.LicenseMulti, models.DeliveryBoth)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got)
}

func TestConvertAmount(t *testing.T) {
	rate := decimal.RequireFromString("1300.5")

	got, err := ConvertAmount(1000, models.CurrencyUSD, models.CurrencySSP, rate)
	require.NoError(t, err)
	assert.Equal(t, int64(1300500), got)

	got, err = ConvertAmount(1300500, models.CurrencySSP, models.CurrencyUSD, rate)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), got)

	// 1 cent * 0.5 rounds half up.
	got, err = ConvertAmount(1, models.CurrencyUSD, models.CurrencySSP, decimal.RequireFromString("0.5"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)

	got, err = ConvertAmount(42, models.CurrencySSP, models.CurrencySSP, decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)

	_, err = ConvertAmount(1, models.CurrencyUSD, models.CurrencySSP, decimal.Zero)
	assert.ErrorIs(t, err, utils.ErrInvalidInput)

	_, err = ConvertAmount(1, "EUR", models.CurrencySSP, rate)
	assert.ErrorIs(t, err, utils.ErrInvalidInput)
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "USD 0.05", FormatMoney(5, "USD"))
	assert.Equal(t, "USD 250.00", FormatMoney(25000, "USD"))
	assert.Equal(t, "SSP 1,300,500.00", FormatMoney(130050000, "SSP"))
	assert.Equal(t, "USD -1,000.10", FormatMoney(-100010, "USD"))
}
