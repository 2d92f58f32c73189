package service

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/GTDGit/storefront_api/internal/models"
	"github.com/GTDGit/storefront_api/internal/utils"
)

// CalculateTotal returns the order amount in minor units:
// base price, plus the multi-use surcharge for multi licenses, plus the
// deploy add-on when delivery includes deployment.
func CalculateTotal(p *models.Product, licenseType models.LicenseType, deliveryType models.DeliveryType) (int64, error) {
	if p == nil {
		return 0, utils.ErrProductNotFound
	}
	if p.PriceCents < 0 || p.MultiUsePriceCents < 0 || p.DeployPriceCents < 0 {
		return 0, fmt.Errorf("%w: negative price on product %d", utils.ErrInvalidPricing, p.ID)
	}

	total := p.PriceCents
	add := func(cents int64) error {
		if cents > math.MaxInt64-total {
			return fmt.Errorf("%w: overflow on product %d", utils.ErrInvalidPricing, p.ID)
		}
		total += cents
		return nil
	}

	switch licenseType {
	case models.LicenseSingle:
	case models.LicenseMulti:
		if err := add(p.MultiUsePriceCents); err != nil {
			return 0, err
		}
	default:
		return 0, fmt.Errorf("%w: license type %q", utils.ErrInvalidInput, licenseType)
	}

	switch deliveryType {
	case models.DeliveryDownload:
	case models.DeliveryDeploy, models.DeliveryBoth:
		if err := add(p.DeployPriceCents); err != nil {
			return 0, err
		}
	default:
		return 0, fmt.Errorf("%w: delivery type %q", utils.ErrInvalidInput, deliveryType)
	}
	return total, nil
}

// ConvertAmount converts minor units between USD and SSP using rate (SSP per
// 1 USD), rounding half up to whole minor units.
func ConvertAmount(amountCents int64, from, to string, rate decimal.Decimal) (int64, error) {
	if from == to {
		return amountCents, nil
	}
	if !rate.IsPositive() {
		return 0, fmt.Errorf("%w: exchange rate must be positive", utils.ErrInvalidInput)
	}
	amount := decimal.NewFromInt(amountCents)
	switch {
	case from == models.CurrencyUSD && to == models.CurrencySSP:
		return amount.Mul(rate).Round(0).IntPart(), nil
	case from == models.CurrencySSP && to == models.CurrencyUSD:
		return amount.DivRound(rate, 8).Round(0).IntPart(), nil
	default:
		return 0, fmt.Errorf("%w: unsupported conversion %s to %s", utils.ErrInvalidInput, from, to)
	}
}

// FormatMoney renders minor units as "USD 1,250.00".
func FormatMoney(amountCents int64, currency string) string {
	s := decimal.New(amountCents, -2).StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String() + "." + frac
	if neg {
		out = "-" + out
	}
	return currency + " " + out
}
