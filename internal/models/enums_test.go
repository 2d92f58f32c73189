package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatusSettled(t *testing.T) {
	tests := []struct {
		status  OrderStatus
		settled bool
	}{
		{OrderPending, false},
		{OrderPaid, true},
		{OrderConfirmed, true},
		{OrderFailed, false},
		{OrderCancelled, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.True(t, tt.status.Valid())
			assert.Equal(t, tt.settled, tt.status.IsSettled())
		})
	}
	assert.False(t, OrderStatus("refunded").IsSettled())
}

func TestParseOrderStatus(t *testing.T) {
	s, err := ParseOrderStatus("confirmed")
	require.NoError(t, err)
	assert.Equal(t, OrderConfirmed, s)

	_, err = ParseOrderStatus("CONFIRMED")
	assert.Error(t, err)
}

func TestDeliveryTypeIncludes(t *testing.T) {
	assert.True(t, DeliveryDownload.IncludesDownload())
	assert.False(t, DeliveryDownload.IncludesDeploy())
	assert.True(t, DeliveryDeploy.IncludesDeploy())
	assert.False(t, DeliveryDeploy.IncludesDownload())
	assert.True(t, DeliveryBoth.IncludesDeploy())
	assert.True(t, DeliveryBoth.IncludesDownload())
	assert.False(t, DeliveryType("ship").IncludesDeploy())
}

func TestPaymentMethodAcceptsCurrency(t *testing.T) {
	assert.True(t, MethodMomo.AcceptsCurrency(CurrencySSP))
	assert.False(t, MethodMomo.AcceptsCurrency(CurrencyUSD))
	assert.True(t, MethodEquity.AcceptsCurrency(CurrencySSP))
	assert.True(t, MethodEquity.AcceptsCurrency(CurrencyUSD))
	assert.False(t, PaymentMethod("card").AcceptsCurrency(CurrencyUSD))
}

func TestParseHelpersRejectUnknown(t *testing.T) {
	_, err := ParseLicenseType("team")
	assert.Error(t, err)
	_, err = ParseDeliveryType("")
	assert.Error(t, err)
	_, err = ParsePaymentMethod("paypal")
	assert.Error(t, err)
	_, err = ParseReviewStatus("maybe")
	assert.Error(t, err)
	_, err = ParseDeployStatus("blocked")
	assert.Error(t, err)
	_, err = ParseLeadStatus("won")
	assert.Error(t, err)

	lt, err := ParseLeadStatus("in_review")
	require.NoError(t, err)
	assert.Equal(t, LeadInReview, lt)
}
