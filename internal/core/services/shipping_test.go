package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ventaro/retail-be/internal/core/domain"
	"github.com/ventaro/retail-be/internal/core/services"
	"github.com/ventaro/retail-be/test/helpers"
	"github.com/ventaro/retail-be/test/mocks"
)

func TestShippingCalculator_Quote(t *testing.T) {
	ctx := context.Background()

	t.Run("no carrier quotes zero", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		rules := mocks.NewMockShippingRuleRepository(ctrl)
		calc := services.NewShippingCalculator(rules, helpers.TestLogger())

		quote, err := calc.Quote(ctx, nil, domain.MethodCash, decimal.RequireFromString("1000"))
		require.NoError(t, err)
		assert.True(t, quote.ShippingCost.IsZero())
		assert.True(t, quote.Commission.IsZero())
	})

	t.Run("no rule for pair quotes zero", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		carrierID := uuid.New()
		rules := mocks.NewMockShippingRuleRepository(ctrl)
		rules.EXPECT().
			Find(gomock.Any(), carrierID, domain.MethodTransfer).
			Return(nil, nil)

		calc := services.NewShippingCalculator(rules, helpers.TestLogger())

		quote, err := calc.Quote(ctx, &carrierID, domain.MethodTransfer, decimal.RequireFromString("1000"))
		require.NoError(t, err)
		assert.True(t, quote.ShippingCost.IsZero())
		assert.True(t, quote.Commission.IsZero())
	})

	t.Run("rule fee fills both cost and commission", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		carrierID := uuid.New()
		rules := mocks.NewMockShippingRuleRepository(ctrl)
		rules.EXPECT().
			Find(gomock.Any(), carrierID, domain.MethodCashOnDelivery).
			Return(&domain.ShippingRule{
				CarrierID:           carrierID,
				PaymentMethod:       domain.MethodCashOnDelivery,
				Percentage:          decimal.RequireFromString("0.04"),
				FixedFee:            decimal.RequireFromString("1200"),
				Threshold:           decimal.RequireFromString("30000"),
				FixedBelowThreshold: true,
			}, nil)

		calc := services.NewShippingCalculator(rules, helpers.TestLogger())

		quote, err := calc.Quote(ctx, &carrierID, domain.MethodCashOnDelivery, decimal.RequireFromString("50000"))
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("2000").Equal(quote.ShippingCost),
			"expected 2000, got %s", quote.ShippingCost)
		assert.True(t, quote.ShippingCost.Equal(quote.Commission))
	})

	t.Run("repository error propagates", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		carrierID := uuid.New()
		rules := mocks.NewMockShippingRuleRepository(ctrl)
		rules.EXPECT().
			Find(gomock.Any(), carrierID, domain.MethodCash).
			Return(nil, errors.New("connection reset"))

		calc := services.NewShippingCalculator(rules, helpers.TestLogger())

		_, err := calc.Quote(ctx, &carrierID, domain.MethodCash, decimal.RequireFromString("1000"))
		assert.ErrorContains(t, err, "failed to look up shipping rule")
	})
}
