package agent

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := map[string]QueryType{
		"What is the price of the plate carrier?": QueryProductInfo,
		"Where is my order?":                      QueryOrderStatus,
		"Suivi de ma livraison":                   QueryOrderStatus,
		"I want a refund":                         QueryReturnRefund,
		"Can you recommend a kettlebell weight?":  QueryRecommendation,
		"hello":                                   QueryGeneral,
		"":                                        QueryGeneral,
	}
	for query, want := range cases {
		assert.Equal(t, want, Classify(query), query)
	}
}

func TestRespondCopiesActions(t *testing.T) {
	resp := Respond("return policy?")
	assert.Equal(t, QueryReturnRefund, resp.Type)
	assert.Equal(t, []string{"initiate_return_process"}, resp.Actions)

	resp.Actions[0] = "mutated"
	assert.Equal(t, []string{"initiate_return_process"}, Respond("return").Actions)
}

func TestReorderQuantity(t *testing.T) {
	assert.Equal(t, DefaultReorderQuantity, ReorderQuantity(0))
	assert.Equal(t, 3, ReorderQuantity(1))
	assert.Equal(t, 12, ReorderQuantity(5))
	assert.Equal(t, 72, ReorderQuantity(30))
}

func TestInventoryAlerts(t *testing.T) {
	belt, gloves, bar := uuid.New(), uuid.New(), uuid.New()
	report := InventoryAlerts([]InventoryItem{
		{ProductID: belt, Name: "Belt", Stock: 3, Price: decimal.RequireFromString("40")},
		{ProductID: gloves, Name: "Gloves", Stock: 7, Price: decimal.RequireFromString("10")},
		{ProductID: bar, Name: "Bar", Stock: 10, Price: decimal.RequireFromString("200")},
	}, map[uuid.UUID]int64{gloves: 5})

	require.Len(t, report.Alerts, 2)
	assert.Equal(t, SeverityCritical, report.Alerts[0].Severity)
	assert.Equal(t, DefaultReorderQuantity, report.Alerts[0].ReorderQuantity)
	assert.True(t, report.Alerts[0].EstimatedCost.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, SeverityWarning, report.Alerts[1].Severity)
	assert.Equal(t, 12, report.Alerts[1].ReorderQuantity)

	assert.Equal(t, 2, report.Summary.TotalAlerts)
	assert.Equal(t, 1, report.Summary.CriticalAlerts)
	assert.True(t, report.Summary.EstimatedReorderCost.Equal(decimal.NewFromInt(1060)))
}

func TestSuggestPrice(t *testing.T) {
	price := decimal.RequireFromString("100.00")

	got, err := SuggestPrice(PricingInput{CurrentPrice: price, Demand: "high", Competition: "low", Seasonality: "peak"})
	require.NoError(t, err)
	assert.True(t, got.OptimizedPrice.Equal(decimal.NewFromInt(120)), "clamped to +20%%, got %s", got.OptimizedPrice)
	assert.Equal(t, "20.00%", got.Change)

	got, err = SuggestPrice(PricingInput{CurrentPrice: price, Demand: "low"})
	require.NoError(t, err)
	assert.True(t, got.OptimizedPrice.Equal(decimal.NewFromInt(90)))
	assert.Equal(t, "-10.00%", got.Change)
	assert.Equal(t, PricingFactors{Demand: "low", Competition: "normal", Seasonality: "normal"}, got.Factors)

	got, err = SuggestPrice(PricingInput{CurrentPrice: decimal.RequireFromString("59.99"), Competition: "high", Seasonality: "off-season"})
	require.NoError(t, err)
	assert.True(t, got.OptimizedPrice.Equal(decimal.RequireFromString("52.19")), "got %s", got.OptimizedPrice)

	_, err = SuggestPrice(PricingInput{CurrentPrice: decimal.Zero})
	assert.Error(t, err)
}
