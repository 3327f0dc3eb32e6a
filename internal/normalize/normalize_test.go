package normalize

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listing-backend/internal/model"
)

func TestDigitsOnly(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{name: "plain integer", in: "5000", want: 5000},
		{name: "currency and separators", in: "₹12,500/-", want: 12500},
		{name: "prefixed label", in: "Rs. 1 999", want: 1999},
		{name: "no digits", in: "TBD", want: 0},
		{name: "empty", in: "", want: 0},
		{name: "overflowing digits fall back to zero", in: "99999999999999999999", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DigitsOnly(tt.in))
		})
	}
}

func TestNormalize_PriceDefaults(t *testing.T) {
	f := &model.ExtractedFields{Price: "no price here", CostPrice: ""}
	n := Normalize(f, "")

	assert.Equal(t, DefaultPrice, n.Price)
	assert.Equal(t, DefaultCost, n.CostPrice)
	assert.Equal(t, DefaultPrice+MarkupAmount, n.CompareAtPrice)
}

func TestNormalize_CostConsistency(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		cost     string
		wantCost int
	}{
		{name: "cost above price", price: "5000", cost: "9000", wantCost: 4000},
		{name: "cost equals price", price: "5000", cost: "5000", wantCost: 4000},
		{name: "low price floors cost", price: "800", cost: "900", wantCost: 500},
		{name: "valid pair untouched", price: "8000", cost: "5000", wantCost: 5000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Normalize(&model.ExtractedFields{Price: tt.price, CostPrice: tt.cost}, "")
			assert.Equal(t, tt.wantCost, n.CostPrice)
			assert.Less(t, n.CostPrice, n.Price)
		})
	}
}

func TestNormalize_CompareAtPrice(t *testing.T) {
	for _, price := range []string{"1", "1000", "8000", "250000"} {
		n := Normalize(&model.ExtractedFields{Price: price}, "")
		assert.Equal(t, n.Price+MarkupAmount, n.CompareAtPrice)
	}
}

func TestAssembleTags_UnionAndDedupe(t *testing.T) {
	tags := AssembleTags(" cotton, kurti ,, kurti", "Kurti", "Cotton", "Casual")

	assert.ElementsMatch(t, []string{"cotton", "kurti", "casual"}, tags)
}

func TestAssembleTags_Idempotent(t *testing.T) {
	f := &model.ExtractedFields{
		Tags:        "silk, saree, silk",
		ProductType: "Saree",
		Fabric:      "Silk",
		Style:       "Banarasi",
		Price:       "8000",
		CostPrice:   "5000",
	}

	first := Normalize(f, "")
	second := Normalize(f, "")
	assert.ElementsMatch(t, first.Tags, second.Tags)
}

func TestCareInstructions(t *testing.T) {
	tests := []struct {
		fabric string
		want   string
	}{
		{fabric: "Pure Silk", want: "Dry clean recommended"},
		{fabric: "art silk blend", want: "Dry clean recommended"},
		{fabric: "Cotton", want: "Hand wash in cold water"},
		{fabric: "Georgette", want: "Machine wash cold"},
		{fabric: "", want: "Machine wash cold"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CareInstructions(tt.fabric), "fabric %q", tt.fabric)
	}
}

func TestMarginPercent(t *testing.T) {
	assert.Equal(t, "37.5%", MarginPercent(8000, 5000))
	assert.Equal(t, "50%", MarginPercent(1000, 500))
	assert.Equal(t, MarginFallback, MarginPercent(0, 500))
}

func TestGenerateSKU(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-Z0-9]{5}$`)
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		sku := GenerateSKU()
		require.Regexp(t, pattern, sku)
		seen[sku] = struct{}{}
	}
	// 50 draws from 36^5 colliding entirely would mean a broken generator.
	assert.Greater(t, len(seen), 1)
}

func TestNormalize_Defaults(t *testing.T) {
	n := Normalize(&model.ExtractedFields{}, "")

	assert.Equal(t, DefaultTitle, n.Title)
	assert.Equal(t, DefaultBody, n.BodyHTML)
	assert.Equal(t, DefaultCategory, n.Category)
	assert.Equal(t, DefaultSize, n.Size)
	assert.Equal(t, []string{DefaultCollection}, n.Collections)
	assert.Equal(t, DefaultSizeGuide, n.SizeGuide)
	assert.Equal(t, "Machine wash cold", n.CareInstructions)
	assert.Equal(t, model.DefaultVendor, n.Vendor)
}

func TestNormalize_SilkScenario(t *testing.T) {
	f := &model.ExtractedFields{
		Title:     "Banarasi Saree",
		Price:     "8000",
		CostPrice: "5000",
		Fabric:    "Pure Silk",
	}
	n := Normalize(f, "RK TEXTILES")

	assert.Equal(t, 8000, n.Price)
	assert.Equal(t, 5000, n.CostPrice)
	assert.Equal(t, 10000, n.CompareAtPrice)
	assert.Equal(t, "Dry clean recommended", n.CareInstructions)
	assert.Equal(t, "RK TEXTILES", n.Vendor)
	assert.Equal(t, "37.5%", n.ProfitMargin)
}
