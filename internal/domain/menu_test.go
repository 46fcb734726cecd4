package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProduct() *Product {
	return &Product{
		ID:              uuid.New(),
		EstablishmentID: uuid.New(),
		Name:            "Calabresa",
		Variations: []Variation{
			{ID: uuid.New(), Name: "Broto", BasePrice: decimal.RequireFromString("29.90")},
		},
		AdditiveGroups: []AdditiveGroup{
			{
				ID: uuid.New(), Name: "Borda", MinSelection: 0, MaxSelection: 1,
				Additives: []Additive{{ID: uuid.New(), Name: "Catupiry", Price: decimal.RequireFromString("8.00")}},
			},
		},
	}
}

func TestVariation_EffectivePrice(t *testing.T) {
	promo := decimal.RequireFromString("24.90")
	v := Variation{BasePrice: decimal.RequireFromString("29.90")}

	assert.Equal(t, "29.90", v.EffectivePrice().StringFixed(2))

	v.PromotionalPrice = &promo
	assert.Equal(t, "24.90", v.EffectivePrice().StringFixed(2))
}

func TestProduct_FlavorLimit(t *testing.T) {
	tests := []struct {
		name       string
		allows     bool
		maxFlavors int
		want       int
	}{
		{"split not allowed", false, 4, 0},
		{"no max declared", true, 0, 0},
		{"two flavors", true, 2, 2},
		{"capped at four", true, 6, MaxFlavorSplit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Product{AllowsFlavorSplit: tt.allows, MaxFlavors: tt.maxFlavors}
			assert.Equal(t, tt.want, p.FlavorLimit())
		})
	}
}

func TestProduct_Lookups(t *testing.T) {
	p := validProduct()
	g := p.AdditiveGroups[0]

	v, ok := p.Variation(p.Variations[0].ID)
	assert.True(t, ok)
	assert.Equal(t, "Broto", v.Name)

	_, ok = p.Variation(uuid.New())
	assert.False(t, ok)

	got, ok := p.Group(g.ID)
	assert.True(t, ok)
	assert.Equal(t, "Borda", got.Name)

	a, ok := got.Additive(g.Additives[0].ID)
	assert.True(t, ok)
	assert.Equal(t, "Catupiry", a.Name)

	_, ok = got.Additive(uuid.New())
	assert.False(t, ok)
}

func TestValidateProduct(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(p *Product)
		wantFields []string
	}{
		{
			name:   "valid product",
			mutate: func(p *Product) {},
		},
		{
			name:       "no variations",
			mutate:     func(p *Product) { p.Variations = nil },
			wantFields: []string{"variations"},
		},
		{
			name:       "zero base price",
			mutate:     func(p *Product) { p.Variations[0].BasePrice = decimal.Zero },
			wantFields: []string{"variations[0].base_price"},
		},
		{
			name: "promotional price not below base",
			mutate: func(p *Product) {
				promo := decimal.RequireFromString("29.90")
				p.Variations[0].PromotionalPrice = &promo
			},
			wantFields: []string{"variations[0].promotional_price"},
		},
		{
			name:       "negative additive price",
			mutate:     func(p *Product) { p.AdditiveGroups[0].Additives[0].Price = decimal.RequireFromString("-1") },
			wantFields: []string{"additive_groups[0].additives[0].price"},
		},
		{
			name:       "max below min",
			mutate:     func(p *Product) { p.AdditiveGroups[0].MinSelection = 2 },
			wantFields: []string{"additive_groups[0].max_selection"},
		},
		{
			name:       "empty group",
			mutate:     func(p *Product) { p.AdditiveGroups[0].Additives = nil },
			wantFields: []string{"additive_groups[0].additives"},
		},
		{
			name:       "split without max flavors",
			mutate:     func(p *Product) { p.AllowsFlavorSplit = true },
			wantFields: []string{"max_flavors"},
		},
		{
			name:       "max flavors above four",
			mutate:     func(p *Product) { p.AllowsFlavorSplit = true; p.MaxFlavors = 5 },
			wantFields: []string{"max_flavors"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProduct()
			tt.mutate(p)

			err := ValidateProduct(p)
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			assert.Equal(t, EINVALID, ErrorCode(err))
			fields := GetValidationFields(err)
			for _, f := range tt.wantFields {
				assert.Contains(t, fields, f)
			}
		})
	}
}
