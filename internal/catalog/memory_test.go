package catalog

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/cardapio/internal/domain"
)

type menuFixture struct {
	est          uuid.UUID
	pizzas       domain.Subcategory
	sweetPizzas  domain.Subcategory
	drinks       domain.Subcategory
	margherita   domain.Product
	calabresa    domain.Product
	chocolate    domain.Product
	soda         domain.Product
	otherEstItem domain.Product
}

func newMenu(t *testing.T) (*MemoryProvider, menuFixture) {
	t.Helper()

	mainCategory, drinksCategory := uuid.New(), uuid.New()
	f := menuFixture{
		est:         uuid.New(),
		pizzas:      domain.Subcategory{ID: uuid.New(), CategoryID: mainCategory, Name: "Salgadas"},
		sweetPizzas: domain.Subcategory{ID: uuid.New(), CategoryID: mainCategory, Name: "Doces"},
		drinks:      domain.Subcategory{ID: uuid.New(), CategoryID: drinksCategory, Name: "Bebidas"},
	}

	product := func(name string, est, subcat uuid.UUID) domain.Product {
		return domain.Product{
			ID:              uuid.New(),
			EstablishmentID: est,
			SubcategoryID:   subcat,
			Name:            name,
			Variations: []domain.Variation{
				{ID: uuid.New(), Name: "Grande", BasePrice: decimal.RequireFromString("49.90")},
			},
		}
	}

	f.margherita = product("Margherita", f.est, f.pizzas.ID)
	f.margherita.AllowsFlavorSplit = true
	f.margherita.MaxFlavors = 2
	f.margherita.AdditiveGroups = []domain.AdditiveGroup{{
		ID: uuid.New(), Name: "Borda", MaxSelection: 1,
		Additives: []domain.Additive{{ID: uuid.New(), Name: "Catupiry", Price: decimal.RequireFromString("8")}},
	}}
	f.calabresa = product("Calabresa", f.est, f.pizzas.ID)
	f.chocolate = product("Chocolate", f.est, f.sweetPizzas.ID)
	f.soda = product("Guaraná", f.est, f.drinks.ID)
	f.otherEstItem = product("Portuguesa", uuid.New(), f.pizzas.ID)

	m := NewMemoryProvider(slog.New(slog.NewTextHandler(io.Discard, nil)))
	for _, s := range []domain.Subcategory{f.pizzas, f.sweetPizzas, f.drinks} {
		m.AddSubcategory(s)
	}
	for _, p := range []domain.Product{f.margherita, f.calabresa, f.chocolate, f.soda, f.otherEstItem} {
		require.NoError(t, m.AddProduct(p))
	}
	return m, f
}

func TestMemoryProvider_GetProduct(t *testing.T) {
	m, f := newMenu(t)
	ctx := context.Background()

	p, err := m.GetProduct(ctx, f.est, f.margherita.ID)
	require.NoError(t, err)
	assert.Equal(t, "Margherita", p.Name)
	assert.Len(t, p.Variations, 1)
	assert.Empty(t, p.AdditiveGroups, "groups come from FetchAdditiveGroups")

	_, err = m.GetProduct(ctx, uuid.New(), f.margherita.ID)
	assert.ErrorIs(t, err, domain.ErrProductNotFound, "other establishments cannot see the product")

	_, err = m.GetProduct(ctx, f.est, uuid.New())
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestMemoryProvider_ReturnsCopies(t *testing.T) {
	m, f := newMenu(t)
	ctx := context.Background()

	p, err := m.GetProduct(ctx, f.est, f.margherita.ID)
	require.NoError(t, err)
	p.Variations[0].Name = "changed"

	groups, err := m.FetchAdditiveGroups(ctx, f.margherita.ID)
	require.NoError(t, err)
	groups[0].Additives[0].Name = "changed"

	again, err := m.GetProduct(ctx, f.est, f.margherita.ID)
	require.NoError(t, err)
	assert.Equal(t, "Grande", again.Variations[0].Name)

	groups, err = m.FetchAdditiveGroups(ctx, f.margherita.ID)
	require.NoError(t, err)
	assert.Equal(t, "Catupiry", groups[0].Additives[0].Name)
}

func TestMemoryProvider_Candidates(t *testing.T) {
	m, f := newMenu(t)
	ctx := context.Background()

	siblings, err := m.SiblingSubcategoryIDs(ctx, f.pizzas.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{f.pizzas.ID, f.sweetPizzas.ID}, siblings)

	candidates, err := m.FetchCandidateProducts(ctx, f.est, siblings)
	require.NoError(t, err)

	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		names = append(names, c.Name)
		assert.Empty(t, c.Variations)
	}
	assert.Equal(t, []string{"Margherita", "Calabresa", "Chocolate"}, names,
		"drinks and other establishments are excluded")

	none, err := m.SiblingSubcategoryIDs(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryProvider_RejectsInvalidProducts(t *testing.T) {
	m := NewMemoryProvider(nil)

	err := m.AddProduct(domain.Product{ID: uuid.New(), EstablishmentID: uuid.New(), Name: "Sem preço"})

	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	assert.Contains(t, domain.GetValidationFields(err), "variations")
}
