package service

import (
	"sort"

	"github.com/avvvet/pokecard-services/internal/cardapi"
	"github.com/avvvet/pokecard-services/internal/inventorysvc/models"
	"github.com/shopspring/decimal"
)

// variant preference when picking the headline market price
var primaryVariants = []string{
	"holofoil",
	"normal",
	"reverseHolofoil",
	"1stEditionHolofoil",
	"1stEditionNormal",
	"unlimitedHolofoil",
	"unlimited",
}

func mapSet(s cardapi.Set) models.Set {
	return models.Set{
		ID:           s.ID,
		Name:         s.Name,
		Series:       s.Series,
		Era:          string(InferEra(s.Series, s.Name, s.ID)),
		PrintedTotal: s.PrintedTotal,
		Total:        s.Total,
		ReleaseDate:  s.Released(),
		SymbolURL:    s.Images.Symbol,
		LogoURL:      s.Images.Logo,
	}
}

// mapCard converts a vendor card. era is taken from the local set when known,
// otherwise inferred from the embedded vendor set.
func mapCard(c cardapi.Card, era string) (models.Card, []models.Variation) {
	setID := c.Set.ID
	if era == "" {
		era = string(InferEra(c.Set.Series, c.Set.Name, setID))
	}
	card := models.Card{
		ID:         c.ID,
		SetID:      setID,
		Name:       c.Name,
		Number:     c.Number,
		Supertype:  c.Supertype,
		Subtypes:   c.Subtypes,
		Rarity:     c.Rarity,
		RarityCode: RarityCode(c.Rarity),
		Era:        era,
		Artist:     c.Artist,
		ImageSmall: c.Images.Small,
		ImageLarge: c.Images.Large,
	}
	if card.Subtypes == nil {
		card.Subtypes = []string{}
	}

	variations := mapVariations(c)
	card.MarketPrice = primaryMarket(variations)
	return card, variations
}

func mapVariations(c cardapi.Card) []models.Variation {
	if c.TCGPlayer == nil || len(c.TCGPlayer.Prices) == 0 {
		return nil
	}
	kinds := make([]string, 0, len(c.TCGPlayer.Prices))
	for k := range c.TCGPlayer.Prices {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	out := make([]models.Variation, 0, len(kinds))
	for _, k := range kinds {
		p := c.TCGPlayer.Prices[k]
		out = append(out, models.Variation{
			CardID: c.ID,
			Kind:   k,
			Low:    p.Low,
			Mid:    p.Mid,
			High:   p.High,
			Market: p.Market,
		})
	}
	return out
}

// primaryMarket picks the market price of the preferred variant; variants
// outside the preference list are considered last, highest price first.
func primaryMarket(variations []models.Variation) decimal.NullDecimal {
	byKind := make(map[string]decimal.NullDecimal, len(variations))
	for _, v := range variations {
		byKind[v.Kind] = v.Market
	}
	for _, k := range primaryVariants {
		if m, ok := byKind[k]; ok && m.Valid {
			return m
		}
	}
	var best decimal.NullDecimal
	for _, v := range variations {
		if v.Market.Valid && (!best.Valid || v.Market.Decimal.GreaterThan(best.Decimal)) {
			best = v.Market
		}
	}
	return best
}
