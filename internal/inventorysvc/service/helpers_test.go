package service

import (
	"fmt"

	"github.com/avvvet/pokecard-services/internal/cardapi"
	"github.com/shopspring/decimal"
)

func vendorSet(id, name, series string) cardapi.Set {
	return cardapi.Set{ID: id, Name: name, Series: series, Total: 100, PrintedTotal: 100, ReleaseDate: "2021/11/12"}
}

// vendorCard builds a card priced per variant; an empty string leaves the
// market price null.
func vendorCard(id string, set cardapi.Set, prices map[string]string) cardapi.Card {
	c := cardapi.Card{
		ID:       id,
		Name:     "Card " + id,
		Number:   fmt.Sprint(len(id)),
		Rarity:   "Rare Holo",
		Set:      set,
		Subtypes: []string{"Basic"},
		Images:   cardapi.CardImages{Small: "https://img/" + id + ".png", Large: "https://img/" + id + "_hires.png"},
	}
	if prices != nil {
		c.TCGPlayer = &cardapi.Market{Prices: map[string]cardapi.PriceRange{}}
		for kind, p := range prices {
			var pr cardapi.PriceRange
			if p != "" {
				pr.Market = decimal.NewNullDecimal(decimal.RequireFromString(p))
			}
			c.TCGPlayer.Prices[kind] = pr
		}
	}
	return c
}
