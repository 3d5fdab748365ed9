package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRarityCode(t *testing.T) {
	cases := map[string]string{
		"Common":                    "C",
		"  rare   holo  ":           "RH",
		"Rare Holo VMAX":            "RHVMAX",
		"Special Illustration Rare": "SIR",
		"Secret Rare":               "SR",
		"Rare Secret":               "SR",
		"ACE SPEC Rare":             "ACE",
		"Trainer Gallery Rare Holo": "TG",
		"":                          UnknownRarityCode,
		"Mythic Rare":               UnknownRarityCode,
	}
	for in, want := range cases {
		assert.Equal(t, want, RarityCode(in), in)
	}
}

func TestInferEra(t *testing.T) {
	cases := []struct {
		series, name, id string
		want             Era
	}{
		{"Scarlet & Violet", "Obsidian Flames", "sv3", EraScarletViolet},
		{"Sword & Shield", "Vivid Voltage", "swsh4", EraSwordShield},
		{"Sun & Moon", "Team Up", "sm9", EraSunMoon},
		{"XY", "Evolutions", "xy12", EraXY},
		{"Black & White", "Boundaries Crossed", "bw7", EraBlackWhite},
		{"HeartGold & SoulSilver", "Unleashed", "hgss2", EraHeartGold},
		{"Platinum", "Rising Rivals", "pl2", EraPlatinum},
		{"Diamond & Pearl", "Majestic Dawn", "dp5", EraDiamondPearl},
		{"EX", "Ruby & Sapphire", "ex1", EraEX},
		{"E-Card", "Aquapolis", "ecard2", EraECard},
		{"Neo", "Neo Genesis", "neo1", EraNeo},
		{"Gym", "Gym Heroes", "gym1", EraGym},
		{"Base", "Base Set 2", "base4", EraBase},
		// "Shield" alone must not pull a set into the Sword & Shield era
		{"", "Shiny Vault Shield", "", EraOther},
		// "ex" is only an era as a whole word
		{"", "Expedition Base Set", "", EraBase},
		// falls through to the id prefix
		{"", "", "swshp", EraSwordShield},
		{"", "", "sve", EraScarletViolet},
		{"Other", "Pokemon Rumble", "ru1", EraOther},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, InferEra(c.series, c.name, c.id), "%s / %s / %s", c.series, c.name, c.id)
	}
}

func TestValidEra(t *testing.T) {
	assert.True(t, ValidEra("swsh"))
	assert.True(t, ValidEra("other"))
	assert.False(t, ValidEra("SWSH"))
	assert.False(t, ValidEra("modern"))
}
