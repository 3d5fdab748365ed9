package service

import (
	"strings"
)

type Era string

const (
	EraScarletViolet  Era = "sv"
	EraSwordShield    Era = "swsh"
	EraSunMoon        Era = "sm"
	EraXY             Era = "xy"
	EraBlackWhite     Era = "bw"
	EraHeartGold      Era = "hgss"
	EraPlatinum       Era = "pl"
	EraDiamondPearl   Era = "dp"
	EraEX             Era = "ex"
	EraECard          Era = "ecard"
	EraNeo            Era = "neo"
	EraGym            Era = "gym"
	EraBase           Era = "base"
	EraOther          Era = "other"
	UnknownRarityCode     = "UNK"
)

var rarityCodes = map[string]string{
	"common":                    "C",
	"uncommon":                  "U",
	"rare":                      "R",
	"rare holo":                 "RH",
	"rare holo ex":              "RHEX",
	"rare holo gx":              "RHGX",
	"rare holo v":               "RHV",
	"rare holo vmax":            "RHVMAX",
	"rare holo vstar":           "RHVSTAR",
	"rare holo lv.x":            "LVX",
	"rare holo star":            "STAR",
	"double rare":               "RR",
	"ultra rare":                "UR",
	"rare ultra":                "UR",
	"illustration rare":         "IR",
	"special illustration rare": "SIR",
	"hyper rare":                "HR",
	"rare secret":               "SR",
	"secret rare":               "SR",
	"rare rainbow":              "RNB",
	"amazing rare":              "AR",
	"radiant rare":              "RAD",
	"rare shiny":                "SH",
	"shiny rare":                "SH",
	"rare shiny gx":             "SHGX",
	"shiny ultra rare":          "SSR",
	"ace spec rare":             "ACE",
	"rare ace":                  "ACE",
	"rare prism star":           "PS",
	"rare break":                "BRK",
	"legend":                    "LEG",
	"rare prime":                "PRM",
	"promo":                     "PR",
	"classic collection":        "CC",
	"trainer gallery rare holo": "TG",
}

// RarityCode maps a vendor rarity label to its short code. Matching ignores
// case and repeated whitespace; unknown labels map to UNK.
func RarityCode(rarity string) string {
	key := strings.ToLower(strings.Join(strings.Fields(rarity), " "))
	if code, ok := rarityCodes[key]; ok {
		return code
	}
	return UnknownRarityCode
}

type eraRule struct {
	era      Era
	contains []string
}

// Order matters: longer, more specific names come before names they contain.
var eraRules = []eraRule{
	{EraScarletViolet, []string{"scarlet & violet", "scarlet and violet"}},
	{EraSwordShield, []string{"sword & shield", "sword and shield"}},
	{EraSunMoon, []string{"sun & moon", "sun and moon"}},
	{EraHeartGold, []string{"heartgold & soulsilver", "heartgold soulsilver", "hgss"}},
	{EraBlackWhite, []string{"black & white", "black and white"}},
	{EraDiamondPearl, []string{"diamond & pearl", "diamond and pearl"}},
	{EraPlatinum, []string{"platinum"}},
	{EraECard, []string{"e-card", "ecard"}},
	{EraNeo, []string{"neo"}},
	{EraGym, []string{"gym"}},
	{EraXY, []string{"xy"}},
	{EraEX, []string{"ex"}},
	{EraBase, []string{"base"}},
}

var eraIDPrefixes = []struct {
	prefix string
	era    Era
}{
	{"swsh", EraSwordShield},
	{"hgss", EraHeartGold},
	{"ecard", EraECard},
	{"base", EraBase},
	{"neo", EraNeo},
	{"gym", EraGym},
	{"sv", EraScarletViolet},
	{"sm", EraSunMoon},
	{"xy", EraXY},
	{"bw", EraBlackWhite},
	{"pl", EraPlatinum},
	{"dp", EraDiamondPearl},
	{"ex", EraEX},
}

// InferEra guesses the release era from the series label, then the set name,
// then the vendor set id prefix.
func InferEra(series, setName, setID string) Era {
	for _, s := range []string{series, setName} {
		if era, ok := matchEra(s); ok {
			return era
		}
	}
	id := strings.ToLower(setID)
	for _, p := range eraIDPrefixes {
		if strings.HasPrefix(id, p.prefix) {
			return p.era
		}
	}
	return EraOther
}

func matchEra(s string) (Era, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", false
	}
	words := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == '-' || r == ':' })
	for _, rule := range eraRules {
		for _, needle := range rule.contains {
			if strings.Contains(needle, " ") || strings.Contains(needle, "-") {
				if strings.Contains(s, needle) {
					return rule.era, true
				}
				continue
			}
			// single tokens ("ex", "xy", "neo") must match a whole word
			for _, w := range words {
				if w == needle {
					return rule.era, true
				}
			}
		}
	}
	return "", false
}

func ValidEra(s string) bool {
	switch Era(s) {
	case EraScarletViolet, EraSwordShield, EraSunMoon, EraXY, EraBlackWhite, EraHeartGold,
		EraPlatinum, EraDiamondPearl, EraEX, EraECard, EraNeo, EraGym, EraBase, EraOther:
		return true
	}
	return false
}
