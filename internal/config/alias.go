package config

// AliasIndex is a bidirectional index over the alternativeNames map, built once
// at configuration load and queried in O(1). The primary/alias relationship is
// many-to-one and declared, never inferred.
type AliasIndex struct {
	aliasToPrimary   map[string]string
	primaryToAliases map[string][]string
}

// NewAliasIndex builds the index. The configured lists may include the primary's
// own spelling ("BTC": ["BTC", "BITCOIN"]); self references are not aliases.
func NewAliasIndex(alternativeNames map[string][]string) *AliasIndex {
	idx := &AliasIndex{
		aliasToPrimary:   make(map[string]string),
		primaryToAliases: make(map[string][]string),
	}
	for primary, names := range alternativeNames {
		p := Canonical(primary)
		if p == "" {
			continue
		}
		for _, name := range names {
			alias := Canonical(name)
			if alias == "" || alias == p {
				continue
			}
			idx.aliasToPrimary[alias] = p
			idx.primaryToAliases[p] = append(idx.primaryToAliases[p], alias)
		}
	}
	return idx
}

// PrimaryOf returns the primary symbol for a declared alias.
func (idx *AliasIndex) PrimaryOf(symbol string) (string, bool) {
	primary, ok := idx.aliasToPrimary[Canonical(symbol)]
	return primary, ok
}

// AliasesOf returns the declared alternate spellings of a primary symbol.
func (idx *AliasIndex) AliasesOf(symbol string) []string {
	return idx.primaryToAliases[Canonical(symbol)]
}

// IsAlias reports whether the symbol is a declared alias of some other primary.
func (idx *AliasIndex) IsAlias(symbol string) bool {
	_, ok := idx.aliasToPrimary[Canonical(symbol)]
	return ok
}
