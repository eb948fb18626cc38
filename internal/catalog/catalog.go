// Package catalog holds the immutable card reference data. Definitions are
// embedded at build time, parsed once at startup, and only ever read after
// that.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/coojiin/credit-card-helper/internal/core"
)

//go:embed cards.json
var cardsJSON []byte

type Catalog struct {
	defs []core.CardDefinition
	byID map[string]*core.CardDefinition
}

var _ core.Catalog = (*Catalog)(nil)

// Load parses the embedded card definitions.
func Load() (*Catalog, error) {
	return Parse(cardsJSON)
}

// Parse builds a catalog from a JSON array of card definitions, enforcing
// the catalog invariants before anything is served.
func Parse(data []byte) (*Catalog, error) {
	var defs []core.CardDefinition
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("decode card definitions: %w", err)
	}

	byID := make(map[string]*core.CardDefinition, len(defs))
	for i := range defs {
		if err := defs[i].Validate(); err != nil {
			return nil, fmt.Errorf("card %q: %w", defs[i].ID, err)
		}
		if _, dup := byID[defs[i].ID]; dup {
			return nil, fmt.Errorf("card %q: duplicate definition id", defs[i].ID)
		}
		byID[defs[i].ID] = &defs[i]
	}

	return &Catalog{defs: defs, byID: byID}, nil
}

// Definition looks up a card definition by id.
func (c *Catalog) Definition(id string) (*core.CardDefinition, bool) {
	def, ok := c.byID[id]
	return def, ok
}

// Definitions returns all card definitions in catalog order.
func (c *Catalog) Definitions() []core.CardDefinition {
	return c.defs
}

// Len reports how many cards the catalog carries.
func (c *Catalog) Len() int {
	return len(c.defs)
}
