package repository

import (
	"fmt"
	"strings"

	"ETFAdvisor/internal/domain/models"
	"ETFAdvisor/internal/domain/repository"
)

// ConfigUniverse is the instrument catalog loaded from configuration.
type ConfigUniverse struct {
	list  []models.Instrument
	index map[string]int
}

var _ repository.Universe = (*ConfigUniverse)(nil)

// NewConfigUniverse builds a catalog. Later duplicates of a symbol are ignored.
func NewConfigUniverse(instruments []models.Instrument) *ConfigUniverse {
	u := &ConfigUniverse{index: make(map[string]int, len(instruments))}
	for _, in := range instruments {
		sym := normalizeSymbol(in.Symbol)
		if sym == "" {
			continue
		}
		if _, dup := u.index[sym]; dup {
			continue
		}
		in.Symbol = sym
		u.index[sym] = len(u.list)
		u.list = append(u.list, in)
	}
	return u
}

// List returns the catalog in configuration order.
func (u *ConfigUniverse) List() []models.Instrument {
	out := make([]models.Instrument, len(u.list))
	copy(out, u.list)
	return out
}

func (u *ConfigUniverse) Get(symbol string) (models.Instrument, error) {
	i, ok := u.index[normalizeSymbol(symbol)]
	if !ok {
		return models.Instrument{}, fmt.Errorf("%s: %w", symbol, models.ErrUnknownSymbol)
	}
	return u.list[i], nil
}

// Filter returns the instruments named by symbols in the order given. An
// empty filter returns the whole catalog.
func (u *ConfigUniverse) Filter(symbols []string) ([]models.Instrument, error) {
	if len(symbols) == 0 {
		return u.List(), nil
	}
	out := make([]models.Instrument, 0, len(symbols))
	seen := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		in, err := u.Get(s)
		if err != nil {
			return nil, err
		}
		if seen[in.Symbol] {
			continue
		}
		seen[in.Symbol] = true
		out = append(out, in)
	}
	return out, nil
}

// normalizeSymbol accepts "0050", " 0050 " and "0050.TW".
func normalizeSymbol(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if i := strings.IndexByte(s, '.'); i > 0 {
		s = s[:i]
	}
	return s
}
