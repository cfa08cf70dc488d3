// Package model contains domain models passed between layers.
package model

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// GameRecord is one row of the price table. The JSON names match the
// column aliases the browser page reads.
type GameRecord struct {
	Name       string  `json:"Game Name"`
	SteamPrice Price   `json:"Steam Price"`
	EpicPrice  Price   `json:"Epic Price"`
	Metascore  int     `json:"Metascore"`
	SteamURL   *string `json:"Steam URL"`
	EpicURL    *string `json:"Epic URL"`
}

// Price holds a store price exactly as persisted: a number, a formatted
// string such as "₺199,00", or nothing at all.
type Price struct {
	raw any
}

// NumberPrice builds a numeric price.
func NumberPrice(v float64) Price { return Price{raw: v} }

// TextPrice builds a textual price.
func TextPrice(v string) Price { return Price{raw: v} }

// NoPrice is the absent price.
func NoPrice() Price { return Price{} }

// PriceFromDB converts a value scanned from database/sql into a Price.
func PriceFromDB(v any) Price {
	switch t := v.(type) {
	case nil:
		return Price{}
	case int64:
		return Price{raw: float64(t)}
	case float64:
		return Price{raw: t}
	case []byte:
		return Price{raw: string(t)}
	case string:
		return Price{raw: t}
	default:
		return Price{}
	}
}

// Present mirrors how the page tests a price for truthiness: null, the
// empty string and zero are all "not sold here".
func (p Price) Present() bool {
	switch t := p.raw.(type) {
	case nil:
		return false
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return false
	}
}

// Value returns the underlying value for persistence (nil, float64 or string).
func (p Price) Value() any { return p.raw }

// String renders the price for display.
func (p Price) String() string {
	switch t := p.raw.(type) {
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case string:
		return t
	default:
		return ""
	}
}

// MarshalJSON emits the stored value unchanged, or null.
func (p Price) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.raw)
}

// UnmarshalJSON accepts a number, a string or null.
func (p *Price) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		p.raw = nil
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		p.raw = s
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	p.raw = f
	return nil
}

// HasSteam reports whether the game is sold on Steam.
func (g GameRecord) HasSteam() bool { return g.SteamPrice.Present() }

// HasEpic reports whether the game is sold on the Epic store.
func (g GameRecord) HasEpic() bool { return g.EpicPrice.Present() }
