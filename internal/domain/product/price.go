package product

import (
	"strings"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// Price is a unit price exactly as the catalog delivered it. Catalog feeds
// send prices either as JSON numbers or as strings, and sometimes send
// nothing useful at all, so the raw text is kept and parsed on demand.
type Price string

// PriceFrom returns the Price for an already parsed amount.
func PriceFrom(d decimal.Decimal) Price {
	return Price(d.String())
}

// Decimal parses the price. Empty or malformed values yield zero.
func (p Price) Decimal() decimal.Decimal {
	d, ok := p.parse()
	if !ok {
		return decimal.Zero
	}
	return d
}

// Valid reports whether the price parses as a decimal amount.
func (p Price) Valid() bool {
	_, ok := p.parse()
	return ok
}

func (p Price) parse() (decimal.Decimal, bool) {
	s := strings.TrimSpace(string(p))
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Encode writes the price as a JSON string.
func (p Price) Encode(e *jx.Encoder) {
	e.Str(string(p))
}

// DecodePrice reads a price that may be a JSON string, a number or null.
// Numbers keep their literal text; null and any other JSON type are skipped
// and produce the empty price.
func DecodePrice(d *jx.Decoder) (Price, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return "", err
		}
		return Price(s), nil
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return "", err
		}
		return Price(string(n)), nil
	default:
		return "", d.Skip()
	}
}

// MarshalJSON implements json.Marshaler.
func (p Price) MarshalJSON() ([]byte, error) {
	e := &jx.Encoder{}
	p.Encode(e)
	return e.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Price) UnmarshalJSON(data []byte) error {
	v, err := DecodePrice(jx.DecodeBytes(data))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
