package product

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrice_Decimal(t *testing.T) {
	tests := []struct {
		name  string
		price Price
		want  string
		valid bool
	}{
		{name: "integer", price: "10", want: "10", valid: true},
		{name: "decimal string", price: "7.50", want: "7.5", valid: true},
		{name: "surrounding spaces", price: " 3.25 ", want: "3.25", valid: true},
		{name: "empty", price: "", want: "0"},
		{name: "blank", price: "   ", want: "0"},
		{name: "not a number", price: "gratis", want: "0"},
		{name: "currency suffix", price: "12,00 €", want: "0"},
		{name: "NaN literal", price: "NaN", want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.price.Decimal()
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got),
				"expected %s, got %s", tt.want, got)
			assert.Equal(t, tt.valid, tt.price.Valid())
		})
	}
}

func TestPriceFrom(t *testing.T) {
	p := PriceFrom(decimal.RequireFromString("19.90"))
	assert.True(t, decimal.RequireFromString("19.9").Equal(p.Decimal()))
}

func TestPrice_UnmarshalJSON(t *testing.T) {
	var body struct {
		A Price `json:"a"`
		B Price `json:"b"`
		C Price `json:"c"`
		D Price `json:"d"`
		E Price `json:"e"`
	}
	err := json.Unmarshal([]byte(`{"a":10,"b":"7.50","c":null,"d":true,"e":{"amount":1}}`), &body)
	require.NoError(t, err)

	assert.Equal(t, Price("10"), body.A)
	assert.Equal(t, Price("7.50"), body.B)
	assert.Equal(t, Price(""), body.C)
	assert.Equal(t, Price(""), body.D)
	assert.Equal(t, Price(""), body.E)
	assert.True(t, decimal.Zero.Equal(body.D.Decimal()))
}

func TestPrice_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(struct {
		Price Price `json:"price"`
	}{Price: "7.50"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":"7.50"}`, string(out))
}
