package normalise

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suppscan/suppscan/internal/models"
)

func TestPrice(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		cents int
	}{
		{"plain dollars and cents", "$49.99", 4999},
		{"nz prefix with thousands", "NZ$1,234.50", 123450},
		{"bare number", "5", 500},
		{"no cents", "$120", 12000},
		{"single fraction digit padded", "$49.9", 4990},
		{"internal whitespace stripped", " $ 12.50 ", 1250},
		{"attribute style decimal", "72.95", 7295},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			money, err := Price(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.cents, money.AmountCents)
			assert.Equal(t, models.CurrencyNZD, money.Currency)
		})
	}
}

func TestPrice_Invalid(t *testing.T) {
	for _, raw := range []string{
		"",
		"free",
		"$12.345",
		"12,34",
		"-5",
		"$",
	} {
		t.Run(raw, func(t *testing.T) {
			_, err := Price(raw)
			assert.Error(t, err)
		})
	}
}

func TestWeightGrams(t *testing.T) {
	tests := []struct {
		name  string
		input string
		grams int
	}{
		{"kilograms", "1.5kg", 1500},
		{"grams with space", "750 g", 750},
		{"pounds", "5lb", 2270},
		{"single pound rounds to ten", "GOLD STANDARD 100% WHEY 1LB", 450},
		{"thousands grouping", "1,000 g", 1000},
		{"decimal comma", "1,5 kg", 1500},
		{"hyphenated unit", "Creatine 1-kg", 1000},
		{"full unit word", "2 kilograms", 2000},
		{"last pair wins", "2 x 1kg", 1000},
		{"weight after other numbers", "Whey 90% - 454g", 450},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grams, ok := WeightGrams(tt.input)
			require.True(t, ok)
			assert.Equal(t, tt.grams, grams)
		})
	}
}

func TestWeightGrams_NoWeight(t *testing.T) {
	for _, input := range []string{
		"",
		"Creatine Monohydrate",
		"100% pure",
		"5 scoops",
	} {
		t.Run(input, func(t *testing.T) {
			_, ok := WeightGrams(input)
			assert.False(t, ok)
		})
	}
}

func TestCapitalise(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"gold standard whey", "Gold Standard Whey"},
		{"nz whey concentrate", "NZ Whey Concentrate"},
		{"iso zero", "ISO Zero"},
		{"wpi 90", "WPI 90"},
		{"SHOUTY PRODUCT NAME", "Shouty Product Name"},
		{"100% whey", "100% Whey"},
		// Macron vowels are single runes, not single bytes.
		{"ōtaki whey", "Ōtaki Whey"},
		{"mānuka honey protein", "Mānuka Honey Protein"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Capitalise(tt.in))
		})
	}
}

func TestStripWeightSuffix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Whey Isolate - 1kg (Vanilla)", "Whey Isolate"},
		{"Creatine 500g", "Creatine"},
		{"Micellar Casein 2.27kg", "Micellar Casein"},
		{"Plain Name", "Plain Name"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, StripWeightSuffix(tt.in))
		})
	}
}

// A parsed weight survives formatting back into a title and re-parsing.
func TestWeightGrams_RoundTrip(t *testing.T) {
	for _, input := range []string{"1.5 kg", "750 g", "5 lb"} {
		grams, ok := WeightGrams(input)
		require.True(t, ok)

		again, ok := WeightGrams(fmt.Sprintf("Test Product %dg", grams))
		require.True(t, ok)
		assert.Equal(t, grams, again)
	}
}
