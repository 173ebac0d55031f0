package brands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit(t *testing.T) {
	known := []string{"Optimum Nutrition", "EHP Labs", "Balance"}

	t.Run("full brand prefix", func(t *testing.T) {
		brand, base, ok := Split("Optimum Nutrition Gold Standard 100% Whey", known)
		assert.True(t, ok)
		assert.Equal(t, "Optimum Nutrition", brand)
		assert.Equal(t, "Gold Standard 100% Whey", base)
	})

	t.Run("case insensitive", func(t *testing.T) {
		brand, base, ok := Split("OPTIMUM NUTRITION GOLD STANDARD", known)
		assert.True(t, ok)
		assert.Equal(t, "Optimum Nutrition", brand)
		assert.Equal(t, "GOLD STANDARD", base)
	})

	t.Run("first word fallback", func(t *testing.T) {
		// "EHP OxyShred" carries only the brand's first word.
		brand, base, ok := Split("EHP OxyShred Thermogenic", known)
		assert.True(t, ok)
		assert.Equal(t, "EHP Labs", brand)
		assert.Equal(t, "OxyShred Thermogenic", base)
	})

	t.Run("hyphen separator", func(t *testing.T) {
		brand, base, ok := Split("Balance - Whey Protein", known)
		assert.True(t, ok)
		assert.Equal(t, "Balance", brand)
		assert.Equal(t, "Whey Protein", base)
	})

	t.Run("no match without separator boundary", func(t *testing.T) {
		// "Balanced" must not match brand "Balance".
		_, base, ok := Split("Balanced Diet Shake", known)
		assert.False(t, ok)
		assert.Equal(t, "Balanced Diet Shake", base)
	})

	t.Run("no brands known", func(t *testing.T) {
		_, base, ok := Split("  Some   Product  ", nil)
		assert.False(t, ok)
		assert.Equal(t, "Some Product", base)
	})

	t.Run("brand equals whole title", func(t *testing.T) {
		brand, base, ok := Split("Balance", known)
		assert.True(t, ok)
		assert.Equal(t, "Balance", brand)
		assert.Equal(t, "", base)
	})

	t.Run("list order is priority", func(t *testing.T) {
		ordered := []string{"Optimum Nutrition", "Optimum"}
		brand, _, ok := Split("Optimum Nutrition Serious Mass", ordered)
		assert.True(t, ok)
		assert.Equal(t, "Optimum Nutrition", brand)
	})
}

func TestCanonicalise(t *testing.T) {
	t.Run("generic suffixes collapse", func(t *testing.T) {
		got := Canonicalise([]string{"Balance", "Balance Sports Nutrition"})
		assert.Equal(t, []string{"Balance Sports Nutrition"}, got)
	})

	t.Run("longest first ordering", func(t *testing.T) {
		got := Canonicalise([]string{"ON", "Optimum Nutrition", "EHP Labs"})
		assert.Equal(t, []string{"Optimum Nutrition", "EHP Labs", "ON"}, got)
	})

	t.Run("whitespace normalised and blanks dropped", func(t *testing.T) {
		got := Canonicalise([]string{"  EHP   Labs ", "", "   "})
		assert.Equal(t, []string{"EHP Labs"}, got)
	})
}
