package scraper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suppscan/suppscan/internal/models"
)

const nzProteinListingHTML = `
<div class="product-wrap">
  <a href="/product/whey-protein"></a>
  <h3 data-mh="product-title">nz whey protein 1kg</h3>
  <div class="product-price h3"> $42.00 <span>(NZD)</span></div>
</div>
<div class="product-wrap">
  <a href="/product/mystery"></a>
  <h3 data-mh="product-title">mystery product</h3>
  <div class="product-price h3"><span>(NZD)</span></div>
</div>
<div class="product-wrap">
  <a href="/product/vegan-protein"></a>
  <h3 data-mh="product-title">vegan protein 750g</h3>
  <div class="product-price h3"> $38.50 <span>(NZD)</span></div>
  <button class="btn-no-stock">Out of stock</button>
</div>`

const nzProteinSupplementsHTML = `
<article>
  <h3>creatine monohydrate 500g</h3>
  <a href="/product/creatine-monohydrate">view</a>
  <div>$29.00</div>
</article>
<article>
  <h3>magnesium citrate</h3>
  <a href="/product/magnesium">view</a>
  <div>$19.00</div>
</article>`

func newTestNZProtein(fetch Fetcher, flavours FlavourLister) *NZProtein {
	return NewNZProtein(fetch, flavours, DefaultNZProteinConfig())
}

func TestNZProtein_Protein(t *testing.T) {
	cfg := DefaultNZProteinConfig()
	fetch := &fakeFetch{pages: map[string]string{cfg.ProteinURL: nzProteinListingHTML}}
	flavours := &fakeFlavours{byURL: map[string][]string{
		"https://www.nzprotein.co.nz/product/whey-protein": {"Vanilla", "Chocolate"},
	}}

	result, err := newTestNZProtein(fetch, flavours).Scrape(context.Background(), models.CategoryProtein)
	require.NoError(t, err)

	require.Len(t, result.Products, 2)
	require.Len(t, result.Errors, 1)

	first := result.Products[0]
	assert.Equal(t, "NZProtein", first.Brand)
	assert.Equal(t, "NZ Whey Protein", first.Name)
	assert.Equal(t, 4200, first.Price.AmountCents)
	require.NotNil(t, first.WeightGrams)
	assert.Equal(t, 1000, *first.WeightGrams)
	assert.Equal(t, []string{"Vanilla", "Chocolate"}, first.Flavours)
	assert.True(t, first.InStock)
	assert.Equal(t, "https://www.nzprotein.co.nz/product/whey-protein", first.URL)
	assert.Equal(t, models.RetailerNZProtein, first.Retailer)

	second := result.Products[1]
	assert.Equal(t, "Vegan Protein", second.Name)
	assert.False(t, second.InStock)
	// Flavour lookup failed for this URL; degraded, not fatal.
	assert.Equal(t, []string{}, second.Flavours)

	assert.Contains(t, result.Errors[0], "no price, skipping #1")
	assert.Contains(t, result.Errors[0], "url=https://www.nzprotein.co.nz/product/mystery")
}

func TestNZProtein_Creatine(t *testing.T) {
	cfg := DefaultNZProteinConfig()
	fetch := &fakeFetch{pages: map[string]string{cfg.CreatineURL: nzProteinSupplementsHTML}}

	result, err := newTestNZProtein(fetch, nil).Scrape(context.Background(), models.CategoryCreatine)
	require.NoError(t, err)
	require.Empty(t, result.Errors)

	// Only the creatine heading survives the scan.
	require.Len(t, result.Products, 1)
	p := result.Products[0]
	assert.Equal(t, "Creatine Monohydrate", p.Name)
	assert.Equal(t, 2900, p.Price.AmountCents)
	require.NotNil(t, p.WeightGrams)
	assert.Equal(t, 500, *p.WeightGrams)
	assert.Nil(t, p.Flavours)
	assert.True(t, p.InStock)
}

func TestNZProtein_ListingFetchFails(t *testing.T) {
	ex := newTestNZProtein(&fakeFetch{}, nil)
	_, err := ex.Scrape(context.Background(), models.CategoryProtein)
	assert.Error(t, err)
}

func TestNZProtein_UnsupportedCategory(t *testing.T) {
	ex := newTestNZProtein(&fakeFetch{}, nil)
	_, err := ex.Scrape(context.Background(), models.Category("gummies"))
	assert.ErrorIs(t, err, ErrCategoryUnsupported)
}
