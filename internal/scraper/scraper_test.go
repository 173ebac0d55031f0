package scraper

import (
	"context"
	"fmt"
)

// fakeFetch serves canned HTML per URL; unknown URLs fail like a network
// error would.
type fakeFetch struct {
	pages map[string]string
}

func (f *fakeFetch) FetchHTML(ctx context.Context, url string) (string, error) {
	if html, ok := f.pages[url]; ok {
		return html, nil
	}
	return "", fmt.Errorf("fetch %s: HTTP 404", url)
}

// fakeFlavours returns a fixed flavour set per product URL and an error for
// anything unlisted.
type fakeFlavours struct {
	byURL map[string][]string
}

func (f *fakeFlavours) Collect(ctx context.Context, url string) ([]string, error) {
	if flavours, ok := f.byURL[url]; ok {
		return flavours, nil
	}
	return nil, fmt.Errorf("no variants at %s", url)
}
