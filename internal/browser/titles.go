package browser

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
	"pkt.systems/pslog"
)

// DefaultCacheSize is the number of pages a TitleResolver remembers.
const DefaultCacheSize = 128

// TitleResolver looks up page titles, caching them by normalized URL.
type TitleResolver struct {
	fetcher *Fetcher
	cache   *lru.Cache[string, Page]
	group   singleflight.Group
	log     pslog.Logger
}

// NewTitleResolver creates a resolver backed by fetcher. A non-positive size
// selects DefaultCacheSize.
func NewTitleResolver(fetcher *Fetcher, size int, logger pslog.Logger) (*TitleResolver, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	cache, err := lru.New[string, Page](size)
	if err != nil {
		return nil, fmt.Errorf("creating title cache: %w", err)
	}
	return &TitleResolver{fetcher: fetcher, cache: cache, log: logger}, nil
}

// Resolve returns the page behind rawURL. Concurrent lookups of the same URL
// share one fetch; failures are not cached.
func (r *TitleResolver) Resolve(ctx context.Context, rawURL string) (Page, error) {
	key := NormalizeURL(rawURL)
	if page, ok := r.cache.Get(key); ok {
		return page, nil
	}
	if !Fetchable(key) {
		return Page{}, fmt.Errorf("%w: %q", ErrNotFetchable, key)
	}

	ch := r.group.DoChan(key, func() (any, error) {
		page, err := r.fetch(ctx, key)
		if err != nil {
			return Page{}, err
		}
		r.cache.Add(key, page)
		return page, nil
	})
	select {
	case res := <-ch:
		return res.Val.(Page), res.Err
	case <-ctx.Done():
		return Page{}, ctx.Err()
	}
}

// Cached reports whether rawURL has a cached page.
func (r *TitleResolver) Cached(rawURL string) bool {
	return r.cache.Contains(NormalizeURL(rawURL))
}

func (r *TitleResolver) fetch(ctx context.Context, url string) (Page, error) {
	result, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		r.log.Debug("title fetch failed", "url", url, "err", err)
		return Page{}, err
	}
	page, err := Extract(result)
	if err != nil {
		r.log.Debug("title extraction failed", "url", url, "err", err)
		return Page{}, err
	}
	r.log.Debug("title resolved", "url", url, "title", page.Title, "took", result.Duration)
	return *page, nil
}
