package chain

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// CachedMintReader memoizes MintInfo for a short TTL. Token account balances
// are always read through, so admission decisions stay fresh.
type CachedMintReader struct {
	next  TokenReader
	mints *ttlcache.Cache[string, MintInfo]
}

func NewCachedMintReader(next TokenReader, ttl time.Duration) *CachedMintReader {
	cache := ttlcache.New[string, MintInfo](
		ttlcache.WithTTL[string, MintInfo](ttl),
		ttlcache.WithDisableTouchOnHit[string, MintInfo](),
	)
	go cache.Start()
	return &CachedMintReader{next: next, mints: cache}
}

func (r *CachedMintReader) TokenAccountsByOwner(ctx context.Context, owner string, filter AccountFilter) ([]TokenAccount, error) {
	return r.next.TokenAccountsByOwner(ctx, owner, filter)
}

// MintInfo only caches successful lookups.
func (r *CachedMintReader) MintInfo(ctx context.Context, mint string) (MintInfo, error) {
	if item := r.mints.Get(mint); item != nil {
		return item.Value(), nil
	}
	info, err := r.next.MintInfo(ctx, mint)
	if err != nil {
		return MintInfo{}, err
	}
	r.mints.Set(mint, info, ttlcache.DefaultTTL)
	return info, nil
}

func (r *CachedMintReader) Len() int {
	return r.mints.Len()
}

func (r *CachedMintReader) Close() {
	r.mints.Stop()
}
