package filename

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// CachedDecoder memoises successful decodes by filename. Failures are not
// cached so a corrected upload is always re-evaluated.
type CachedDecoder struct {
	cache *cache.Cache
}

// NewCachedDecoder creates a decoder whose entries expire after ttl.
// A ttl of zero or less disables expiry.
func NewCachedDecoder(ttl time.Duration) *CachedDecoder {
	cleanup := 2 * ttl
	if ttl <= 0 {
		ttl = cache.NoExpiration
		cleanup = 0
	}
	return &CachedDecoder{cache: cache.New(ttl, cleanup)}
}

// Decode returns the cached metadata for name, decoding it on a miss.
func (d *CachedDecoder) Decode(name string) (Metadata, error) {
	if v, ok := d.cache.Get(name); ok {
		return v.(Metadata), nil
	}

	meta, err := Decode(name)
	if err != nil {
		return Metadata{}, err
	}
	d.cache.SetDefault(name, meta)
	return meta, nil
}

// Len returns the number of cached entries, including expired ones not yet purged.
func (d *CachedDecoder) Len() int {
	return d.cache.ItemCount()
}
