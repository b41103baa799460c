package calc

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/patrickmn/go-cache"
)

// Analysis bundles a derived table with its liquidity metrics.
// Treat it as read-only: cached instances are shared between callers.
type Analysis struct {
	Table     *FinancialTable
	Liquidity Liquidity
}

// Analyze derives the table and computes liquidity in one pass.
func Analyze(rows [][]string, markers Markers) (*Analysis, error) {
	table, err := Derive(rows, markers)
	if err != nil {
		return nil, err
	}
	return &Analysis{Table: table, Liquidity: ComputeLiquidity(table)}, nil
}

// Cache memoizes Analyze by a content hash of the raw rows and markers.
// Derivation is pure, so a hit is indistinguishable from recomputation.
type Cache struct {
	store *cache.Cache
}

// NewCache creates a cache whose entries expire after ttl.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Cache{store: cache.New(ttl, 2*ttl)}
}

// Analyze returns a cached analysis for identical input or derives a new one.
// Failures are not cached.
func (c *Cache) Analyze(rows [][]string, markers Markers) (*Analysis, error) {
	markers = markers.withDefaults()
	key := ContentHash(rows, markers)

	if x, found := c.store.Get(key); found {
		return x.(*Analysis), nil
	}

	a, err := Analyze(rows, markers)
	if err != nil {
		return nil, err
	}
	c.store.Set(key, a, cache.DefaultExpiration)
	return a, nil
}

// Len reports the number of cached analyses.
func (c *Cache) Len() int {
	return c.store.ItemCount()
}

// ContentHash returns a hex SHA-256 over the rows and markers. Every cell is
// length-prefixed so different splits of the same text never collide.
func ContentHash(rows [][]string, markers Markers) string {
	h := sha256.New()
	var n [8]byte

	writeCell := func(s string) {
		binary.BigEndian.PutUint64(n[:], uint64(len(s)))
		h.Write(n[:])
		h.Write([]byte(s))
	}
	writeList := func(list []string) {
		binary.BigEndian.PutUint64(n[:], uint64(len(list)))
		h.Write(n[:])
		for _, s := range list {
			writeCell(s)
		}
	}

	writeList(markers.TotalAssets)
	writeList(markers.CurrentAssets)
	writeList(markers.CurrentLiabilities)

	binary.BigEndian.PutUint64(n[:], uint64(len(rows)))
	h.Write(n[:])
	for _, row := range rows {
		writeList(row)
	}
	return hex.EncodeToString(h.Sum(nil))
}
