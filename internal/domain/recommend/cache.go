package recommend

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// CachedService memoizes Analyze by a composite key over the request.
// singleflight guarantees at most one computation in flight per key; later
// callers with the same key wait for the first result. The cache is an
// optional wrapper around the engine, not part of it.
type CachedService struct {
	inner Analyzer

	group   singleflight.Group
	mu      sync.RWMutex
	results map[string]*Result
}

func NewCachedService(inner Analyzer) *CachedService {
	return &CachedService{inner: inner, results: make(map[string]*Result)}
}

func (c *CachedService) Analyze(ctx context.Context, req AnalysisRequest) (*Result, error) {
	key := requestKey(req)

	c.mu.RLock()
	if res, ok := c.results[key]; ok {
		c.mu.RUnlock()
		return res, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		res, err := c.inner.Analyze(ctx, req)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.results[key] = res
		c.mu.Unlock()
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

// requestKey hashes the analysis inputs in a canonical order so equal
// requests share one cache entry.
func requestKey(req AnalysisRequest) string {
	names := make([]string, 0, len(req.Fields))
	for name := range req.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\x00%s\x00", req.UserName, req.Gender)
	for _, name := range names {
		fmt.Fprintf(&b, "%s=%s\x00", name, req.Fields[name])
	}
	b.WriteString(req.Text)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
