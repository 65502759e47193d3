package bible

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// VersionCache memoizes version lists and version details for the process
// lifetime. The dataset is effectively static, so there is no TTL and no
// eviction. Concurrent misses for the same key are coalesced into a single
// upstream call; failures are never cached.
type VersionCache struct {
	client *Client

	mu       sync.RWMutex
	versions map[string][]ApiVersion
	details  map[string]*VersionDetail

	group singleflight.Group
}

func NewVersionCache(client *Client) *VersionCache {
	return &VersionCache{
		client:   client,
		versions: make(map[string][]ApiVersion),
		details:  make(map[string]*VersionDetail),
	}
}

// AllVersions returns the version list for a language, fetching at most
// once per key regardless of concurrent callers.
func (vc *VersionCache) AllVersions(ctx context.Context, lng string) ([]ApiVersion, error) {
	key := "all-" + lng

	vc.mu.RLock()
	cached, ok := vc.versions[key]
	vc.mu.RUnlock()
	if ok {
		return cached, nil
	}

	result, err, _ := vc.group.Do(key, func() (interface{}, error) {
		vc.mu.RLock()
		cached, ok := vc.versions[key]
		vc.mu.RUnlock()
		if ok {
			return cached, nil
		}

		versions, err := vc.client.AllVersions(ctx, lng)
		if err != nil {
			return nil, err
		}

		vc.mu.Lock()
		vc.versions[key] = versions
		vc.mu.Unlock()
		return versions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]ApiVersion), nil
}

// VersionDetail returns the detail for one edition, keyed by language plus
// abbreviation, with the same coalescing behavior as AllVersions.
func (vc *VersionCache) VersionDetail(ctx context.Context, lng, abbreviation string) (*VersionDetail, error) {
	key := lng + "-" + abbreviation

	vc.mu.RLock()
	cached, ok := vc.details[key]
	vc.mu.RUnlock()
	if ok {
		return cached, nil
	}

	result, err, _ := vc.group.Do("detail-"+key, func() (interface{}, error) {
		vc.mu.RLock()
		cached, ok := vc.details[key]
		vc.mu.RUnlock()
		if ok {
			return cached, nil
		}

		detail, err := vc.client.VersionDetail(ctx, lng, abbreviation)
		if err != nil {
			return nil, err
		}

		vc.mu.Lock()
		vc.details[key] = detail
		vc.mu.Unlock()
		return detail, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*VersionDetail), nil
}
