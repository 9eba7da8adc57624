package ratelimit

import (
	"container/list"
	"fmt"
	"log"
	"sync"

	"github.com/chromapages/support-gateway/internal/apierror"
)

// TierLimits holds the quota configuration for one service tier. The
// minute and hour limits are independent settings; neither is derived
// from the other.
type TierLimits struct {
	RequestsPerMinute int
	RequestsPerHour   int
	TokensPerRequest  int
}

// Quota reports the remaining whole tokens in each window.
type Quota struct {
	MinuteRemaining int
	HourRemaining   int
}

// Registry owns one minute bucket and one hour bucket per (client, tier)
// pair, created lazily on first request. The map is bounded: when
// maxEntries is exceeded, the least recently used pair is evicted so churn
// of ephemeral client identifiers (IP addresses) cannot grow memory
// without bound.
//
// The registry mutex only guards the map and eviction list. Bucket
// refill/consume runs under each bucket's own lock, so unrelated clients
// never serialize on each other.
type Registry struct {
	clock      Clock
	tiers      map[string]TierLimits
	maxEntries int

	mu        sync.Mutex
	entries   map[string]*list.Element
	evictList *list.List
}

type registryEntry struct {
	key    string
	minute *TokenBucket
	hour   *TokenBucket
}

const DefaultMaxEntries = 10000

// NewRegistry creates a registry for the given tier table. maxEntries <= 0
// falls back to DefaultMaxEntries.
func NewRegistry(clock Clock, tiers map[string]TierLimits, maxEntries int) *Registry {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	return &Registry{
		clock:      clock,
		tiers:      tiers,
		maxEntries: maxEntries,
		entries:    make(map[string]*list.Element),
		evictList:  list.New(),
	}
}

// Limits returns the configuration for a tier, or a configuration error
// if the tier is not in the static set. There is no silent default.
func (r *Registry) Limits(tier string) (TierLimits, error) {
	limits, ok := r.tiers[tier]
	if !ok {
		return TierLimits{}, apierror.New(apierror.KindConfiguration,
			fmt.Sprintf("unknown rate limit tier %q", tier))
	}
	return limits, nil
}

// Allow checks and consumes quota for one request. The minute window is
// checked first and short-circuits: a minute rejection never touches the
// hour bucket. If the minute bucket admits but the hour bucket rejects,
// the minute debit stands; it is not refunded.
//
// Any panic inside the bookkeeping is absorbed and the request is allowed.
// Availability of the protected service outweighs strict accounting here.
func (r *Registry) Allow(clientID, tier string) (err error) {
	limits, lerr := r.Limits(tier)
	if lerr != nil {
		return lerr
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("rate limiter internal error, allowing request for client=%s tier=%s: %v",
				clientID, tier, rec)
			err = nil
		}
	}()

	entry := r.buckets(clientID, tier, limits)

	if !entry.minute.Consume(limits.TokensPerRequest) {
		return apierror.RateLimit(
			"Rate limit exceeded: Too many requests per minute",
			limits.RequestsPerMinute, "minute", tier)
	}

	if !entry.hour.Consume(limits.TokensPerRequest) {
		return apierror.RateLimit(
			"Rate limit exceeded: Too many requests per hour",
			limits.RequestsPerHour, "hour", tier)
	}

	return nil
}

// Remaining forces a refill on both buckets and reports current levels
// without consuming anything.
func (r *Registry) Remaining(clientID, tier string) (Quota, error) {
	limits, err := r.Limits(tier)
	if err != nil {
		return Quota{}, err
	}

	entry := r.buckets(clientID, tier, limits)

	return Quota{
		MinuteRemaining: entry.minute.Remaining(),
		HourRemaining:   entry.hour.Remaining(),
	}, nil
}

// TrackedClients returns the number of live (client, tier) entries.
func (r *Registry) TrackedClients() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// buckets resolves or creates the bucket pair for a (client, tier) key and
// marks it recently used. A client seen under two tier values gets two
// independent entries; quota is never migrated between tiers.
func (r *Registry) buckets(clientID, tier string, limits TierLimits) *registryEntry {
	key := clientID + ":" + tier

	r.mu.Lock()
	defer r.mu.Unlock()

	if elem, ok := r.entries[key]; ok {
		r.evictList.MoveToFront(elem)
		return elem.Value.(*registryEntry)
	}

	entry := &registryEntry{
		key: key,
		minute: NewTokenBucket(r.clock, limits.RequestsPerMinute,
			float64(limits.RequestsPerMinute)/60.0),
		hour: NewTokenBucket(r.clock, limits.RequestsPerHour,
			float64(limits.RequestsPerHour)/3600.0),
	}
	r.entries[key] = r.evictList.PushFront(entry)

	if r.evictList.Len() > r.maxEntries {
		oldest := r.evictList.Back()
		if oldest != nil {
			r.evictList.Remove(oldest)
			delete(r.entries, oldest.Value.(*registryEntry).key)
		}
	}

	return entry
}
