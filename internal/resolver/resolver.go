// Package resolver implements the tiered flow resolution engine.
//
// A resolution walks three tiers, cheapest first:
//
//  1. CacheLookup: the persisted mapping cache. A hit answers without any
//     remote call; this is the dominant path.
//  2. RemoteSearch: a coarse candidate search against the reference data
//     store, ranked by keyword match score. The best candidate above the
//     relevance threshold is fetched and its unit conversion computed.
//  3. RemoteCreate: a new canonical flow is synthesized with a
//     deterministic identity derived from its defining fields and inserted
//     into the store.
//
// Whatever tier produced the entry, it is persisted to the mapping cache
// before being handed back, so a resolution reported as successful is never
// lost to a crash. Failures happen before the cache write and leave the
// cache untouched.
package resolver

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/lcatools/flowlink/internal/flowmap"
	"github.com/lcatools/flowlink/internal/ident"
	"github.com/lcatools/flowlink/internal/mapcache"
	"github.com/lcatools/flowlink/internal/match"
	"github.com/lcatools/flowlink/internal/refdata"
	"github.com/lcatools/flowlink/internal/units"
)

// DefaultMinScore is the relevance threshold for search candidates: any
// non-zero match score qualifies. A candidate scoring 0 shares no keyword
// with the query and is never a match.
const DefaultMinScore = 1

// Resolver maps flow queries to canonical flows held by a reference data
// store, reusing persisted mappings wherever possible.
//
// Thread-safety: Resolve is safe for concurrent use. Concurrent resolutions
// of the same key share one in-flight remote sequence, so at most one search
// or create runs per key at a time. Distinct keys proceed independently
// with no cross-key ordering guarantee.
type Resolver struct {
	store  refdata.Store
	cache  *mapcache.Cache
	units  *units.Index
	logger *slog.Logger

	// minScore is the lowest match score accepted in RemoteSearch.
	minScore int

	// inflight collapses concurrent same-key resolutions so a key can
	// never create its remote record twice.
	inflight singleflight.Group
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger injects the logger used for resolution tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithMinScore overrides the relevance threshold for search candidates.
func WithMinScore(minScore int) Option {
	return func(r *Resolver) {
		r.minScore = minScore
	}
}

// New assembles a resolver from its collaborators. Use Create when the unit
// index and mapping cache should be built from a store and file path.
func New(store refdata.Store, cache *mapcache.Cache, index *units.Index, opts ...Option) *Resolver {
	r := &Resolver{
		store:    store,
		cache:    cache,
		units:    index,
		logger:   slog.Default(),
		minScore: DefaultMinScore,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create builds a session-ready resolver: the unit index is built from the
// store and the mapping cache is loaded from (or created at) mappingPath.
func Create(ctx context.Context, store refdata.Store, mappingPath string, opts ...Option) (*Resolver, error) {
	index, err := units.Build(ctx, store)
	if err != nil {
		return nil, err
	}
	cache, err := mapcache.Open(mappingPath)
	if err != nil {
		return nil, err
	}
	return New(store, cache, index, opts...), nil
}

// Units exposes the session unit index.
func (r *Resolver) Units() *units.Index {
	return r.units
}

// Cache exposes the mapping cache, e.g. for listing persisted entries.
func (r *Resolver) Cache() *mapcache.Cache {
	return r.cache
}

// Resolve maps a query to a flow mapping entry.
//
// Re-resolving a previously resolved key returns the cached entry with zero
// remote calls. Cancelling via ctx during the cache tier has no side
// effects; cancelling during the remote tiers never leaves a partial cache
// entry, because the cache write only happens after a complete remote round
// trip.
func (r *Resolver) Resolve(ctx context.Context, query flowmap.Query) (flowmap.Entry, error) {
	if err := query.Validate(); err != nil {
		return flowmap.Entry{}, err
	}

	key := query.Key()
	if entry, ok := r.cache.TryGet(key); ok {
		r.logger.Debug("flow mapping cache hit", "query", query.String())
		return entry, nil
	}

	// Concurrent callers for the same key share this one flight. The
	// first caller's context governs the shared round trip.
	v, err, _ := r.inflight.Do(string(key), func() (any, error) {
		// The flight may have been beaten by a Put from an earlier
		// winner of the same key.
		if entry, ok := r.cache.TryGet(key); ok {
			return entry, nil
		}
		entry, err := r.resolveRemote(ctx, query)
		if err != nil {
			return nil, err
		}
		if err := r.cache.Put(key, entry); err != nil {
			return nil, err
		}
		return entry, nil
	})
	if err != nil {
		return flowmap.Entry{}, fmt.Errorf("resolve %s: %w", query.String(), err)
	}
	return v.(flowmap.Entry), nil
}

// resolveRemote runs the RemoteSearch and RemoteCreate tiers.
func (r *Resolver) resolveRemote(ctx context.Context, query flowmap.Query) (flowmap.Entry, error) {
	entry, found, err := r.search(ctx, query)
	if err != nil {
		return flowmap.Entry{}, err
	}
	if found {
		return entry, nil
	}
	return r.create(ctx, query)
}

// search looks for an existing canonical flow matching the query and, when
// one qualifies, builds the mapping entry for it.
func (r *Resolver) search(ctx context.Context, query flowmap.Query) (flowmap.Entry, bool, error) {
	filter := refdata.FlowFilter{
		Type: query.FlowType(),
		Name: query.Name(),
	}
	if query.FlowType() != refdata.Elementary {
		filter.Location = query.Location()
	}

	candidates, err := r.store.FindFlows(ctx, filter)
	if err != nil {
		return flowmap.Entry{}, false, err
	}

	best, ok := r.pick(query, candidates)
	if !ok {
		return flowmap.Entry{}, false, nil
	}

	flow, err := r.store.GetFlow(ctx, best.Ref.ID)
	if err != nil {
		return flowmap.Entry{}, false, err
	}

	factor, err := r.units.FactorBetween(query.Unit(), flow.RefUnit)
	if err != nil {
		return flowmap.Entry{}, false, err
	}
	nativeUnit, err := r.units.EntryOf(flow.RefUnit)
	if err != nil {
		return flowmap.Entry{}, false, err
	}

	provider, err := r.providerOf(ctx, flow)
	if err != nil {
		return flowmap.Entry{}, false, err
	}

	r.logger.Info("mapped query to existing flow",
		"query", query.String(), "flow", flow.Name, "factor", factor)

	return flowmap.Entry{
		From: query,
		To: flowmap.Target{
			Flow:         flowmap.FlowRef{ID: flow.ID, Name: flow.Name, Category: flow.Category},
			Unit:         refdata.Ref{ID: nativeUnit.Unit.ID},
			FlowProperty: refdata.Ref{ID: flow.FlowProperty.ID},
			Provider:     provider,
		},
		ConversionFactor: factor,
	}, true, nil
}

// pick selects the best candidate: highest keyword score against the query
// name and category segments, at or above the relevance threshold. Ties
// prefer the candidate whose native unit already matches the query unit,
// then the first candidate in the store's returned order.
func (r *Resolver) pick(query flowmap.Query, candidates []refdata.Candidate) (refdata.Candidate, bool) {
	keywords := append([]string{query.Name()}, query.CategoryParts()...)

	var best refdata.Candidate
	bestScore := 0
	for _, candidate := range candidates {
		haystack := candidate.Ref.Name + " " + candidate.Category
		score := match.Score(haystack, keywords...)
		if score < r.minScore {
			continue
		}
		if score > bestScore {
			best, bestScore = candidate, score
			continue
		}
		if score == bestScore && best.RefUnit != query.Unit() && candidate.RefUnit == query.Unit() {
			best = candidate
		}
	}
	return best, bestScore > 0
}

// create synthesizes a new canonical flow for the query and inserts it.
// The flow's native unit is the query's unit, so the conversion factor of a
// freshly created mapping is always exactly 1.
func (r *Resolver) create(ctx context.Context, query flowmap.Query) (flowmap.Entry, error) {
	unitEntry, err := r.units.EntryOf(query.Unit())
	if err != nil {
		return flowmap.Entry{}, err
	}

	location := ""
	if query.FlowType() != refdata.Elementary && query.Location() != "" {
		loc, err := r.ensureLocation(ctx, query.Location())
		if err != nil {
			return flowmap.Entry{}, err
		}
		location = loc.Name
	}

	flow := refdata.Flow{
		ID: ident.MakeID(
			string(query.FlowType()),
			query.Name(),
			query.Category(),
			unitEntry.FlowProperty.Name,
		),
		Name:         query.Name(),
		Type:         query.FlowType(),
		Category:     query.Category(),
		FlowProperty: unitEntry.FlowProperty,
		RefUnit:      query.Unit(),
		Location:     location,
	}
	if err := r.store.CreateFlow(ctx, flow); err != nil {
		return flowmap.Entry{}, err
	}

	r.logger.Info("created new canonical flow",
		"query", query.String(), "flow", flow.ID)

	return flowmap.Entry{
		From: query,
		To: flowmap.Target{
			Flow:         flowmap.FlowRef{ID: flow.ID, Name: flow.Name, Category: flow.Category},
			Unit:         refdata.Ref{ID: unitEntry.Unit.ID},
			FlowProperty: refdata.Ref{ID: unitEntry.FlowProperty.ID},
		},
		ConversionFactor: 1.0,
	}, nil
}

// ensureLocation resolves a location by name, creating it with a
// deterministic identity when the store does not know it yet.
func (r *Resolver) ensureLocation(ctx context.Context, name string) (refdata.Location, error) {
	loc, err := r.store.GetLocation(ctx, name)
	if err == nil {
		return loc, nil
	}
	if !refdata.IsNotFound(err) {
		return refdata.Location{}, err
	}

	loc = refdata.Location{
		ID:   ident.MakeID("location", name),
		Name: name,
		Code: name,
	}
	if err := r.store.CreateLocation(ctx, loc); err != nil {
		return refdata.Location{}, err
	}
	r.logger.Info("created location", "name", name)
	return loc, nil
}

// providerOf returns the default providing process as resolved-side
// reference. Elementary flows never have one; a not-found link is simply no
// provider.
func (r *Resolver) providerOf(ctx context.Context, flow refdata.Flow) (refdata.Ref, error) {
	if flow.Type == refdata.Elementary {
		return refdata.Ref{}, nil
	}
	provider, err := r.store.ProviderFor(ctx, flow.ID)
	if refdata.IsNotFound(err) {
		return refdata.Ref{}, nil
	}
	if err != nil {
		return refdata.Ref{}, err
	}
	return refdata.Ref{ID: provider.ID}, nil
}
