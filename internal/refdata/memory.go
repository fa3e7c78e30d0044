package refdata

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemStore is an in-memory Store. It exists for tests and small demo data
// sets; it honors the same error contract as the SQLite store. Search
// results come back in insertion order, which keeps tie-breaking
// deterministic.
//
// Thread-safety: all methods are safe for concurrent use via an internal
// mutex.
type MemStore struct {
	mu        sync.RWMutex
	flows     map[string]Flow
	flowOrder []string
	groups    []UnitGroup
	locations map[string]Location // keyed by lower-cased name
	providers map[string]Ref      // keyed by flow id
}

// NewMemStore creates an empty in-memory store with the given unit groups.
func NewMemStore(groups ...UnitGroup) *MemStore {
	return &MemStore{
		flows:     make(map[string]Flow),
		groups:    groups,
		locations: make(map[string]Location),
		providers: make(map[string]Ref),
	}
}

// AddFlow inserts a flow directly, bypassing the create contract. Test setup
// helper.
func (m *MemStore) AddFlow(flow Flow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.flows[flow.ID]; !ok {
		m.flowOrder = append(m.flowOrder, flow.ID)
	}
	m.flows[flow.ID] = flow
}

// AddLocation inserts a location directly. Test setup helper.
func (m *MemStore) AddLocation(loc Location) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[strings.ToLower(loc.Name)] = loc
}

// SetProvider links a default providing process to a flow. Test setup helper.
func (m *MemStore) SetProvider(flowID string, provider Ref) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[flowID] = provider
}

// FindFlows returns candidates matching the filter, in insertion order.
func (m *MemStore) FindFlows(ctx context.Context, filter FlowFilter) ([]Candidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	name := strings.ToLower(filter.Name)
	var candidates []Candidate
	for _, id := range m.flowOrder {
		f := m.flows[id]
		if f.Type != filter.Type {
			continue
		}
		if filter.Type != Elementary && filter.Location != "" &&
			f.Location != "" && f.Location != filter.Location {
			continue
		}
		if name != "" &&
			!strings.Contains(strings.ToLower(f.Name), name) &&
			!strings.Contains(strings.ToLower(f.Category), name) {
			continue
		}
		candidates = append(candidates, Candidate{
			Ref:      f.Ref(),
			Category: f.Category,
			RefUnit:  f.RefUnit,
		})
	}
	return candidates, nil
}

// GetFlow fetches the full record for an identity.
func (m *MemStore) GetFlow(ctx context.Context, id string) (Flow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.flows[id]
	if !ok {
		return Flow{}, NotFound("getFlow", id)
	}
	return f, nil
}

// CreateFlow inserts a new canonical flow with the Store idempotency
// contract.
func (m *MemStore) CreateFlow(ctx context.Context, flow Flow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.flows[flow.ID]; ok {
		if existing == flow {
			return nil
		}
		return RemoteWrite("createFlow", flow.ID,
			fmt.Errorf("identity exists with different content (name %q)", existing.Name))
	}
	m.flows[flow.ID] = flow
	m.flowOrder = append(m.flowOrder, flow.ID)
	return nil
}

// ListUnitGroups returns the configured unit groups.
func (m *MemStore) ListUnitGroups(ctx context.Context) ([]UnitGroup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.groups, nil
}

// GetLocation looks a location up by name, case-insensitively.
func (m *MemStore) GetLocation(ctx context.Context, name string) (Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	loc, ok := m.locations[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Location{}, NotFound("getLocation", name)
	}
	return loc, nil
}

// CreateLocation inserts a new location with the Store idempotency contract.
func (m *MemStore) CreateLocation(ctx context.Context, loc Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(loc.Name)
	if existing, ok := m.locations[key]; ok {
		if existing == loc {
			return nil
		}
		return RemoteWrite("createLocation", loc.Name,
			fmt.Errorf("name exists with different content (id %s)", existing.ID))
	}
	m.locations[key] = loc
	return nil
}

// ProviderFor returns the default providing process linked to a flow.
func (m *MemStore) ProviderFor(ctx context.Context, flowID string) (Ref, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ref, ok := m.providers[flowID]
	if !ok {
		return Ref{}, NotFound("providerFor", flowID)
	}
	return ref, nil
}
