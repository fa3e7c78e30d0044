package refdata

import (
	"context"
	"strings"
)

// FlowType classifies a flow as elementary, product or waste.
type FlowType string

const (
	Elementary FlowType = "elementary"
	Product    FlowType = "product"
	Waste      FlowType = "waste"
)

// Valid reports whether t is one of the three known flow types.
func (t FlowType) Valid() bool {
	switch t {
	case Elementary, Product, Waste:
		return true
	}
	return false
}

// ParseFlowType converts a user-supplied string to a FlowType,
// case-insensitively. Returns false when the string names no known type.
func ParseFlowType(s string) (FlowType, bool) {
	t := FlowType(strings.ToLower(strings.TrimSpace(s)))
	return t, t.Valid()
}

// Ref is a lightweight reference to a record in the store: its identity and
// display name. Refs are what mapping entries carry; full records are fetched
// on demand.
type Ref struct {
	ID   string
	Name string
}

// IsZero reports whether the ref points at nothing.
func (r Ref) IsZero() bool {
	return r.ID == ""
}

// Flow is a full canonical flow record.
type Flow struct {
	ID           string
	Name         string
	Type         FlowType
	Category     string // slash-delimited path, e.g. "air/unspecified"
	FlowProperty Ref    // reference quantity, e.g. Mass
	RefUnit      string // native unit symbol, e.g. "kg"
	Location     string // optional, non-elementary flows only
}

// Ref returns the flow's lightweight reference.
func (f Flow) Ref() Ref {
	return Ref{ID: f.ID, Name: f.Name}
}

// CategoryParts splits the category path into its segments. Empty categories
// yield nil rather than a single empty segment.
func (f Flow) CategoryParts() []string {
	if f.Category == "" {
		return nil
	}
	return strings.Split(f.Category, "/")
}

// Candidate is one result of a coarse flow search. It carries just enough to
// rank candidates (name, category, native unit) without fetching full
// records for every hit.
type Candidate struct {
	Ref      Ref
	Category string
	RefUnit  string
}

// FlowFilter scopes a candidate search. Name is matched coarsely by the
// store (substring against name and category); precise ranking is the
// caller's job. Location is honored only for non-elementary flows.
type FlowFilter struct {
	Type     FlowType
	Name     string
	Location string
}

// Unit is a member of a unit group. Factor converts one of this unit into
// the group's reference unit.
type Unit struct {
	ID     string
	Symbol string
	Factor float64
}

// UnitGroup is a set of mutually convertible units with one reference unit
// (the member whose Factor is 1) and a default flow property tied to it.
type UnitGroup struct {
	ID              string
	Name            string
	DefaultProperty Ref
	Units           []Unit
}

// Location is a named geography a product or waste flow can be scoped to.
type Location struct {
	ID   string
	Name string
	Code string
}

// Store is the reference data store surface the resolver consumes.
//
// Implementations must return typed errors from this package: a miss is
// IsNotFound, a rejected insert is IsRemoteWrite, and a transport-level
// failure is IsUnavailable. No operation may both succeed and return an
// error.
type Store interface {
	// FindFlows returns candidates coarsely matching the filter, in the
	// store's own stable order.
	FindFlows(ctx context.Context, filter FlowFilter) ([]Candidate, error)

	// GetFlow fetches the full record for an identity.
	GetFlow(ctx context.Context, id string) (Flow, error)

	// CreateFlow inserts a new canonical flow. Re-inserting an identical
	// record is a no-op; inserting a different record under an existing
	// identity is rejected.
	CreateFlow(ctx context.Context, flow Flow) error

	// ListUnitGroups returns every unit group with its member units.
	ListUnitGroups(ctx context.Context) ([]UnitGroup, error)

	// GetLocation looks a location up by name.
	GetLocation(ctx context.Context, name string) (Location, error)

	// CreateLocation inserts a new location. Same idempotency contract as
	// CreateFlow.
	CreateLocation(ctx context.Context, loc Location) error

	// ProviderFor returns the default providing process for a product or
	// waste flow, or a not-found error when none is linked.
	ProviderFor(ctx context.Context, flowID string) (Ref, error)
}
