// Package flowmap defines the vocabulary of flow resolution: the caller's
// flow query, the mapping entry a resolution produces, the normalized cache
// key, and the delimited row format entries persist as.
//
// Entries carry exactly what the mapping file persists: reference names that
// have no column in the row format are not kept in memory either, so a
// freshly resolved entry and its reloaded form are identical, field for
// field.
package flowmap

import (
	"fmt"
	"strings"

	"github.com/lcatools/flowlink/internal/ident"
	"github.com/lcatools/flowlink/internal/refdata"
)

// Query describes the flow a caller wants resolved. Queries are immutable
// values: the With* methods return modified copies, and Validate is the
// terminal check that rejects a query missing its flow type or name.
type Query struct {
	flowType refdata.FlowType
	name     string
	unit     string
	category string
	location string
}

// For starts a query for the given flow type and name.
func For(flowType refdata.FlowType, name string) Query {
	return Query{flowType: flowType, name: strings.TrimSpace(name)}
}

// ForElementary starts a query for an elementary flow.
func ForElementary(name string) Query {
	return For(refdata.Elementary, name)
}

// ForProduct starts a query for a product flow.
func ForProduct(name string) Query {
	return For(refdata.Product, name)
}

// ForWaste starts a query for a waste flow.
func ForWaste(name string) Query {
	return For(refdata.Waste, name)
}

// WithUnit returns a copy of the query with the amount's unit symbol set.
func (q Query) WithUnit(unit string) Query {
	q.unit = strings.TrimSpace(unit)
	return q
}

// WithCategory returns a copy of the query with a slash-delimited category
// path set.
func (q Query) WithCategory(category string) Query {
	q.category = strings.TrimSpace(category)
	return q
}

// WithLocation returns a copy of the query with a location name set.
// Locations only apply to product and waste flows.
func (q Query) WithLocation(location string) Query {
	q.location = strings.TrimSpace(location)
	return q
}

// Validate rejects a half-populated query. Flow type and name are required;
// everything else is optional.
func (q Query) Validate() error {
	if !q.flowType.Valid() {
		return fmt.Errorf("invalid query: unknown flow type %q", string(q.flowType))
	}
	if q.name == "" {
		return fmt.Errorf("invalid query: name is required")
	}
	return nil
}

// FlowType returns the query's flow type.
func (q Query) FlowType() refdata.FlowType { return q.flowType }

// Name returns the flow name.
func (q Query) Name() string { return q.name }

// Unit returns the unit symbol the caller's amounts are expressed in.
func (q Query) Unit() string { return q.unit }

// Category returns the slash-delimited category path, or "".
func (q Query) Category() string { return q.category }

// Location returns the location name, or "".
func (q Query) Location() string { return q.location }

// CategoryParts splits the category path into segments; nil when empty.
func (q Query) CategoryParts() []string {
	if q.category == "" {
		return nil
	}
	return strings.Split(q.category, "/")
}

// Key computes the normalized cache key for this query. Semantically equal
// queries (same fields up to case and surrounding whitespace) always map
// to the same key regardless of caller formatting.
func (q Query) Key() Key {
	parts := []string{
		string(q.flowType), q.name, q.unit, q.category, q.location,
	}
	for i, p := range parts {
		parts[i] = ident.Normalize(p)
	}
	return Key(strings.Join(parts, "|"))
}

// String renders the query the way mapping rows are usually eyeballed:
// "Carbon dioxide | g | air/unspecified".
func (q Query) String() string {
	fields := []string{q.name}
	if q.unit != "" {
		fields = append(fields, q.unit)
	}
	if q.category != "" {
		fields = append(fields, q.category)
	}
	if q.location != "" {
		fields = append(fields, q.location)
	}
	return strings.Join(fields, " | ")
}

// Key is the normalized composite identity of a query in the mapping cache.
type Key string
