// Package units maintains the session unit index: a build-once, in-memory
// mapping from unit symbol to the unit's group, reference flow property and
// conversion factor.
//
// The index is built from one full unit-group listing at session start and
// is never refreshed; staleness against a store that changes mid-session is
// an accepted tradeoff for not re-listing on every lookup.
package units

import (
	"context"
	"fmt"

	"github.com/lcatools/flowlink/internal/refdata"
)

// Entry resolves one unit symbol: the unit itself, the group it belongs to,
// the group's reference flow property, and the factor converting 1 of this
// unit into the group's reference unit.
type Entry struct {
	Unit         refdata.Ref
	UnitGroup    refdata.Ref
	FlowProperty refdata.Ref
	Factor       float64
}

// Index maps unit symbols to entries. Immutable after Build and safe for
// unsynchronized concurrent reads.
type Index struct {
	entries map[string]Entry
}

// Build lists every unit group from the store once and indexes each member
// unit by its canonical symbol (case-sensitive: "t" and "T" are different
// units). When two groups declare the same symbol the first group in the
// store's listing order wins.
func Build(ctx context.Context, store refdata.Store) (*Index, error) {
	groups, err := store.ListUnitGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("build unit index: %w", err)
	}

	entries := make(map[string]Entry)
	for _, group := range groups {
		groupRef := refdata.Ref{ID: group.ID, Name: group.Name}
		for _, unit := range group.Units {
			if _, taken := entries[unit.Symbol]; taken {
				continue
			}
			entries[unit.Symbol] = Entry{
				Unit:         refdata.Ref{ID: unit.ID, Name: unit.Symbol},
				UnitGroup:    groupRef,
				FlowProperty: group.DefaultProperty,
				Factor:       unit.Factor,
			}
		}
	}
	return &Index{entries: entries}, nil
}

// EntryOf looks a unit symbol up. Returns a not-found error, never a
// default entry, when the symbol is unknown, so callers can report a
// mapping failure instead of silently converting by 1.
func (ix *Index) EntryOf(symbol string) (Entry, error) {
	entry, ok := ix.entries[symbol]
	if !ok {
		return Entry{}, refdata.NotFound("unitIndex", symbol)
	}
	return entry, nil
}

// FactorBetween computes the factor converting an amount in unit `from` to
// unit `to`. Both symbols must belong to the same unit group; a cross-group
// conversion fails with a MismatchError. Identical symbols convert by
// exactly 1.
func (ix *Index) FactorBetween(from, to string) (float64, error) {
	if from == to {
		return 1.0, nil
	}
	fromEntry, err := ix.EntryOf(from)
	if err != nil {
		return 0, err
	}
	toEntry, err := ix.EntryOf(to)
	if err != nil {
		return 0, err
	}
	if fromEntry.UnitGroup.ID != toEntry.UnitGroup.ID {
		return 0, &MismatchError{
			From:      from,
			To:        to,
			FromGroup: fromEntry.UnitGroup.Name,
			ToGroup:   toEntry.UnitGroup.Name,
		}
	}
	return fromEntry.Factor / toEntry.Factor, nil
}

// Len reports how many unit symbols the index resolves.
func (ix *Index) Len() int {
	return len(ix.entries)
}
