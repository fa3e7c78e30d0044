package flowmap

import "github.com/lcatools/flowlink/internal/refdata"

// FlowRef points at a resolved canonical flow together with the descriptive
// fields the mapping file persists for it.
type FlowRef struct {
	ID       string
	Name     string
	Category string
}

// Target is the resolved side of a mapping entry. FlowProperty and Unit are
// id-only references (the row format has no name columns for them); Provider
// is zero unless the resolved flow is a product or waste with a default
// providing process.
type Target struct {
	Flow         FlowRef
	FlowProperty refdata.Ref
	Unit         refdata.Ref
	Provider     refdata.Ref
}

// Entry is one resolved mapping: the originating query, the canonical target
// and the factor converting an amount in From.Unit() into Target's unit.
//
// Entries are immutable once created. ConversionFactor is always > 0 and is
// exactly 1 when the query's unit equals the target's native unit.
type Entry struct {
	From             Query
	To               Target
	ConversionFactor float64
}
