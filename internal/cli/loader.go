package cli

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/lcatools/flowlink/internal/flowmap"
	"github.com/lcatools/flowlink/internal/refdata"
)

// querySchema constrains batch query files. Every query needs a non-empty
// name; the flow type defaults to elementary and the remaining fields to
// empty, matching the single-query flags of the resolve command.
const querySchema = `
#Query: {
	type:     *"elementary" | "product" | "waste"
	name:     string & !=""
	unit:     string | *""
	category: string | *""
	location: string | *""
}
queries: [...#Query]
`

type queryDoc struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Unit     string `json:"unit"`
	Category string `json:"category"`
	Location string `json:"location"`
}

// LoadQueries loads a batch of flow queries from a CUE file. The file is
// unified with the query schema and must validate completely before any
// query is returned; a batch with one malformed entry is rejected whole.
func LoadQueries(path string) ([]flowmap.Query, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read query file: %w", err)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(querySchema)
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile query schema: %w", err)
	}

	value := ctx.CompileBytes(raw, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("compile query file %s: %w", path, err)
	}

	unified := schema.Unify(value)
	if err := unified.Validate(cue.Final(), cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("invalid query file %s: %w", path, err)
	}

	var doc struct {
		Queries []queryDoc `json:"queries"`
	}
	if err := unified.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode query file %s: %w", path, err)
	}
	if len(doc.Queries) == 0 {
		return nil, fmt.Errorf("query file %s: no queries", path)
	}

	queries := make([]flowmap.Query, 0, len(doc.Queries))
	for i, q := range doc.Queries {
		flowType, ok := refdata.ParseFlowType(q.Type)
		if !ok {
			return nil, fmt.Errorf("query file %s: query %d: unknown flow type %q", path, i+1, q.Type)
		}
		query := flowmap.For(flowType, q.Name).
			WithUnit(q.Unit).
			WithCategory(q.Category).
			WithLocation(q.Location)
		if err := query.Validate(); err != nil {
			return nil, fmt.Errorf("query file %s: query %d: %w", path, i+1, err)
		}
		queries = append(queries, query)
	}
	return queries, nil
}
