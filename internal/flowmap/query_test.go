package flowmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcatools/flowlink/internal/refdata"
)

func TestQueryBuilder(t *testing.T) {
	q := ForElementary("Carbon dioxide").
		WithUnit("g").
		WithCategory("air/unspecified")

	require.NoError(t, q.Validate())
	assert.Equal(t, refdata.Elementary, q.FlowType())
	assert.Equal(t, "Carbon dioxide", q.Name())
	assert.Equal(t, "g", q.Unit())
	assert.Equal(t, "air/unspecified", q.Category())
	assert.Empty(t, q.Location())
	assert.Equal(t, []string{"air", "unspecified"}, q.CategoryParts())
}

func TestQueryBuilder_WithReturnsCopy(t *testing.T) {
	base := ForProduct("Steel").WithUnit("kg")
	located := base.WithLocation("FI")

	assert.Empty(t, base.Location(), "With* must not mutate the receiver")
	assert.Equal(t, "FI", located.Location())
	assert.Equal(t, "kg", located.Unit(), "copy keeps earlier fields")
}

func TestQueryValidate(t *testing.T) {
	cases := []struct {
		name  string
		query Query
		ok    bool
	}{
		{"complete", ForElementary("Methane").WithUnit("kg"), true},
		{"no category is fine", ForElementary("Methane"), true},
		{"missing name", ForElementary("  "), false},
		{"missing flow type", Query{}.WithUnit("kg"), false},
		{"unknown flow type", For(refdata.FlowType("gas"), "Methane"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.query.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestQueryKey_NormalizesFormatting(t *testing.T) {
	a := ForElementary("Carbon dioxide").WithUnit("g").WithCategory("air/unspecified")
	b := ForElementary("  CARBON DIOXIDE ").WithUnit(" G ").WithCategory("Air/Unspecified")

	assert.Equal(t, a.Key(), b.Key(),
		"semantically identical queries must hit the same cache slot")
}

func TestQueryKey_DistinguishesFields(t *testing.T) {
	base := ForElementary("Carbon dioxide").WithUnit("g").WithCategory("air/unspecified")

	assert.NotEqual(t, base.Key(), base.WithUnit("kg").Key())
	assert.NotEqual(t, base.Key(), base.WithCategory("water/unspecified").Key())
	assert.NotEqual(t, base.Key(), ForProduct("Carbon dioxide").WithUnit("g").WithCategory("air/unspecified").Key())
}

func TestQueryString(t *testing.T) {
	q := ForElementary("Carbon dioxide").WithUnit("g").WithCategory("air/unspecified")
	assert.Equal(t, "Carbon dioxide | g | air/unspecified", q.String())

	assert.Equal(t, "Steel | kg | FI",
		ForProduct("Steel").WithUnit("kg").WithLocation("FI").String())
}
