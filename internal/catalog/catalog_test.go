package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onceinteractive/cascade/pkg/types"
)

func testCatalog() *Catalog {
	return New(map[string][]Row{
		"get_states": {
			{Value: "Texas"},
			{Value: " New York "},
			{Value: "Texas"}, // duplicate retail location
			{Value: "California"},
		},
		"get_brands": {
			{Filters: map[string]string{"state": "Texas"}, Value: "Acme", Text: "Acme Corp"},
			{Filters: map[string]string{"state": "Texas"}, Value: "Globex"},
			{Filters: map[string]string{"state": "California"}, Value: "Initech"},
		},
		"get_forms": {
			{Filters: map[string]string{"state": "Texas", "brand": "Acme"}, Value: "ModelX"},
			{Filters: map[string]string{"state": "Texas", "brand": "Globex"}, Value: "Basic"},
		},
		"get_stores": {
			{Filters: map[string]string{"state": "Texas"}, Value: "Aisle 10"},
			{Filters: map[string]string{"state": "Texas"}, Value: "Aisle 2"},
		},
	})
}

func TestResolveFiltersAndDeduplicates(t *testing.T) {
	t.Parallel()
	c := testCatalog()

	states := c.States()
	require.Len(t, states, 3)
	assert.Equal(t, []types.Choice{
		{Value: "California", Text: "California"},
		{Value: "New York", Text: "New York"},
		{Value: "Texas", Text: "Texas"},
	}, states)
}

func TestResolveMatchesAllFilters(t *testing.T) {
	t.Parallel()
	c := testCatalog()

	brands := c.Resolve("get_brands", map[string]string{"state": "Texas"})
	require.Len(t, brands, 2)
	assert.Equal(t, "Acme", brands[0].Value)
	assert.Equal(t, "Acme Corp", brands[0].Text)
	assert.Equal(t, "Globex", brands[1].Value)

	forms := c.Resolve("get_forms", map[string]string{"state": "Texas", "brand": "Acme"})
	require.Len(t, forms, 1)
	assert.Equal(t, "ModelX", forms[0].Value)
}

func TestResolveUnknownOperation(t *testing.T) {
	t.Parallel()
	c := testCatalog()

	assert.False(t, c.Has("get_bogus"))
	assert.Nil(t, c.Resolve("get_bogus", nil))
}

func TestResolveNoMatches(t *testing.T) {
	t.Parallel()
	c := testCatalog()

	assert.Empty(t, c.Resolve("get_brands", map[string]string{"state": "Alaska"}))
}

func TestNaturalOrder(t *testing.T) {
	t.Parallel()
	c := testCatalog()

	stores := c.Resolve("get_stores", map[string]string{"state": "Texas"})
	require.Len(t, stores, 2)
	assert.Equal(t, "Aisle 2", stores[0].Value)
	assert.Equal(t, "Aisle 10", stores[1].Value)
}

func TestNaturalLess(t *testing.T) {
	t.Parallel()

	cases := []struct {
		a, b string
		want bool
	}{
		{"Aisle 2", "Aisle 10", true},
		{"Aisle 10", "Aisle 2", false},
		{"alpha", "Beta", true},
		{"store", "store 1", true},
		{"007", "7", false}, // equal numerically, leading zeros lose by length tail
		{"v1a", "v1b", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, naturalLess(tc.a, tc.b), "%q < %q", tc.a, tc.b)
	}
}

func TestLoadCatalogYAML(t *testing.T) {
	t.Parallel()

	const doc = `
operations:
  get_states:
    - value: Texas
    - value: California
  get_brands:
    - filters: {state: Texas}
      value: Acme
`
	c, err := Load(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Len(t, c.States(), 2)
	assert.True(t, c.Has("get_brands"))

	_, err = Load(strings.NewReader("operations: [not a map]"))
	require.Error(t, err)
}
