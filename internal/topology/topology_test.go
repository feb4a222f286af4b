package topology

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapyear/pkg/core"
)

func TestDefault(t *testing.T) {
	topo, err := Default()
	require.NoError(t, err)

	assert.Len(t, topo.Tables, 10)
	assert.Len(t, topo.Relations, 10)
	assert.NotEmpty(t, topo.ManualSteps)

	weeks, ok := topo.TableByKey("WEEKS")
	require.True(t, ok)
	assert.Equal(t, "{year} Weeks", weeks.Name)
	assert.Equal(t, core.ParentContainer, weeks.Parent)

	budgets, ok := topo.TableByKey("BUDGETS")
	require.True(t, ok)
	assert.Equal(t, []string{"Receipts"}, budgets.Omit)

	assert.Equal(t, "{year}", topo.YearRow.Title)
}

func TestBind(t *testing.T) {
	topo, err := Default()
	require.NoError(t, err)

	bound := topo.Bind(map[string]string{"WEEKS": "src-weeks", "UNKNOWN": "x"})

	weeks, _ := bound.TableByKey("WEEKS")
	assert.Equal(t, "src-weeks", weeks.SourceID)
	assert.Len(t, bound.Unbound(), 9)

	original, _ := topo.TableByKey("WEEKS")
	assert.Empty(t, original.SourceID, "Bind must not modify the receiver")
}

func TestTableByKey(t *testing.T) {
	topo, err := Default()
	require.NoError(t, err)

	tbl, ok := topo.TableByKey("weekly_reviews")
	require.True(t, ok)
	assert.Equal(t, "WEEKLY_REVIEWS", tbl.Key)

	_, ok = topo.TableByKey("NOPE")
	assert.False(t, ok)
}

func TestRequiredColumns(t *testing.T) {
	topo, err := Default()
	require.NoError(t, err)

	assert.Equal(t, map[string]core.PropertySpec{"Dates": {Kind: core.KindDate}}, topo.RequiredColumns("{year} Weeks"))
	assert.Equal(t, map[string]core.PropertySpec{"Dates": {Kind: core.KindDate}}, topo.RequiredColumns("{year} Months"))
	assert.Empty(t, topo.RequiredColumns("{year} Tasks"))
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: "tables: []\nviews: []\n",
			want: "views",
		},
		{
			name: "relation to undeclared table",
			yaml: `
tables:
  - {key: A, name: "{year} A"}
relations:
  - {source: "{year} A", target: "{year} B", source_column: x, target_column: y}
calendar: {weeks: "{year} A", months: "{year} A"}
year_row: {table: "{year} A", title: "{year}"}
`,
			want: `relations[0].target: unknown table "{year} B"`,
		},
		{
			name: "duplicate key",
			yaml: `
tables:
  - {key: A, name: "{year} A"}
  - {key: A, name: "{year} B"}
calendar: {weeks: "{year} A", months: "{year} B"}
year_row: {table: "{year} A", title: "{year}"}
`,
			want: `duplicate key "A"`,
		},
		{
			name: "child without parent column",
			yaml: `
tables:
  - {key: A, name: "{year} A"}
calendar: {weeks: "{year} A", months: "{year} A"}
children:
  weekly:
    - {table: "{year} A"}
year_row: {table: "{year} A", title: "{year}"}
`,
			want: "parent_column is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topology.yaml")
	require.NoError(t, os.WriteFile(path, defaultTopology, 0o600))

	topo, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, topo.Tables, 10)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
