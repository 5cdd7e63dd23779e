package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() Table {
	return New([]string{"id", "age", "income"}, []map[string]string{
		{"id": "1", "age": "30", "income": "1000"},
		{"id": "2", "age": "", "income": "2000"},
		{"id": "3", "age": "forty", "income": "3000"},
	})
}

func TestNewMaterializesEveryColumn(t *testing.T) {
	table := New([]string{"a", "b"}, []map[string]string{
		{"a": "1"},
		{"b": "2", "c": "dropped"},
	})

	require.Equal(t, 2, table.Len())
	assert.Equal(t, []string{"a", "b"}, table.Columns())

	v, ok := table.Cell(0, "b")
	assert.True(t, ok, "missing record keys become empty cells")
	assert.Equal(t, "", v)

	_, ok = table.Cell(1, "c")
	assert.False(t, ok, "keys outside the column list are dropped")
}

func TestTableNumericUsesCoercion(t *testing.T) {
	table := sampleTable()

	v, ok := table.Numeric(0, "age")
	assert.True(t, ok)
	assert.Equal(t, 30.0, v)

	_, ok = table.Numeric(1, "age")
	assert.False(t, ok, "empty cell is absent")

	_, ok = table.Numeric(2, "age")
	assert.False(t, ok, "non-numeric cell is absent")
}

func TestPresentValuesSkipsAbsentInRowOrder(t *testing.T) {
	table := sampleTable()

	assert.Equal(t, []float64{30}, table.PresentValues("age"))
	assert.Equal(t, []float64{1000, 2000, 3000}, table.PresentValues("income"))
	assert.Empty(t, table.PresentValues("missing"))
}

func TestWithCellsLeavesReceiverUntouched(t *testing.T) {
	before := sampleTable()
	after := before.WithCells("age", "35.00", []int{1, 2})

	// Receiver unchanged.
	v, _ := before.Cell(1, "age")
	assert.Equal(t, "", v)
	v, _ = before.Cell(2, "age")
	assert.Equal(t, "forty", v)

	// New table holds the updates, untouched rows identical.
	v, _ = after.Cell(1, "age")
	assert.Equal(t, "35.00", v)
	v, _ = after.Cell(2, "age")
	assert.Equal(t, "35.00", v)
	v, _ = after.Cell(0, "age")
	assert.Equal(t, "30", v)
}

func TestWithFlagColumnIsAdditive(t *testing.T) {
	before := sampleTable()
	after := before.WithFlagColumn("age_is_outlier", []bool{false, true, false})

	assert.Equal(t, []string{"id", "age", "income"}, after.SchemaColumns())
	assert.Equal(t, []string{"age_is_outlier"}, after.FlagColumns())
	assert.Equal(t, []string{"id", "age", "income", "age_is_outlier"}, after.Columns())

	flag, ok := after.Flag(1, "age_is_outlier")
	require.True(t, ok)
	assert.True(t, flag)

	// Receiver has no flag column.
	_, ok = before.Flag(1, "age_is_outlier")
	assert.False(t, ok)
	assert.Empty(t, before.FlagColumns())
}

func TestWithFlagColumnRederiveReplacesValues(t *testing.T) {
	table := sampleTable().
		WithFlagColumn("age_is_outlier", []bool{true, true, true}).
		WithFlagColumn("age_is_outlier", []bool{false, false, false})

	assert.Equal(t, []string{"age_is_outlier"}, table.FlagColumns(), "column registered once")
	for i := 0; i < table.Len(); i++ {
		flag, ok := table.Flag(i, "age_is_outlier")
		require.True(t, ok)
		assert.False(t, flag)
	}
}

func TestFilterPreservesSurvivorOrder(t *testing.T) {
	table := sampleTable().Filter(func(i int, r Row) bool {
		return i != 1
	})

	require.Equal(t, 2, table.Len())
	v, _ := table.Cell(0, "id")
	assert.Equal(t, "1", v)
	v, _ = table.Cell(1, "id")
	assert.Equal(t, "3", v)
}

func TestRecordsRendersFlagsAsText(t *testing.T) {
	table := sampleTable().WithFlagColumn("age_is_outlier", []bool{false, true, false})

	recs := table.Records()
	require.Len(t, recs, 3)
	assert.Equal(t, "false", recs[0]["age_is_outlier"])
	assert.Equal(t, "true", recs[1]["age_is_outlier"])
	assert.Equal(t, "30", recs[0]["age"])
}

func TestRowValueCoversCellsAndFlags(t *testing.T) {
	table := sampleTable().WithFlagColumn("age_is_outlier", []bool{true, false, false})
	row := table.Row(0)

	v, ok := row.Value("age")
	assert.True(t, ok)
	assert.Equal(t, "30", v)

	v, ok = row.Value("age_is_outlier")
	assert.True(t, ok)
	assert.Equal(t, "true", v)

	_, ok = row.Value("nope")
	assert.False(t, ok)
}
