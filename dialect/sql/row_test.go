package sql

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRow(t *testing.T) {
	r := NewRow([]string{"id", "Name", "score", "deleted_at"}, []any{int64(7), "a8m", "12.9"})
	assert.Equal(t, 4, r.Len())
	assert.Equal(t, "a8m", r.Text("name"))
	assert.Equal(t, "7", r.TextAt(0))
	assert.Nil(t, r.At(9))
	assert.True(t, r.IsNull("deleted_at"))
	assert.True(t, r.IsNull("missing"))

	n, err := r.Int64("score")
	require.NoError(t, err)
	assert.EqualValues(t, 12, n)
	_, err = r.Int64("name")
	assert.Error(t, err)

	assert.Equal(t, map[string]any{"id": int64(7), "Name": "a8m", "score": "12.9", "deleted_at": nil}, r.Map())
}

func TestRow_LookupPrefersExactMatch(t *testing.T) {
	r := NewRow([]string{"NAME", "name"}, []any{"upper", "lower"})
	v, ok := r.Lookup("name")
	require.True(t, ok)
	assert.Equal(t, "lower", v)
	v, ok = r.Lookup("Name")
	require.True(t, ok)
	assert.Equal(t, "upper", v)
}

func TestRow_MarshalJSON(t *testing.T) {
	r := NewRow([]string{"z", "a", "m"}, []any{1, nil, "x"})
	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":null,"m":"x"}`, string(out))

	out, err = json.Marshal(Row{})
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(out))
}
