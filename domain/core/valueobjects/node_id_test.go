package valueobjects

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNodeID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewNodeID()
		require.False(t, id.IsZero())
		require.False(t, seen[id.String()], "duplicate id %s", id)
		seen[id.String()] = true
	}
}

func TestNewNodeID_TimeOrdered(t *testing.T) {
	prev := NewNodeID()
	for i := 0; i < 100; i++ {
		next := NewNodeID()
		assert.Less(t, prev.String(), next.String())
		prev = next
	}
}

func TestNewNodeIDFromString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "uuid", input: "0190b8c4-7f3a-7c1e-9a55-3a4e1d2b6c7f", want: "0190b8c4-7f3a-7c1e-9a55-3a4e1d2b6c7f"},
		{name: "legacy timestamp id", input: "1712345678901-3", want: "1712345678901-3"},
		{name: "trims whitespace", input: "  abc ", want: "abc"},
		{name: "empty", input: "", wantErr: true},
		{name: "blank", input: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NewNodeIDFromString(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, id.IsZero())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id.String())
		})
	}
}

func TestNodeID_JSON(t *testing.T) {
	type wrapper struct {
		ID     NodeID `json:"id"`
		Parent NodeID `json:"parentId"`
	}

	data, err := json.Marshal(wrapper{ID: MustNodeID(`a"b`)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"a\"b","parentId":null}`, string(data))

	var back wrapper
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.ID.Equals(MustNodeID(`a"b`)))
	assert.True(t, back.Parent.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"id":42}`), &back))
}
