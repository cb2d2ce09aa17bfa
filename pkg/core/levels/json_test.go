package levels

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelJSON_TopLevelHasNullMax(t *testing.T) {
	data, err := json.Marshal(Default.Top())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"max":null`)

	var back Level
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.IsTop())
	assert.Equal(t, Default.Top(), back)
}

func TestLevelJSON_BoundedLevel(t *testing.T) {
	data, err := json.Marshal(Default.Lowest())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"max":49`)

	var back Level
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, Default.Lowest(), back)
}

func TestLevelJSON_WholeTable(t *testing.T) {
	data, err := json.Marshal(Default)
	require.NoError(t, err)

	var back Table
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, Default, back)
	assert.NoError(t, back.Validate())
}
