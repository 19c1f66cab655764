package common

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalUseNumber(t *testing.T) {
	packet := []byte(`{"id":"7","fields":{"like":9007199254740993,"comment":-2}}`)

	var plain map[string]interface{}
	require.Nil(t, JSON.Unmarshal(packet, &plain))
	like := plain["fields"].(map[string]interface{})["like"]
	assert.IsType(t, float64(0), like)
	assert.NotEqual(t, int64(9007199254740993), int64(like.(float64)))

	var exact map[string]interface{}
	require.Nil(t, UnmarshalUseNumber(packet, &exact))
	fields := exact["fields"].(map[string]interface{})
	n, err := fields["like"].(json.Number).Int64()
	require.Nil(t, err)
	assert.Equal(t, int64(9007199254740993), n)
	n, err = fields["comment"].(json.Number).Int64()
	require.Nil(t, err)
	assert.Equal(t, int64(-2), n)

	var typed struct {
		ID     string           `json:"id"`
		Fields map[string]int64 `json:"fields"`
	}
	require.Nil(t, UnmarshalUseNumber(packet, &typed))
	assert.Equal(t, map[string]int64{"like": 9007199254740993, "comment": -2}, typed.Fields)

	assert.NotNil(t, UnmarshalUseNumber([]byte(`{"id":`), &typed))
}
