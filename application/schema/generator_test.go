//go:build !wasip1

package schema

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type moveRequest struct {
	Dx     int32  `json:"dx"`
	Dy     int32  `json:"dy"`
	Sprint bool   `json:"sprint"`
	Note   string `json:"note"`
}

type chatMessage struct {
	Text     string   `json:"text"`
	Mentions []string `json:"mentions"`
}

func decode(t *testing.T, data []byte) map[string]interface{} {
	t.Helper()
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	return decoded
}

func TestGenerateSchema_PayloadStruct(t *testing.T) {
	schema, err := GenerateSchema(moveRequest{})
	require.NoError(t, err)

	decoded := decode(t, schema)
	properties, ok := decoded["properties"].(map[string]interface{})
	require.True(t, ok, "properties should be a map")
	assert.Len(t, properties, 4)

	dx, ok := properties["dx"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "integer", dx["type"])

	required, ok := decoded["required"].([]interface{})
	require.True(t, ok, "required should be an array")
	assert.ElementsMatch(t, []interface{}{"dx", "dy", "sprint", "note"}, required)
}

func TestGenerateSchemaForType(t *testing.T) {
	schema, err := GenerateSchemaForType(reflect.TypeOf(chatMessage{}))
	require.NoError(t, err)

	decoded := decode(t, schema)
	properties, ok := decoded["properties"].(map[string]interface{})
	require.True(t, ok)

	mentions, ok := properties["mentions"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "array", mentions["type"])
}

func TestGenerateSchemaForType_Nil(t *testing.T) {
	schema, err := GenerateSchemaForType(nil)
	require.NoError(t, err)
	assert.Nil(t, schema)
}

func TestGenerateSchema_EmptyStruct(t *testing.T) {
	type empty struct{}

	schema, err := GenerateSchema(empty{})
	require.NoError(t, err)
	assert.NotEmpty(t, decode(t, schema))
}

func TestGenerateSchema_ScalarPayload(t *testing.T) {
	schema, err := GenerateSchemaForType(reflect.TypeOf(""))
	require.NoError(t, err)
	assert.Equal(t, "string", decode(t, schema)["type"])
}
