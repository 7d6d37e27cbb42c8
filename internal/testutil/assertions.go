// Package testutil provides fakes and assertions shared by the runtime tests.
package testutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turbo-genesis/turbo-go/domain/entities"
	"github.com/turbo-genesis/turbo-go/wireformat"
)

// AssertJSONEqual compares two JSON strings for equality, ignoring formatting
func AssertJSONEqual(t *testing.T, expected, actual string, msgAndArgs ...interface{}) {
	t.Helper()

	var expectedJSON, actualJSON interface{}
	require.NoError(t, json.Unmarshal([]byte(expected), &expectedJSON), "expected JSON is invalid")
	require.NoError(t, json.Unmarshal([]byte(actual), &actualJSON), "actual JSON is invalid")

	assert.Equal(t, expectedJSON, actualJSON, msgAndArgs...)
}

// RequireOk decodes an encoded Result and requires it to be Ok. It returns
// the payload.
func RequireOk(t *testing.T, encoded []byte) []byte {
	t.Helper()

	res, err := wireformat.DecodeResult(encoded)
	require.NoError(t, err, "result envelope is invalid")
	require.True(t, res.OK, "expected Ok, got %s: %s", res.Kind, res.Message)
	return res.Payload
}

// RequireErr decodes an encoded Result and requires it to be Err of kind.
// It returns the message.
func RequireErr(t *testing.T, encoded []byte, kind entities.ErrorKind) string {
	t.Helper()

	res, err := wireformat.DecodeResult(encoded)
	require.NoError(t, err, "result envelope is invalid")
	require.False(t, res.OK, "expected Err(%s), got Ok", kind)
	assert.Equal(t, kind, res.Kind, "unexpected error kind, message: %s", res.Message)
	return res.Message
}
