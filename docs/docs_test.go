package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwaggerDocRenders(t *testing.T) {
	doc := SwaggerInfo.ReadDoc()

	var parsed struct {
		Info  map[string]any            `json:"info"`
		Paths map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(doc), &parsed))
	assert.Equal(t, "Event Hub API", parsed.Info["title"])
	assert.Contains(t, parsed.Paths, "/api/events/{eventID}/join")
	assert.Contains(t, parsed.Paths["/api/events/{eventID}"], "patch")
}
