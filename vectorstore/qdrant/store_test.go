package qdrant

import (
	"testing"

	qdrantclient "github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/ragkit/vectorstore"
)

func TestPointID_Deterministic(t *testing.T) {
	a := pointID("doc_123")
	b := pointID("doc_123")
	c := pointID("doc_456")

	assert.Equal(t, a.GetUuid(), b.GetUuid())
	assert.NotEqual(t, a.GetUuid(), c.GetUuid())
	assert.Len(t, a.GetUuid(), 36)
}

func TestPayloadRoundTrip(t *testing.T) {
	row := vectorstore.Row{
		ID:     "doc_abc",
		Vector: []float32{1, 2, 3},
		Attributes: map[string]string{
			"text":   "stored text",
			"source": "unit",
		},
	}

	payload := payloadFromRow(row)
	require.Contains(t, payload, idPayloadKey)

	point := &qdrantclient.ScoredPoint{
		Payload: payload,
		Score:   0.75,
	}

	scored := rowFromPoint(point)
	assert.Equal(t, "doc_abc", scored.ID)
	assert.Equal(t, "stored text", scored.Text())
	assert.Equal(t, "unit", scored.Attributes["source"])
	assert.Equal(t, float32(0.75), scored.Score)

	// The internal id key does not leak into attributes.
	assert.NotContains(t, scored.Attributes, idPayloadKey)
}

func TestFilterConditions(t *testing.T) {
	f := filterConditions(map[string]string{"lang": "go"})
	require.Len(t, f.GetMust(), 1)

	field := f.GetMust()[0].GetField()
	require.NotNil(t, field)
	assert.Equal(t, "lang", field.GetKey())
	assert.Equal(t, "go", field.GetMatch().GetKeyword())
}
