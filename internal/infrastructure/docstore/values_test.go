package docstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	local := time.Date(2024, 5, 1, 10, 0, 0, 0, time.FixedZone("WIB", 7*3600))
	var nilTime *time.Time

	got := Normalize(map[string]interface{}{
		"n":     3,
		"f":     float32(1.5),
		"list":  []string{"a", "b"},
		"at":    local,
		"never": nilTime,
		"inner": map[string]int{"x": 1},
	})

	assert.Equal(t, map[string]interface{}{
		"n":     int64(3),
		"f":     float64(1.5),
		"list":  []interface{}{"a", "b"},
		"at":    local.UTC(),
		"never": nil,
		"inner": map[string]interface{}{"x": int64(1)},
	}, got)
}

func TestDocumentAccessors(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	doc := &Document{ID: "d", Data: NormalizeMap(map[string]interface{}{
		"name":   "Ana",
		"ok":     true,
		"count":  4,
		"price":  2.5,
		"at":     at,
		"typing": nil,
		"nested": map[string]interface{}{"key": "value"},
	})}

	assert.Equal(t, "Ana", doc.String("name"))
	assert.True(t, doc.Bool("ok"))
	assert.Equal(t, 4, doc.Int("count"))
	assert.Equal(t, 2.5, doc.Float("price"))
	assert.Equal(t, at, doc.Time("at"))
	assert.Nil(t, doc.TimePtr("typing"))
	assert.Nil(t, doc.TimePtr("missing"))
	assert.Equal(t, "value", doc.String("nested.key"))
	assert.Empty(t, doc.String("nested.missing"))

	var missing *Document
	assert.Empty(t, missing.String("name"))
}

func TestSortDocuments_TieBreakByID(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	docs := []*Document{
		{ID: "b", Data: map[string]interface{}{"t": at}},
		{ID: "a", Data: map[string]interface{}{"t": at}},
		{ID: "c", Data: map[string]interface{}{"t": at.Add(-time.Second)}},
	}
	sortDocuments(docs, []Order{{Field: "t", Direction: Asc}})
	assert.Equal(t, "c", docs[0].ID)
	assert.Equal(t, "a", docs[1].ID)
	assert.Equal(t, "b", docs[2].ID)
}
