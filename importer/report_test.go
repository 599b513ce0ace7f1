package importer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport_TotalsAndSummary(t *testing.T) {
	r := NewReport(ModeReset)
	r.Deleted = 7
	*r.Category("Двері") = Stats{Folders: 3, Added: 2, Skipped: 1, PhotosAdded: 5, Documents: 2}
	*r.Category("Лиштви") = Stats{Folders: 1, Updated: 1, Failed: 1}
	r.finish()

	assert.Equal(t, Stats{Folders: 4, Added: 2, Updated: 1, Skipped: 1, Failed: 1, PhotosAdded: 5, Documents: 2}, r.Totals())

	lines := r.Summary()
	require.Len(t, lines, 5)
	assert.Equal(t, "📊 ПІДСУМОК ІМПОРТУ", lines[0])
	assert.Equal(t, "🗑 Видалено старих записів: 7", lines[1])
	assert.Contains(t, lines[2], "Двері")
	assert.Contains(t, lines[3], "Лиштви")
	assert.Equal(t, "✅ Всього: додано 2, оновлено 1, пропущено 1, помилок 1, фото 5", lines[4])
}

func TestReport_MarshalJSON(t *testing.T) {
	r := NewReport(ModeUpsert)
	r.Category("Двері").Added = 2

	raw, err := json.Marshal(r)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "upsert", decoded["mode"])
	assert.Equal(t, float64(2), decoded["totals"].(map[string]any)["added"])
	assert.Equal(t, float64(2), decoded["categories"].(map[string]any)["Двері"].(map[string]any)["added"])
	assert.NotContains(t, decoded, "finished_at")
}

func TestTee(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	p := Tee(a, b, Discard)

	p.Step("s")
	p.Detail("d")

	assert.Equal(t, []string{"s"}, a.steps)
	assert.Equal(t, []string{"d"}, b.details)
}
