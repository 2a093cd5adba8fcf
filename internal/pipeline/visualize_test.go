package pipeline

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisualize_Formats(t *testing.T) {
	passes := Default(Options{})

	text, err := Visualize(passes, FormatText)
	require.NoError(t, err)
	assert.Contains(t, text, "Build Pass Order")
	assert.Contains(t, text, "[number_chapters]")
	assert.Contains(t, text, "requires: meta")
	assert.Contains(t, text, "Total: 8 passes")

	mermaid, err := Visualize(passes, FormatMermaid)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(mermaid, "```mermaid\ngraph TD\n"))
	assert.Contains(t, mermaid, "collectmeta -->|meta| numberchapters")

	dot, err := Visualize(passes, FormatDOT)
	require.NoError(t, err)
	assert.Contains(t, dot, `"links" -> "append_links" [label="links"];`)

	raw, err := Visualize(passes, FormatJSON)
	require.NoError(t, err)
	var decoded struct {
		Passes []struct {
			Name  string `json:"name"`
			Order int    `json:"order"`
		} `json:"passes"`
		TotalPasses int `json:"totalPasses"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	assert.Equal(t, 8, decoded.TotalPasses)
	assert.Equal(t, "stamp", decoded.Passes[0].Name)

	_, err = Visualize(passes, VisualizationFormat("svg"))
	assert.Error(t, err)
}
