package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_Content(t *testing.T) {
	out, err := Render("content.json", "generate-content", map[string]string{
		"BrandName":      "Snack Co",
		"Primary":        "bulk snacks",
		"Supporting":     "office candy, party mix",
		"ContextSummary": "candy, chips",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "content marketer for Snack Co")
	assert.Contains(t, out, "Primary keyword: bulk snacks")
	assert.Contains(t, out, `"bodyHtml"`)
	assert.NotContains(t, out, "{{")
}

func TestRender_MissingValueFails(t *testing.T) {
	_, err := Render("image.json", "raw-image", map[string]string{"Primary": "sour candy"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BrandName")
}

func TestRender_UnknownPrompt(t *testing.T) {
	_, err := Render("content.json", "nonexistent-key", nil)
	assert.ErrorContains(t, err, "not found")

	_, err = Render("nonexistent.json", "raw-image", nil)
	assert.ErrorContains(t, err, "read prompt file")
}

func TestRender_ValuesAreNotReparsed(t *testing.T) {
	out, err := Render("image.json", "template-edit", map[string]string{"Headline": "{{.BrandName}} Deals"})
	require.NoError(t, err)
	assert.Contains(t, out, `"{{.BrandName}} Deals"`)
}

func TestKeys(t *testing.T) {
	keys, err := Keys("image.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"raw-image", "recreate", "template-edit"}, keys)
}

func TestImagePromptsRender(t *testing.T) {
	data := map[string]string{"Primary": "sour candy", "BrandName": "Snack Co", "Headline": "Sour Candy Picks"}
	for _, key := range []string{"raw-image", "template-edit", "recreate"} {
		out, err := Render("image.json", key, data)
		require.NoError(t, err, key)
		assert.NotContains(t, out, "{{", key)
	}
}
