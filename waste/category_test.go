package waste

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cubiaa/waste-yolo/yolo"
)

func TestCategorize_Defaults(t *testing.T) {
	c := NewClassifier(nil)

	assert.Equal(t, Recycle, c.Categorize("Plastic"))
	assert.Equal(t, Recycle, c.Categorize(" cardboard "))
	assert.Equal(t, Reuse, c.Categorize("jar"))
	assert.Equal(t, Reduce, c.Categorize("plastic_bag"))
	assert.Equal(t, Reduce, c.Categorize("E-Waste"))
	assert.Equal(t, Unknown, c.Categorize("zebra"))
}

func TestNewClassifier_OverridesWin(t *testing.T) {
	c := NewClassifier(map[Category][]string{
		Reuse: {"bottle"},
	})
	assert.Equal(t, Reuse, c.Categorize("bottle"))

	c.Set("zebra", Reduce)
	assert.Equal(t, Reduce, c.Categorize("zebra"))
}

func TestLabel_KeepsOrder(t *testing.T) {
	c := NewClassifier(nil)
	objects := c.Label([]yolo.Detection{
		{Class: "glass", Score: 0.8, Box: [4]float32{1, 2, 3, 4}},
		{Class: "person", Score: 0.7},
	})

	require.Len(t, objects, 2)
	assert.Equal(t, Object{Class: "glass", Confidence: 0.8, Box: [4]float32{1, 2, 3, 4}, Category: Recycle}, objects[0])
	assert.Equal(t, Unknown, objects[1].Category)

	assert.Empty(t, c.Label(nil))
}

func TestParseCategory(t *testing.T) {
	cat, err := ParseCategory("RECYCLE")
	require.NoError(t, err)
	assert.Equal(t, Recycle, cat)

	_, err = ParseCategory("compost")
	assert.Error(t, err)
}

func TestLoadClassifier(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waste.yaml")
	data := "waste_categories:\n  reuse: [bottle, crate]\n  reduce: [zebra]\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	c, err := LoadClassifier(path)
	require.NoError(t, err)
	assert.Equal(t, Reuse, c.Categorize("crate"))
	assert.Equal(t, Reuse, c.Categorize("bottle"))
	assert.Equal(t, Reduce, c.Categorize("zebra"))
	assert.Equal(t, Recycle, c.Categorize("paper"), "defaults kept")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("waste_categories:\n  compost: [peel]\n"), 0644))
	_, err = LoadClassifier(bad)
	assert.Error(t, err)
}
