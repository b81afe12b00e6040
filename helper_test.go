// File: lixenwraith/tvconfig/helper_test.go
package tvconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNormalizeURLs tests trailing slash removal on backend URLs
func TestNormalizeURLs(t *testing.T) {
	raw := map[string]any{"general": map[string]any{
		"edcb_url":      "tcp://edcb-namedpipe/",
		"mirakurun_url": "http://localhost:40772//",
	}}
	normalizeURLs(raw)
	normalizeURLs(raw)

	general := raw["general"].(map[string]any)
	assert.Equal(t, "tcp://edcb-namedpipe", general["edcb_url"])
	assert.Equal(t, "http://localhost:40772", general["mirakurun_url"])

	t.Run("MissingKeysSkipped", func(t *testing.T) {
		raw := map[string]any{"general": map[string]any{"mirakurun_url": 5}}
		assert.NotPanics(t, func() { normalizeURLs(raw) })
		assert.NotContains(t, raw["general"], "edcb_url")
		assert.NotPanics(t, func() { normalizeURLs(map[string]any{}) })
	})
}

// TestRootfsPrefix tests applying and stripping the container path prefix
func TestRootfsPrefix(t *testing.T) {
	raw := map[string]any{
		"capture": map[string]any{"upload_folder": "/mnt/captures"},
		"tv":      map[string]any{"debug_mode_ts_path": nil},
	}
	applyRootfsPrefix(raw)
	assert.Equal(t, "/host-rootfs/mnt/captures", raw["capture"].(map[string]any)["upload_folder"])
	assert.Nil(t, raw["tv"].(map[string]any)["debug_mode_ts_path"])

	doc := Document{
		"capture": {"upload_folder": "/host-rootfs/mnt/captures"},
		"tv":      {"debug_mode_ts_path": "/host-rootfs/data/host-rootfs.ts"},
	}
	stripRootfsPrefix(doc)
	assert.Equal(t, "/mnt/captures", doc["capture"]["upload_folder"])
	assert.Equal(t, "/data/host-rootfs.ts", doc["tv"]["debug_mode_ts_path"], "only the leading prefix is removed")

	t.Run("MissingSectionsSkipped", func(t *testing.T) {
		assert.NotPanics(t, func() { applyRootfsPrefix(map[string]any{"capture": "bad"}) })
		assert.NotPanics(t, func() { stripRootfsPrefix(Document{}) })
	})
}

// TestFlattenMap tests dot-notation flattening of nested documents
func TestFlattenMap(t *testing.T) {
	flat := flattenMap(map[string]any{
		"general": map[string]any{"debug": true, "tags": []any{"a"}},
		"top":     1,
	}, "")

	assert.Equal(t, map[string]any{
		"general.debug": true,
		"general.tags":  []any{"a"},
		"top":           1,
	}, flat)
}

// TestIsValidKeySegment tests settings key validation
func TestIsValidKeySegment(t *testing.T) {
	assert.True(t, isValidKeySegment("program_update_interval"))
	assert.True(t, isValidKeySegment("tv"))
	assert.False(t, isValidKeySegment(""))
	assert.False(t, isValidKeySegment("Debug"))
	assert.False(t, isValidKeySegment("a.b"))
	assert.False(t, isValidKeySegment("a-b"))
}
