// File: lixenwraith/tvconfig/helper.go
package tvconfig

import (
	"strings"
)

// DockerPathPrefix maps host filesystem paths into the container's bind-mounted view.
const DockerPathPrefix = "/host-rootfs"

// flattenMap converts a nested map[string]any to a flat map[string]any with dot-notation paths.
func flattenMap(nested map[string]any, prefix string) map[string]any {
	flat := make(map[string]any)

	for key, value := range nested {
		newPath := key
		if prefix != "" {
			newPath = prefix + "." + key
		}

		if nestedMap, isMap := value.(map[string]any); isMap {
			for subPath, subValue := range flattenMap(nestedMap, newPath) {
				flat[subPath] = subValue
			}
		} else {
			flat[newPath] = value
		}
	}

	return flat
}

// section returns raw[name] when it is a mapping.
func section(raw map[string]any, name string) (map[string]any, bool) {
	m, ok := raw[name].(map[string]any)
	return m, ok
}

// normalizeURLs strips trailing slashes from both backend URLs. Missing keys are skipped.
func normalizeURLs(raw map[string]any) {
	general, ok := section(raw, "general")
	if !ok {
		return
	}
	for _, key := range []string{"edcb_url", "mirakurun_url"} {
		if s, ok := general[key].(string); ok {
			general[key] = strings.TrimRight(s, "/")
		}
	}
}

// applyRootfsPrefix prepends DockerPathPrefix to path-typed fields.
// Keys that are missing or not strings are left for validation to reject.
func applyRootfsPrefix(raw map[string]any) {
	if capture, ok := section(raw, "capture"); ok {
		if s, ok := capture["upload_folder"].(string); ok {
			capture["upload_folder"] = DockerPathPrefix + s
		}
	}
	if tv, ok := section(raw, "tv"); ok {
		if s, ok := tv["debug_mode_ts_path"].(string); ok {
			tv["debug_mode_ts_path"] = DockerPathPrefix + s
		}
	}
}

// stripRootfsPrefix reverses applyRootfsPrefix on a document about to be written.
func stripRootfsPrefix(doc Document) {
	if capture, ok := doc["capture"]; ok {
		if s, ok := capture["upload_folder"].(string); ok {
			capture["upload_folder"] = strings.TrimPrefix(s, DockerPathPrefix)
		}
	}
	if tv, ok := doc["tv"]; ok {
		if s, ok := tv["debug_mode_ts_path"].(string); ok {
			tv["debug_mode_ts_path"] = strings.TrimPrefix(s, DockerPathPrefix)
		}
	}
}

// isValidKeySegment checks if a single path segment is a valid settings key.
func isValidKeySegment(s string) bool {
	if len(s) == 0 {
		return false
	}

	for _, r := range s {
		isLower := r >= 'a' && r <= 'z'
		isDigit := r >= '0' && r <= '9'
		if !(isLower || isDigit || r == '_') {
			return false
		}
	}
	return true
}
