package operators

import (
	"strconv"
	"strings"

	"github.com/leofalp/sheetflow/core/fault"
	"github.com/leofalp/sheetflow/core/table"
)

// configString returns the first non-empty string value among the keys.
// Non-string scalars render through their canonical text form, so a numeric
// sheet ordinal or year arrives usable.
func configString(config map[string]any, keys ...string) string {
	for _, key := range keys {
		value, ok := config[key]
		if !ok || value == nil {
			continue
		}
		text := strings.TrimSpace(table.AsString(normalized(value)))
		if text != "" {
			return text
		}
	}
	return ""
}

// requireString is configString plus an operator_config_missing failure when
// every key is empty.
func requireString(config map[string]any, label string, keys ...string) (string, error) {
	if text := configString(config, keys...); text != "" {
		return text, nil
	}
	return "", fault.New(fault.KindConfigMissing, "%s requires config %q", label, keys[0])
}

// configStringList reads a value that may be a single string or a list.
// Empty entries are dropped.
func configStringList(config map[string]any, keys ...string) []string {
	for _, key := range keys {
		value, ok := config[key]
		if !ok || value == nil {
			continue
		}
		var items []string
		switch v := value.(type) {
		case string:
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				items = []string{trimmed}
			}
		case []any:
			for _, entry := range v {
				if text := strings.TrimSpace(table.AsString(normalized(entry))); text != "" {
					items = append(items, text)
				}
			}
		case []string:
			for _, entry := range v {
				if trimmed := strings.TrimSpace(entry); trimmed != "" {
					items = append(items, trimmed)
				}
			}
		}
		if len(items) > 0 {
			return items
		}
	}
	return nil
}

func configInt(config map[string]any, key string, fallback int) int {
	value, ok := config[key]
	if !ok || value == nil {
		return fallback
	}
	switch v := value.(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	}
	return fallback
}

func configFloat(config map[string]any, key string, fallback float64) float64 {
	value, ok := config[key]
	if !ok || value == nil {
		return fallback
	}
	if parsed, ok := table.AsFloat(normalized(value)); ok {
		return parsed
	}
	return fallback
}

func configBool(config map[string]any, key string) bool {
	switch v := config[key].(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes":
			return true
		}
	case float64:
		return v != 0
	}
	return false
}

// configMaps reads a list-of-objects config value, the shape used by
// type_convert conversions, transform calculations and aggregations.
func configMaps(config map[string]any, key string) []map[string]any {
	raw, ok := config[key].([]any)
	if !ok {
		return nil
	}
	maps := make([]map[string]any, 0, len(raw))
	for _, entry := range raw {
		if m, ok := entry.(map[string]any); ok {
			maps = append(maps, m)
		}
	}
	return maps
}

func configStringMap(config map[string]any, key string) map[string]string {
	raw, ok := config[key].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for name, value := range raw {
		out[name] = table.AsString(normalized(value))
	}
	return out
}

// normalized converts JSON-decoded scalars to the table cell value space so
// the shared rendering helpers apply.
func normalized(value any) any {
	switch v := value.(type) {
	case float64:
		if v == float64(int64(v)) {
			return int64(v)
		}
		return v
	default:
		return v
	}
}

// columnMissing builds the operator_column_missing failure, listing the
// columns that do exist so the user can fix the config without re-running.
func columnMissing(label, column string, t *table.Table) error {
	return fault.New(fault.KindColumnMissing,
		"%s: column %q not found, available columns: %v", label, column, t.ColumnNames())
}
