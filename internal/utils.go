package internal

import (
	"strings"

	"github.com/jackc/pgx/v5"
)

// DefaultKVTable is used when no table name is configured.
const DefaultKVTable = "roster_kv"

// sanitizeIdentifier quotes a possibly schema-qualified table name. Empty input selects
// DefaultKVTable.
func sanitizeIdentifier(name string) string {
	if strings.TrimSpace(name) == "" {
		name = DefaultKVTable
	}
	parts := strings.Split(name, ".")
	clean := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.Trim(part, " \"")
		if trimmed == "" {
			continue
		}
		clean = append(clean, trimmed)
	}
	if len(clean) == 0 {
		clean = []string{name}
	}
	return pgx.Identifier(clean).Sanitize()
}
