package tenant

import (
	"strings"
	"unicode"
)

// maxSchemaLen matches the PostgreSQL identifier limit.
const maxSchemaLen = 63

// SchemaName derives a database schema name from a tenant name. The
// derivation is deterministic: lowercase, runs of non-alphanumeric
// characters collapse to a single underscore, and names that would start
// with a digit get a "t_" prefix so the result is always a valid unquoted
// identifier. Returns an empty string for names with no usable characters.
func SchemaName(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	prevSep := true // swallow leading separators
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z' || unicode.IsDigit(r):
			b.WriteRune(r)
			prevSep = false
		default:
			if !prevSep {
				b.WriteByte('_')
				prevSep = true
			}
		}
	}

	schema := strings.TrimSuffix(b.String(), "_")
	if schema == "" {
		return ""
	}
	if schema[0] >= '0' && schema[0] <= '9' {
		schema = "t_" + schema
	}
	if len(schema) > maxSchemaLen {
		schema = strings.TrimSuffix(schema[:maxSchemaLen], "_")
	}
	return schema
}

// IsReservedSchema reports whether a derived schema name collides with one
// of the reserved schemas and therefore cannot be used for a tenant.
func IsReservedSchema(schema string) bool {
	switch schema {
	case DefaultSchema, ControlSchema, "pg_catalog", "information_schema":
		return true
	}
	return false
}
