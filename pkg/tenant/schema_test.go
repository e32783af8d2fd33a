package tenant_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/authzkit/pkg/tenant"
)

func TestSchemaName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "acme", "acme"},
		{"uppercase", "Acme", "acme"},
		{"spaces collapse", "Acme  Corp", "acme_corp"},
		{"punctuation collapses", "acme & sons, ltd.", "acme_sons_ltd"},
		{"leading digit gets prefix", "42things", "t_42things"},
		{"leading separators swallowed", "  --acme", "acme"},
		{"trailing separator trimmed", "acme!", "acme"},
		{"empty", "", ""},
		{"only punctuation", "!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tenant.SchemaName(tt.in))
		})
	}

	t.Run("deterministic", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, tenant.SchemaName("Acme Corp"), tenant.SchemaName("Acme Corp"))
	})

	t.Run("long names fit identifier limit", func(t *testing.T) {
		t.Parallel()
		got := tenant.SchemaName(strings.Repeat("abc ", 40))
		assert.LessOrEqual(t, len(got), 63)
		assert.False(t, strings.HasSuffix(got, "_"))
	})
}

func TestIsReservedSchema(t *testing.T) {
	t.Parallel()

	assert.True(t, tenant.IsReservedSchema(tenant.DefaultSchema))
	assert.True(t, tenant.IsReservedSchema(tenant.ControlSchema))
	assert.True(t, tenant.IsReservedSchema("pg_catalog"))
	assert.False(t, tenant.IsReservedSchema("acme"))
}
