package tenant_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authzkit/pkg/tenant"
)

func TestSchemaFromContext(t *testing.T) {
	t.Parallel()

	t.Run("defaults to public when unset", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, tenant.DefaultSchema, tenant.SchemaFromContext(context.Background()))
	})

	t.Run("returns bound schema", func(t *testing.T) {
		t.Parallel()
		ctx := tenant.WithSchema(context.Background(), "acme")
		assert.Equal(t, "acme", tenant.SchemaFromContext(ctx))
	})

	t.Run("empty binding falls back to default", func(t *testing.T) {
		t.Parallel()
		ctx := tenant.WithSchema(context.Background(), "")
		assert.Equal(t, tenant.DefaultSchema, tenant.SchemaFromContext(ctx))
	})
}

func TestVendorFromContext(t *testing.T) {
	t.Parallel()

	assert.Equal(t, tenant.DefaultVendor, tenant.VendorFromContext(context.Background()))

	ctx := tenant.WithVendor(context.Background(), "mysql")
	assert.Equal(t, "mysql", tenant.VendorFromContext(ctx))
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	t.Run("missing tenant", func(t *testing.T) {
		t.Parallel()

		_, ok := tenant.FromContext(context.Background())
		assert.False(t, ok)

		_, ok = tenant.IDFromContext(context.Background())
		assert.False(t, ok)
	})

	t.Run("bound tenant round-trips", func(t *testing.T) {
		t.Parallel()

		want := &tenant.Tenant{ID: uuid.New(), Name: "acme", Schema: "acme", Status: tenant.StatusActive}
		ctx := tenant.WithTenant(context.Background(), want)

		got, ok := tenant.FromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, want, got)

		id, ok := tenant.IDFromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, want.ID, id)
	})

	t.Run("must panics without tenant", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { tenant.MustFromContext(context.Background()) })
	})
}

// Bindings on one request context must be invisible to any other context,
// no matter how many goroutines interleave.
func TestContextIsolation(t *testing.T) {
	t.Parallel()

	base := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			schema := "tenant_" + uuid.NewString()[:8]
			ctx := tenant.WithSchema(base, schema)
			assert.Equal(t, schema, tenant.SchemaFromContext(ctx))
			assert.Equal(t, tenant.DefaultSchema, tenant.SchemaFromContext(base))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, tenant.DefaultSchema, tenant.SchemaFromContext(base))
}
