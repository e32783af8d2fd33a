package tenants_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authzkit/modules/tenants"
	"github.com/dmitrymomot/authzkit/pkg/tenant"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeRegistry keeps tenants in memory and records every write in steps,
// shared with fakeSchemas so tests can assert the order of saga steps.
type fakeRegistry struct {
	steps     *[]string
	tenants   []*tenant.Tenant
	createErr error
}

func (f *fakeRegistry) GetByID(_ context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	for _, t := range f.tenants {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, tenant.ErrTenantNotFound
}

func (f *fakeRegistry) GetByName(_ context.Context, name string) (*tenant.Tenant, error) {
	for _, t := range f.tenants {
		if t.Name == name {
			return t, nil
		}
	}
	return nil, tenant.ErrTenantNotFound
}

func (f *fakeRegistry) GetBySchema(_ context.Context, schema string) (*tenant.Tenant, error) {
	for _, t := range f.tenants {
		if t.Schema == schema {
			return t, nil
		}
	}
	return nil, tenant.ErrTenantNotFound
}

func (f *fakeRegistry) Create(_ context.Context, t *tenant.Tenant) error {
	*f.steps = append(*f.steps, "register")
	if f.createErr != nil {
		return f.createErr
	}
	f.tenants = append(f.tenants, t)
	return nil
}

func (f *fakeRegistry) Delete(_ context.Context, id uuid.UUID) error {
	for i, t := range f.tenants {
		if t.ID == id {
			f.tenants = append(f.tenants[:i], f.tenants[i+1:]...)
			return nil
		}
	}
	return tenant.ErrTenantNotFound
}

// fakeSchemas records schema operations and can fail exactly one step.
type fakeSchemas struct {
	steps  *[]string
	failOn string
	err    error
}

func (f *fakeSchemas) do(step string) error {
	*f.steps = append(*f.steps, step)
	if f.failOn == step {
		return f.err
	}
	return nil
}

func (f *fakeSchemas) Create(context.Context, string) error { return f.do("create") }
func (f *fakeSchemas) Drop(context.Context, string) error   { return f.do("drop") }
func (f *fakeSchemas) Migrate(context.Context, string) error {
	return f.do("migrate")
}

func (f *fakeSchemas) Seed(_ context.Context, _ string, _ []tenants.SeedDomain) error {
	return f.do("seed")
}

func newFakes() (*fakeRegistry, *fakeSchemas, *[]string) {
	steps := &[]string{}
	return &fakeRegistry{steps: steps}, &fakeSchemas{steps: steps}, steps
}

func TestProvisionValidation(t *testing.T) {
	t.Parallel()

	// Nil registry and schema manager: every case below must fail before
	// touching either.
	p := tenants.NewProvisioner(nil, nil, tenant.NewNoOpCache(), discardLogger())

	t.Run("empty name", func(t *testing.T) {
		t.Parallel()

		_, err := p.Provision(context.Background(), "   ", "", nil)
		require.ErrorIs(t, err, tenants.ErrEmptyTenantName)
	})

	t.Run("reserved name", func(t *testing.T) {
		t.Parallel()

		for _, name := range []string{"public", "Authz Control", "pg_catalog"} {
			_, err := p.Provision(context.Background(), name, "", nil)
			assert.ErrorIs(t, err, tenants.ErrReservedName, "name %q", name)
		}
	})

	t.Run("empty domain name", func(t *testing.T) {
		t.Parallel()

		_, err := p.Provision(context.Background(), "acme", "", []tenants.SeedDomain{{Name: "  "}})
		require.ErrorIs(t, err, tenants.ErrInvalidSeed)
	})

	t.Run("empty permission name", func(t *testing.T) {
		t.Parallel()

		_, err := p.Provision(context.Background(), "acme", "", []tenants.SeedDomain{{
			Name:        "billing",
			Permissions: []tenants.SeedPermission{{Name: "", Action: "read"}},
		}})
		require.ErrorIs(t, err, tenants.ErrInvalidSeed)
	})

	t.Run("unknown action", func(t *testing.T) {
		t.Parallel()

		_, err := p.Provision(context.Background(), "acme", "", []tenants.SeedDomain{{
			Name:        "billing",
			Permissions: []tenants.SeedPermission{{Name: "manage_invoices", Action: "administer"}},
		}})
		require.ErrorIs(t, err, tenants.ErrInvalidSeed)
	})

	t.Run("name with no usable characters", func(t *testing.T) {
		t.Parallel()

		_, err := p.Provision(context.Background(), "!!!", "", nil)
		require.ErrorIs(t, err, tenants.ErrEmptyTenantName)
	})
}

func TestProvisionStepOrder(t *testing.T) {
	t.Parallel()

	registry, schemas, steps := newFakes()
	p := tenants.NewProvisioner(registry, schemas, tenant.NewNoOpCache(), discardLogger())

	got, err := p.Provision(context.Background(), "Acme Inc", "widgets", nil)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "Acme Inc", got.Name)
	assert.Equal(t, "acme_inc", got.Schema)
	assert.Equal(t, tenant.StatusActive, got.Status)

	// The registry insert commits the saga, so it comes strictly after the
	// schema is fully built and seeded.
	assert.Equal(t, []string{"drop", "create", "migrate", "seed", "register"}, *steps)
}

func TestProvisionIdempotentReRegistration(t *testing.T) {
	t.Parallel()

	registry, schemas, steps := newFakes()
	existing := &tenant.Tenant{
		ID:        uuid.New(),
		Name:      "acme inc",
		Schema:    "acme_inc",
		Status:    tenant.StatusActive,
		CreatedAt: time.Now().UTC(),
	}
	registry.tenants = append(registry.tenants, existing)

	p := tenants.NewProvisioner(registry, schemas, tenant.NewNoOpCache(), discardLogger())

	got, err := p.Provision(context.Background(), "acme inc", "", nil)
	require.NoError(t, err)
	assert.Equal(t, existing, got)

	// The live schema must not be rebuilt on a retry of a completed
	// registration.
	assert.Empty(t, *steps)
}

func TestProvisionSchemaCollision(t *testing.T) {
	t.Parallel()

	registry, schemas, steps := newFakes()
	registry.tenants = append(registry.tenants, &tenant.Tenant{
		ID:     uuid.New(),
		Name:   "acme inc",
		Schema: "acme_inc",
		Status: tenant.StatusActive,
	})

	p := tenants.NewProvisioner(registry, schemas, tenant.NewNoOpCache(), discardLogger())

	// Different spellings of the name all derive the schema owned by the
	// registered tenant above.
	for _, name := range []string{"acme-inc", "Acme, Inc.", "ACME  INC"} {
		_, err := p.Provision(context.Background(), name, "", nil)
		assert.ErrorIs(t, err, tenants.ErrSchemaCollision, "name %q", name)
	}

	// The collision must be rejected before any schema operation: a drop
	// here would destroy the live tenant's data.
	assert.Empty(t, *steps)
}

func TestProvisionCompensatesOnFailure(t *testing.T) {
	t.Parallel()

	cases := []struct {
		failOn string
		want   []string
	}{
		{"create", []string{"drop", "create", "drop"}},
		{"migrate", []string{"drop", "create", "migrate", "drop"}},
		{"seed", []string{"drop", "create", "migrate", "seed", "drop"}},
	}

	for _, tc := range cases {
		t.Run(tc.failOn, func(t *testing.T) {
			t.Parallel()

			registry, schemas, steps := newFakes()
			schemas.failOn = tc.failOn
			schemas.err = assert.AnError

			p := tenants.NewProvisioner(registry, schemas, tenant.NewNoOpCache(), discardLogger())

			_, err := p.Provision(context.Background(), "acme", "", nil)
			require.ErrorIs(t, err, tenants.ErrProvisionFailed)

			assert.Equal(t, tc.want, *steps)

			// Nothing registered: a failed attempt leaves no trace.
			_, getErr := registry.GetByName(context.Background(), "acme")
			assert.ErrorIs(t, getErr, tenant.ErrTenantNotFound)
		})
	}
}

func TestProvisionRegistrationRace(t *testing.T) {
	t.Parallel()

	dup := &pgconn.PgError{Code: "23505", ConstraintName: "tenants_name_key"}

	t.Run("same name returns the winner", func(t *testing.T) {
		t.Parallel()

		registry, schemas, steps := newFakes()
		registry.createErr = dup
		winner := &tenant.Tenant{
			ID:     uuid.New(),
			Name:   "acme",
			Schema: "acme",
			Status: tenant.StatusActive,
		}

		// The winner stays invisible to the pre-flight checks and appears
		// only after the insert collides, as in a concurrent registration.
		p := tenants.NewProvisioner(&lateRegistry{fakeRegistry: registry, reveal: winner},
			schemas, tenant.NewNoOpCache(), discardLogger())

		got, err := p.Provision(context.Background(), "acme", "", nil)
		require.NoError(t, err)
		assert.Equal(t, winner, got)

		// No compensating drop: the winner's schema is the one just built.
		assert.Equal(t, []string{"drop", "create", "migrate", "seed", "register"}, *steps)
	})

	t.Run("schema collision discovered at insert", func(t *testing.T) {
		t.Parallel()

		registry, schemas, steps := newFakes()
		registry.createErr = &pgconn.PgError{Code: "23505", ConstraintName: "tenants_schema_name_key"}

		p := tenants.NewProvisioner(registry, schemas, tenant.NewNoOpCache(), discardLogger())

		_, err := p.Provision(context.Background(), "acme", "", nil)
		require.ErrorIs(t, err, tenants.ErrSchemaCollision)

		// The schema now belongs to the racing winner, so the loser must
		// not drop it on the way out.
		assert.Equal(t, []string{"drop", "create", "migrate", "seed", "register"}, *steps)
	})
}

// lateRegistry hides its tenants from reads until Create has been called,
// simulating a concurrent registration that lands between the pre-flight
// checks and the insert.
type lateRegistry struct {
	*fakeRegistry
	reveal   *tenant.Tenant
	inserted bool
}

func (l *lateRegistry) Create(ctx context.Context, t *tenant.Tenant) error {
	err := l.fakeRegistry.Create(ctx, t)
	l.inserted = true
	return err
}

func (l *lateRegistry) GetByName(ctx context.Context, name string) (*tenant.Tenant, error) {
	if l.inserted && l.reveal != nil && l.reveal.Name == name {
		return l.reveal, nil
	}
	return l.fakeRegistry.GetByName(ctx, name)
}

func TestDeprovision(t *testing.T) {
	t.Parallel()

	t.Run("drops schema then registry row", func(t *testing.T) {
		t.Parallel()

		registry, schemas, steps := newFakes()
		id := uuid.New()
		registry.tenants = append(registry.tenants, &tenant.Tenant{
			ID:     id,
			Name:   "acme",
			Schema: "acme",
			Status: tenant.StatusActive,
		})

		cache := tenant.NewInMemoryCacheWithSize(8)
		t.Cleanup(func() { _ = cache.Close() })
		cache.Set(context.Background(), id.String(), registry.tenants[0], time.Minute)

		p := tenants.NewProvisioner(registry, schemas, cache, discardLogger())

		require.NoError(t, p.Deprovision(context.Background(), id))
		assert.Equal(t, []string{"drop"}, *steps)
		assert.Empty(t, registry.tenants)

		_, cached := cache.Get(context.Background(), id.String())
		assert.False(t, cached, "descriptor must be evicted from the routing cache")
	})

	t.Run("unknown tenant", func(t *testing.T) {
		t.Parallel()

		registry, schemas, _ := newFakes()
		p := tenants.NewProvisioner(registry, schemas, tenant.NewNoOpCache(), discardLogger())

		err := p.Deprovision(context.Background(), uuid.New())
		require.ErrorIs(t, err, tenant.ErrTenantNotFound)
	})
}
