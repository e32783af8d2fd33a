// Package migrations embeds the versioned SQL migration sets. The control
// set builds the tenant registry in the control schema; the tenant set
// builds the directory and account tables and is applied to every tenant
// schema (and to the control schema, which doubles as the superuser tenant).
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed control/*.sql
var controlFS embed.FS

//go:embed tenant/*.sql
var tenantFS embed.FS

// ControlVersionTable keeps the registry migration stream separate from the
// tenant stream when both run against the control schema.
const ControlVersionTable = "registry_schema_migrations"

// Control returns the control-plane migration set rooted at its directory.
func Control() fs.FS {
	sub, err := fs.Sub(controlFS, "control")
	if err != nil {
		panic(err)
	}
	return sub
}

// Tenant returns the per-tenant migration set rooted at its directory.
func Tenant() fs.FS {
	sub, err := fs.Sub(tenantFS, "tenant")
	if err != nil {
		panic(err)
	}
	return sub
}
