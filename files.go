package auth

import (
	"embed"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

// GetMigrationsFS returns the embedded schema migrations for the users store,
// applied by the server at startup before the auth routes come up.
func GetMigrationsFS() embed.FS {
	return migrationsFS
}
