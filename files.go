package devconnect

import (
	"embed"
	"io/fs"
	"path"

	"github.com/samber/oops"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

// MigrationsFor returns the migrations written for dialect, "sqlite" or
// "postgres".
func MigrationsFor(dialect string) (fs.FS, error) {
	dir := path.Join("data/sql/migrations", dialect)
	if _, err := fs.Stat(migrationsFS, dir); err != nil {
		return nil, oops.Code(CodeStoreUnavailable).
			In("migrations").
			With("dialect", dialect).
			Wrapf(err, "no migrations for dialect")
	}
	return fs.Sub(migrationsFS, dir)
}
