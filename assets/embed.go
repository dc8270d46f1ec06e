// assets/embed.go
//
// Embedded data shipped with the binary:
//   - shapes.json: default shape catalogue for the woodoku engine.
//   - sql/*.sql:   SQLite migrations applied in lexical order.

package assets

import (
	"embed"
	"io/fs"
)

//go:embed shapes.json sql/*.sql
var FS embed.FS

// ShapesJSON returns the raw embedded shape catalogue.
func ShapesJSON() ([]byte, error) {
	return FS.ReadFile("shapes.json")
}

// Migrations returns the embedded migrations rooted at the sql directory.
func Migrations() (fs.FS, error) {
	return fs.Sub(FS, "sql")
}
