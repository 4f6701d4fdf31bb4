// Package migrations carries the goose migrations for the sessions schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
