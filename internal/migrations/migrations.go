// Package migrations holds the goose SQL migrations embedded into the binary
// so deployments never depend on files shipped next to it.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
