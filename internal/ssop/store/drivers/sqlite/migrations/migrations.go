// Package migrations embeds the artifact table schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
