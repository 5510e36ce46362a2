// Package migrations embeds the goose migrations of the local store schema.
package migrations

import "embed"

// FS holds the SQL migrations, named NNNNN_description.sql.
//
//go:embed *.sql
var FS embed.FS
