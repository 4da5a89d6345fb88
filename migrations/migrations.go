// Package migrations embeds the schema migrations applied by
// "ipc-server migrate up".
package migrations

import "embed"

// FS holds the numbered .sql files.
//
//go:embed *.sql
var FS embed.FS
