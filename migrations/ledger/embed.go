// Package ledgermigrations embeds the audit ledger's SQL migration files for
// use at runtime, regardless of working directory.
package ledgermigrations

import "embed"

//go:embed *.sql
var FS embed.FS
