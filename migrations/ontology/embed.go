// Package ontologymigrations embeds the domain ontology's SQL migration
// files for use at runtime, regardless of working directory.
package ontologymigrations

import "embed"

//go:embed *.sql
var FS embed.FS
