// Package migrations embeds the SQL migration files into the binary so the
// frame can bring its media index schema up to date without any files on
// disk besides the database itself.
package migrations

import "embed"

// FS holds every *.sql file in this directory at its root.
//
//go:embed *.sql
var FS embed.FS
