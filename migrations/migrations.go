// Package migrations embeds the SQL schema migrations so binaries can
// apply them without a migrations directory on disk.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
