// Package migrations embeds the SQL schema so the server and the
// integration tests apply the same files through goose.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
