// Package migrations embeds the schema migrations for the Postgres
// backend, consumed by golang-migrate's iofs source driver.
package migrations

import "embed"

// FS holds the embedded *.up.sql / *.down.sql migration files.
//
//go:embed *.sql
var FS embed.FS
