// README: SQL schema for the journal and quota tables, embedded for infra.Migrate.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
