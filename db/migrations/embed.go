package migrations

import "embed"

// FS holds the Postgres schema for the sql store backend.
//
//go:embed *.sql
var FS embed.FS
