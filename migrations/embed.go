// Package migrations holds the PostgreSQL schema applied at startup.
package migrations

import "embed"

// FS contains every *.up.sql migration, applied in lexical order.
//
//go:embed *.up.sql
var FS embed.FS
