package migrations

import "embed"

// FS migraciones embebidas, un subdirectorio por dialecto.
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
