package briefing

import "embed"

// MigrationsFS embeds the SQL migrations for the briefings database.
//
//go:embed migrations
var MigrationsFS embed.FS
