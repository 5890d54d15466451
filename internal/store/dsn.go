package store

import "strings"

// DetectDSNType classifies a DSN string into the backend that should serve
// it: "postgres", "redis", "memory" or "sqlite". Anything that is not
// recognizably one of the first three is treated as a SQLite file path.
func DetectDSNType(dsn string) string {
	switch {
	case dsn == "" || dsn == "memory" || dsn == ":memory:":
		return "memory"
	case strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host="):
		return "postgres"
	case strings.HasPrefix(dsn, "redis://") || strings.HasPrefix(dsn, "rediss://"):
		return "redis"
	default:
		return "sqlite"
	}
}
