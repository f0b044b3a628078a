package db

import "database/sql"

// DB wraps the standard sql.DB so stores share one handle type.
type DB struct {
	*sql.DB
}
