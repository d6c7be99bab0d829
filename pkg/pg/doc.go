// Package pg opens the PostgreSQL pool (github.com/jackc/pgx/v5) and applies
// schema migrations with github.com/pressly/goose/v3.
//
// Migrations are read from an fs.FS, normally an embed.FS compiled into the binary,
// so the service does not depend on a migrations directory at runtime.
package pg
