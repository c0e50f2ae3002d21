package gomonetdb

import (
	"context"
	"database/sql/driver"
)

// monetdbStmt is a client-side prepared statement: the query text is held
// here and parameters are interpolated at execution.
type monetdbStmt struct {
	conn  *Conn
	query string
}

func (stmt *monetdbStmt) Close() error {
	return nil
}

// NumInput counts the ? placeholders outside string literals.
func (stmt *monetdbStmt) NumInput() int {
	return numPlaceholders(stmt.query)
}

func (stmt *monetdbStmt) Exec(args []driver.Value) (driver.Result, error) {
	return stmt.conn.Exec(stmt.query, args)
}

func (stmt *monetdbStmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	return stmt.conn.ExecContext(ctx, stmt.query, args)
}

func (stmt *monetdbStmt) Query(args []driver.Value) (driver.Rows, error) {
	return stmt.conn.Query(stmt.query, args)
}

func (stmt *monetdbStmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	return stmt.conn.QueryContext(ctx, stmt.query, args)
}
