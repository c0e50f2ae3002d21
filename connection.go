package gomonetdb

import (
	"context"
	"database/sql/driver"
	"fmt"
)

// sessionConn is a serverConn whose lifetime the connection owns.
type sessionConn interface {
	serverConn
	Close() error
}

// Conn is one open MonetDB session. It satisfies driver.Conn and friends and
// also exposes Cursor for callers who want the windowed fetch API directly.
type Conn struct {
	cfg    *Config
	mapi   sessionConn
	closed bool
}

// Cursor returns a new cursor over this connection. Cursors share the
// connection's single outstanding statement; do not interleave fetches of
// two cursors on the same connection.
func (c *Conn) Cursor() *Cursor {
	return NewCursor(c.mapi)
}

// Prepare returns a statement handle. Binding happens client side; the query
// text travels to the server only at execution.
func (c *Conn) Prepare(query string) (driver.Stmt, error) {
	if c.closed {
		return nil, ErrInvalidConn
	}
	return &monetdbStmt{conn: c, query: query}, nil
}

// Begin starts a transaction.
func (c *Conn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

// BeginTx starts a transaction. MonetDB offers a single isolation level, so
// any non-default option is rejected. Autocommit is suspended until the
// transaction finishes.
func (c *Conn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	logger.WithContext(ctx).Info("BeginTx")
	if opts.ReadOnly || opts.Isolation != 0 {
		return nil, driver.ErrSkip
	}
	if c.closed {
		return nil, ErrInvalidConn
	}
	if err := c.setAutocommit(false); err != nil {
		return nil, err
	}
	if _, err := c.exec("START TRANSACTION"); err != nil {
		return nil, err
	}
	return &monetdbTx{conn: c}, nil
}

func (c *Conn) setAutocommit(on bool) error {
	flag := 0
	if on {
		flag = 1
	}
	command := fmt.Sprintf("Xauto_commit %d", flag)
	resp, err := c.mapi.Cmd(command)
	if err != nil {
		return err
	}
	return checkControlReply(command, resp)
}

// ExecContext runs a statement that returns no rows.
func (c *Conn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	logger.WithContext(ctx).WithField("query", query).Debug("ExecContext")
	return c.execArgs(query, namedToValues(args))
}

// Exec runs a statement that returns no rows.
func (c *Conn) Exec(query string, args []driver.Value) (driver.Result, error) {
	return c.execArgs(query, toValues(args))
}

func (c *Conn) execArgs(query string, args []interface{}) (driver.Result, error) {
	if c.closed {
		return nil, ErrInvalidConn
	}
	cur := c.Cursor()
	defer cur.Close()
	affected, err := cur.Execute(query, paramsOrNil(args))
	if err != nil {
		return nil, err
	}
	return &monetdbResult{affectedRows: affected, insertID: cur.LastRowID()}, nil
}

// QueryContext runs a query and returns its rows.
func (c *Conn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	logger.WithContext(ctx).WithField("query", query).Debug("QueryContext")
	return c.queryArgs(query, namedToValues(args))
}

// Query runs a query and returns its rows.
func (c *Conn) Query(query string, args []driver.Value) (driver.Rows, error) {
	return c.queryArgs(query, toValues(args))
}

func (c *Conn) queryArgs(query string, args []interface{}) (driver.Rows, error) {
	if c.closed {
		return nil, ErrInvalidConn
	}
	cur := c.Cursor()
	if _, err := cur.Execute(query, paramsOrNil(args)); err != nil {
		cur.Close()
		return nil, err
	}
	return &monetdbRows{cursor: cur}, nil
}

// exec runs an internal statement and discards any result set.
func (c *Conn) exec(query string) (int64, error) {
	cur := c.Cursor()
	defer cur.Close()
	return cur.Execute(query, nil)
}

// Ping probes the server with a trivial query.
func (c *Conn) Ping(ctx context.Context) error {
	if c.closed {
		return driver.ErrBadConn
	}
	if _, err := c.exec("SELECT 1"); err != nil {
		return driver.ErrBadConn
	}
	return nil
}

// Close terminates the session.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	logger.Info("Close")
	return c.mapi.Close()
}

// paramsOrNil maps an empty argument list to the no-binding case so queries
// containing literal '?' text still run unbound.
func paramsOrNil(args []interface{}) interface{} {
	if len(args) == 0 {
		return nil
	}
	return args
}
