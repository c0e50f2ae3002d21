package gomonetdb

import (
	"database/sql/driver"
	"iter"
)

// Severity classifies an entry of the cursor's message log.
type Severity string

const (
	SeverityWarning Severity = "Warning"
	SeverityError   Severity = "Error"
)

// Message is one diagnostic recorded while executing or fetching. The log
// accumulates across fetches and is cleared only by the next Execute.
type Message struct {
	Severity Severity
	Text     string
}

// Cursor executes statements on a connection and walks their result sets.
// It keeps a sliding window of buffered rows and pages through the rest of
// the result set on demand, so fetching a large result set holds at most
// one page in memory at a time.
//
// A Cursor is not safe for concurrent use; its connection handles one
// outstanding statement at a time.
type Cursor struct {
	conn   serverConn
	window *resultWindow

	// ArraySize is the page size used when fetching: the row count of
	// FetchMany when called without an explicit size, and the number of rows
	// requested from the server per page.
	ArraySize int

	rownumber int64
	rowcount  int64
	operation string
	messages  []Message
	executed  bool
	closed    bool
}

// NewCursor returns a cursor bound to the given connection.
func NewCursor(conn serverConn) *Cursor {
	c := &Cursor{
		conn:      conn,
		ArraySize: conn.ReplySize(),
		rownumber: -1,
		rowcount:  -1,
	}
	if c.ArraySize <= 0 {
		c.ArraySize = defaultReplySize
	}
	c.window = newResultWindow(conn, c)
	return c
}

// Execute runs one SQL statement, optionally binding params into its
// placeholders first, and returns the affected row count (-1 when unknown,
// e.g. for a result set the server reports without a total). params may be
// nil, a single scalar, a []interface{} for ? placeholders, or a
// map[string]interface{} for :name placeholders.
func (c *Cursor) Execute(query string, params interface{}) (int64, error) {
	if c.closed {
		return -1, c.usageError(ErrCursorClosed)
	}
	c.messages = nil

	bound, err := interpolateParams(query, params)
	if err != nil {
		c.logError(err)
		return -1, err
	}

	// keep the server's page size in step with ours so the first page of the
	// response is already the right width
	if c.ArraySize != c.conn.ReplySize() {
		if err = c.conn.SetReplySize(c.ArraySize); err != nil {
			return -1, err
		}
	}

	c.operation = bound
	c.executed = true
	c.window = newResultWindow(c.conn, c)
	c.rownumber = -1
	c.rowcount = -1

	logger.WithField("query", bound).Debug("executing statement")
	block, err := c.conn.Execute(bound)
	if err != nil {
		return -1, err
	}
	if err = c.window.apply(block); err != nil {
		return -1, err
	}

	c.rownumber = 0
	c.rowcount = c.window.totalRows
	return c.rowcount, nil
}

// ExecuteMany runs the statement once per parameter set and returns the sum
// of the affected row counts, or -1 if no execution reported one.
func (c *Cursor) ExecuteMany(query string, paramSeq [][]interface{}) (int64, error) {
	var total int64
	counted := false
	for _, params := range paramSeq {
		n, err := c.Execute(query, params)
		if err != nil {
			return -1, err
		}
		if n >= 0 {
			total += n
			counted = true
		}
	}
	if !counted {
		total = -1
	}
	c.rowcount = total
	return total, nil
}

// FetchOne returns the row at the current position and advances the position
// by one. It returns (nil, nil) once the result set is exhausted.
func (c *Cursor) FetchOne() ([]driver.Value, error) {
	if err := c.checkResultSet(); err != nil {
		return nil, err
	}
	if c.rownumber >= c.rowcount {
		return nil, nil
	}
	if err := c.window.advance(c.rownumber, int64(c.ArraySize)); err != nil {
		return nil, err
	}
	row, ok := c.window.rowAt(c.rownumber)
	if !ok {
		err := &MonetDBError{
			Number:      ErrCodeWindowStalled,
			Message:     "row %v missing from fetched window",
			MessageArgs: []interface{}{c.rownumber},
		}
		c.logError(err)
		return nil, err
	}
	c.rownumber++
	return row, nil
}

// FetchMany returns up to size rows starting at the current position, fewer
// when the result set ends first. size <= 0 means ArraySize.
func (c *Cursor) FetchMany(size int) ([][]driver.Value, error) {
	if err := c.checkResultSet(); err != nil {
		return nil, err
	}
	if size <= 0 {
		size = c.ArraySize
	}
	end := intMin64(c.rowcount, c.rownumber+int64(size))
	rows := make([][]driver.Value, 0, intMax64(0, end-c.rownumber))
	for c.rownumber < end {
		row, err := c.FetchOne()
		if err != nil {
			return nil, err
		}
		if row == nil {
			break
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// FetchAll returns every remaining row of the result set, paging through the
// server a window at a time.
func (c *Cursor) FetchAll() ([][]driver.Value, error) {
	if err := c.checkResultSet(); err != nil {
		return nil, err
	}
	rows := make([][]driver.Value, 0, intMax64(0, c.rowcount-c.rownumber))
	for {
		row, err := c.FetchOne()
		if err != nil {
			return nil, err
		}
		if row == nil {
			return rows, nil
		}
		rows = append(rows, row)
	}
}

// Rows iterates the remaining rows in order. Iteration stops at the first
// fetch error, which is yielded as the second value.
func (c *Cursor) Rows() iter.Seq2[[]driver.Value, error] {
	return func(yield func([]driver.Value, error) bool) {
		for {
			row, err := c.FetchOne()
			if err != nil {
				yield(nil, err)
				return
			}
			if row == nil {
				return
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}

// NextResultSet slides the window past the buffered rows and fetches the
// following page. It reports false without fetching when no rows remain.
func (c *Cursor) NextResultSet() (bool, error) {
	if err := c.checkResultSet(); err != nil {
		return false, err
	}
	if c.window.offset+int64(len(c.window.rows)) >= c.rowcount {
		return false, nil
	}
	return c.window.slideNext(int64(c.ArraySize))
}

// Scroll moves the read position: with ScrollRelative value is an offset from
// the current position, with ScrollAbsolute it is the target position itself.
// The target must lie within [0, RowCount]; the position is unchanged on
// error. On success the window is eagerly re-paged at the target so the next
// fetch is served locally; the old buffer is discarded even when it already
// holds the target row.
func (c *Cursor) Scroll(value int64, mode string) error {
	if err := c.checkExecuted(); err != nil {
		return err
	}
	var target int64
	switch mode {
	case ScrollRelative:
		target = c.rownumber + value
	case ScrollAbsolute:
		target = value
	default:
		return c.usageError(&MonetDBError{
			Number:      ErrCodeUnknownScrollMode,
			Message:     "unknown scroll mode %v",
			MessageArgs: []interface{}{mode},
		})
	}
	if target < 0 || target > c.rowcount {
		return c.usageError(&MonetDBError{
			Number:      ErrCodeScrollOutOfRange,
			Message:     "scroll position %v out of range [0, %v]",
			MessageArgs: []interface{}{target, c.rowcount},
		})
	}
	if c.window.queryID != -1 && target < c.rowcount {
		if err := c.window.reposition(target, int64(c.ArraySize)); err != nil {
			return err
		}
	}
	c.rownumber = target
	return nil
}

// Close releases the cursor. Further operations fail with ErrCursorClosed.
// Closing twice is a no-op.
func (c *Cursor) Close() error {
	c.closed = true
	c.window = newResultWindow(c.conn, c)
	c.executed = false
	return nil
}

// Description returns one entry per column of the current result set, nil
// when the last statement produced none.
func (c *Cursor) Description() []ColumnDescription {
	return c.window.description
}

// RowCount returns the total rows of the current result set, the affected
// row count of an update, or -1 when unknown.
func (c *Cursor) RowCount() int64 {
	return c.rowcount
}

// RowNumber returns the zero-based read position, -1 before any execute.
func (c *Cursor) RowNumber() int64 {
	return c.rownumber
}

// LastRowID returns the row id of the last inserted row, -1 when the last
// statement did not insert one.
func (c *Cursor) LastRowID() int64 {
	return c.window.lastRowID
}

// Messages returns the diagnostics accumulated since the last Execute.
func (c *Cursor) Messages() []Message {
	return c.messages
}

func (c *Cursor) appendMessage(severity Severity, text string) {
	c.messages = append(c.messages, Message{Severity: severity, Text: text})
}

func (c *Cursor) checkExecuted() error {
	if c.closed {
		return c.usageError(ErrCursorClosed)
	}
	if !c.executed {
		return c.usageError(ErrNotExecuted)
	}
	return nil
}

func (c *Cursor) checkResultSet() error {
	if err := c.checkExecuted(); err != nil {
		return err
	}
	if c.window.queryID == -1 {
		return c.usageError(ErrNoResultSet)
	}
	return nil
}

func (c *Cursor) usageError(err *MonetDBError) error {
	c.appendMessage(SeverityError, err.text())
	return err
}

func (c *Cursor) logError(err error) {
	if me, ok := err.(*MonetDBError); ok {
		c.appendMessage(SeverityError, me.text())
		return
	}
	c.appendMessage(SeverityError, err.Error())
}
