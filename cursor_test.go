package gomonetdb

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"
)

func TestExecuteQuery(t *testing.T) {
	conn := newTableConn(10, 100)
	cur := NewCursor(conn)
	affected, err := cur.Execute("SELECT * FROM t", nil)
	assertNilF(t, err)
	assertEqualE(t, affected, int64(10))
	assertEqualE(t, cur.RowCount(), int64(10))
	assertEqualE(t, cur.RowNumber(), int64(0))

	desc := cur.Description()
	assertEqualF(t, len(desc), 2)
	assertEqualE(t, desc[0].Name, "id")
	assertEqualE(t, desc[1].Name, "label")

	row, err := cur.FetchOne()
	assertNilF(t, err)
	assertDeepEqualE(t, row, []driver.Value{int64(0), "row-0"})
	assertEqualE(t, cur.RowNumber(), int64(1))
}

func TestExecuteUpdate(t *testing.T) {
	cur := NewCursor(newScriptConn("&2 3 42\n"))
	affected, err := cur.Execute("UPDATE t SET label = 'x'", nil)
	assertNilF(t, err)
	assertEqualE(t, affected, int64(3))
	assertEqualE(t, cur.LastRowID(), int64(42))
	assertNilE(t, cur.Description())
}

func TestFetchOnUpdateResult(t *testing.T) {
	cur := NewCursor(newScriptConn("&2 3 42\n"))
	_, err := cur.Execute("DELETE FROM t", nil)
	assertNilF(t, err)

	_, err = cur.FetchOne()
	assertErrIsE(t, err, ErrNoResultSet)
	_, err = cur.FetchMany(5)
	assertErrIsE(t, err, ErrNoResultSet)
	_, err = cur.FetchAll()
	assertErrIsE(t, err, ErrNoResultSet)

	// rowcount still reports the affected rows
	assertEqualE(t, cur.RowCount(), int64(3))
	assertTrueE(t, len(cur.Messages()) >= 1)
}

func TestFetchBeforeExecute(t *testing.T) {
	cur := NewCursor(newScriptConn())
	_, err := cur.FetchOne()
	assertErrIsE(t, err, ErrNotExecuted)
	err = cur.Scroll(0, ScrollAbsolute)
	assertErrIsE(t, err, ErrNotExecuted)
}

func TestClosedCursor(t *testing.T) {
	cur := NewCursor(newScriptConn())
	assertNilF(t, cur.Close())
	assertNilF(t, cur.Close(), "closing twice is fine")

	_, err := cur.Execute("SELECT 1", nil)
	assertErrIsE(t, err, ErrCursorClosed)
	_, err = cur.FetchOne()
	assertErrIsE(t, err, ErrCursorClosed)
}

func TestFetchOnePagesThroughResultSet(t *testing.T) {
	conn := newTableConn(250, 100)
	cur := NewCursor(conn)
	_, err := cur.Execute("SELECT * FROM t", nil)
	assertNilF(t, err)

	for i := int64(0); i < 250; i++ {
		row, err := cur.FetchOne()
		assertNilF(t, err)
		assertDeepEqualE(t, row, []driver.Value{i, fmt.Sprintf("row-%d", i)})
	}
	row, err := cur.FetchOne()
	assertNilF(t, err)
	assertNilE(t, row, "exhausted result set yields nil")

	// two extra pages after the 100 rows of the execute response
	assertDeepEqualE(t, conn.exports, []string{
		"Xexport 7 100 100",
		"Xexport 7 200 100",
	})
}

func TestFetchAllWalksLargeResultSet(t *testing.T) {
	conn := newTableConn(250000, 100)
	cur := NewCursor(conn)
	_, err := cur.Execute("SELECT * FROM big", nil)
	assertNilF(t, err)

	rows, err := cur.FetchAll()
	assertNilF(t, err)
	assertEqualF(t, len(rows), 250000)
	assertDeepEqualE(t, rows[0], []driver.Value{int64(0), "row-0"})
	assertDeepEqualE(t, rows[249999], []driver.Value{int64(249999), "row-249999"})

	// one page came with the execute response, the rest were exported
	assertEqualE(t, len(conn.exports), 2499)
	assertEqualE(t, conn.exports[0], "Xexport 7 100 100")
	assertEqualE(t, conn.exports[2498], "Xexport 7 249900 100")
}

func TestFetchMany(t *testing.T) {
	conn := newTableConn(25, 10)
	cur := NewCursor(conn)
	_, err := cur.Execute("SELECT * FROM t", nil)
	assertNilF(t, err)

	rows, err := cur.FetchMany(0)
	assertNilF(t, err)
	assertEqualE(t, len(rows), 10, "size 0 falls back to ArraySize")

	rows, err = cur.FetchMany(20)
	assertNilF(t, err)
	assertEqualE(t, len(rows), 15, "tail is shorter than requested")
	assertDeepEqualE(t, rows[14], []driver.Value{int64(24), "row-24"})

	rows, err = cur.FetchMany(5)
	assertNilF(t, err)
	assertEqualE(t, len(rows), 0)
}

func TestFetchAll(t *testing.T) {
	conn := newTableConn(42, 10)
	cur := NewCursor(conn)
	_, err := cur.Execute("SELECT * FROM t", nil)
	assertNilF(t, err)

	// skip a few first, FetchAll returns only the remainder
	for i := 0; i < 2; i++ {
		_, err = cur.FetchOne()
		assertNilF(t, err)
	}
	rows, err := cur.FetchAll()
	assertNilF(t, err)
	assertEqualF(t, len(rows), 40)
	assertDeepEqualE(t, rows[0], []driver.Value{int64(2), "row-2"})
	assertDeepEqualE(t, rows[39], []driver.Value{int64(41), "row-41"})
}

func TestRowsIterator(t *testing.T) {
	conn := newTableConn(30, 10)
	cur := NewCursor(conn)
	_, err := cur.Execute("SELECT * FROM t", nil)
	assertNilF(t, err)

	var seen int64
	for row, err := range cur.Rows() {
		assertNilF(t, err)
		assertDeepEqualE(t, row[0], seen)
		seen++
	}
	assertEqualE(t, seen, int64(30))
}

func TestNextResultSet(t *testing.T) {
	conn := newTableConn(25, 10)
	cur := NewCursor(conn)
	_, err := cur.Execute("SELECT * FROM t", nil)
	assertNilF(t, err)

	pages := []int{len(cur.window.rows)}
	for {
		more, err := cur.NextResultSet()
		assertNilF(t, err)
		if !more {
			break
		}
		pages = append(pages, len(cur.window.rows))
	}
	assertDeepEqualE(t, pages, []int{10, 10, 5})
}

func TestScroll(t *testing.T) {
	conn := newTableConn(50, 10)
	cur := NewCursor(conn)
	_, err := cur.Execute("SELECT * FROM t", nil)
	assertNilF(t, err)

	assertNilF(t, cur.Scroll(25, ScrollAbsolute))
	row, err := cur.FetchOne()
	assertNilF(t, err)
	assertDeepEqualE(t, row, []driver.Value{int64(25), "row-25"})

	// position is now 26; relative scroll backs up
	assertNilF(t, cur.Scroll(-10, ScrollRelative))
	row, err = cur.FetchOne()
	assertNilF(t, err)
	assertDeepEqualE(t, row, []driver.Value{int64(16), "row-16"})

	// scrolling to the end is allowed and the next fetch reports exhaustion
	assertNilF(t, cur.Scroll(50, ScrollAbsolute))
	row, err = cur.FetchOne()
	assertNilF(t, err)
	assertNilE(t, row)
}

func TestScrollRepagesBufferedTarget(t *testing.T) {
	conn := newTableConn(50, 10)
	cur := NewCursor(conn)
	_, err := cur.Execute("SELECT * FROM t", nil)
	assertNilF(t, err)

	// target 5 sits inside the inline first page; the buffer is still
	// discarded and re-fetched starting at the target
	assertNilF(t, cur.Scroll(5, ScrollAbsolute))
	assertDeepEqualE(t, conn.exports, []string{"Xexport 7 5 10"})
	assertEqualE(t, cur.window.offset, int64(5))

	row, err := cur.FetchOne()
	assertNilF(t, err)
	assertDeepEqualE(t, row, []driver.Value{int64(5), "row-5"})
	assertEqualE(t, len(conn.exports), 1, "fetch after scroll is served locally")
}

func TestScrollKeepsPositionOnTransportError(t *testing.T) {
	conn := newTableConn(50, 10)
	cur := NewCursor(conn)
	_, err := cur.Execute("SELECT * FROM t", nil)
	assertNilF(t, err)
	_, err = cur.FetchOne()
	assertNilF(t, err)

	conn.cmdErr = errors.New("write: broken pipe")
	err = cur.Scroll(30, ScrollAbsolute)
	assertNotNilF(t, err)
	assertEqualE(t, cur.RowNumber(), int64(1), "failed scroll leaves the position alone")
	assertEqualE(t, len(cur.Messages()), 0, "transport errors are not logged")
}

func TestScrollOutOfRange(t *testing.T) {
	conn := newTableConn(50, 10)
	cur := NewCursor(conn)
	_, err := cur.Execute("SELECT * FROM t", nil)
	assertNilF(t, err)
	_, err = cur.FetchOne()
	assertNilF(t, err)

	var mdbErr *MonetDBError
	assertErrorsAsF(t, cur.Scroll(51, ScrollAbsolute), &mdbErr)
	assertEqualE(t, mdbErr.Number, ErrCodeScrollOutOfRange)
	assertErrorsAsF(t, cur.Scroll(-2, ScrollRelative), &mdbErr)
	assertEqualE(t, mdbErr.Number, ErrCodeScrollOutOfRange)
	assertEqualE(t, cur.RowNumber(), int64(1), "failed scroll leaves the position alone")

	assertErrorsAsF(t, cur.Scroll(3, "sideways"), &mdbErr)
	assertEqualE(t, mdbErr.Number, ErrCodeUnknownScrollMode)
}

func TestExecuteClearsMessages(t *testing.T) {
	cur := NewCursor(newScriptConn("&2 1 -1\n", "&2 1 -1\n"))
	_, err := cur.Execute("DELETE FROM t", nil)
	assertNilF(t, err)
	_, err = cur.FetchOne()
	assertErrIsE(t, err, ErrNoResultSet)
	assertTrueF(t, len(cur.Messages()) > 0)

	// the log survives fetches and resets on the next execute
	_, err = cur.Execute("DELETE FROM t", nil)
	assertNilF(t, err)
	assertEmptyE(t, cur.Messages())
}

func TestServerErrorRecorded(t *testing.T) {
	cur := NewCursor(newScriptConn("!42000!syntax error in query\n"))
	_, err := cur.Execute("selct 1", nil)
	var mdbErr *MonetDBError
	assertErrorsAsF(t, err, &mdbErr)
	assertEqualE(t, mdbErr.Number, ErrCodeServerError)
	assertEqualE(t, mdbErr.SQLState, "42000")

	msgs := cur.Messages()
	assertEqualF(t, len(msgs), 1)
	assertEqualE(t, msgs[0].Severity, SeverityError)
	assertStringContainsE(t, msgs[0].Text, "syntax error")
}

func TestInfoMessagesRecorded(t *testing.T) {
	cur := NewCursor(newScriptConn("#the table is empty\n&2 0 -1\n"))
	_, err := cur.Execute("DELETE FROM t", nil)
	assertNilF(t, err)
	msgs := cur.Messages()
	assertEqualF(t, len(msgs), 1)
	assertEqualE(t, msgs[0].Severity, SeverityWarning)
	assertEqualE(t, msgs[0].Text, "the table is empty")
}

func TestExecuteBindsPositionalParams(t *testing.T) {
	conn := newScriptConn("&2 1 5\n")
	cur := NewCursor(conn)
	_, err := cur.Execute("INSERT INTO t VALUES (?, ?)", []interface{}{int64(1), "it's"})
	assertNilF(t, err)
	assertEqualE(t, conn.commands[len(conn.commands)-1],
		"sINSERT INTO t VALUES (1, 'it\\'s');")
}

func TestExecuteBindsNamedParams(t *testing.T) {
	conn := newScriptConn("&2 1 -1\n")
	cur := NewCursor(conn)
	_, err := cur.Execute("UPDATE t SET label = :label WHERE id = :id",
		map[string]interface{}{"label": "x", "id": 3})
	assertNilF(t, err)
	assertEqualE(t, conn.commands[len(conn.commands)-1],
		"sUPDATE t SET label = 'x' WHERE id = 3;")
}

func TestExecuteBindMismatch(t *testing.T) {
	cur := NewCursor(newScriptConn())
	_, err := cur.Execute("INSERT INTO t VALUES (?, ?)", []interface{}{1})
	var mdbErr *MonetDBError
	assertErrorsAsF(t, err, &mdbErr)
	assertEqualE(t, mdbErr.Number, ErrCodeBindMismatch)
	assertTrueE(t, len(cur.Messages()) > 0)
}

func TestExecuteMany(t *testing.T) {
	conn := newScriptConn("&2 1 -1\n", "&2 1 -1\n", "&2 1 -1\n")
	cur := NewCursor(conn)
	total, err := cur.ExecuteMany("INSERT INTO t VALUES (?)", [][]interface{}{
		{int64(1)}, {int64(2)}, {int64(3)},
	})
	assertNilF(t, err)
	assertEqualE(t, total, int64(3))
	assertEqualE(t, cur.RowCount(), int64(3))
	assertEqualE(t, conn.commands[0], "sINSERT INTO t VALUES (1);")
	assertEqualE(t, conn.commands[2], "sINSERT INTO t VALUES (3);")
}

func TestCursorSyncsReplySize(t *testing.T) {
	conn := newTableConn(100, 100)
	cur := NewCursor(conn)
	cur.ArraySize = 25
	_, err := cur.Execute("SELECT * FROM t", nil)
	assertNilF(t, err)
	assertEqualE(t, conn.commands[0], "Xreply_size 25")
	assertEqualE(t, conn.replySize, 25)
}
