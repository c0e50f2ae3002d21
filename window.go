package gomonetdb

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// serverConn is the connection collaborator consumed by the cursor: a
// blocking, single-outstanding-statement session that exchanges raw response
// blocks. mapiConn implements it; tests substitute scripted fakes.
type serverConn interface {
	// Execute sends a statement and returns one full response block.
	Execute(statement string) (string, error)
	// Cmd sends a control directive and returns one full response block.
	Cmd(command string) (string, error)
	// ReplySize reports the connection-level default page size.
	ReplySize() int
	// SetReplySize changes the connection-level default page size.
	SetReplySize(n int) error
}

// messageSink receives the per-statement messages produced while decoding.
type messageSink interface {
	appendMessage(severity Severity, text string)
}

// resultWindow is the in-memory slice of one statement's logical result set:
// the buffered rows, their offset within the result set, the total row count
// and the server-side query id used to page. rows always holds the logical
// rows [offset, offset+len(rows)). The buffer is replaced wholesale on each
// page fetch, never appended across pages.
type resultWindow struct {
	conn serverConn
	sink messageSink

	queryID     int   // -1 = no pageable result set
	totalRows   int64 // -1 = unknown / not applicable
	offset      int64
	rows        [][]driver.Value
	meta        *columnMetadata
	description []ColumnDescription
	lastRowID   int64 // -1 = none
}

func newResultWindow(conn serverConn, sink messageSink) *resultWindow {
	return &resultWindow{
		conn:      conn,
		sink:      sink,
		queryID:   -1,
		totalRows: -1,
		lastRowID: -1,
	}
}

// apply decodes one raw block and folds its events into the window state.
// Server errors and protocol violations are appended to the message sink
// before being returned; decoding of the block is all or nothing in the
// sense that a failing tuple aborts the remainder of the block.
func (w *resultWindow) apply(block string) error {
	events, decodeErr := decodeBlock(block)
	for _, ev := range events {
		if err := w.fold(ev); err != nil {
			w.logError(err)
			return err
		}
	}
	if decodeErr != nil {
		w.logError(decodeErr)
		return decodeErr
	}
	return nil
}

func (w *resultWindow) fold(ev protocolEvent) error {
	switch ev := ev.(type) {
	case infoEvent:
		logger.Info(ev.text)
		w.sink.appendMessage(SeverityWarning, ev.text)

	case resultSetEvent:
		w.queryID = ev.queryID
		w.totalRows = ev.totalRows
		w.offset = 0
		w.rows = nil
		w.meta = newColumnMetadata(ev.columnCount)
		w.description = nil
		w.lastRowID = -1

	case headerEvent:
		// a header can arrive without a preceding result-set line, e.g.
		// on the very first page of a session
		if w.meta == nil {
			w.meta = newColumnMetadata(len(ev.values))
		}
		w.meta.applyHeader(ev)
		w.description = w.meta.description()
		w.offset = 0
		w.lastRowID = -1

	case tupleEvent:
		row, err := w.decodeTuple(ev.fields)
		if err != nil {
			return err
		}
		w.rows = append(w.rows, row)

	case rawLineEvent:
		w.rows = append(w.rows, []driver.Value{ev.text})

	case bufferResetEvent:
		w.rows = nil

	case schemaEvent, transactionEvent:
		w.offset = 0
		w.rows = nil
		w.meta = nil
		w.description = nil
		w.totalRows = -1
		w.lastRowID = -1

	case updateEvent:
		w.offset = 0
		w.rows = nil
		w.meta = nil
		w.description = nil
		w.totalRows = ev.affectedRows
		w.lastRowID = ev.lastRowID
		w.queryID = -1
	}
	return nil
}

// decodeTuple converts the raw field slices of one tuple into a typed row.
// The field count must equal the column count of the active header.
func (w *resultWindow) decodeTuple(fields []string) ([]driver.Value, error) {
	if len(fields) != len(w.description) {
		return nil, &MonetDBError{
			Number:  ErrCodeRowHeaderMismatch,
			Message: "length of row doesn't match header",
		}
	}
	row := make([]driver.Value, len(fields))
	for i, field := range fields {
		value, err := stringToValue(strings.TrimSpace(field), w.description[i].TypeName)
		if err != nil {
			return nil, err
		}
		row[i] = value
	}
	return row, nil
}

// fetchPage asks the server to resend the rows [offset, offset+count) of the
// open result set and folds the response. Only valid while a query id is
// held. Reports whether the fetch buffered any rows.
func (w *resultWindow) fetchPage(offset, count int64) (bool, error) {
	block, err := w.conn.Cmd(fmt.Sprintf("Xexport %d %d %d", w.queryID, offset, count))
	if err != nil {
		return false, err
	}
	if err = w.apply(block); err != nil {
		return false, err
	}
	return len(w.rows) > 0, nil
}

// slideNext replaces the buffer with the page immediately following it.
func (w *resultWindow) slideNext(pageSize int64) (bool, error) {
	w.offset += int64(len(w.rows))
	end := intMax64(w.offset, intMin64(w.totalRows, w.offset+pageSize))
	return w.fetchPage(w.offset, end-w.offset)
}

// advance pages forward until the logical position falls inside the buffered
// window, or the result set ends.
func (w *resultWindow) advance(pos, pageSize int64) error {
	for pos >= w.offset+int64(len(w.rows)) && pos < w.totalRows {
		advanced, err := w.slideNext(pageSize)
		if err != nil {
			return err
		}
		if !advanced {
			err := &MonetDBError{
				Number:      ErrCodeWindowStalled,
				Message:     "server returned no rows for offset %v",
				MessageArgs: []interface{}{w.offset},
			}
			w.logError(err)
			return err
		}
	}
	return nil
}

// reposition discards the buffer and eagerly re-pages the window at an
// arbitrary offset.
func (w *resultWindow) reposition(target, pageSize int64) error {
	w.offset = target
	end := intMax64(target, intMin64(w.totalRows, target+pageSize))
	_, err := w.fetchPage(target, end-target)
	return err
}

// rowAt returns the buffered row holding the given logical position.
func (w *resultWindow) rowAt(pos int64) ([]driver.Value, bool) {
	idx := pos - w.offset
	if idx < 0 || idx >= int64(len(w.rows)) {
		return nil, false
	}
	return w.rows[idx], true
}

func (w *resultWindow) logError(err error) {
	if me, ok := err.(*MonetDBError); ok {
		w.sink.appendMessage(SeverityError, me.text())
		return
	}
	w.sink.appendMessage(SeverityError, err.Error())
}
