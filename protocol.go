package gomonetdb

import (
	"strconv"
	"strings"
)

// protocolEvent is one decoded line of a MAPI response block. The concrete
// types below are the only implementations.
type protocolEvent interface {
	protocolEvent()
}

// infoEvent is an informational message from the server.
type infoEvent struct {
	text string
}

// resultSetEvent announces an open, pageable result set.
type resultSetEvent struct {
	queryID     int
	totalRows   int64
	columnCount int
	// the rows-in-this-page count of the wire line is informational only
	// and not retained
}

// headerEvent carries one column header vector, e.g. the column names.
type headerEvent struct {
	identity string
	values   []string
}

// tupleEvent carries the raw field slices of one data tuple.
type tupleEvent struct {
	fields []string
}

// rawLineEvent is a degenerate single-column row without field slicing.
type rawLineEvent struct {
	text string
}

// bufferResetEvent tells the window to drop its buffered rows; offset and
// totals are untouched.
type bufferResetEvent struct{}

// schemaEvent reports a completed schema change; no tabular result follows.
type schemaEvent struct{}

// transactionEvent reports a transaction boundary; no tabular result follows.
type transactionEvent struct{}

// updateEvent reports a completed mutation.
type updateEvent struct {
	affectedRows int64
	lastRowID    int64
}

func (infoEvent) protocolEvent()        {}
func (resultSetEvent) protocolEvent()   {}
func (headerEvent) protocolEvent()      {}
func (tupleEvent) protocolEvent()       {}
func (rawLineEvent) protocolEvent()     {}
func (bufferResetEvent) protocolEvent() {}
func (schemaEvent) protocolEvent()      {}
func (transactionEvent) protocolEvent() {}
func (updateEvent) protocolEvent()      {}

// decodeBlock turns one raw response block into the ordered sequence of
// events it contains. Decoding stops at the first prompt line; content after
// it is not processed. A server error line terminates decoding and is
// returned as the error, together with the events preceding it. A block that
// reaches its end without a prompt or error line is a protocol violation.
func decodeBlock(block string) ([]protocolEvent, error) {
	var events []protocolEvent
	for _, line := range strings.Split(block, "\n") {
		if line == msgPrompt {
			return events, nil
		}
		switch line[0] {
		case msgInfo[0]:
			events = append(events, infoEvent{text: line[1:]})
		case msgError[0]:
			return events, newServerError(line[1:])
		case '&':
			ev, err := decodeQueryLine(line)
			if err != nil {
				return events, err
			}
			events = append(events, ev)
		case msgHeader[0]:
			ev, err := decodeHeaderLine(line)
			if err != nil {
				return events, err
			}
			events = append(events, ev)
		case msgTuple[0]:
			events = append(events, tupleEvent{fields: sliceTupleLine(line)})
		case msgTupleNoSlice[0]:
			if line == msgOK {
				continue
			}
			events = append(events, rawLineEvent{text: line[1:]})
		default:
			return events, &MonetDBError{
				Number:      ErrCodeUnknownProtocolLine,
				Message:     "unknown protocol line: %.40v",
				MessageArgs: []interface{}{line},
			}
		}
	}
	return events, &MonetDBError{
		Number:      ErrCodeUnknownState,
		Message:     "unknown state, block not terminated: %.40v",
		MessageArgs: []interface{}{block},
	}
}

// decodeQueryLine decodes the &-family lines: result-set header, update
// result, schema change, transaction boundary and continuation block.
func decodeQueryLine(line string) (protocolEvent, error) {
	if len(line) < 2 {
		return nil, malformedLine(line)
	}
	switch line[:2] {
	case msgQTable:
		fields := strings.Fields(line[2:])
		if len(fields) < 4 {
			return nil, malformedLine(line)
		}
		queryID, err1 := strconv.Atoi(fields[0])
		totalRows, err2 := strconv.ParseInt(fields[1], 10, 64)
		columnCount, err3 := strconv.Atoi(fields[2])
		if err1 != nil || err2 != nil || err3 != nil {
			return nil, malformedLine(line)
		}
		return resultSetEvent{queryID: queryID, totalRows: totalRows, columnCount: columnCount}, nil
	case msgQUpdate:
		fields := strings.Fields(line[2:])
		if len(fields) < 2 {
			return nil, malformedLine(line)
		}
		affected, err1 := strconv.ParseInt(fields[0], 10, 64)
		lastRowID, err2 := strconv.ParseInt(fields[1], 10, 64)
		if err1 != nil || err2 != nil {
			return nil, malformedLine(line)
		}
		return updateEvent{affectedRows: affected, lastRowID: lastRowID}, nil
	case msgQSchema:
		return schemaEvent{}, nil
	case msgQTrans:
		return transactionEvent{}, nil
	case msgQBlock:
		return bufferResetEvent{}, nil
	}
	return nil, &MonetDBError{
		Number:      ErrCodeUnknownProtocolLine,
		Message:     "unknown protocol line: %.40v",
		MessageArgs: []interface{}{line},
	}
}

// decodeHeaderLine decodes "%values # identity". Everything after the last
// '#' names the header vector; the values are comma separated.
func decodeHeaderLine(line string) (protocolEvent, error) {
	sep := strings.LastIndexByte(line, '#')
	if sep < 0 {
		return nil, malformedLine(line)
	}
	values := strings.Split(line[1:sep], ",")
	for i, v := range values {
		values[i] = strings.TrimSpace(v)
	}
	return headerEvent{
		identity: strings.TrimSpace(line[sep+1:]),
		values:   values,
	}, nil
}

// sliceTupleLine strips the enclosing brackets of a data tuple and splits the
// fields on the comma-tab separator. Field text is left untrimmed; the tuple
// decoder trims per field before conversion.
func sliceTupleLine(line string) []string {
	body := line
	if len(body) > 0 && body[0] == '[' {
		body = body[1:]
	}
	if len(body) > 0 && body[len(body)-1] == ']' {
		body = body[:len(body)-1]
	}
	return strings.Split(body, ",\t")
}

func malformedLine(line string) *MonetDBError {
	return &MonetDBError{
		Number:      ErrCodeMalformedLine,
		Message:     "failed to parse protocol line: %.40v",
		MessageArgs: []interface{}{line},
	}
}
