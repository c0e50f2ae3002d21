package gomonetdb

import (
	"fmt"
	"strconv"
	"strings"
)

// scriptConn replays canned response blocks in order and records every
// command sent on the session, control commands included.
type scriptConn struct {
	replies   []string
	commands  []string
	replySize int
}

func newScriptConn(replies ...string) *scriptConn {
	return &scriptConn{replies: replies, replySize: defaultReplySize}
}

func (sc *scriptConn) Execute(statement string) (string, error) {
	return sc.next("s" + statement + ";")
}

func (sc *scriptConn) Cmd(command string) (string, error) {
	return sc.next(command)
}

func (sc *scriptConn) next(command string) (string, error) {
	sc.commands = append(sc.commands, command)
	if len(sc.replies) == 0 {
		return "", fmt.Errorf("no scripted reply for %q", command)
	}
	reply := sc.replies[0]
	sc.replies = sc.replies[1:]
	return reply, nil
}

func (sc *scriptConn) ReplySize() int { return sc.replySize }

func (sc *scriptConn) SetReplySize(n int) error {
	sc.commands = append(sc.commands, fmt.Sprintf("Xreply_size %d", n))
	sc.replySize = n
	return nil
}

// tableConn simulates a server holding one two-column table (an int id and a
// varchar label "row-<id>"). Execute opens a result set and returns its first
// page; Xexport commands page through the rest, exactly replySize rows or
// the requested amount at a time.
type tableConn struct {
	totalRows int64
	queryID   int
	replySize int
	commands  []string
	exports   []string
	cmdErr    error
}

func newTableConn(totalRows int64, replySize int) *tableConn {
	return &tableConn{totalRows: totalRows, queryID: 7, replySize: replySize}
}

func (tc *tableConn) Execute(statement string) (string, error) {
	tc.commands = append(tc.commands, "s"+statement+";")
	page := int64(tc.replySize)
	if page > tc.totalRows {
		page = tc.totalRows
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "&1 %d %d 2 %d\n", tc.queryID, tc.totalRows, page)
	sb.WriteString("% sys.t,\tsys.t # table_name\n")
	sb.WriteString("% id,\tlabel # name\n")
	sb.WriteString("% int,\tvarchar # type\n")
	sb.WriteString("% 4 0,\t12 0 # typesizes\n")
	tc.writeTuples(&sb, 0, page)
	return sb.String(), nil
}

func (tc *tableConn) Cmd(command string) (string, error) {
	tc.commands = append(tc.commands, command)
	if tc.cmdErr != nil {
		return "", tc.cmdErr
	}
	if !strings.HasPrefix(command, "Xexport ") {
		return "", fmt.Errorf("unexpected command %q", command)
	}
	tc.exports = append(tc.exports, command)
	fields := strings.Fields(command)
	if len(fields) != 4 {
		return "", fmt.Errorf("malformed export %q", command)
	}
	offset, _ := strconv.ParseInt(fields[2], 10, 64)
	amount, _ := strconv.ParseInt(fields[3], 10, 64)
	end := offset + amount
	if end > tc.totalRows {
		end = tc.totalRows
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "&6 %d %d %d\n", tc.queryID, offset, end-offset)
	tc.writeTuples(&sb, offset, end)
	return sb.String(), nil
}

func (tc *tableConn) writeTuples(sb *strings.Builder, from, to int64) {
	for i := from; i < to; i++ {
		fmt.Fprintf(sb, "[ %d,\t\"row-%d\"\t]\n", i, i)
	}
}

func (tc *tableConn) ReplySize() int { return tc.replySize }

func (tc *tableConn) SetReplySize(n int) error {
	tc.commands = append(tc.commands, fmt.Sprintf("Xreply_size %d", n))
	tc.replySize = n
	return nil
}

func (sc *scriptConn) Close() error { return nil }

func (tc *tableConn) Close() error { return nil }

// recordingSink collects messages outside of a cursor, for window tests.
type recordingSink struct {
	messages []Message
}

func (rs *recordingSink) appendMessage(severity Severity, text string) {
	rs.messages = append(rs.messages, Message{Severity: severity, Text: text})
}
