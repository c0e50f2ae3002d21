// Package gomonetdb is a Go MonetDB Driver for Go's database/sql
package gomonetdb

import (
	"fmt"
)

// MonetDBError is an error type including various MonetDB specific information.
type MonetDBError struct {
	Number      int
	SQLState    string
	QueryID     int
	Message     string
	MessageArgs []interface{}
}

func (me *MonetDBError) Error() string {
	message := me.Message
	if len(me.MessageArgs) > 0 {
		message = fmt.Sprintf(me.Message, me.MessageArgs...)
	}
	if me.SQLState != "" {
		return fmt.Sprintf("%06d (%s): %s", me.Number, me.SQLState, message)
	}
	return fmt.Sprintf("%06d: %s", me.Number, message)
}

// text returns the formatted message without the code prefix, as recorded in
// the cursor's message log.
func (me *MonetDBError) text() string {
	if len(me.MessageArgs) > 0 {
		return fmt.Sprintf(me.Message, me.MessageArgs...)
	}
	return me.Message
}

const (
	// connection

	// ErrCodeInvalidConn is an error code for the case where a connection is not available or in invalid state.
	ErrCodeInvalidConn = 260000
	// ErrCodeLoginFailed is an error code for a rejected MAPI login.
	ErrCodeLoginFailed = 260001
	// ErrCodeRedirectLimit is an error code for the case where the server keeps redirecting the login.
	ErrCodeRedirectLimit = 260002
	// ErrCodeUnsupportedProtocol is an error code for a challenge with an unsupported MAPI protocol version.
	ErrCodeUnsupportedProtocol = 260003
	// ErrCodeNoUsableHash is an error code for a challenge offering no digest algorithm this driver implements.
	ErrCodeNoUsableHash = 260004
	// ErrCodeInvalidRedirect is an error code for an unparsable login redirect.
	ErrCodeInvalidRedirect = 260005

	// configuration

	// ErrCodeProfileNotFound is an error code for the case where connections.toml lacks the requested profile.
	ErrCodeProfileNotFound = 265000
	// ErrCodeTomlParsingFailed is an error code for an invalid connections.toml entry.
	ErrCodeTomlParsingFailed = 265001

	// cursor usage

	// ErrCodeCursorClosed is an error code for an operation on a closed cursor.
	ErrCodeCursorClosed = 270000
	// ErrCodeNotExecuted is an error code for a fetch before any execute.
	ErrCodeNotExecuted = 270001
	// ErrCodeNoResultSet is an error code for a fetch on a statement without a tabular result.
	ErrCodeNoResultSet = 270002
	// ErrCodeUnsupportedParams is an error code for a parameter shape the binder does not accept.
	ErrCodeUnsupportedParams = 270003
	// ErrCodeUnknownScrollMode is an error code for a scroll mode other than relative/absolute.
	ErrCodeUnknownScrollMode = 270004
	// ErrCodeScrollOutOfRange is an error code for a scroll target beyond the result set.
	ErrCodeScrollOutOfRange = 270005
	// ErrCodeBindMismatch is an error code for a placeholder/parameter count mismatch.
	ErrCodeBindMismatch = 270006
	// ErrCodeUnsupportedType is an error code for a column type the converter has no rule for.
	ErrCodeUnsupportedType = 270007
	// ErrCodeUnknownTxCommand is an error code for an unrecognized transaction command.
	ErrCodeUnknownTxCommand = 270008

	// protocol decoding

	// ErrCodeUnknownProtocolLine is an error code for an unrecognized line marker in a response block.
	ErrCodeUnknownProtocolLine = 280000
	// ErrCodeUnknownState is an error code for a block without a terminating prompt or error line.
	ErrCodeUnknownState = 280001
	// ErrCodeRowHeaderMismatch is an error code for a tuple whose field count differs from the header.
	ErrCodeRowHeaderMismatch = 280002
	// ErrCodeMalformedLine is an error code for a recognized line that fails to parse.
	ErrCodeMalformedLine = 280003
	// ErrCodeWindowStalled is an error code for a page fetch that did not produce the requested rows.
	ErrCodeWindowStalled = 280004

	// server

	// ErrCodeServerError is an error code wrapping an error message reported by the server.
	ErrCodeServerError = 290000
)

var (
	// preformatted errors

	// ErrInvalidConn is returned if a connection is not available or in invalid state.
	ErrInvalidConn = &MonetDBError{
		Number:  ErrCodeInvalidConn,
		Message: "invalid connection",
	}
	// ErrCursorClosed is returned for any operation on a closed cursor.
	ErrCursorClosed = &MonetDBError{
		Number:  ErrCodeCursorClosed,
		Message: "cursor is closed",
	}
	// ErrNotExecuted is returned for a fetch issued before any execute.
	ErrNotExecuted = &MonetDBError{
		Number:  ErrCodeNotExecuted,
		Message: "execute a statement first",
	}
	// ErrNoResultSet is returned for a fetch on a statement that produced no result set.
	ErrNoResultSet = &MonetDBError{
		Number:  ErrCodeNoResultSet,
		Message: "statement did not result in a result set",
	}
	// ErrUnknownTxCommand is returned for an unrecognized transaction command.
	ErrUnknownTxCommand = &MonetDBError{
		Number:  ErrCodeUnknownTxCommand,
		Message: "unknown transaction command",
	}
)

// newServerError wraps an error line reported by the server. The message text
// is kept verbatim; a leading 5-character SQLSTATE is split out when present,
// as in "42000!syntax error".
func newServerError(text string) *MonetDBError {
	e := &MonetDBError{
		Number:  ErrCodeServerError,
		Message: text,
	}
	if len(text) > 6 && text[5] == '!' && isSQLState(text[:5]) {
		e.SQLState = text[:5]
	}
	return e
}

func isSQLState(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}
