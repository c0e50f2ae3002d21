package gomonetdb

// Line-initial markers of the MAPI text protocol. Every line of a response
// block starts with one of these; the marker selects the line's meaning.
const (
	msgPrompt       = ""   // empty line terminates a response block
	msgInfo         = "#"  // informational message
	msgError        = "!"  // server-reported error
	msgQTable       = "&1" // result set opened: id, total rows, columns, rows in page
	msgQUpdate      = "&2" // update completed: affected rows, last insert id
	msgQSchema      = "&3" // schema changed
	msgQTrans       = "&4" // transaction boundary
	msgQBlock       = "&6" // continuation block of an open result set
	msgHeader       = "%"  // column header: values # identity
	msgTuple        = "["  // data tuple, fields separated by comma-tab
	msgTupleNoSlice = "="  // raw tuple without field slicing
	msgRedirect     = "^"  // login redirect
	msgOK           = "=OK"
)

// Column header identities recognized by the metadata builder. Anything else
// is ignored, not an error.
const (
	headerName      = "name"
	headerType      = "type"
	headerTypeSizes = "typesizes"
)

const (
	mapiLanguageSQL = "sql"

	// payload limit of one framed MAPI block
	mapiMaxPayload = 8190

	mapiProtocolV9 = "9"

	maxRedirects = 10
)

// Modes accepted by Cursor.Scroll.
const (
	ScrollRelative = "relative"
	ScrollAbsolute = "absolute"
)

const (
	defaultPort      = 50000
	defaultReplySize = 100
)
