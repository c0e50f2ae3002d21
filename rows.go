package gomonetdb

import (
	"database/sql/driver"
	"io"
	"reflect"
	"strings"
)

// monetdbRows adapts a cursor's result set to driver.Rows. Rows are served
// from the cursor's window, so iterating a large result set keeps only one
// page in memory.
type monetdbRows struct {
	cursor *Cursor
}

func (rows *monetdbRows) Columns() []string {
	desc := rows.cursor.Description()
	names := make([]string, len(desc))
	for i, col := range desc {
		names[i] = col.Name
	}
	return names
}

func (rows *monetdbRows) Next(dest []driver.Value) error {
	row, err := rows.cursor.FetchOne()
	if err != nil {
		return err
	}
	if row == nil {
		return io.EOF
	}
	copy(dest, row)
	return nil
}

func (rows *monetdbRows) Close() error {
	return rows.cursor.Close()
}

// ColumnTypeDatabaseTypeName returns the MonetDB type name in upper case.
func (rows *monetdbRows) ColumnTypeDatabaseTypeName(index int) string {
	return strings.ToUpper(rows.cursor.Description()[index].TypeName)
}

// ColumnTypeLength returns the internal display length for variable-size
// columns, zero when the server did not report one.
func (rows *monetdbRows) ColumnTypeLength(index int) (int64, bool) {
	col := rows.cursor.Description()[index]
	if col.InternalSize <= 0 {
		return 0, false
	}
	return int64(col.InternalSize), true
}

// ColumnTypePrecisionScale is meaningful for decimal columns only.
func (rows *monetdbRows) ColumnTypePrecisionScale(index int) (int64, int64, bool) {
	col := rows.cursor.Description()[index]
	if col.Precision == 0 && col.Scale == 0 {
		return 0, 0, false
	}
	return int64(col.Precision), int64(col.Scale), true
}

// ColumnTypeNullable is never known: the response headers do not carry
// nullability.
func (rows *monetdbRows) ColumnTypeNullable(index int) (bool, bool) {
	return false, false
}

func (rows *monetdbRows) ColumnTypeScanType(index int) reflect.Type {
	return monetdbTypeToGo(rows.cursor.Description()[index].TypeName)
}

// HasNextResultSet reports whether unread pages of the result set remain.
// MAPI has no multi-statement responses, so the "next result set" is the
// next window of the same one.
func (rows *monetdbRows) HasNextResultSet() bool {
	c := rows.cursor
	return c.window.offset+int64(len(c.window.rows)) < c.rowcount
}

func (rows *monetdbRows) NextResultSet() error {
	ok, err := rows.cursor.NextResultSet()
	if err != nil {
		return err
	}
	if !ok {
		return io.EOF
	}
	return nil
}
