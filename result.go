package gomonetdb

// monetdbResult is the outcome of an update statement.
type monetdbResult struct {
	affectedRows int64
	insertID     int64
}

// LastInsertId returns the row id assigned to the last inserted row, -1 when
// the statement inserted none.
func (res *monetdbResult) LastInsertId() (int64, error) {
	return res.insertID, nil
}

// RowsAffected returns the number of rows the statement changed.
func (res *monetdbResult) RowsAffected() (int64, error) {
	return res.affectedRows, nil
}
