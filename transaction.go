package gomonetdb

type txCommand int

const (
	commit txCommand = iota
	rollback
)

func (cmd txCommand) string() (string, error) {
	switch cmd {
	case commit:
		return "COMMIT", nil
	case rollback:
		return "ROLLBACK", nil
	}
	return "", ErrUnknownTxCommand
}

// monetdbTx represents an open transaction on a connection.
type monetdbTx struct {
	conn *Conn
}

// Commit commits the current transaction.
func (tx *monetdbTx) Commit() error {
	return tx.execTxCommand(commit)
}

// Rollback aborts the current transaction.
func (tx *monetdbTx) Rollback() error {
	return tx.execTxCommand(rollback)
}

func (tx *monetdbTx) execTxCommand(command txCommand) error {
	if tx.conn == nil || tx.conn.closed {
		return ErrInvalidConn
	}
	query, err := command.string()
	if err != nil {
		return err
	}
	if _, err = tx.conn.exec(query); err != nil {
		return err
	}
	err = tx.conn.setAutocommit(true)
	tx.conn = nil
	return err
}
