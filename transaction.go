package odbc

import (
	"github.com/semihalev/go-odbc/cli"
)

// Transact starts a manual transaction. RunQuery stops committing until the
// next Commit or Rollback.
func (s *Session) Transact() error {
	s.inTransaction = true
	return nil
}

// Commit commits the connection's work and ends a manual transaction.
func (s *Session) Commit() error {
	return s.endTran(cli.SQL_COMMIT)
}

// Rollback rolls back the connection's work and ends a manual transaction.
func (s *Session) Rollback() error {
	return s.endTran(cli.SQL_ROLLBACK)
}

func (s *Session) endTran(completion int16) error {
	if ret := s.api.EndTran(cli.SQL_HANDLE_DBC, s.dbc, completion); ret == cli.SQL_ERROR {
		return s.fail(ErrTransaction, "SQLEndTran: ", s.dbc, cli.SQL_HANDLE_DBC)
	}
	s.inTransaction = false
	return nil
}

// InTransaction reports whether a manual transaction is open.
func (s *Session) InTransaction() bool { return s.inTransaction }

// Autocommit reports whether RunQuery commits each statement.
func (s *Session) Autocommit() bool { return s.autocommit }
