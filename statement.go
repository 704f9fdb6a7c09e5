package odbc

import (
	"sync/atomic"

	"github.com/semihalev/go-odbc/cli"
)

// statement wraps one statement handle for a single prepare/execute cycle.
type statement struct {
	sess   *Session
	h      cli.Handle
	query  string
	closed int32
}

// newStatement allocates a statement handle on the session connection.
func newStatement(s *Session) (*statement, error) {
	h, ret := s.api.AllocStmt(s.dbc)
	if !cli.IsSuccess(ret) {
		return nil, s.fail(ErrStatement, "SQLAllocStmt: ", s.dbc, cli.SQL_HANDLE_DBC)
	}
	return &statement{sess: s, h: h}, nil
}

// prepare records the query in the session log and prepares it.
func (st *statement) prepare(query string) error {
	st.query = query
	st.sess.log.Printf("%s\n", query)
	if ret := st.sess.api.Prepare(st.h, query); !cli.IsSuccess(ret) {
		return st.sess.fail(ErrStatement, "SQLPrepare: ", st.h, cli.SQL_HANDLE_STMT)
	}
	return nil
}

// execute binds inputs, runs the statement and answers at-execution
// requests. Parameter bindings are reset and staging memory released on
// every path.
func (st *statement) execute(inputs []Value) error {
	params, err := st.bindParameters(inputs)
	if params != nil {
		defer st.releaseParameters(params)
	}
	if err != nil {
		return err
	}

	ret := st.sess.api.Execute(st.h)
	switch {
	case ret == cli.SQL_NEED_DATA:
		return newDeferredWriter(st, params).drain()
	case ret == cli.SQL_NO_DATA, cli.IsSuccess(ret):
		return nil
	}
	return st.sess.fail(ErrExecute, "SQLExecute: ", st.h, cli.SQL_HANDLE_STMT)
}

// releaseParameters resets the driver bindings before the bound memory goes
// back to the pool.
func (st *statement) releaseParameters(params *paramSet) {
	st.sess.api.FreeStmt(st.h, cli.SQL_RESET_PARAMS)
	params.release()
}

// close drops the handle. It is safe to call more than once.
func (st *statement) close() error {
	if !atomic.CompareAndSwapInt32(&st.closed, 0, 1) {
		return nil
	}
	if ret := st.sess.api.FreeStmt(st.h, cli.SQL_DROP); ret == cli.SQL_ERROR {
		return st.sess.fail(ErrStatement, "SQLFreeStmt: ", st.h, cli.SQL_HANDLE_STMT)
	}
	return nil
}
