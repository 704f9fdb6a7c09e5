package odbc

import (
	"fmt"
	"strings"

	"github.com/go-pkgz/lgr"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/semihalev/go-odbc/cli"
)

// Session is one connection to a data source plus the views opened on it.
// A session is not safe for concurrent use.
type Session struct {
	id     string
	api    cli.API
	logger lgr.L
	log    *sqlLog

	env cli.Handle
	dbc cli.Handle

	autocommit    bool
	inTransaction bool
	truncate      bool
	forwardOnly   bool

	lastError string
	views     map[string]*Cursor
	closed    bool
}

// Open connects to target. A target containing '=' is a driver connection
// string; otherwise it names a configured data source.
func Open(cfg Config, target, user, password string) (*Session, error) {
	if err := cfg.validate(); err != nil {
		return nil, NewError(ErrConnect, err.Error())
	}

	s := &Session{
		id:          uuid.NewString(),
		api:         cfg.API,
		logger:      cfg.logger(),
		autocommit:  !cfg.ManualCommit,
		truncate:    cfg.Truncate,
		forwardOnly: cfg.ForwardOnly,
		views:       map[string]*Cursor{},
	}

	if cfg.LogFile != "" {
		l, err := openSQLLog(cfg.LogFile)
		if err != nil {
			return nil, s.failf(ErrLog, "Unable to open logfile: %v", err)
		}
		s.log = l
	}

	if err := s.connect(target, user, password); err != nil {
		s.teardown()
		_ = s.log.Close()
		return nil, err
	}
	s.logger.Logf("[INFO] session %s connected", s.id)
	return s, nil
}

func (s *Session) connect(target, user, password string) error {
	env, ret := s.api.AllocEnv()
	if !cli.IsSuccess(ret) {
		return s.failf(ErrConnect, "SQLAllocEnv: %s", unknownError)
	}
	s.env = env

	dbc, ret := s.api.AllocConnect(env)
	if !cli.IsSuccess(ret) {
		return s.fail(ErrConnect, "SQLAllocConnect: ", env, cli.SQL_HANDLE_ENV)
	}
	s.dbc = dbc

	// the driver never commits on its own; the session decides
	if ret := s.api.SetConnectAttr(dbc, cli.SQL_ATTR_AUTOCOMMIT, cli.SQL_AUTOCOMMIT_OFF); ret != cli.SQL_SUCCESS {
		return s.fail(ErrConnect, "SQLSetConnectAttr: ", dbc, cli.SQL_HANDLE_DBC)
	}

	if strings.Contains(target, "=") {
		if _, ret := s.api.DriverConnect(dbc, target); !cli.IsSuccess(ret) {
			return s.fail(ErrConnect, "SQLDriverConnect: ", dbc, cli.SQL_HANDLE_DBC)
		}
		return nil
	}
	if ret := s.api.Connect(dbc, target, user, password); !cli.IsSuccess(ret) {
		return s.fail(ErrConnect, "SQLConnect: ", dbc, cli.SQL_HANDLE_DBC)
	}
	return nil
}

// ID returns the session identifier used in log lines.
func (s *Session) ID() string { return s.id }

// Error returns the last diagnostic message recorded by the session.
func (s *Session) Error() string { return s.lastError }

// OpenView runs query and opens a cursor named name on its result, positioned
// on the first row. A view already open under that name is closed first.
func (s *Session) OpenView(name, query string, args ...Value) (*Cursor, error) {
	if prev, ok := s.views[strings.ToLower(name)]; ok {
		if err := prev.Close(); err != nil {
			s.logger.Logf("[WARN] session %s: close of view %s failed, %v", s.id, name, err)
		}
	}

	st, err := newStatement(s)
	if err != nil {
		return nil, err
	}

	cur, err := s.openCursor(st, name, query, args)
	if err != nil {
		_ = st.close()
		return nil, err
	}
	s.views[strings.ToLower(name)] = cur
	s.logger.Logf("[DEBUG] session %s: view %s opened, forward only %v", s.id, name, cur.forwardOnly)
	return cur, nil
}

func (s *Session) openCursor(st *statement, name, query string, args []Value) (*Cursor, error) {
	rejected, err := s.requestStaticCursor(st)
	if err != nil {
		return nil, err
	}
	cur := &Cursor{name: name, sess: s, stmt: st, forwardOnly: s.forwardOnly || rejected}

	if ret := s.api.SetStmtOption(st.h, cli.SQL_ROWSET_SIZE, 1); !cli.IsSuccess(ret) {
		return nil, s.fail(ErrStatement, "SQLSetStmtOption: ", st.h, cli.SQL_HANDLE_STMT)
	}
	if err := st.prepare(query); err != nil {
		return nil, err
	}
	if err := st.execute(args); err != nil {
		return nil, err
	}

	cols, err := st.bindColumns(cur)
	if err != nil {
		return nil, err
	}
	cur.columns = cols

	if err := cur.loadRow(1); err != nil {
		return nil, err
	}
	return cur, nil
}

// requestStaticCursor asks for a scrollable static cursor. It reports true
// when the driver refused and the view must run forward-only. A cursor
// substitution other than the expected ones fails the open.
func (s *Session) requestStaticCursor(st *statement) (rejected bool, err error) {
	ret := s.api.SetStmtOption(st.h, cli.SQL_CURSOR_TYPE, cli.SQL_CURSOR_STATIC)
	switch ret {
	case cli.SQL_SUCCESS:
		return false, nil
	case cli.SQL_SUCCESS_WITH_INFO:
		rec, lret := s.api.Error(s.env, s.dbc, st.h)
		if lret != cli.SQL_SUCCESS || rec.State == "IM001" || rec.State == "01S02" {
			return true, nil
		}
		return false, s.failf(ErrStatement, "SQLSetStmtOption: %s: %s", rec.State, rec.Text)
	case cli.SQL_ERROR:
		return true, nil
	}
	return false, s.fail(ErrStatement, "SQLSetStmtOption: ", st.h, cli.SQL_HANDLE_STMT)
}

// RunQuery executes a statement that returns no view. Outside a manual
// transaction it is committed when the session runs in autocommit mode.
func (s *Session) RunQuery(query string, args ...Value) error {
	st, err := newStatement(s)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(); err != nil {
			s.logger.Logf("[WARN] session %s: %v", s.id, err)
		}
	}()

	if err := st.prepare(query); err != nil {
		return err
	}
	if err := st.execute(args); err != nil {
		return err
	}

	if s.autocommit && !s.inTransaction {
		if err := s.Commit(); err != nil {
			s.logger.Logf("[WARN] session %s: commit after statement failed, %v", s.id, err)
		}
	}
	return nil
}

// Close closes every view, disconnects and frees the handles.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs error
	for _, v := range s.views {
		if err := v.Close(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if err := s.teardown(); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := s.log.Close(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("close log: %w", err))
	}
	s.logger.Logf("[INFO] session %s closed", s.id)
	return errs
}

// teardown releases the connection and environment handles that were
// allocated.
func (s *Session) teardown() error {
	var errs error
	if s.dbc != cli.NullHandle {
		s.api.Disconnect(s.dbc)
		if ret := s.api.FreeConnect(s.dbc); ret == cli.SQL_ERROR {
			errs = multierror.Append(errs, fmt.Errorf("SQLFreeConnect: %s", ret))
		}
		s.dbc = cli.NullHandle
	}
	if s.env != cli.NullHandle {
		if ret := s.api.FreeEnv(s.env); ret == cli.SQL_ERROR {
			errs = multierror.Append(errs, fmt.Errorf("SQLFreeEnv: %s", ret))
		}
		s.env = cli.NullHandle
	}
	return errs
}

func (s *Session) detach(c *Cursor) {
	key := strings.ToLower(c.name)
	if s.views[key] == c {
		delete(s.views, key)
	}
}

// record stores msg as the last diagnostic and mirrors it to the session log.
func (s *Session) record(msg string) {
	s.lastError = msg
	s.log.Printf("*** Error: %s\n", msg)
}

// fail collects the diagnostics of h behind prefix and returns them as an
// error of type typ.
func (s *Session) fail(typ ErrorType, prefix string, h cli.Handle, kind cli.HandleType) error {
	msg := diagCollector{src: s.api, env: s.env, dbc: s.dbc}.collect(prefix, h, kind)
	s.record(msg)
	return NewError(typ, msg)
}

func (s *Session) failf(typ ErrorType, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if len(msg) > diagCapacity-1 {
		msg = msg[:diagCapacity-1]
	}
	s.record(msg)
	return NewError(typ, msg)
}
