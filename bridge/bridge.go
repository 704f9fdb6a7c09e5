// Package bridge emulates the call-level interface in process on top of
// database/sql. It lets the adapter run against sqlite, mysql and postgres
// without an ODBC driver manager, and backs the adapter's integration tests.
//
// Result sets are read completely at execute time and kept as a static
// snapshot, so every cursor the bridge hands out is scrollable.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-pkgz/lgr"
	"github.com/go-sql-driver/mysql"
	"github.com/hashicorp/go-multierror"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"

	"github.com/semihalev/go-odbc/cli"
)

// Source is a named data source: a database/sql driver and its DSN.
type Source struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// ParamDescriber supplies parameter descriptions the database/sql drivers
// cannot report. It returns false when it has nothing for the position.
type ParamDescriber func(query string, param uint16) (cli.ParamDesc, bool)

// Option configures a Bridge.
type Option func(b *Bridge)

// WithSource registers a data source for Connect and DSN= connection strings.
func WithSource(name string, src Source) Option {
	return func(b *Bridge) { b.sources[strings.ToLower(name)] = src }
}

// WithScrollable controls whether static cursors are granted. When false the
// cursor type option is refused and only forward fetches are allowed.
func WithScrollable(scrollable bool) Option {
	return func(b *Bridge) { b.scrollable = scrollable }
}

// WithUnknownLength makes GetData report SQL_NO_TOTAL instead of the
// remaining length when a value does not fit the buffer.
func WithUnknownLength(unknown bool) Option {
	return func(b *Bridge) { b.unknownLength = unknown }
}

// WithParamDescriber sets the source of parameter descriptions.
func WithParamDescriber(fn ParamDescriber) Option {
	return func(b *Bridge) { b.describe = fn }
}

// WithLogger sets the logger for connection events.
func WithLogger(l lgr.L) Option {
	return func(b *Bridge) { b.logger = l }
}

// Bridge implements cli.API over database/sql. It is safe for concurrent use
// by independent handles.
type Bridge struct {
	mu     sync.Mutex
	nextID cli.Handle
	envs   map[cli.Handle]struct{}
	conns  map[cli.Handle]*conn
	stmts  map[cli.Handle]*stmt
	diags  map[cli.Handle][]cli.DiagRecord

	sources       map[string]Source
	scrollable    bool
	unknownLength bool
	describe      ParamDescriber
	logger        lgr.L
}

// conn is one connection handle. It owns a dedicated database connection so
// transactions and session state stay on it.
type conn struct {
	env        cli.Handle
	driver     string
	db         *sqlx.DB
	c          *sqlx.Conn
	tx         *sqlx.Tx
	autocommit bool
}

// New makes a bridge.
func New(opts ...Option) *Bridge {
	b := &Bridge{
		envs:       map[cli.Handle]struct{}{},
		conns:      map[cli.Handle]*conn{},
		stmts:      map[cli.Handle]*stmt{},
		diags:      map[cli.Handle][]cli.DiagRecord{},
		sources:    map[string]Source{},
		scrollable: true,
		logger:     lgr.NoOp,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bridge) handle() cli.Handle {
	b.nextID++
	return b.nextID
}

// reset clears the diagnostics of h; every call starts with a clean list.
func (b *Bridge) reset(h cli.Handle) {
	delete(b.diags, h)
}

func (b *Bridge) post(h cli.Handle, state, text string) {
	b.diags[h] = append(b.diags[h], cli.DiagRecord{State: state, Text: text})
}

// postErr records err on h and returns SQL_ERROR.
func (b *Bridge) postErr(h cli.Handle, err error) cli.Return {
	b.diags[h] = append(b.diags[h], diagOf(err))
	return cli.SQL_ERROR
}

// diagOf maps a driver error to a diagnostic record.
func diagOf(err error) cli.DiagRecord {
	var myErr *mysql.MySQLError
	var pqErr *pq.Error
	var liteErr *sqlite.Error
	switch {
	case errors.As(err, &myErr):
		state := string(myErr.SQLState[:])
		if strings.Trim(state, "\x00") == "" {
			state = "HY000"
		}
		return cli.DiagRecord{State: state, Native: int32(myErr.Number), Text: myErr.Message}
	case errors.As(err, &pqErr):
		return cli.DiagRecord{State: string(pqErr.Code), Text: pqErr.Message}
	case errors.As(err, &liteErr):
		return cli.DiagRecord{State: "HY000", Native: int32(liteErr.Code()), Text: liteErr.Error()}
	}
	return cli.DiagRecord{State: "HY000", Text: err.Error()}
}

func (b *Bridge) AllocEnv() (cli.Handle, cli.Return) {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := b.handle()
	b.envs[h] = struct{}{}
	return h, cli.SQL_SUCCESS
}

func (b *Bridge) FreeEnv(env cli.Handle) cli.Return {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.envs[env]; !ok {
		return cli.SQL_INVALID_HANDLE
	}
	b.reset(env)
	for _, c := range b.conns {
		if c.env == env {
			b.post(env, "HY010", "Function sequence error: connections still allocated")
			return cli.SQL_ERROR
		}
	}
	delete(b.envs, env)
	return cli.SQL_SUCCESS
}

func (b *Bridge) AllocConnect(env cli.Handle) (cli.Handle, cli.Return) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.envs[env]; !ok {
		return cli.NullHandle, cli.SQL_INVALID_HANDLE
	}
	b.reset(env)
	h := b.handle()
	b.conns[h] = &conn{env: env, autocommit: true}
	return h, cli.SQL_SUCCESS
}

func (b *Bridge) FreeConnect(dbc cli.Handle) cli.Return {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.conns[dbc]
	if !ok {
		return cli.SQL_INVALID_HANDLE
	}
	b.reset(dbc)
	if c.db != nil {
		b.post(dbc, "HY010", "Function sequence error: still connected")
		return cli.SQL_ERROR
	}
	delete(b.conns, dbc)
	return cli.SQL_SUCCESS
}

func (b *Bridge) SetConnectAttr(dbc cli.Handle, attr int32, value uintptr) cli.Return {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.conns[dbc]
	if !ok {
		return cli.SQL_INVALID_HANDLE
	}
	b.reset(dbc)
	if attr != cli.SQL_ATTR_AUTOCOMMIT {
		b.post(dbc, "HY092", fmt.Sprintf("Invalid attribute identifier %d", attr))
		return cli.SQL_ERROR
	}
	turnOn := value == cli.SQL_AUTOCOMMIT_ON
	if turnOn && c.tx != nil {
		if err := c.tx.Commit(); err != nil {
			return b.postErr(dbc, err)
		}
		c.tx = nil
	}
	c.autocommit = turnOn
	return cli.SQL_SUCCESS
}

func (b *Bridge) Connect(dbc cli.Handle, dsn, user, password string) cli.Return {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.conns[dbc]
	if !ok {
		return cli.SQL_INVALID_HANDLE
	}
	b.reset(dbc)
	src, ok := b.sources[strings.ToLower(dsn)]
	if !ok {
		b.post(dbc, "IM002", fmt.Sprintf("Data source name not found: %s", dsn))
		return cli.SQL_ERROR
	}
	return b.open(dbc, c, withCredentials(src, user, password))
}

func (b *Bridge) DriverConnect(dbc cli.Handle, connStr string) (string, cli.Return) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.conns[dbc]
	if !ok {
		return "", cli.SQL_INVALID_HANDLE
	}
	b.reset(dbc)

	attrs := parseConnString(connStr)
	var src Source
	if name, ok := attrs["dsn"]; ok {
		if src, ok = b.sources[strings.ToLower(name)]; !ok {
			b.post(dbc, "IM002", fmt.Sprintf("Data source name not found: %s", name))
			return "", cli.SQL_ERROR
		}
	}
	if d, ok := attrs["driver"]; ok {
		src.Driver = d
	}
	if db, ok := attrs["database"]; ok {
		src.DSN = db
	}
	src = withCredentials(src, attrs["uid"], attrs["pwd"])
	if src.Driver == "" {
		b.post(dbc, "IM002", "Data source name not found and no default driver specified")
		return "", cli.SQL_ERROR
	}

	ret := b.open(dbc, c, src)
	if !cli.IsSuccess(ret) {
		return "", ret
	}
	return formatConnString(attrs), ret
}

func (b *Bridge) open(dbc cli.Handle, c *conn, src Source) cli.Return {
	if c.db != nil {
		b.post(dbc, "08002", "Connection name in use")
		return cli.SQL_ERROR
	}
	name, ok := driverName(src.Driver)
	if !ok {
		b.post(dbc, "IM003", fmt.Sprintf("Specified driver could not be loaded: %s", src.Driver))
		return cli.SQL_ERROR
	}

	db, err := sqlx.Open(name, src.DSN)
	if err != nil {
		b.diags[dbc] = append(b.diags[dbc], cli.DiagRecord{State: "08001", Text: err.Error()})
		return cli.SQL_ERROR
	}
	cx, err := db.Connx(context.Background())
	if err != nil {
		_ = db.Close()
		rec := diagOf(err)
		rec.State = "08001"
		b.diags[dbc] = append(b.diags[dbc], rec)
		return cli.SQL_ERROR
	}

	c.driver, c.db, c.c = name, db, cx
	b.logger.Logf("[DEBUG] bridge connection %d opened, driver %s", dbc, name)
	return cli.SQL_SUCCESS
}

func (b *Bridge) Disconnect(dbc cli.Handle) cli.Return {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.conns[dbc]
	if !ok {
		return cli.SQL_INVALID_HANDLE
	}
	b.reset(dbc)
	if c.db == nil {
		b.post(dbc, "08003", "Connection not open")
		return cli.SQL_ERROR
	}

	for h, st := range b.stmts {
		if st.dbc == dbc {
			delete(b.stmts, h)
			delete(b.diags, h)
		}
	}

	var errs error
	if c.tx != nil {
		if err := c.tx.Rollback(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("rollback: %w", err))
		}
		c.tx = nil
	}
	if err := c.c.Close(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("close conn: %w", err))
	}
	if err := c.db.Close(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("close db: %w", err))
	}
	c.db, c.c = nil, nil
	b.logger.Logf("[DEBUG] bridge connection %d closed", dbc)

	if errs != nil {
		b.post(dbc, "01002", fmt.Sprintf("Disconnect error: %v", errs))
		return cli.SQL_SUCCESS_WITH_INFO
	}
	return cli.SQL_SUCCESS
}

// EndTran commits or rolls back the open transaction of a connection, or of
// every connection of an environment. Without an open transaction it does
// nothing.
func (b *Bridge) EndTran(kind cli.HandleType, h cli.Handle, completion int16) cli.Return {
	b.mu.Lock()
	defer b.mu.Unlock()

	var targets []*conn
	switch kind {
	case cli.SQL_HANDLE_DBC:
		c, ok := b.conns[h]
		if !ok {
			return cli.SQL_INVALID_HANDLE
		}
		targets = append(targets, c)
	case cli.SQL_HANDLE_ENV:
		if _, ok := b.envs[h]; !ok {
			return cli.SQL_INVALID_HANDLE
		}
		for _, c := range b.conns {
			if c.env == h {
				targets = append(targets, c)
			}
		}
	default:
		return cli.SQL_INVALID_HANDLE
	}
	b.reset(h)

	for _, c := range targets {
		if c.tx == nil {
			continue
		}
		var err error
		if completion == cli.SQL_ROLLBACK {
			err = c.tx.Rollback()
		} else {
			err = c.tx.Commit()
		}
		c.tx = nil
		if err != nil {
			return b.postErr(h, err)
		}
	}
	return cli.SQL_SUCCESS
}

// queryer returns where statements of c run: the open transaction in manual
// commit mode, started on first use, or the connection itself.
func (c *conn) queryer(ctx context.Context) (sqlx.QueryerContext, error) {
	if c.autocommit {
		return c.c, nil
	}
	if c.tx == nil {
		tx, err := c.c.BeginTxx(ctx, nil)
		if err != nil {
			return nil, err
		}
		c.tx = tx
	}
	return c.tx, nil
}

func (b *Bridge) GetDiagRec(kind cli.HandleType, h cli.Handle, rec int16) (cli.DiagRecord, cli.Return) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.valid(kind, h) {
		return cli.DiagRecord{}, cli.SQL_INVALID_HANDLE
	}
	recs := b.diags[h]
	if rec < 1 || int(rec) > len(recs) {
		return cli.DiagRecord{}, cli.SQL_NO_DATA
	}
	return recs[rec-1], cli.SQL_SUCCESS
}

// Error returns and consumes the first record of the most specific handle
// given.
func (b *Bridge) Error(env, dbc, stmt cli.Handle) (cli.DiagRecord, cli.Return) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, h := range []cli.Handle{stmt, dbc, env} {
		if h == cli.NullHandle {
			continue
		}
		recs := b.diags[h]
		if len(recs) == 0 {
			return cli.DiagRecord{}, cli.SQL_NO_DATA
		}
		b.diags[h] = recs[1:]
		return recs[0], cli.SQL_SUCCESS
	}
	return cli.DiagRecord{}, cli.SQL_INVALID_HANDLE
}

func (b *Bridge) valid(kind cli.HandleType, h cli.Handle) bool {
	switch kind {
	case cli.SQL_HANDLE_ENV:
		_, ok := b.envs[h]
		return ok
	case cli.SQL_HANDLE_DBC:
		_, ok := b.conns[h]
		return ok
	case cli.SQL_HANDLE_STMT:
		_, ok := b.stmts[h]
		return ok
	}
	return false
}

var _ cli.API = (*Bridge)(nil)
