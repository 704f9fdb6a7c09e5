// Package native implements cli.API over the system ODBC driver manager
// (unixODBC, iODBC or odbc32.dll), loaded at run time without cgo. Length
// and size arguments follow the 64-bit ABI where SQLLEN and SQLULEN are
// eight bytes wide.
package native

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/semihalev/go-odbc/cli"
)

// EnvLibrary names the environment variable that overrides the library
// search.
const EnvLibrary = "ODBC_LIBRARY"

const (
	sqlNTS            = -3
	sqlDriverNoPrompt = 0
	sqlParamInput     = 1
	maxMessageLength  = 4096
	maxNameLength     = 256
	maxConnOutLength  = 1024
)

// Driver is a loaded driver manager.
type Driver struct {
	lib  uintptr
	path string

	mu   sync.Mutex
	pins map[cli.Handle]*stmtPins

	sqlAllocEnv       func(env *uintptr) int16
	sqlAllocConnect   func(env uintptr, dbc *uintptr) int16
	sqlSetConnectAttr func(dbc uintptr, attr int32, value uintptr, length int32) int16
	sqlConnect        func(dbc uintptr, dsn string, dsnLen int16, user string, userLen int16, pwd string, pwdLen int16) int16
	sqlDriverConnect  func(dbc uintptr, hwnd uintptr, in string, inLen int16, out *byte, outMax int16, outLen *int16, completion uint16) int16
	sqlDisconnect     func(dbc uintptr) int16
	sqlFreeConnect    func(dbc uintptr) int16
	sqlFreeEnv        func(env uintptr) int16
	sqlEndTran        func(kind int16, h uintptr, completion int16) int16
	sqlAllocStmt      func(dbc uintptr, stmt *uintptr) int16
	sqlSetStmtOption  func(stmt uintptr, option uint16, value uint64) int16
	sqlPrepare        func(stmt uintptr, query string, length int32) int16
	sqlFreeStmt       func(stmt uintptr, option uint16) int16
	sqlNumParams      func(stmt uintptr, n *int16) int16
	sqlDescribeParam  func(stmt uintptr, param uint16, sqlType *int16, size *uint64, digits *int16, nullable *int16) int16
	sqlBindParameter  func(stmt uintptr, param uint16, io int16, ctype int16, sqlType int16, size uint64, digits int16, value uintptr, bufLen int64, ind uintptr) int16
	sqlExecute        func(stmt uintptr) int16
	sqlParamData      func(stmt uintptr, token *uintptr) int16
	sqlPutData        func(stmt uintptr, data *byte, length int64) int16
	sqlNumResultCols  func(stmt uintptr, n *int16) int16
	sqlDescribeCol    func(stmt uintptr, col uint16, name *byte, nameMax int16, nameLen *int16, sqlType *int16, size *uint64, digits *int16, nullable *int16) int16
	sqlBindCol        func(stmt uintptr, col uint16, ctype int16, value uintptr, bufLen int64, ind uintptr) int16
	sqlExtendedFetch  func(stmt uintptr, orientation uint16, offset int64, rows *uint64, status *uint16) int16
	sqlGetData        func(stmt uintptr, col uint16, ctype int16, buf *byte, bufLen int64, ind *int64) int16
	sqlGetDiagRec     func(kind int16, h uintptr, rec int16, state *byte, native *int32, msg *byte, msgMax int16, msgLen *int16) int16
	sqlError          func(env, dbc, stmt uintptr, state *byte, native *int32, msg *byte, msgMax int16, msgLen *int16) int16
}

// stmtPins keeps bound parameter and column memory in place while the
// driver holds pointers to it.
type stmtPins struct {
	params runtime.Pinner
	cols   runtime.Pinner
}

// Load opens the driver manager at path. An empty path uses $ODBC_LIBRARY,
// then the platform's usual library names.
func Load(path string) (*Driver, error) {
	var errs []error
	for _, p := range searchPath(path) {
		lib, err := openLibrary(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
			continue
		}
		d := &Driver{lib: lib, path: p, pins: map[cli.Handle]*stmtPins{}}
		if err := d.register(); err != nil {
			closeLibrary(lib)
			return nil, fmt.Errorf("failed to load %s: %w", p, err)
		}
		return d, nil
	}
	return nil, fmt.Errorf("driver manager not found: %w", errors.Join(errs...))
}

func searchPath(path string) []string {
	if path != "" {
		return []string{path}
	}
	search := candidates()
	if env := os.Getenv(EnvLibrary); env != "" {
		search = append([]string{env}, search...)
	}
	return search
}

// register binds every entry point. A missing symbol panics inside purego;
// it is reported as an error.
func (d *Driver) register() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	fns := []struct {
		fptr any
		name string
	}{
		{&d.sqlAllocEnv, "SQLAllocEnv"},
		{&d.sqlAllocConnect, "SQLAllocConnect"},
		{&d.sqlSetConnectAttr, "SQLSetConnectAttr"},
		{&d.sqlConnect, "SQLConnect"},
		{&d.sqlDriverConnect, "SQLDriverConnect"},
		{&d.sqlDisconnect, "SQLDisconnect"},
		{&d.sqlFreeConnect, "SQLFreeConnect"},
		{&d.sqlFreeEnv, "SQLFreeEnv"},
		{&d.sqlEndTran, "SQLEndTran"},
		{&d.sqlAllocStmt, "SQLAllocStmt"},
		{&d.sqlSetStmtOption, "SQLSetStmtOption"},
		{&d.sqlPrepare, "SQLPrepare"},
		{&d.sqlFreeStmt, "SQLFreeStmt"},
		{&d.sqlNumParams, "SQLNumParams"},
		{&d.sqlDescribeParam, "SQLDescribeParam"},
		{&d.sqlBindParameter, "SQLBindParameter"},
		{&d.sqlExecute, "SQLExecute"},
		{&d.sqlParamData, "SQLParamData"},
		{&d.sqlPutData, "SQLPutData"},
		{&d.sqlNumResultCols, "SQLNumResultCols"},
		{&d.sqlDescribeCol, "SQLDescribeCol"},
		{&d.sqlBindCol, "SQLBindCol"},
		{&d.sqlExtendedFetch, "SQLExtendedFetch"},
		{&d.sqlGetData, "SQLGetData"},
		{&d.sqlGetDiagRec, "SQLGetDiagRec"},
		{&d.sqlError, "SQLError"},
	}
	for _, fn := range fns {
		purego.RegisterLibFunc(fn.fptr, d.lib, fn.name)
	}
	return nil
}

// Path returns the library the driver manager was loaded from.
func (d *Driver) Path() string { return d.path }

// Close unloads the library. Handles must be freed first.
func (d *Driver) Close() error {
	closeLibrary(d.lib)
	d.lib = 0
	return nil
}

func ret(r int16) cli.Return { return cli.Return(r) }

func (d *Driver) AllocEnv() (cli.Handle, cli.Return) {
	var h uintptr
	r := d.sqlAllocEnv(&h)
	return cli.Handle(h), ret(r)
}

func (d *Driver) AllocConnect(env cli.Handle) (cli.Handle, cli.Return) {
	var h uintptr
	r := d.sqlAllocConnect(uintptr(env), &h)
	return cli.Handle(h), ret(r)
}

func (d *Driver) SetConnectAttr(dbc cli.Handle, attr int32, value uintptr) cli.Return {
	return ret(d.sqlSetConnectAttr(uintptr(dbc), attr, value, 0))
}

func (d *Driver) Connect(dbc cli.Handle, dsn, user, password string) cli.Return {
	return ret(d.sqlConnect(uintptr(dbc), dsn, sqlNTS, user, sqlNTS, password, sqlNTS))
}

func (d *Driver) DriverConnect(dbc cli.Handle, connStr string) (string, cli.Return) {
	out := make([]byte, maxConnOutLength)
	var n int16
	r := d.sqlDriverConnect(uintptr(dbc), 0, connStr, sqlNTS, &out[0], int16(len(out)), &n, sqlDriverNoPrompt)
	return cstring(out, int(n)), ret(r)
}

func (d *Driver) Disconnect(dbc cli.Handle) cli.Return {
	return ret(d.sqlDisconnect(uintptr(dbc)))
}

func (d *Driver) FreeConnect(dbc cli.Handle) cli.Return {
	return ret(d.sqlFreeConnect(uintptr(dbc)))
}

func (d *Driver) FreeEnv(env cli.Handle) cli.Return {
	return ret(d.sqlFreeEnv(uintptr(env)))
}

func (d *Driver) EndTran(kind cli.HandleType, h cli.Handle, completion int16) cli.Return {
	return ret(d.sqlEndTran(int16(kind), uintptr(h), completion))
}

func (d *Driver) AllocStmt(dbc cli.Handle) (cli.Handle, cli.Return) {
	var h uintptr
	r := d.sqlAllocStmt(uintptr(dbc), &h)
	if cli.IsSuccess(ret(r)) {
		d.mu.Lock()
		d.pins[cli.Handle(h)] = &stmtPins{}
		d.mu.Unlock()
	}
	return cli.Handle(h), ret(r)
}

func (d *Driver) SetStmtOption(stmt cli.Handle, option uint16, value uintptr) cli.Return {
	return ret(d.sqlSetStmtOption(uintptr(stmt), option, uint64(value)))
}

func (d *Driver) Prepare(stmt cli.Handle, query string) cli.Return {
	return ret(d.sqlPrepare(uintptr(stmt), query, sqlNTS))
}

// FreeStmt releases pinned memory the option unbinds once the driver has
// let go of it.
func (d *Driver) FreeStmt(stmt cli.Handle, option uint16) cli.Return {
	r := ret(d.sqlFreeStmt(uintptr(stmt), option))
	if r == cli.SQL_ERROR {
		return r
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.pins[stmt]
	if !ok {
		return r
	}
	switch option {
	case cli.SQL_RESET_PARAMS:
		p.params.Unpin()
	case cli.SQL_UNBIND:
		p.cols.Unpin()
	case cli.SQL_DROP:
		p.params.Unpin()
		p.cols.Unpin()
		delete(d.pins, stmt)
	}
	return r
}

func (d *Driver) pinsFor(stmt cli.Handle) *stmtPins {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.pins[stmt]
	if !ok {
		p = &stmtPins{}
		d.pins[stmt] = p
	}
	return p
}

func (d *Driver) NumParams(stmt cli.Handle) (int16, cli.Return) {
	var n int16
	r := d.sqlNumParams(uintptr(stmt), &n)
	return n, ret(r)
}

func (d *Driver) DescribeParam(stmt cli.Handle, param uint16) (cli.ParamDesc, cli.Return) {
	var desc cli.ParamDesc
	r := d.sqlDescribeParam(uintptr(stmt), param, &desc.SQLType, &desc.ColumnSize, &desc.Digits, &desc.Nullable)
	return desc, ret(r)
}

// BindParameter pins b until the parameters are reset. At-execution
// parameters pass their token as the value pointer; SQLParamData hands it
// back.
func (d *Driver) BindParameter(stmt cli.Handle, param uint16, b *cli.ParamBinding) cli.Return {
	pins := d.pinsFor(stmt)
	pins.params.Pin(b)

	var value uintptr
	var bufLen int64
	switch {
	case b.AtExec():
		value = uintptr(b.Token)
	case b.CType == cli.SQL_C_SLONG:
		value = uintptr(unsafe.Pointer(&b.Int))
	case b.CType == cli.SQL_C_DOUBLE:
		value = uintptr(unsafe.Pointer(&b.Double))
	case len(b.Buf) > 0:
		pins.params.Pin(&b.Buf[0])
		value = uintptr(unsafe.Pointer(&b.Buf[0]))
		bufLen = int64(len(b.Buf))
	}

	r := d.sqlBindParameter(uintptr(stmt), param, sqlParamInput, b.CType, b.SQLType, b.ColumnSize, b.Digits,
		value, bufLen, uintptr(unsafe.Pointer(&b.Ind)))
	return ret(r)
}

func (d *Driver) Execute(stmt cli.Handle) cli.Return {
	return ret(d.sqlExecute(uintptr(stmt)))
}

func (d *Driver) ParamData(stmt cli.Handle) (int, cli.Return) {
	var token uintptr
	r := d.sqlParamData(uintptr(stmt), &token)
	return int(token), ret(r)
}

func (d *Driver) PutData(stmt cli.Handle, data []byte) cli.Return {
	if len(data) == 0 {
		var empty byte
		return ret(d.sqlPutData(uintptr(stmt), &empty, 0))
	}
	return ret(d.sqlPutData(uintptr(stmt), &data[0], int64(len(data))))
}

func (d *Driver) NumResultCols(stmt cli.Handle) (int16, cli.Return) {
	var n int16
	r := d.sqlNumResultCols(uintptr(stmt), &n)
	return n, ret(r)
}

func (d *Driver) DescribeCol(stmt cli.Handle, col uint16) (cli.ColumnDesc, cli.Return) {
	var desc cli.ColumnDesc
	name := make([]byte, maxNameLength)
	var n int16
	r := d.sqlDescribeCol(uintptr(stmt), col, &name[0], int16(len(name)), &n,
		&desc.SQLType, &desc.Precision, &desc.Scale, &desc.Nullable)
	desc.Name = cstring(name, int(n))
	return desc, ret(r)
}

// BindCol pins slot until the columns are unbound or the statement dropped.
func (d *Driver) BindCol(stmt cli.Handle, col uint16, slot *cli.Slot) cli.Return {
	pins := d.pinsFor(stmt)
	pins.cols.Pin(slot)

	var value uintptr
	var bufLen int64
	switch slot.CType {
	case cli.SQL_C_SLONG:
		value = uintptr(unsafe.Pointer(&slot.Int))
		bufLen = 4
	case cli.SQL_C_DOUBLE:
		value = uintptr(unsafe.Pointer(&slot.Double))
		bufLen = 8
	default:
		if len(slot.Buf) == 0 {
			return cli.SQL_ERROR
		}
		pins.cols.Pin(&slot.Buf[0])
		value = uintptr(unsafe.Pointer(&slot.Buf[0]))
		bufLen = int64(len(slot.Buf))
	}
	return ret(d.sqlBindCol(uintptr(stmt), col, slot.CType, value, bufLen, uintptr(unsafe.Pointer(&slot.Ind))))
}

func (d *Driver) ExtendedFetch(stmt cli.Handle, orientation uint16, offset int64) (uint64, uint16, cli.Return) {
	var rows uint64
	var status uint16
	r := d.sqlExtendedFetch(uintptr(stmt), orientation, offset, &rows, &status)
	return rows, status, ret(r)
}

func (d *Driver) GetData(stmt cli.Handle, col uint16, ctype int16, buf []byte) (int64, cli.Return) {
	if len(buf) == 0 {
		return 0, cli.SQL_ERROR
	}
	var ind int64
	r := d.sqlGetData(uintptr(stmt), col, ctype, &buf[0], int64(len(buf)), &ind)
	return ind, ret(r)
}

// GetDiagRec reports a record whose text was cut to fit as SQL_SUCCESS.
func (d *Driver) GetDiagRec(kind cli.HandleType, h cli.Handle, rec int16) (cli.DiagRecord, cli.Return) {
	state := make([]byte, 6)
	msg := make([]byte, maxMessageLength)
	var native int32
	var n int16
	r := ret(d.sqlGetDiagRec(int16(kind), uintptr(h), rec, &state[0], &native, &msg[0], int16(len(msg)), &n))
	if r == cli.SQL_SUCCESS_WITH_INFO {
		r = cli.SQL_SUCCESS
	}
	return cli.DiagRecord{State: cstring(state, 5), Native: native, Text: cstring(msg, int(n))}, r
}

func (d *Driver) Error(env, dbc, stmt cli.Handle) (cli.DiagRecord, cli.Return) {
	state := make([]byte, 6)
	msg := make([]byte, maxMessageLength)
	var native int32
	var n int16
	r := ret(d.sqlError(uintptr(env), uintptr(dbc), uintptr(stmt), &state[0], &native, &msg[0], int16(len(msg)), &n))
	if r == cli.SQL_SUCCESS_WITH_INFO {
		r = cli.SQL_SUCCESS
	}
	return cli.DiagRecord{State: cstring(state, 5), Native: native, Text: cstring(msg, int(n))}, r
}

// cstring returns the text of a NUL terminated buffer holding at most n
// bytes.
func cstring(b []byte, n int) string {
	if n < 0 {
		n = 0
	}
	if n > len(b) {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if b[i] == 0 {
			return string(b[:i])
		}
	}
	return string(b[:n])
}

var _ cli.API = (*Driver)(nil)
