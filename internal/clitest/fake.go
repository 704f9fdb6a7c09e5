// Package clitest provides a scripted in-memory cli.API for adapter tests.
// A Fake serves one result set, records every call and can be told to fail
// any entry point.
package clitest

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/semihalev/go-odbc/cli"
)

// Handles handed out by a Fake.
const (
	Env       cli.Handle = 1
	Dbc       cli.Handle = 2
	firstStmt cli.Handle = 10
)

// Failure forces the return of an entry point.
type Failure struct {
	Ret cli.Return
	// Diags are posted on the handle of the failing call.
	Diags []cli.DiagRecord
	// Call limits the failure to the n-th call (1-based); 0 fails every call.
	Call int
}

// Fetch is one recorded ExtendedFetch call.
type Fetch struct {
	Orientation uint16
	Offset      int64
}

// Fake is a scripted driver. Configure the exported fields before use.
type Fake struct {
	// Params are returned by DescribeParam; NumParams reports len(Params)
	// unless NumParamsOverride is set.
	Params            []cli.ParamDesc
	NumParamsOverride *int16
	Columns           []cli.ColumnDesc
	// Rows hold nil, int, int32, int64, float64, string or []byte values.
	Rows      [][]any
	RowStatus []uint16
	// CursorTypeRet is returned when a static cursor is requested.
	CursorTypeRet cli.Return
	// Legacy is returned by Error when set.
	Legacy *cli.DiagRecord
	// UnknownLength makes GetData report SQL_NO_TOTAL on truncation.
	UnknownLength bool
	// Token, when non-zero, is returned by the first ParamData call instead
	// of the token of the first at-execution parameter.
	Token int
	Fail  map[string]Failure

	mu        sync.Mutex
	calls     map[string]int
	Log       []string
	Prepared  []string
	Bindings  map[uint16]cli.ParamBinding
	BoundBufs map[uint16][]byte
	// Supplied holds PutData payloads by parameter token.
	Supplied  map[int][]byte
	Fetches   []Fetch
	EndTrans  []int16
	Options   map[uint16]uintptr
	Dropped   int
	Resets    int

	diags   map[cli.Handle][]cli.DiagRecord
	next    cli.Handle
	live    map[cli.Handle]bool
	bound   map[uint16]*cli.Slot
	params  map[uint16]*cli.ParamBinding
	pending []uint16
	current int
	pos     int
	offsets map[uint16]int
}

// New returns a fake serving cols and rows.
func New(cols []cli.ColumnDesc, rows [][]any) *Fake {
	return &Fake{Columns: cols, Rows: rows}
}

// Calls returns how often the entry point was called.
func (f *Fake) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

// Live returns the number of statement handles not dropped yet.
func (f *Fake) Live() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.live)
}

func (f *Fake) init() {
	if f.calls != nil {
		return
	}
	f.calls = map[string]int{}
	f.diags = map[cli.Handle][]cli.DiagRecord{}
	f.live = map[cli.Handle]bool{}
	f.Bindings = map[uint16]cli.ParamBinding{}
	f.BoundBufs = map[uint16][]byte{}
	f.Supplied = map[int][]byte{}
	f.Options = map[uint16]uintptr{}
	f.bound = map[uint16]*cli.Slot{}
	f.params = map[uint16]*cli.ParamBinding{}
	f.offsets = map[uint16]int{}
	f.next = firstStmt
}

// enter counts the call, clears the handle's diagnostics and applies a
// configured failure.
func (f *Fake) enter(name string, h cli.Handle) (cli.Return, bool) {
	f.init()
	f.calls[name]++
	f.Log = append(f.Log, name)
	delete(f.diags, h)

	fail, ok := f.Fail[name]
	if !ok || (fail.Call != 0 && fail.Call != f.calls[name]) {
		return cli.SQL_SUCCESS, false
	}
	f.diags[h] = append(f.diags[h], fail.Diags...)
	return fail.Ret, true
}

func (f *Fake) AllocEnv() (cli.Handle, cli.Return) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.enter("AllocEnv", Env); ok {
		return cli.NullHandle, r
	}
	return Env, cli.SQL_SUCCESS
}

func (f *Fake) AllocConnect(env cli.Handle) (cli.Handle, cli.Return) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.enter("AllocConnect", env); ok {
		return cli.NullHandle, r
	}
	return Dbc, cli.SQL_SUCCESS
}

func (f *Fake) SetConnectAttr(dbc cli.Handle, attr int32, value uintptr) cli.Return {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.enter("SetConnectAttr", dbc); ok {
		return r
	}
	return cli.SQL_SUCCESS
}

func (f *Fake) Connect(dbc cli.Handle, dsn, user, password string) cli.Return {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, _ := f.enter("Connect", dbc)
	return r
}

func (f *Fake) DriverConnect(dbc cli.Handle, connStr string) (string, cli.Return) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, _ := f.enter("DriverConnect", dbc)
	return connStr, r
}

func (f *Fake) Disconnect(dbc cli.Handle) cli.Return {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, _ := f.enter("Disconnect", dbc)
	return r
}

func (f *Fake) FreeConnect(dbc cli.Handle) cli.Return {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, _ := f.enter("FreeConnect", dbc)
	return r
}

func (f *Fake) FreeEnv(env cli.Handle) cli.Return {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, _ := f.enter("FreeEnv", env)
	return r
}

func (f *Fake) EndTran(kind cli.HandleType, h cli.Handle, completion int16) cli.Return {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.enter("EndTran", h); ok {
		return r
	}
	f.EndTrans = append(f.EndTrans, completion)
	return cli.SQL_SUCCESS
}

func (f *Fake) AllocStmt(dbc cli.Handle) (cli.Handle, cli.Return) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.enter("AllocStmt", dbc); ok {
		return cli.NullHandle, r
	}
	h := f.next
	f.next++
	f.live[h] = true
	f.pos = 0
	f.offsets = map[uint16]int{}
	f.bound = map[uint16]*cli.Slot{}
	return h, cli.SQL_SUCCESS
}

func (f *Fake) SetStmtOption(h cli.Handle, option uint16, value uintptr) cli.Return {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.enter("SetStmtOption", h); ok {
		return r
	}
	f.Options[option] = value
	if option == cli.SQL_CURSOR_TYPE && value == cli.SQL_CURSOR_STATIC {
		return f.CursorTypeRet
	}
	return cli.SQL_SUCCESS
}

func (f *Fake) Prepare(h cli.Handle, query string) cli.Return {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.enter("Prepare", h); ok {
		return r
	}
	f.Prepared = append(f.Prepared, query)
	return cli.SQL_SUCCESS
}

func (f *Fake) FreeStmt(h cli.Handle, option uint16) cli.Return {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.enter("FreeStmt", h); ok {
		return r
	}
	switch option {
	case cli.SQL_RESET_PARAMS:
		f.Resets++
		f.params = map[uint16]*cli.ParamBinding{}
	case cli.SQL_UNBIND:
		f.bound = map[uint16]*cli.Slot{}
	case cli.SQL_DROP:
		f.Dropped++
		delete(f.live, h)
	}
	return cli.SQL_SUCCESS
}

func (f *Fake) NumParams(h cli.Handle) (int16, cli.Return) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.enter("NumParams", h); ok {
		return 0, r
	}
	if f.NumParamsOverride != nil {
		return *f.NumParamsOverride, cli.SQL_SUCCESS
	}
	return int16(len(f.Params)), cli.SQL_SUCCESS
}

func (f *Fake) DescribeParam(h cli.Handle, param uint16) (cli.ParamDesc, cli.Return) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.enter("DescribeParam", h); ok {
		return cli.ParamDesc{}, r
	}
	if param < 1 || int(param) > len(f.Params) {
		f.diags[h] = append(f.diags[h], cli.DiagRecord{State: "07009", Text: "Invalid descriptor index"})
		return cli.ParamDesc{}, cli.SQL_ERROR
	}
	return f.Params[param-1], cli.SQL_SUCCESS
}

// BindParameter records a copy of the binding and of its buffer.
func (f *Fake) BindParameter(h cli.Handle, param uint16, b *cli.ParamBinding) cli.Return {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.enter("BindParameter", h); ok {
		return r
	}
	f.params[param] = b
	f.Bindings[param] = *b
	f.BoundBufs[param] = append([]byte(nil), b.Buf...)
	return cli.SQL_SUCCESS
}

func (f *Fake) Execute(h cli.Handle) cli.Return {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.enter("Execute", h); ok {
		return r
	}
	f.pending = nil
	for i := uint16(1); int(i) <= len(f.params); i++ {
		if b, ok := f.params[i]; ok && b.AtExec() {
			f.pending = append(f.pending, i)
		}
	}
	if len(f.pending) > 0 {
		return cli.SQL_NEED_DATA
	}
	return cli.SQL_SUCCESS
}

func (f *Fake) ParamData(h cli.Handle) (int, cli.Return) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.enter("ParamData", h); ok {
		return 0, r
	}
	if f.Token != 0 && f.calls["ParamData"] == 1 {
		f.current = f.Token
		return f.Token, cli.SQL_NEED_DATA
	}
	if len(f.pending) == 0 {
		f.current = 0
		return 0, cli.SQL_SUCCESS
	}
	next := f.pending[0]
	f.pending = f.pending[1:]
	f.current = f.params[next].Token
	return f.current, cli.SQL_NEED_DATA
}

func (f *Fake) PutData(h cli.Handle, data []byte) cli.Return {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.enter("PutData", h); ok {
		return r
	}
	f.Supplied[f.current] = append(f.Supplied[f.current], data...)
	return cli.SQL_SUCCESS
}

func (f *Fake) NumResultCols(h cli.Handle) (int16, cli.Return) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.enter("NumResultCols", h); ok {
		return 0, r
	}
	return int16(len(f.Columns)), cli.SQL_SUCCESS
}

func (f *Fake) DescribeCol(h cli.Handle, col uint16) (cli.ColumnDesc, cli.Return) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.enter("DescribeCol", h); ok {
		return cli.ColumnDesc{}, r
	}
	if col < 1 || int(col) > len(f.Columns) {
		return cli.ColumnDesc{}, cli.SQL_ERROR
	}
	return f.Columns[col-1], cli.SQL_SUCCESS
}

func (f *Fake) BindCol(h cli.Handle, col uint16, slot *cli.Slot) cli.Return {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.enter("BindCol", h); ok {
		return r
	}
	f.bound[col] = slot
	return cli.SQL_SUCCESS
}

// ExtendedFetch positions over Rows. Absolute fetches work whatever cursor
// type was requested.
func (f *Fake) ExtendedFetch(h cli.Handle, orientation uint16, offset int64) (uint64, uint16, cli.Return) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()
	f.Fetches = append(f.Fetches, Fetch{Orientation: orientation, Offset: offset})
	if r, ok := f.enter("ExtendedFetch", h); ok {
		return 0, 0, r
	}

	target := offset
	if orientation == cli.SQL_FETCH_NEXT {
		target = int64(f.pos) + 1
	}
	if target < 1 || target > int64(len(f.Rows)) {
		if target > int64(len(f.Rows)) {
			f.pos = len(f.Rows) + 1
		}
		return 0, 0, cli.SQL_NO_DATA
	}
	f.pos = int(target)
	f.offsets = map[uint16]int{}

	row := f.Rows[f.pos-1]
	for col, slot := range f.bound {
		write(slot, row[col-1])
	}
	status := cli.SQL_ROW_SUCCESS
	if f.pos-1 < len(f.RowStatus) {
		status = f.RowStatus[f.pos-1]
	}
	return 1, status, cli.SQL_SUCCESS
}

func write(slot *cli.Slot, v any) {
	if v == nil {
		slot.Ind = cli.SQL_NULL_DATA
		return
	}
	switch slot.CType {
	case cli.SQL_C_SLONG:
		switch x := v.(type) {
		case int:
			slot.Int = int32(x)
		case int32:
			slot.Int = x
		case int64:
			slot.Int = int32(x)
		case float64:
			slot.Int = int32(x)
		}
		slot.Ind = 4
	case cli.SQL_C_DOUBLE:
		switch x := v.(type) {
		case float64:
			slot.Double = x
		case int:
			slot.Double = float64(x)
		}
		slot.Ind = 8
	default:
		data := text(v)
		n := copy(slot.Buf[:len(slot.Buf)-1], data)
		slot.Buf[n] = 0
		slot.Ind = int64(len(data))
	}
}

func text(v any) []byte {
	switch x := v.(type) {
	case string:
		return []byte(x)
	case []byte:
		return x
	case int:
		return []byte(strconv.Itoa(x))
	}
	return []byte(fmt.Sprint(v))
}

// GetData serves the current row in parts the way drivers do: each call
// continues where the previous one stopped.
func (f *Fake) GetData(h cli.Handle, col uint16, ctype int16, buf []byte) (int64, cli.Return) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.enter("GetData", h); ok {
		return 0, r
	}
	if f.pos < 1 || f.pos > len(f.Rows) {
		return 0, cli.SQL_NO_DATA
	}
	off := f.offsets[col]
	if off < 0 {
		return 0, cli.SQL_NO_DATA
	}
	v := f.Rows[f.pos-1][col-1]
	if v == nil {
		f.offsets[col] = -1
		return cli.SQL_NULL_DATA, cli.SQL_SUCCESS
	}

	rest := text(v)[off:]
	n := copy(buf[:len(buf)-1], rest)
	buf[n] = 0
	if n < len(rest) {
		f.offsets[col] = off + n
		if f.UnknownLength {
			return cli.SQL_NO_TOTAL, cli.SQL_SUCCESS_WITH_INFO
		}
		return int64(len(rest)), cli.SQL_SUCCESS_WITH_INFO
	}
	f.offsets[col] = -1
	return int64(len(rest)), cli.SQL_SUCCESS
}

func (f *Fake) GetDiagRec(kind cli.HandleType, h cli.Handle, rec int16) (cli.DiagRecord, cli.Return) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()
	recs := f.diags[h]
	if rec < 1 || int(rec) > len(recs) {
		return cli.DiagRecord{}, cli.SQL_NO_DATA
	}
	return recs[rec-1], cli.SQL_SUCCESS
}

func (f *Fake) Error(env, dbc, stmt cli.Handle) (cli.DiagRecord, cli.Return) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Legacy != nil {
		return *f.Legacy, cli.SQL_SUCCESS
	}
	return cli.DiagRecord{}, cli.SQL_NO_DATA
}

var _ cli.API = (*Fake)(nil)
