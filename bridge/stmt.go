package bridge

import (
	"context"
	"database/sql/driver"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/semihalev/go-odbc/cli"
)

// stmt is one statement handle.
type stmt struct {
	dbc        cli.Handle
	query      string
	numInput   int
	prepared   bool
	cursorType uintptr

	params map[uint16]*cli.ParamBinding
	// at-execution parameters still owed by the application, in order
	pending []uint16
	current uint16
	data    map[uint16][]byte

	result  *result
	bound   map[uint16]*cli.Slot
	pos     int
	offsets map[uint16]int
}

// result is the static snapshot of a result set.
type result struct {
	cols []cli.ColumnDesc
	rows [][]any
}

func (b *Bridge) lookupStmt(h cli.Handle) (*stmt, *conn, bool) {
	st, ok := b.stmts[h]
	if !ok {
		return nil, nil, false
	}
	b.reset(h)
	return st, b.conns[st.dbc], true
}

func (b *Bridge) AllocStmt(dbc cli.Handle) (cli.Handle, cli.Return) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.conns[dbc]
	if !ok {
		return cli.NullHandle, cli.SQL_INVALID_HANDLE
	}
	b.reset(dbc)
	if c.db == nil {
		b.post(dbc, "08003", "Connection not open")
		return cli.NullHandle, cli.SQL_ERROR
	}
	h := b.handle()
	b.stmts[h] = &stmt{
		dbc:        dbc,
		cursorType: cli.SQL_CURSOR_FORWARD_ONLY,
		params:     map[uint16]*cli.ParamBinding{},
		bound:      map[uint16]*cli.Slot{},
	}
	return h, cli.SQL_SUCCESS
}

func (b *Bridge) SetStmtOption(h cli.Handle, option uint16, value uintptr) cli.Return {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, _, ok := b.lookupStmt(h)
	if !ok {
		return cli.SQL_INVALID_HANDLE
	}

	switch option {
	case cli.SQL_CURSOR_TYPE:
		switch {
		case value == cli.SQL_CURSOR_FORWARD_ONLY:
			st.cursorType = value
		case !b.scrollable:
			b.post(h, "HYC00", "Optional feature not implemented")
			return cli.SQL_ERROR
		case value == cli.SQL_CURSOR_STATIC:
			st.cursorType = value
		default:
			st.cursorType = cli.SQL_CURSOR_STATIC
			b.post(h, "01S02", "Option value changed")
			return cli.SQL_SUCCESS_WITH_INFO
		}
	case cli.SQL_ROWSET_SIZE:
		if value != 1 {
			b.post(h, "01S02", "Option value changed")
			return cli.SQL_SUCCESS_WITH_INFO
		}
	default:
		b.post(h, "HYC00", "Optional feature not implemented")
		return cli.SQL_ERROR
	}
	return cli.SQL_SUCCESS
}

// Prepare rewrites the '?' placeholders for the connection's dialect and asks
// the driver for the number of inputs.
func (b *Bridge) Prepare(h cli.Handle, query string) cli.Return {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, c, ok := b.lookupStmt(h)
	if !ok {
		return cli.SQL_INVALID_HANDLE
	}

	st.query = sqlx.Rebind(sqlx.BindType(c.driver), query)
	st.result, st.pos, st.prepared = nil, 0, false

	n := -1
	err := c.c.Raw(func(dc any) error {
		prep, ok := dc.(driver.Conn)
		if !ok {
			return nil
		}
		ds, err := prep.Prepare(st.query)
		if err != nil {
			return err
		}
		n = ds.NumInput()
		return ds.Close()
	})
	if err != nil {
		rec := diagOf(err)
		if rec.State == "HY000" {
			rec.State = "42000"
		}
		b.diags[h] = append(b.diags[h], rec)
		return cli.SQL_ERROR
	}
	if n < 0 {
		n = countPlaceholders(query)
	}
	st.numInput, st.prepared = n, true
	return cli.SQL_SUCCESS
}

// countPlaceholders counts '?' outside quoted text.
func countPlaceholders(q string) int {
	n := 0
	var quote byte
	for i := 0; i < len(q); i++ {
		switch ch := q[i]; {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"' || ch == '`':
			quote = ch
		case ch == '?':
			n++
		}
	}
	return n
}

func (b *Bridge) FreeStmt(h cli.Handle, option uint16) cli.Return {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, _, ok := b.lookupStmt(h)
	if !ok {
		return cli.SQL_INVALID_HANDLE
	}
	switch option {
	case cli.SQL_CLOSE:
		st.result, st.pos = nil, 0
	case cli.SQL_UNBIND:
		st.bound = map[uint16]*cli.Slot{}
	case cli.SQL_RESET_PARAMS:
		st.params = map[uint16]*cli.ParamBinding{}
		st.pending, st.current, st.data = nil, 0, nil
	case cli.SQL_DROP:
		delete(b.stmts, h)
		delete(b.diags, h)
	default:
		b.post(h, "HY092", fmt.Sprintf("Invalid attribute/option identifier %d", option))
		return cli.SQL_ERROR
	}
	return cli.SQL_SUCCESS
}

func (b *Bridge) NumParams(h cli.Handle) (int16, cli.Return) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, _, ok := b.lookupStmt(h)
	if !ok {
		return 0, cli.SQL_INVALID_HANDLE
	}
	if !st.prepared {
		b.post(h, "HY010", "Function sequence error")
		return 0, cli.SQL_ERROR
	}
	return int16(st.numInput), cli.SQL_SUCCESS
}

// DescribeParam answers from the configured describer. database/sql drivers
// do not describe parameters, so without one the call is not supported.
func (b *Bridge) DescribeParam(h cli.Handle, param uint16) (cli.ParamDesc, cli.Return) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, _, ok := b.lookupStmt(h)
	if !ok {
		return cli.ParamDesc{}, cli.SQL_INVALID_HANDLE
	}
	if param < 1 || int(param) > st.numInput {
		b.post(h, "07009", "Invalid descriptor index")
		return cli.ParamDesc{}, cli.SQL_ERROR
	}
	if b.describe != nil {
		if desc, ok := b.describe(st.query, param); ok {
			return desc, cli.SQL_SUCCESS
		}
	}
	b.post(h, "IM001", "Driver does not support this function")
	return cli.ParamDesc{}, cli.SQL_ERROR
}

func (b *Bridge) BindParameter(h cli.Handle, param uint16, pb *cli.ParamBinding) cli.Return {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, _, ok := b.lookupStmt(h)
	if !ok {
		return cli.SQL_INVALID_HANDLE
	}
	if param < 1 {
		b.post(h, "07009", "Invalid descriptor index")
		return cli.SQL_ERROR
	}
	switch pb.CType {
	case cli.SQL_C_CHAR, cli.SQL_C_BINARY, cli.SQL_C_SLONG, cli.SQL_C_DOUBLE:
	default:
		b.post(h, "HY003", "Invalid application buffer type")
		return cli.SQL_ERROR
	}
	st.params[param] = pb
	return cli.SQL_SUCCESS
}

// Execute runs the statement, or asks for at-execution data first.
func (b *Bridge) Execute(h cli.Handle) cli.Return {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, c, ok := b.lookupStmt(h)
	if !ok {
		return cli.SQL_INVALID_HANDLE
	}
	if !st.prepared {
		b.post(h, "HY010", "Function sequence error")
		return cli.SQL_ERROR
	}

	st.result, st.pos = nil, 0
	st.pending, st.current, st.data = nil, 0, map[uint16][]byte{}
	for i := 1; i <= st.numInput; i++ {
		pb, ok := st.params[uint16(i)]
		if !ok {
			b.post(h, "07002", "COUNT field incorrect")
			return cli.SQL_ERROR
		}
		if pb.AtExec() {
			st.pending = append(st.pending, uint16(i))
		}
	}
	if len(st.pending) > 0 {
		return cli.SQL_NEED_DATA
	}
	return b.run(h, st, c)
}

// ParamData hands out the next at-execution parameter and runs the statement
// once all of them were supplied.
func (b *Bridge) ParamData(h cli.Handle) (int, cli.Return) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, c, ok := b.lookupStmt(h)
	if !ok {
		return 0, cli.SQL_INVALID_HANDLE
	}
	if st.data == nil {
		b.post(h, "HY010", "Function sequence error")
		return 0, cli.SQL_ERROR
	}
	if len(st.pending) > 0 {
		st.current, st.pending = st.pending[0], st.pending[1:]
		return st.params[st.current].Token, cli.SQL_NEED_DATA
	}
	st.current = 0
	return 0, b.run(h, st, c)
}

func (b *Bridge) PutData(h cli.Handle, data []byte) cli.Return {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, _, ok := b.lookupStmt(h)
	if !ok {
		return cli.SQL_INVALID_HANDLE
	}
	if st.current == 0 {
		b.post(h, "HY010", "Function sequence error")
		return cli.SQL_ERROR
	}
	st.data[st.current] = append(st.data[st.current], data...)
	return cli.SQL_SUCCESS
}

// run executes the query and materializes its result set.
func (b *Bridge) run(h cli.Handle, st *stmt, c *conn) cli.Return {
	args := make([]any, st.numInput)
	for i := range args {
		idx := uint16(i + 1)
		args[i] = argOf(st.params[idx], st.data[idx])
	}
	st.data = nil

	ctx := context.Background()
	q, err := c.queryer(ctx)
	if err != nil {
		return b.postErr(h, err)
	}
	rows, err := q.QueryxContext(ctx, st.query, args...)
	if err != nil {
		return b.postErr(h, err)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return b.postErr(h, err)
	}
	res := &result{}
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return b.postErr(h, err)
		}
		res.rows = append(res.rows, vals)
	}
	if err := rows.Err(); err != nil {
		return b.postErr(h, err)
	}

	if len(types) == 0 {
		return cli.SQL_SUCCESS
	}
	for i, ct := range types {
		res.cols = append(res.cols, describeColumn(ct, res.rows, i))
	}
	st.result = res
	st.offsets = map[uint16]int{}
	return cli.SQL_SUCCESS
}

func (b *Bridge) NumResultCols(h cli.Handle) (int16, cli.Return) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, _, ok := b.lookupStmt(h)
	if !ok {
		return 0, cli.SQL_INVALID_HANDLE
	}
	if st.result == nil {
		return 0, cli.SQL_SUCCESS
	}
	return int16(len(st.result.cols)), cli.SQL_SUCCESS
}

func (b *Bridge) DescribeCol(h cli.Handle, col uint16) (cli.ColumnDesc, cli.Return) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, _, ok := b.lookupStmt(h)
	if !ok {
		return cli.ColumnDesc{}, cli.SQL_INVALID_HANDLE
	}
	if st.result == nil || col < 1 || int(col) > len(st.result.cols) {
		b.post(h, "07009", "Invalid descriptor index")
		return cli.ColumnDesc{}, cli.SQL_ERROR
	}
	return st.result.cols[col-1], cli.SQL_SUCCESS
}

func (b *Bridge) BindCol(h cli.Handle, col uint16, slot *cli.Slot) cli.Return {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, _, ok := b.lookupStmt(h)
	if !ok {
		return cli.SQL_INVALID_HANDLE
	}
	if col < 1 || (st.result != nil && int(col) > len(st.result.cols)) {
		b.post(h, "07009", "Invalid descriptor index")
		return cli.SQL_ERROR
	}
	if slot.CType == cli.SQL_C_CHAR && len(slot.Buf) == 0 {
		b.post(h, "HY090", "Invalid string or buffer length")
		return cli.SQL_ERROR
	}
	st.bound[col] = slot
	return cli.SQL_SUCCESS
}

// ExtendedFetch positions the snapshot and writes the row into the bound
// slots.
func (b *Bridge) ExtendedFetch(h cli.Handle, orientation uint16, offset int64) (uint64, uint16, cli.Return) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, _, ok := b.lookupStmt(h)
	if !ok {
		return 0, 0, cli.SQL_INVALID_HANDLE
	}
	if st.result == nil {
		b.post(h, "24000", "Invalid cursor state")
		return 0, 0, cli.SQL_ERROR
	}

	n := int64(len(st.result.rows))
	target := int64(st.pos)
	switch orientation {
	case cli.SQL_FETCH_NEXT:
		target++
	case cli.SQL_FETCH_FIRST:
		target = 1
	case cli.SQL_FETCH_ABSOLUTE:
		if st.cursorType == cli.SQL_CURSOR_FORWARD_ONLY {
			b.post(h, "HY106", "Fetch type out of range")
			return 0, 0, cli.SQL_ERROR
		}
		target = offset
		if offset < 0 {
			target = n + 1 + offset
		}
	default:
		b.post(h, "HY106", "Fetch type out of range")
		return 0, 0, cli.SQL_ERROR
	}

	switch {
	case target < 1:
		st.pos = 0
		return 0, 0, cli.SQL_NO_DATA
	case target > n:
		st.pos = int(n) + 1
		return 0, 0, cli.SQL_NO_DATA
	}
	st.pos = int(target)
	st.offsets = map[uint16]int{}

	ret := cli.SQL_SUCCESS
	row := st.result.rows[st.pos-1]
	for col, slot := range st.bound {
		if int(col) > len(row) {
			continue
		}
		if !fill(slot, row[col-1]) {
			ret = cli.SQL_SUCCESS_WITH_INFO
		}
	}
	if ret == cli.SQL_SUCCESS_WITH_INFO {
		b.post(h, "01004", "String data, right truncated")
	}
	return 1, cli.SQL_ROW_SUCCESS, ret
}

// fill writes v into a bound slot. It reports false when character data was
// truncated.
func fill(slot *cli.Slot, v any) bool {
	if v == nil {
		slot.Ind = cli.SQL_NULL_DATA
		return true
	}
	switch slot.CType {
	case cli.SQL_C_SLONG:
		slot.Int, slot.Ind = int32(intOf(v)), 4
	case cli.SQL_C_DOUBLE:
		slot.Double, slot.Ind = floatOf(v), 8
	case cli.SQL_C_BINARY:
		data := textOf(v)
		copy(slot.Buf, data)
		slot.Ind = int64(len(data))
		return len(data) <= len(slot.Buf)
	default:
		data := textOf(v)
		n := copy(slot.Buf[:len(slot.Buf)-1], data)
		slot.Buf[n] = 0
		slot.Ind = int64(len(data))
		return n == len(data)
	}
	return true
}

// GetData reads the next part of a column of the current row.
func (b *Bridge) GetData(h cli.Handle, col uint16, ctype int16, buf []byte) (int64, cli.Return) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, _, ok := b.lookupStmt(h)
	if !ok {
		return 0, cli.SQL_INVALID_HANDLE
	}
	if st.result == nil || st.pos < 1 || st.pos > len(st.result.rows) {
		b.post(h, "24000", "Invalid cursor state")
		return 0, cli.SQL_ERROR
	}
	if col < 1 || int(col) > len(st.result.cols) {
		b.post(h, "07009", "Invalid descriptor index")
		return 0, cli.SQL_ERROR
	}
	if ctype != cli.SQL_C_CHAR && ctype != cli.SQL_C_BINARY {
		b.post(h, "HY003", "Invalid application buffer type")
		return 0, cli.SQL_ERROR
	}

	off := st.offsets[col]
	if off < 0 {
		return 0, cli.SQL_NO_DATA
	}
	v := st.result.rows[st.pos-1][col-1]
	if v == nil {
		st.offsets[col] = -1
		return cli.SQL_NULL_DATA, cli.SQL_SUCCESS
	}

	rest := textOf(v)[off:]
	space := len(buf)
	if ctype == cli.SQL_C_CHAR {
		space--
	}
	if space < 0 {
		b.post(h, "HY090", "Invalid string or buffer length")
		return 0, cli.SQL_ERROR
	}

	n := copy(buf[:space], rest)
	if ctype == cli.SQL_C_CHAR {
		buf[n] = 0
	}
	if n < len(rest) {
		st.offsets[col] = off + n
		b.post(h, "01004", "String data, right truncated")
		if b.unknownLength {
			return cli.SQL_NO_TOTAL, cli.SQL_SUCCESS_WITH_INFO
		}
		return int64(len(rest)), cli.SQL_SUCCESS_WITH_INFO
	}
	st.offsets[col] = -1
	return int64(len(rest)), cli.SQL_SUCCESS
}
