package cli

// API is the call-level interface a backend provides. Each method maps to one
// ODBC entry point and reports its SQLRETURN; diagnostics for a failed call are
// read back through the embedded DiagSource.
type API interface {
	DiagSource

	AllocEnv() (Handle, Return)
	AllocConnect(env Handle) (Handle, Return)
	SetConnectAttr(dbc Handle, attr int32, value uintptr) Return
	// Connect connects to a named data source.
	Connect(dbc Handle, dsn, user, password string) Return
	// DriverConnect connects with a key/value connection string and returns
	// the completed connection string.
	DriverConnect(dbc Handle, connStr string) (string, Return)
	Disconnect(dbc Handle) Return
	FreeConnect(dbc Handle) Return
	FreeEnv(env Handle) Return
	EndTran(kind HandleType, h Handle, completion int16) Return

	AllocStmt(dbc Handle) (Handle, Return)
	SetStmtOption(stmt Handle, option uint16, value uintptr) Return
	Prepare(stmt Handle, query string) Return
	FreeStmt(stmt Handle, option uint16) Return

	NumParams(stmt Handle) (int16, Return)
	DescribeParam(stmt Handle, param uint16) (ParamDesc, Return)
	// BindParameter attaches b to the parameter position. The backend may
	// read b until the bindings are reset or the statement is dropped.
	BindParameter(stmt Handle, param uint16, b *ParamBinding) Return
	Execute(stmt Handle) Return
	// ParamData reports the token of the next at-execution parameter when it
	// returns SQL_NEED_DATA.
	ParamData(stmt Handle) (token int, ret Return)
	PutData(stmt Handle, data []byte) Return

	NumResultCols(stmt Handle) (int16, Return)
	DescribeCol(stmt Handle, col uint16) (ColumnDesc, Return)
	// BindCol attaches slot to the column. Fetch calls write into it.
	BindCol(stmt Handle, col uint16, slot *Slot) Return
	// ExtendedFetch positions the rowset (size 1) and reports the rows
	// fetched and the status of the row.
	ExtendedFetch(stmt Handle, orientation uint16, offset int64) (rows uint64, status uint16, ret Return)
	// GetData reads the next part of an unbound column into buf and returns
	// the length indicator: remaining bytes, SQL_NO_TOTAL or SQL_NULL_DATA.
	GetData(stmt Handle, col uint16, ctype int16, buf []byte) (ind int64, ret Return)
}

// ParamDesc is the result of SQLDescribeParam.
type ParamDesc struct {
	SQLType    int16
	ColumnSize uint64
	Digits     int16
	Nullable   int16
}

// ColumnDesc is the result of SQLDescribeCol.
type ColumnDesc struct {
	Name      string
	SQLType   int16
	Precision uint64
	Scale     int16
	Nullable  int16
}

// ParamBinding is the memory bound to one input parameter.
type ParamBinding struct {
	CType      int16
	SQLType    int16
	ColumnSize uint64
	Digits     int16

	Int    int32
	Double float64
	Buf    []byte

	// Ind is the bound length, SQL_NULL_DATA or SQL_LEN_DATA_AT_EXEC(n).
	Ind int64
	// Token is returned by ParamData when the driver wants this parameter.
	Token int
}

// AtExec reports whether the parameter is supplied through PutData.
func (b *ParamBinding) AtExec() bool {
	return b.Ind <= SQL_LEN_DATA_AT_EXEC_OFFSET || b.Ind == SQL_DATA_AT_EXEC
}

// Slot is the memory bound to one result column.
type Slot struct {
	CType  int16
	Int    int32
	Double float64
	// Buf holds character data; its length is the buffer length passed to
	// the driver, terminator included.
	Buf []byte
	// Ind is the length indicator written by the last fetch.
	Ind int64
}

// Bytes returns the character data of the slot as written by the last fetch,
// clamped to what fits in the buffer.
func (s *Slot) Bytes() []byte {
	if s.Ind < 0 {
		return nil
	}
	n := int(s.Ind)
	if limit := len(s.Buf) - 1; n > limit {
		n = limit
	}
	if n < 0 {
		return nil
	}
	return s.Buf[:n]
}
