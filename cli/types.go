// Package cli describes the call-level SQL interface (ODBC) the adapter drives:
// handle and return types, the constants of the API and the Go shape of bound
// parameter and column memory.
package cli

import "strconv"

// Handle is an opaque environment, connection or statement handle.
type Handle uintptr

// NullHandle is the zero handle.
const NullHandle Handle = 0

// Return is a SQLRETURN code.
type Return int16

// HandleType identifies the kind of handle passed to diagnostic calls.
type HandleType int16

// Handle type identifiers
const (
	SQL_HANDLE_ENV  HandleType = 1
	SQL_HANDLE_DBC  HandleType = 2
	SQL_HANDLE_STMT HandleType = 3
)

// Return codes
const (
	SQL_SUCCESS           Return = 0
	SQL_SUCCESS_WITH_INFO Return = 1
	SQL_STILL_EXECUTING   Return = 2
	SQL_NEED_DATA         Return = 99
	SQL_NO_DATA           Return = 100
	SQL_ERROR             Return = -1
	SQL_INVALID_HANDLE    Return = -2
)

// Length indicator values
const (
	SQL_NULL_DATA               int64 = -1
	SQL_DATA_AT_EXEC            int64 = -2
	SQL_NO_TOTAL                int64 = -4
	SQL_LEN_DATA_AT_EXEC_OFFSET int64 = -100
)

// SQL_LEN_DATA_AT_EXEC returns the indicator that marks a parameter as
// supplied at execution time with the given length hint.
func SQL_LEN_DATA_AT_EXEC(length int64) int64 {
	return SQL_LEN_DATA_AT_EXEC_OFFSET - length
}

// Connection attributes
const (
	SQL_ATTR_AUTOCOMMIT int32 = 102
)

// Autocommit values
const (
	SQL_AUTOCOMMIT_OFF uintptr = 0
	SQL_AUTOCOMMIT_ON  uintptr = 1
)

// Statement options (ODBC 2 SQLSetStmtOption)
const (
	SQL_CURSOR_TYPE uint16 = 6
	SQL_ROWSET_SIZE uint16 = 9
)

// Cursor types
const (
	SQL_CURSOR_FORWARD_ONLY  uintptr = 0
	SQL_CURSOR_KEYSET_DRIVEN uintptr = 1
	SQL_CURSOR_DYNAMIC       uintptr = 2
	SQL_CURSOR_STATIC        uintptr = 3
)

// SQL data types
const (
	SQL_UNKNOWN_TYPE   int16 = 0
	SQL_CHAR           int16 = 1
	SQL_NUMERIC        int16 = 2
	SQL_DECIMAL        int16 = 3
	SQL_INTEGER        int16 = 4
	SQL_SMALLINT       int16 = 5
	SQL_FLOAT          int16 = 6
	SQL_REAL           int16 = 7
	SQL_DOUBLE         int16 = 8
	SQL_DATETIME       int16 = 9
	SQL_VARCHAR        int16 = 12
	SQL_TYPE_DATE      int16 = 91
	SQL_TYPE_TIME      int16 = 92
	SQL_TYPE_TIMESTAMP int16 = 93
	SQL_LONGVARCHAR    int16 = -1
	SQL_BINARY         int16 = -2
	SQL_VARBINARY      int16 = -3
	SQL_LONGVARBINARY  int16 = -4
	SQL_BIGINT         int16 = -5
	SQL_TINYINT        int16 = -6
	SQL_BIT            int16 = -7
	SQL_WCHAR          int16 = -8
	SQL_WVARCHAR       int16 = -9
	SQL_WLONGVARCHAR   int16 = -10
)

// C data types
const (
	SQL_C_CHAR   = SQL_CHAR
	SQL_C_DOUBLE = SQL_DOUBLE
	SQL_C_BINARY = SQL_BINARY
	SQL_C_SLONG  = SQL_INTEGER - 20 // SQL_C_LONG + SQL_SIGNED_OFFSET
)

// Parameter direction
const (
	SQL_PARAM_INPUT int16 = 1
)

// Fetch orientation
const (
	SQL_FETCH_NEXT     uint16 = 1
	SQL_FETCH_FIRST    uint16 = 2
	SQL_FETCH_ABSOLUTE uint16 = 5
)

// Row status values reported by SQLExtendedFetch
const (
	SQL_ROW_SUCCESS uint16 = 0
	SQL_ROW_DELETED uint16 = 1
	SQL_ROW_UPDATED uint16 = 2
	SQL_ROW_NOROW   uint16 = 3
	SQL_ROW_ADDED   uint16 = 4
	SQL_ROW_ERROR   uint16 = 5
)

// SQLFreeStmt options
const (
	SQL_CLOSE        uint16 = 0
	SQL_DROP         uint16 = 1
	SQL_UNBIND       uint16 = 2
	SQL_RESET_PARAMS uint16 = 3
)

// Transaction completion types
const (
	SQL_COMMIT   int16 = 0
	SQL_ROLLBACK int16 = 1
)

// Nullable values
const (
	SQL_NO_NULLS         int16 = 0
	SQL_NULLABLE         int16 = 1
	SQL_NULLABLE_UNKNOWN int16 = 2
)

// IsSuccess checks if the return code indicates success
func IsSuccess(ret Return) bool {
	return ret == SQL_SUCCESS || ret == SQL_SUCCESS_WITH_INFO
}

// String returns the symbolic name of a return code.
func (r Return) String() string {
	switch r {
	case SQL_SUCCESS:
		return "SQL_SUCCESS"
	case SQL_SUCCESS_WITH_INFO:
		return "SQL_SUCCESS_WITH_INFO"
	case SQL_STILL_EXECUTING:
		return "SQL_STILL_EXECUTING"
	case SQL_NEED_DATA:
		return "SQL_NEED_DATA"
	case SQL_NO_DATA:
		return "SQL_NO_DATA"
	case SQL_ERROR:
		return "SQL_ERROR"
	case SQL_INVALID_HANDLE:
		return "SQL_INVALID_HANDLE"
	}
	return "SQLRETURN(" + strconv.Itoa(int(r)) + ")"
}
