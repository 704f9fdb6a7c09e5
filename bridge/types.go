package bridge

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/semihalev/go-odbc/cli"
)

// maxReportedLength bounds column lengths taken from the driver. Larger or
// unknown lengths fall back to the longest value in the snapshot.
const maxReportedLength = 1 << 16

const timestampLayout = "2006-01-02 15:04:05.999999999"

// describeColumn derives the ODBC description of a result column from its
// database type name and the materialized values.
func describeColumn(ct *sql.ColumnType, rows [][]any, idx int) cli.ColumnDesc {
	desc := cli.ColumnDesc{Name: ct.Name(), Nullable: cli.SQL_NULLABLE_UNKNOWN}
	if nullable, ok := ct.Nullable(); ok {
		desc.Nullable = cli.SQL_NO_NULLS
		if nullable {
			desc.Nullable = cli.SQL_NULLABLE
		}
	}

	name := strings.ToUpper(ct.DatabaseTypeName())
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}
	desc.SQLType = sqlTypeOf(name)
	if name == "" {
		desc.SQLType = inferType(rows, idx)
	}

	switch desc.SQLType {
	case cli.SQL_INTEGER, cli.SQL_SMALLINT, cli.SQL_TINYINT:
		desc.Precision = 10
	case cli.SQL_BIGINT:
		desc.Precision = 19
	case cli.SQL_BIT:
		desc.Precision = 1
	case cli.SQL_DOUBLE, cli.SQL_REAL, cli.SQL_FLOAT:
		desc.Precision = 15
	case cli.SQL_DECIMAL, cli.SQL_NUMERIC:
		if p, s, ok := ct.DecimalSize(); ok {
			desc.Precision, desc.Scale = uint64(p), int16(s)
		} else {
			desc.Precision = 15
		}
	case cli.SQL_LONGVARCHAR, cli.SQL_LONGVARBINARY:
		desc.Precision = uint64(longest(rows, idx))
	default:
		n := longest(rows, idx)
		if l, ok := ct.Length(); ok && l > 0 && l <= maxReportedLength && l > int64(n) {
			n = int(l)
		}
		desc.Precision = uint64(max(n, 1))
	}
	return desc
}

func sqlTypeOf(name string) int16 {
	switch name {
	case "INTEGER", "INT", "INT4", "MEDIUMINT", "SERIAL":
		return cli.SQL_INTEGER
	case "SMALLINT", "INT2":
		return cli.SQL_SMALLINT
	case "TINYINT":
		return cli.SQL_TINYINT
	case "BIGINT", "INT8", "BIGSERIAL":
		return cli.SQL_BIGINT
	case "BOOL", "BOOLEAN", "BIT":
		return cli.SQL_BIT
	case "REAL", "FLOAT4":
		return cli.SQL_REAL
	case "FLOAT", "FLOAT8", "DOUBLE", "DOUBLE PRECISION":
		return cli.SQL_DOUBLE
	case "NUMERIC", "DECIMAL":
		return cli.SQL_DECIMAL
	case "TEXT", "CLOB", "MEDIUMTEXT", "LONGTEXT", "JSON", "JSONB":
		return cli.SQL_LONGVARCHAR
	case "BLOB", "BYTEA", "MEDIUMBLOB", "LONGBLOB":
		return cli.SQL_LONGVARBINARY
	case "DATE":
		return cli.SQL_TYPE_DATE
	case "TIME":
		return cli.SQL_TYPE_TIME
	case "TIMESTAMP", "TIMESTAMPTZ", "DATETIME":
		return cli.SQL_TYPE_TIMESTAMP
	case "CHAR", "BPCHAR":
		return cli.SQL_CHAR
	}
	return cli.SQL_VARCHAR
}

// inferType picks a type from the first non-null value of an untyped column,
// as sqlite reports for expressions.
func inferType(rows [][]any, idx int) int16 {
	for _, r := range rows {
		switch r[idx].(type) {
		case nil:
			continue
		case int64, int32, int:
			return cli.SQL_INTEGER
		case float64, float32:
			return cli.SQL_DOUBLE
		case bool:
			return cli.SQL_BIT
		case time.Time:
			return cli.SQL_TYPE_TIMESTAMP
		}
		return cli.SQL_VARCHAR
	}
	return cli.SQL_VARCHAR
}

func longest(rows [][]any, idx int) int {
	n := 0
	for _, r := range rows {
		n = max(n, len(textOf(r[idx])))
	}
	return n
}

// textOf is the character form of a driver value.
func textOf(v any) []byte {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		return x
	case string:
		return []byte(x)
	case int64:
		return strconv.AppendInt(nil, x, 10)
	case float64:
		return strconv.AppendFloat(nil, x, 'f', -1, 64)
	case bool:
		if x {
			return []byte{'1'}
		}
		return []byte{'0'}
	case time.Time:
		return []byte(x.Format(timestampLayout))
	}
	return []byte(fmt.Sprint(v))
}

func intOf(v any) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case float64:
		return int64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	}
	n, _ := strconv.ParseInt(strings.TrimSpace(string(textOf(v))), 10, 64)
	if n == 0 {
		f, _ := strconv.ParseFloat(strings.TrimSpace(string(textOf(v))), 64)
		n = int64(f)
	}
	return n
}

func floatOf(v any) float64 {
	switch x := v.(type) {
	case int64:
		return float64(x)
	case float64:
		return x
	case bool:
		if x {
			return 1
		}
		return 0
	}
	f, _ := strconv.ParseFloat(strings.TrimSpace(string(textOf(v))), 64)
	return f
}

// argOf converts a bound parameter to a database/sql argument.
func argOf(b *cli.ParamBinding, data []byte) any {
	if b.Ind == cli.SQL_NULL_DATA {
		return nil
	}
	if b.AtExec() {
		if data == nil {
			data = []byte{}
		}
		if b.CType == cli.SQL_C_CHAR {
			return string(data)
		}
		return data
	}
	switch b.CType {
	case cli.SQL_C_SLONG:
		return int64(b.Int)
	case cli.SQL_C_DOUBLE:
		return b.Double
	case cli.SQL_C_BINARY:
		return append([]byte(nil), b.Buf[:clampLen(b.Ind, len(b.Buf))]...)
	}
	return string(b.Buf[:clampLen(b.Ind, len(b.Buf))])
}

func clampLen(ind int64, n int) int {
	if ind < 0 {
		return 0
	}
	return min(int(ind), n)
}
