package odbc

import (
	"fmt"
	"math"

	"github.com/semihalev/go-odbc/cli"
)

// UnknownSize is the column size recorded for a parameter the driver could
// not describe. Character values bound against it are never truncated.
const UnknownSize = math.MaxUint64

// typeFamily groups SQL types that share a wire representation.
type typeFamily int

const (
	familyChar typeFamily = iota
	familyInteger
	familyBit
	familyFloat
	familyLong
)

func familyOf(sqlType int16) typeFamily {
	switch sqlType {
	case cli.SQL_BIGINT, cli.SQL_TINYINT, cli.SQL_SMALLINT, cli.SQL_INTEGER:
		return familyInteger
	case cli.SQL_BIT:
		return familyBit
	case cli.SQL_NUMERIC, cli.SQL_DECIMAL, cli.SQL_REAL, cli.SQL_FLOAT, cli.SQL_DOUBLE:
		return familyFloat
	case cli.SQL_LONGVARCHAR, cli.SQL_LONGVARBINARY, cli.SQL_WLONGVARCHAR:
		return familyLong
	}
	return familyChar
}

// WireValue is a host value in the representation bound to the driver.
type WireValue struct {
	CType      int16
	SQLType    int16
	ColumnSize uint64
	Digits     int16

	Int    int32
	Double float64
	// Data is the character or binary payload. It aliases the host value;
	// the binder copies it into a staging buffer.
	Data []byte
	// Length is the bound length indicator.
	Length int64
	// Deferred values are supplied through the at-execution handshake.
	Deferred bool
}

// ToWire maps a host value to the wire representation for the declared
// parameter type.
func ToWire(v Value, desc cli.ParamDesc, truncate bool) (WireValue, error) {
	w := WireValue{SQLType: desc.SQLType, ColumnSize: desc.ColumnSize, Digits: desc.Digits}

	switch familyOf(desc.SQLType) {
	case familyInteger:
		w.CType = cli.SQL_C_SLONG
		w.Int = int32(v.Int())
		w.Length = 4
		w.ColumnSize, w.Digits = 0, 0
	case familyBit:
		w.CType = cli.SQL_C_SLONG
		if v.Int() != 0 {
			w.Int = 1
		}
		w.Length = 4
		w.ColumnSize, w.Digits = 0, 0
	case familyFloat:
		w.CType = cli.SQL_C_DOUBLE
		w.Double = v.Float()
		w.Length = 8
	case familyLong:
		w.CType = cli.SQL_C_BINARY
		w.Data = v.Bytes()
		if len(w.Data) > math.MaxInt32 {
			return WireValue{}, lengthMismatch(len(w.Data))
		}
		w.Deferred = true
		w.Length = cli.SQL_LEN_DATA_AT_EXEC(0)
		w.ColumnSize, w.Digits = 0, 0
	default:
		w.CType = cli.SQL_C_CHAR
		w.Data = v.Bytes()
		n := len(w.Data)
		if n > math.MaxInt32 {
			return WireValue{}, lengthMismatch(n)
		}
		w.Length = int64(n)
		if truncate && desc.ColumnSize != UnknownSize && uint64(n) > desc.ColumnSize {
			w.Length = int64(desc.ColumnSize)
		}
		if desc.ColumnSize == UnknownSize || desc.ColumnSize == 0 {
			w.ColumnSize = uint64(max(w.Length, 1))
		}
		w.Digits = 0
	}

	if v.IsNull() {
		w.Data, w.Deferred = nil, false
		w.Length = cli.SQL_NULL_DATA
	}
	return w, nil
}

func lengthMismatch(n int) error {
	return NewError(ErrLengthMismatch, fmt.Sprintf("value of %d bytes exceeds the bindable length", n))
}

// FromWire reads a fetched slot as a host value of the column's kind.
func FromWire(slot *cli.Slot, kind ColumnKind) Value {
	if slot == nil || slot.Ind == cli.SQL_NULL_DATA {
		return Null()
	}
	switch kind {
	case ColumnInteger:
		return Int(int64(slot.Int))
	case ColumnDouble:
		return Double(slot.Double)
	case ColumnString:
		b := slot.Bytes()
		out := make([]byte, len(b))
		copy(out, b)
		return Bytes(out)
	}
	return Null()
}
