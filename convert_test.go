package odbc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semihalev/go-odbc/cli"
)

func TestToWireFamilies(t *testing.T) {
	tbl := []struct {
		name    string
		sqlType int16
		in      Value
		ctype   int16
		length  int64
	}{
		{"bigint", cli.SQL_BIGINT, Int(5), cli.SQL_C_SLONG, 4},
		{"tinyint", cli.SQL_TINYINT, Int(5), cli.SQL_C_SLONG, 4},
		{"smallint", cli.SQL_SMALLINT, Int(5), cli.SQL_C_SLONG, 4},
		{"integer", cli.SQL_INTEGER, Int(5), cli.SQL_C_SLONG, 4},
		{"bit", cli.SQL_BIT, Int(5), cli.SQL_C_SLONG, 4},
		{"numeric", cli.SQL_NUMERIC, Double(1.5), cli.SQL_C_DOUBLE, 8},
		{"decimal", cli.SQL_DECIMAL, Double(1.5), cli.SQL_C_DOUBLE, 8},
		{"real", cli.SQL_REAL, Double(1.5), cli.SQL_C_DOUBLE, 8},
		{"float", cli.SQL_FLOAT, Double(1.5), cli.SQL_C_DOUBLE, 8},
		{"double", cli.SQL_DOUBLE, Double(1.5), cli.SQL_C_DOUBLE, 8},
		{"longvarchar", cli.SQL_LONGVARCHAR, String("abc"), cli.SQL_C_BINARY, cli.SQL_LEN_DATA_AT_EXEC(0)},
		{"longvarbinary", cli.SQL_LONGVARBINARY, String("abc"), cli.SQL_C_BINARY, cli.SQL_LEN_DATA_AT_EXEC(0)},
		{"varchar", cli.SQL_VARCHAR, String("abc"), cli.SQL_C_CHAR, 3},
		{"timestamp", cli.SQL_TYPE_TIMESTAMP, String("2024-01-02"), cli.SQL_C_CHAR, 10},
	}

	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			w, err := ToWire(tt.in, cli.ParamDesc{SQLType: tt.sqlType, ColumnSize: 20}, false)
			require.NoError(t, err)
			assert.Equal(t, tt.ctype, w.CType)
			assert.Equal(t, tt.length, w.Length)
			assert.Equal(t, tt.sqlType, w.SQLType)
		})
	}
}

func TestToWireBitNormalizes(t *testing.T) {
	for in, want := range map[int64]int32{0: 0, 1: 1, -3: 1, 200: 1} {
		w, err := ToWire(Int(in), cli.ParamDesc{SQLType: cli.SQL_BIT}, false)
		require.NoError(t, err)
		assert.Equal(t, want, w.Int, "input %d", in)
	}
}

func TestToWireCoercesAcrossKinds(t *testing.T) {
	w, err := ToWire(String("  -17 apples"), cli.ParamDesc{SQLType: cli.SQL_INTEGER}, false)
	require.NoError(t, err)
	assert.Equal(t, int32(-17), w.Int)

	w, err = ToWire(Int(3), cli.ParamDesc{SQLType: cli.SQL_DOUBLE}, false)
	require.NoError(t, err)
	assert.Equal(t, 3.0, w.Double)

	w, err = ToWire(Double(2.5), cli.ParamDesc{SQLType: cli.SQL_VARCHAR, ColumnSize: 10}, false)
	require.NoError(t, err)
	assert.Equal(t, "2.5", string(w.Data))
	assert.Equal(t, int64(3), w.Length)
}

func TestToWireTruncationLaw(t *testing.T) {
	in := String("abcdefghij")
	for _, size := range []uint64{0, 1, 5, 10, 11, 100, UnknownSize} {
		for _, truncate := range []bool{false, true} {
			w, err := ToWire(in, cli.ParamDesc{SQLType: cli.SQL_CHAR, ColumnSize: size}, truncate)
			require.NoError(t, err)

			want := int64(10)
			if truncate && size != UnknownSize && size < 10 {
				want = int64(size)
			}
			assert.Equal(t, want, w.Length, "size %d truncate %v", size, truncate)
			assert.LessOrEqual(t, w.Length, int64(len(w.Data)))
		}
	}
}

func TestToWireUnknownSize(t *testing.T) {
	w, err := ToWire(String("hello"), cli.ParamDesc{SQLType: cli.SQL_CHAR, ColumnSize: UnknownSize}, true)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), w.ColumnSize)

	w, err = ToWire(String(""), cli.ParamDesc{SQLType: cli.SQL_CHAR, ColumnSize: UnknownSize}, true)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), w.ColumnSize)
	assert.Equal(t, int64(0), w.Length)
}

func TestToWireNull(t *testing.T) {
	for _, typ := range []int16{cli.SQL_INTEGER, cli.SQL_DOUBLE, cli.SQL_VARCHAR, cli.SQL_LONGVARCHAR, cli.SQL_BIT} {
		w, err := ToWire(Null(), cli.ParamDesc{SQLType: typ, ColumnSize: 8}, false)
		require.NoError(t, err)
		assert.Equal(t, cli.SQL_NULL_DATA, w.Length, "type %d", typ)
		assert.False(t, w.Deferred, "type %d", typ)
		assert.Nil(t, w.Data, "type %d", typ)
	}
}

func TestFromWire(t *testing.T) {
	assert.True(t, FromWire(nil, ColumnString).IsNull())
	assert.True(t, FromWire(&cli.Slot{Ind: cli.SQL_NULL_DATA}, ColumnInteger).IsNull())

	v := FromWire(&cli.Slot{CType: cli.SQL_C_SLONG, Int: math.MaxInt32, Ind: 4}, ColumnInteger)
	assert.Equal(t, KindInt, v.Kind())
	assert.Equal(t, int64(math.MaxInt32), v.Int())

	v = FromWire(&cli.Slot{CType: cli.SQL_C_DOUBLE, Double: -0.5, Ind: 8}, ColumnDouble)
	assert.Equal(t, -0.5, v.Float())

	slot := &cli.Slot{CType: cli.SQL_C_CHAR, Buf: []byte("abc\x00"), Ind: 3}
	v = FromWire(slot, ColumnString)
	slot.Buf[0] = 'z'
	assert.Equal(t, "abc", v.String())
}

func TestFamilyOf(t *testing.T) {
	assert.Equal(t, familyLong, familyOf(cli.SQL_WLONGVARCHAR))
	assert.Equal(t, familyChar, familyOf(cli.SQL_WVARCHAR))
	assert.Equal(t, familyChar, familyOf(cli.SQL_TYPE_DATE))
	assert.Equal(t, familyChar, familyOf(cli.SQL_UNKNOWN_TYPE))
	assert.Equal(t, byte('C'), fieldType(cli.SQL_VARBINARY))
}
