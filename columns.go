package odbc

import (
	"strings"

	"github.com/semihalev/go-odbc/cli"
)

// ColumnKind is how a result column is fetched.
type ColumnKind int

const (
	// ColumnInteger is bound to a 32-bit integer slot.
	ColumnInteger ColumnKind = iota
	// ColumnDouble is bound to a double slot.
	ColumnDouble
	// ColumnString is bound to a fixed-capacity character buffer.
	ColumnString
	// ColumnLargeObject is not bound; it is read on demand with GetData.
	ColumnLargeObject
)

func (k ColumnKind) String() string {
	switch k {
	case ColumnInteger:
		return "integer"
	case ColumnDouble:
		return "double"
	case ColumnString:
		return "string"
	case ColumnLargeObject:
		return "large object"
	}
	return "unknown"
}

// defaultCharCapacity is used when the driver reports neither precision nor
// scale for a character column.
const defaultCharCapacity = 50

// Names of the synthetic columns every cursor exposes ahead of the result
// columns.
const (
	RecNoColumn   = "recno"
	EOFColumn     = "eof"
	DeletedColumn = "deleted"
)

// Column is one column of a cursor.
type Column struct {
	cur     *Cursor
	ordinal uint16 // 0 for synthetic columns
	name    string
	kind    ColumnKind
	desc    cli.ColumnDesc
	slot    *cli.Slot

	// large object cache, valid for one row generation
	blob    blobRead
	blobGen uint64
	blobOK  bool
}

// Name returns the column name as reported by the driver.
func (c *Column) Name() string { return c.name }

// Kind returns how the column is fetched.
func (c *Column) Kind() ColumnKind { return c.kind }

// Ordinal returns the 1-based result position, 0 for synthetic columns.
func (c *Column) Ordinal() int { return int(c.ordinal) }

func (c *Column) null() bool {
	return c.slot != nil && c.slot.Ind == cli.SQL_NULL_DATA
}

// Int returns the value of an integer column. ok is false for null values
// and other kinds.
func (c *Column) Int() (int32, bool) {
	if c.kind != ColumnInteger || c.null() {
		return 0, false
	}
	return c.slot.Int, true
}

// Double returns the value of a double column. ok is false for null values
// and other kinds.
func (c *Column) Double() (float64, bool) {
	if c.kind != ColumnDouble || c.null() {
		return 0, false
	}
	return c.slot.Double, true
}

// String returns the bytes of a string or large object column. A null value
// of any kind reads as empty. owned reports that the caller owns the returned
// slice; otherwise it aliases the column buffer and is overwritten by the
// next fetch.
func (c *Column) String() (data []byte, owned bool, ok bool) {
	if c.null() {
		return nil, false, true
	}
	switch c.kind {
	case ColumnString:
		return c.slot.Bytes(), false, true
	case ColumnLargeObject:
		r := c.largeObject()
		return r.data, r.owned, true
	}
	return nil, false, false
}

// LengthUndetermined reports that the last large object read was cut at the
// probe size because the driver could not report the total length.
func (c *Column) LengthUndetermined() bool {
	if c.kind != ColumnLargeObject {
		return false
	}
	return c.largeObject().lengthUndetermined
}

// PreferredType returns the value kind the host should read the column as.
// Null values read as text.
func (c *Column) PreferredType() ValueKind {
	if c.null() {
		return KindText
	}
	switch c.kind {
	case ColumnInteger:
		return KindInt
	case ColumnDouble:
		return KindDouble
	}
	return KindText
}

// Value returns the current value of the column as a host value.
func (c *Column) Value() Value {
	if c.kind == ColumnLargeObject {
		r := c.largeObject()
		if len(r.data) == 0 {
			return Null()
		}
		if r.owned {
			return Bytes(r.data)
		}
		return Bytes(append([]byte(nil), r.data...))
	}
	return FromWire(c.slot, c.kind)
}

func (c *Column) largeObject() blobRead {
	if c.blobOK && c.blobGen == c.cur.gen {
		return c.blob
	}
	c.blob = c.cur.readLargeObject(c)
	c.blobGen, c.blobOK = c.cur.gen, true
	return c.blob
}

// FieldInfo describes one result column.
type FieldInfo struct {
	// Name is FIELD_NAME.
	Name string
	// Type is FIELD_TYPE: N numeric, B bit, M memo, C character.
	Type byte
	// Len is FIELD_LEN, the reported precision.
	Len int
	// Dec is FIELD_DEC, the reported scale.
	Dec int
}

func fieldType(sqlType int16) byte {
	switch familyOf(sqlType) {
	case familyInteger, familyFloat:
		return 'N'
	case familyBit:
		return 'B'
	case familyLong:
		return 'M'
	}
	return 'C'
}

// lookupColumn finds a column by case-insensitive name. The first match wins.
func lookupColumn(cols []*Column, name string) *Column {
	for _, c := range cols {
		if strings.EqualFold(c.name, name) {
			return c
		}
	}
	return nil
}

func syntheticColumn(cur *Cursor, name string) *Column {
	return &Column{
		cur:  cur,
		name: name,
		kind: ColumnInteger,
		desc: cli.ColumnDesc{Name: name, SQLType: cli.SQL_INTEGER, Nullable: cli.SQL_NO_NULLS},
		slot: &cli.Slot{CType: cli.SQL_C_SLONG, Ind: 4},
	}
}

// bindColumns describes the result set and binds fixed-size columns. Large
// object columns are left unbound.
func (st *statement) bindColumns(cur *Cursor) ([]*Column, error) {
	s := st.sess

	n, ret := s.api.NumResultCols(st.h)
	if !cli.IsSuccess(ret) {
		return nil, s.fail(ErrDescribe, "SQLNumResultCols: ", st.h, cli.SQL_HANDLE_STMT)
	}

	cols := make([]*Column, 0, int(n)+3)
	cols = append(cols,
		syntheticColumn(cur, RecNoColumn),
		syntheticColumn(cur, EOFColumn),
		syntheticColumn(cur, DeletedColumn),
	)

	for i := uint16(1); i <= uint16(n); i++ {
		desc, ret := s.api.DescribeCol(st.h, i)
		if !cli.IsSuccess(ret) {
			return nil, s.fail(ErrDescribe, "SQLDescribeCol: ", st.h, cli.SQL_HANDLE_STMT)
		}
		s.log.Printf("--- Column %d: name = %s, datatype = %d, precision = %d, scale = %d, nullable = %d\n",
			i, desc.Name, desc.SQLType, desc.Precision, desc.Scale, desc.Nullable)

		col := &Column{cur: cur, ordinal: i, name: desc.Name, desc: desc}
		switch familyOf(desc.SQLType) {
		case familyInteger, familyBit:
			col.kind = ColumnInteger
			col.slot = &cli.Slot{CType: cli.SQL_C_SLONG}
		case familyFloat:
			col.kind = ColumnDouble
			col.slot = &cli.Slot{CType: cli.SQL_C_DOUBLE}
		case familyLong:
			col.kind = ColumnLargeObject
			cols = append(cols, col)
			continue
		default:
			capacity := int(desc.Precision) + int(desc.Scale) + 1
			if desc.Precision == 0 && desc.Scale == 0 {
				capacity = defaultCharCapacity
			}
			col.kind = ColumnString
			col.slot = &cli.Slot{CType: cli.SQL_C_CHAR, Buf: make([]byte, capacity)}
		}

		if ret := s.api.BindCol(st.h, i, col.slot); !cli.IsSuccess(ret) {
			return nil, s.fail(ErrBind, "SQLBindCol: ", st.h, cli.SQL_HANDLE_STMT)
		}
		cols = append(cols, col)
	}
	return cols, nil
}
