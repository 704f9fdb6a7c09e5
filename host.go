package odbc

// Database is the connection surface a script host drives.
type Database interface {
	OpenView(name, query string, args ...Value) (*Cursor, error)
	RunQuery(query string, args ...Value) error
	Commit() error
	Rollback() error
	Transact() error
	Command(name, param string) error
	Error() string
	Close() error
}

// View is the cursor surface a script host drives.
type View interface {
	Skip(n int64) error
	Go(r int64) error
	Column(name string) *Column
	Columns() []*Column
	Structure() []FieldInfo
	RecNo() int64
	EOF() bool
	Deleted() bool
	Error() string
	Close() error
}

// Variable is a column as the host reads it.
type Variable interface {
	Name() string
	Int() (int32, bool)
	Double() (float64, bool)
	String() (data []byte, owned bool, ok bool)
	PreferredType() ValueKind
	Value() Value
}

var (
	_ Database = (*Session)(nil)
	_ View     = (*Cursor)(nil)
	_ Variable = (*Column)(nil)
)
