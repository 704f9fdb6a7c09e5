package odbc

import (
	"sync/atomic"

	"github.com/semihalev/go-odbc/cli"
)

// Cursor is an open view over the result set of a query. It holds one row
// at a time, positioned by 1-based record number.
type Cursor struct {
	name        string
	sess        *Session
	stmt        *statement
	forwardOnly bool

	recno   int64
	eof     bool
	deleted bool
	// gen changes on every positioning call so cached large object values
	// are read again.
	gen uint64

	columns []*Column
	closed  atomic.Bool
}

// Name returns the view name the cursor was opened under.
func (c *Cursor) Name() string { return c.name }

// RecNo returns the current record number.
func (c *Cursor) RecNo() int64 { return c.recno }

// EOF reports that positioning moved past the last row.
func (c *Cursor) EOF() bool { return c.eof }

// Deleted reports that the driver flagged the current row as deleted.
func (c *Cursor) Deleted() bool { return c.deleted }

// ForwardOnly reports whether the cursor can only move forward.
func (c *Cursor) ForwardOnly() bool { return c.forwardOnly }

// Error returns the last diagnostic of the owning session.
func (c *Cursor) Error() string { return c.sess.Error() }

// Skip moves n rows relative to the current record.
func (c *Cursor) Skip(n int64) error {
	return c.loadRow(c.recno + n)
}

// Go moves to record r.
func (c *Cursor) Go(r int64) error {
	return c.loadRow(r)
}

// Column returns the column with the given name, matched case-insensitively,
// or nil. The synthetic recno, eof and deleted columns come first.
func (c *Cursor) Column(name string) *Column {
	return lookupColumn(c.columns, name)
}

// Columns returns every column, synthetic ones first.
func (c *Cursor) Columns() []*Column {
	return c.columns
}

// Structure describes the result columns.
func (c *Cursor) Structure() []FieldInfo {
	res := make([]FieldInfo, 0, len(c.columns))
	for _, col := range c.columns {
		if col.ordinal == 0 {
			continue
		}
		res = append(res, FieldInfo{
			Name: col.name,
			Type: fieldType(col.desc.SQLType),
			Len:  int(col.desc.Precision),
			Dec:  int(col.desc.Scale),
		})
	}
	return res
}

// Close drops the statement and detaches the cursor from its session.
func (c *Cursor) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.sess.detach(c)
	return c.stmt.close()
}

// loadRow positions the cursor on target. A scrollable cursor fetches the
// absolute position. A forward-only cursor fetches forward until it reaches
// target or runs out of rows and never moves back.
func (c *Cursor) loadRow(target int64) error {
	if c.closed.Load() {
		return c.sess.failf(ErrFetch, "view %s is closed", c.name)
	}
	c.gen++
	defer c.sync()

	s := c.sess
	if !c.forwardOnly {
		_, status, ret := s.api.ExtendedFetch(c.stmt.h, cli.SQL_FETCH_ABSOLUTE, target)
		switch {
		case ret == cli.SQL_NO_DATA:
			c.eof = true
		case cli.IsSuccess(ret):
			c.recno, c.eof = target, false
			c.deleted = status == cli.SQL_ROW_DELETED
		default:
			return s.fail(ErrFetch, "SQLExtendedFetch: ", c.stmt.h, cli.SQL_HANDLE_STMT)
		}
		c.logRow(target)
		return nil
	}

	for !c.eof && c.recno < target {
		c.recno++
		_, status, ret := s.api.ExtendedFetch(c.stmt.h, cli.SQL_FETCH_NEXT, 0)
		switch {
		case ret == cli.SQL_NO_DATA:
			c.eof = true
		case cli.IsSuccess(ret):
			c.deleted = status == cli.SQL_ROW_DELETED
		default:
			return s.fail(ErrFetch, "SQLExtendedFetch: ", c.stmt.h, cli.SQL_HANDLE_STMT)
		}
	}
	c.logRow(target)
	return nil
}

func (c *Cursor) logRow(target int64) {
	c.sess.log.Printf("*** load_row( %d ), eof = %d, deleted = %d\n", target, b2i(c.eof), b2i(c.deleted))
}

// sync copies the position into the synthetic columns.
func (c *Cursor) sync() {
	if len(c.columns) < 3 {
		return
	}
	c.columns[0].slot.Int = int32(c.recno)
	c.columns[1].slot.Int = b2i(c.eof)
	c.columns[2].slot.Int = b2i(c.deleted)
}

func b2i(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
