package odbc

import (
	"bytes"

	"github.com/semihalev/go-odbc/cli"
)

// probeSize is the payload size of the first large object read.
const probeSize = 512

// blobRead is the result of reading one large object column.
type blobRead struct {
	data []byte
	// owned slices belong to the caller.
	owned bool
	// lengthUndetermined marks a value cut at probeSize because the driver
	// reported SQL_NO_TOTAL.
	lengthUndetermined bool
}

// readLargeObject reads the current row's value of an unbound column: one
// probe, then a single continuation sized from the reported total length.
// Failures record a diagnostic and read as empty.
func (c *Cursor) readLargeObject(col *Column) blobRead {
	s := c.sess
	h := c.stmt.h

	probe := make([]byte, probeSize+2)

	ind, ret := s.api.GetData(h, col.ordinal, cli.SQL_C_CHAR, probe[:probeSize+1])
	var r blobRead
	switch {
	case ret == cli.SQL_NO_DATA:
		return r
	case !cli.IsSuccess(ret):
		_ = s.fail(ErrGetData, "SQLGetData: ", h, cli.SQL_HANDLE_STMT)
		return r
	case ind == cli.SQL_NULL_DATA:
		return r
	case ret == cli.SQL_SUCCESS:
		if ind == cli.SQL_NO_TOTAL {
			return r
		}
		r.data, r.owned = probe[:min(int(ind), probeSize)], true
	case ind == cli.SQL_NO_TOTAL:
		n := bytes.IndexByte(probe[:probeSize], 0)
		if n < 0 {
			n = probeSize
		}
		r.data = probe[:n]
		r.owned, r.lengthUndetermined = true, true
	case ind <= probeSize:
		r.data, r.owned = probe[:ind], true
	default:
		total := int(ind)
		buf := make([]byte, total+2)
		copy(buf, probe[:probeSize])
		_, ret = s.api.GetData(h, col.ordinal, cli.SQL_C_CHAR, buf[probeSize:probeSize+(total-probeSize)+1])
		if ret != cli.SQL_SUCCESS {
			if ret == cli.SQL_ERROR {
				_ = s.fail(ErrGetData, "SQLGetData: ", h, cli.SQL_HANDLE_STMT)
			}
			return r
		}
		r.data, r.owned = buf[:total], true
	}

	if len(r.data) > 0 {
		s.log.Printf("+++ BLOB data for column %d: length = %d, data = '%s'\n", col.ordinal, len(r.data), preview(r.data))
	}
	return r
}
