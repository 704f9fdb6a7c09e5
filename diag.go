package odbc

import (
	"math"
	"strings"

	"github.com/semihalev/go-odbc/cli"
)

// diagCapacity is the size of the diagnostic message buffer, terminator
// included. Records that do not fit are dropped.
const diagCapacity = 1024

const unknownError = "Unknown error"

// diagCollector turns the diagnostic records of a handle into one bounded
// message.
type diagCollector struct {
	src cli.DiagSource
	env cli.Handle
	dbc cli.Handle
}

// collect returns prefix followed by "STATE: text" for each record in the
// order the driver reports them. Appending stops at the first record that
// would not fit; that is not an error.
func (c diagCollector) collect(prefix string, h cli.Handle, kind cli.HandleType) string {
	if len(prefix) > diagCapacity-1 {
		prefix = prefix[:diagCapacity-1]
	}

	var sb strings.Builder
	sb.Grow(diagCapacity)
	sb.WriteString(prefix)
	remaining := diagCapacity - len(prefix) - 1

	push := func(rec cli.DiagRecord) bool {
		need := len(rec.State) + 2 + len(rec.Text)
		if remaining-need <= 0 {
			return false
		}
		sb.WriteString(rec.State)
		sb.WriteString(": ")
		sb.WriteString(rec.Text)
		remaining -= need
		return true
	}

	unknown := func() {
		if len(unknownError) < remaining {
			sb.WriteString(unknownError)
		}
	}

	if c.src == nil {
		unknown()
		return sb.String()
	}

	rec, ret := c.src.GetDiagRec(kind, h, 1)
	switch {
	case ret == cli.SQL_SUCCESS:
		for i := int16(2); push(rec) && i < math.MaxInt16; i++ {
			if rec, ret = c.src.GetDiagRec(kind, h, i); ret != cli.SQL_SUCCESS {
				break
			}
		}
	case kind == cli.SQL_HANDLE_STMT:
		legacy, lret := c.src.Error(c.env, c.dbc, h)
		if lret != cli.SQL_SUCCESS {
			unknown()
			break
		}
		push(legacy)
	default:
		unknown()
	}

	return sb.String()
}
