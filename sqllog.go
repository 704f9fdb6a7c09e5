package odbc

import (
	"fmt"
	"io"
	"os"

	"github.com/go-pkgz/stringutils"
)

// defaultLogFile is used by the log directive when no file is given.
const defaultLogFile = "sql.log"

// previewLimit caps how much of a value the session log records.
const previewLimit = 4096

// sqlLog is the append-only session log: executed query text, bound
// parameters, column metadata, large object reads and errors. A nil *sqlLog
// discards everything.
type sqlLog struct {
	w io.WriteCloser
}

func openSQLLog(path string) (*sqlLog, error) {
	if path == "" {
		path = defaultLogFile
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644) // nolint
	if err != nil {
		return nil, fmt.Errorf("can't open log file %s: %w", path, err)
	}
	return &sqlLog{w: f}, nil
}

// Printf writes a formatted line. The format carries its own newline.
func (l *sqlLog) Printf(format string, args ...any) {
	if l == nil || l.w == nil {
		return
	}
	fmt.Fprintf(l.w, format, args...)
}

func (l *sqlLog) Close() error {
	if l == nil || l.w == nil {
		return nil
	}
	err := l.w.Close()
	l.w = nil
	return err
}

// preview shortens a logged value.
func preview(b []byte) string {
	return stringutils.Truncate(string(b), previewLimit)
}
