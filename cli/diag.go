package cli

//go:generate go run github.com/golang/mock/mockgen --source diag.go --package mocks --destination ../internal/mocks/diag.go

// DiagRecord is one diagnostic record: a five character SQLSTATE, the native
// error code and the message text.
type DiagRecord struct {
	State  string
	Native int32
	Text   string
}

// DiagSource reads diagnostics left by the last call on a handle.
type DiagSource interface {
	// GetDiagRec returns record rec (1-based) for the handle.
	GetDiagRec(kind HandleType, h Handle, rec int16) (DiagRecord, Return)
	// Error is the ODBC 2 single record error call.
	Error(env, dbc, stmt Handle) (DiagRecord, Return)
}
