package odbc

import (
	"github.com/semihalev/go-odbc/cli"
)

type streamState int

const (
	awaitingDriver streamState = iota
	supplyingParameter
	streamComplete
)

// deferredWriter answers at-execution requests after an execute returned
// SQL_NEED_DATA. Each request names a parameter by index and receives that
// parameter's payload in one PutData call.
type deferredWriter struct {
	st      *statement
	params  *paramSet
	state   streamState
	current int
	// tainted is set once a PutData failed. The execute still completes and
	// the diagnostic stays in the session.
	tainted bool
}

func newDeferredWriter(st *statement, params *paramSet) *deferredWriter {
	return &deferredWriter{st: st, params: params, state: awaitingDriver}
}

func (w *deferredWriter) drain() error {
	s := w.st.sess
	for w.state != streamComplete {
		token, ret := s.api.ParamData(w.st.h)
		switch {
		case ret == cli.SQL_NEED_DATA:
			p, ok := w.params.deferred(token)
			if !ok {
				w.state = streamComplete
				return s.failf(ErrExecute, "SQLParamData: driver requested unknown parameter %d", token)
			}
			w.state, w.current = supplyingParameter, token
			w.supply(p)
			w.state = awaitingDriver
		case ret == cli.SQL_NO_DATA, cli.IsSuccess(ret):
			w.state = streamComplete
		default:
			w.state = streamComplete
			return s.fail(ErrExecute, "SQLParamData: ", w.st.h, cli.SQL_HANDLE_STMT)
		}
	}
	if w.tainted {
		s.logger.Logf("[WARN] session %s: statement completed after a failed data transfer", s.id)
	}
	return nil
}

func (w *deferredWriter) supply(p *parameter) {
	s := w.st.sess
	if ret := s.api.PutData(w.st.h, p.wire.Data); cli.IsSuccess(ret) {
		return
	}
	msg := diagCollector{src: s.api, env: s.env, dbc: s.dbc}.collect("SQLPutData: ", w.st.h, cli.SQL_HANDLE_STMT)
	s.record(msg)
	w.tainted = true
	s.logger.Logf("[WARN] session %s: put data for parameter %d failed, %s", s.id, p.index, msg)
}
