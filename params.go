package odbc

import (
	"fmt"

	"github.com/semihalev/go-odbc/cli"
)

// parameter is one bound input. Its binding must stay valid until the
// statement bindings are reset.
type parameter struct {
	index   uint16
	wire    WireValue
	binding cli.ParamBinding
	staged  []byte
}

// paramSet holds the parameters of one execute.
type paramSet struct {
	params []*parameter
}

// deferred returns the at-execution parameter the driver token names.
func (ps *paramSet) deferred(token int) (*parameter, bool) {
	if ps == nil || token < 1 || token > len(ps.params) {
		return nil, false
	}
	p := ps.params[token-1]
	if !p.wire.Deferred {
		return nil, false
	}
	return p, true
}

// release returns staging buffers to the pool.
func (ps *paramSet) release() {
	for _, p := range ps.params {
		stagingPool.PutBuffer(p.staged)
		p.staged = nil
		p.binding.Buf = nil
	}
}

// bindParameters describes and binds inputs positionally. The returned set
// is non-nil whenever some memory was bound, including on error.
func (st *statement) bindParameters(inputs []Value) (*paramSet, error) {
	s := st.sess

	n, ret := s.api.NumParams(st.h)
	if !cli.IsSuccess(ret) {
		return nil, s.fail(ErrDescribe, "SQLNumParams: ", st.h, cli.SQL_HANDLE_STMT)
	}
	if int(n) != len(inputs) {
		return nil, s.failf(ErrParamCount, "Input parameter count mismatch: Found %d, expected %d", len(inputs), n)
	}
	if n == 0 {
		return nil, nil
	}

	ps := &paramSet{params: make([]*parameter, 0, n)}
	for i, v := range inputs {
		idx := uint16(i + 1)

		desc, ret := s.api.DescribeParam(st.h, idx)
		if !cli.IsSuccess(ret) {
			desc = cli.ParamDesc{SQLType: cli.SQL_CHAR, ColumnSize: UnknownSize, Nullable: cli.SQL_NULLABLE_UNKNOWN}
			s.logger.Logf("[WARN] session %s: describe of parameter %d failed, binding as character", s.id, idx)
			s.log.Printf("+++ SQLDescribeParam for parameter %d failed, defaulting to character bind\n", idx)
		}
		s.log.Printf("--- Parameter %d: datatype = %d, size = %d, decimals = %d, nullable = %d\n",
			idx, desc.SQLType, desc.ColumnSize, desc.Digits, desc.Nullable)

		wire, err := ToWire(v, desc, s.truncate)
		if err != nil {
			s.record(err.Error())
			return ps, err
		}

		p := &parameter{index: idx, wire: wire}
		p.binding = cli.ParamBinding{
			CType:      wire.CType,
			SQLType:    wire.SQLType,
			ColumnSize: wire.ColumnSize,
			Digits:     wire.Digits,
			Int:        wire.Int,
			Double:     wire.Double,
			Ind:        wire.Length,
			Token:      int(idx),
		}
		if wire.CType == cli.SQL_C_CHAR && wire.Length > 0 {
			p.staged = stagingPool.GetBuffer(int(wire.Length))
			copy(p.staged, wire.Data)
			p.binding.Buf = p.staged
		}
		ps.params = append(ps.params, p)
		s.logParameter(p, v)

		if ret := s.api.BindParameter(st.h, idx, &p.binding); ret == cli.SQL_ERROR {
			return ps, s.fail(ErrBind, "SQLBindParameter: ", st.h, cli.SQL_HANDLE_STMT)
		}
	}
	return ps, nil
}

func (s *Session) logParameter(p *parameter, v Value) {
	if v.IsNull() {
		s.log.Printf("+++ Parameter %d value: NULL\n", p.index)
		return
	}
	switch {
	case p.wire.Deferred:
		s.log.Printf("+++ Parameter %d value (blob): %d bytes\n", p.index, len(p.wire.Data))
	case p.wire.CType == cli.SQL_C_SLONG:
		s.log.Printf("+++ Parameter %d value (integer): %d\n", p.index, p.wire.Int)
	case p.wire.CType == cli.SQL_C_DOUBLE:
		s.log.Printf("+++ Parameter %d value (double): %s\n", p.index, fmt.Sprint(p.wire.Double))
	default:
		s.log.Printf("+++ Parameter %d value (string): '%s'\n", p.index, preview(p.binding.Buf))
	}
}
