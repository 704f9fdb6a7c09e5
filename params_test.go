package odbc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semihalev/go-odbc/cli"
	"github.com/semihalev/go-odbc/internal/clitest"
)

func TestParameterCountMismatch(t *testing.T) {
	fake := clitest.New(nil, nil)
	fake.Params = []cli.ParamDesc{{SQLType: cli.SQL_INTEGER}, {SQLType: cli.SQL_INTEGER}}
	s := openSession(t, fake)

	err := s.RunQuery("UPDATE t SET a = ? WHERE b = ?", Int(1))
	require.Error(t, err)
	assert.True(t, IsError(err, ErrParamCount))
	assert.Equal(t, "Input parameter count mismatch: Found 1, expected 2", s.Error())
	assert.Equal(t, 0, fake.Calls("Execute"))
	assert.Equal(t, 0, fake.Calls("BindParameter"))
	assert.Equal(t, 0, fake.Live())
}

func TestParameterCountMismatchNoneExpected(t *testing.T) {
	fake := clitest.New(nil, nil)
	s := openSession(t, fake)

	err := s.RunQuery("DELETE FROM t", String("extra"))
	require.Error(t, err)
	assert.True(t, IsError(err, ErrParamCount))
	assert.Equal(t, "Input parameter count mismatch: Found 1, expected 0", s.Error())
}

func TestBindParameterTypes(t *testing.T) {
	fake := clitest.New(nil, nil)
	fake.Params = []cli.ParamDesc{
		{SQLType: cli.SQL_INTEGER, ColumnSize: 10},
		{SQLType: cli.SQL_BIT, ColumnSize: 1},
		{SQLType: cli.SQL_DECIMAL, ColumnSize: 12, Digits: 2},
		{SQLType: cli.SQL_VARCHAR, ColumnSize: 30},
		{SQLType: cli.SQL_VARCHAR, ColumnSize: 30},
		{SQLType: cli.SQL_LONGVARBINARY},
	}
	s := openSession(t, fake)

	err := s.RunQuery("INSERT INTO t VALUES (?, ?, ?, ?, ?, ?)",
		String("42abc"), Int(7), String("3.25"), Int(99), Null(), String("payload"))
	require.NoError(t, err)

	b := fake.Bindings
	assert.Equal(t, cli.SQL_C_SLONG, b[1].CType)
	assert.Equal(t, int32(42), b[1].Int)
	assert.Equal(t, int64(4), b[1].Ind)

	assert.Equal(t, cli.SQL_C_SLONG, b[2].CType)
	assert.Equal(t, int32(1), b[2].Int)

	assert.Equal(t, cli.SQL_C_DOUBLE, b[3].CType)
	assert.Equal(t, 3.25, b[3].Double)
	assert.Equal(t, uint64(12), b[3].ColumnSize)
	assert.Equal(t, int16(2), b[3].Digits)

	assert.Equal(t, cli.SQL_C_CHAR, b[4].CType)
	assert.Equal(t, int64(2), b[4].Ind)
	assert.Equal(t, "99", string(fake.BoundBufs[4]))

	assert.Equal(t, cli.SQL_NULL_DATA, b[5].Ind)

	assert.Equal(t, cli.SQL_C_BINARY, b[6].CType)
	b6 := b[6]
	assert.True(t, b6.AtExec())
	assert.Equal(t, 6, b[6].Token)
	assert.Equal(t, "payload", string(fake.Supplied[6]))

	assert.Equal(t, 1, fake.Resets)
}

func TestBindParameterTruncate(t *testing.T) {
	tbl := []struct {
		name     string
		truncate bool
		size     uint64
		wantLen  int64
		wantSize uint64
	}{
		{"clamped", true, 4, 4, 4},
		{"not clamped without directive", false, 4, 10, 4},
		{"unknown size never clamped", true, UnknownSize, 10, 10},
	}

	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			fake := clitest.New(nil, nil)
			fake.Params = []cli.ParamDesc{{SQLType: cli.SQL_VARCHAR, ColumnSize: tt.size}}
			s := openSession(t, fake, func(c *Config) { c.Truncate = tt.truncate })

			require.NoError(t, s.RunQuery("INSERT INTO t VALUES (?)", String("0123456789")))
			assert.Equal(t, tt.wantLen, fake.Bindings[1].Ind)
			assert.Equal(t, tt.wantSize, fake.Bindings[1].ColumnSize)
			assert.Equal(t, "0123456789"[:tt.wantLen], string(fake.BoundBufs[1][:tt.wantLen]))
		})
	}
}

func TestTruncateDirective(t *testing.T) {
	fake := clitest.New(nil, nil)
	fake.Params = []cli.ParamDesc{{SQLType: cli.SQL_CHAR, ColumnSize: 3}}
	s := openSession(t, fake)

	require.NoError(t, s.Command(CommandTruncate, ""))
	require.NoError(t, s.RunQuery("INSERT INTO t VALUES (?)", String("abcdef")))
	assert.Equal(t, int64(3), fake.Bindings[1].Ind)
}

func TestDescribeParamFailureFallsBackToChar(t *testing.T) {
	fake := clitest.New(nil, nil)
	fake.Params = []cli.ParamDesc{{SQLType: cli.SQL_INTEGER}}
	fake.Fail = map[string]clitest.Failure{"DescribeParam": {Ret: cli.SQL_ERROR}}
	s := openSession(t, fake, func(c *Config) { c.Truncate = true })

	require.NoError(t, s.RunQuery("INSERT INTO t VALUES (?)", Int(12345)))
	b := fake.Bindings[1]
	assert.Equal(t, cli.SQL_C_CHAR, b.CType)
	assert.Equal(t, cli.SQL_CHAR, b.SQLType)
	assert.Equal(t, int64(5), b.Ind)
	assert.Equal(t, uint64(5), b.ColumnSize)
	assert.Equal(t, "12345", string(fake.BoundBufs[1]))
}

func TestBindParameterFailure(t *testing.T) {
	fake := clitest.New(nil, nil)
	fake.Params = []cli.ParamDesc{{SQLType: cli.SQL_INTEGER}, {SQLType: cli.SQL_VARCHAR, ColumnSize: 10}}
	fake.Fail = map[string]clitest.Failure{
		"BindParameter": {Ret: cli.SQL_ERROR, Call: 2, Diags: []cli.DiagRecord{{State: "HY004", Text: "invalid type"}}},
	}
	s := openSession(t, fake)

	err := s.RunQuery("INSERT INTO t VALUES (?, ?)", Int(1), String("x"))
	require.Error(t, err)
	assert.True(t, IsError(err, ErrBind))
	assert.Equal(t, "SQLBindParameter: HY004: invalid type", s.Error())
	assert.Equal(t, 0, fake.Calls("Execute"))
	assert.Equal(t, 1, fake.Resets)
}

func TestBindParameterWithInfoIsNotFailure(t *testing.T) {
	fake := clitest.New(nil, nil)
	fake.Params = []cli.ParamDesc{{SQLType: cli.SQL_INTEGER}}
	fake.Fail = map[string]clitest.Failure{"BindParameter": {Ret: cli.SQL_SUCCESS_WITH_INFO}}
	s := openSession(t, fake)

	require.NoError(t, s.RunQuery("INSERT INTO t VALUES (?)", Int(1)))
	assert.Equal(t, 1, fake.Calls("Execute"))
}

func TestNumParamsFailure(t *testing.T) {
	fake := clitest.New(nil, nil)
	fake.Fail = map[string]clitest.Failure{
		"NumParams": {Ret: cli.SQL_ERROR, Diags: []cli.DiagRecord{{State: "HY010", Text: "sequence error"}}},
	}
	s := openSession(t, fake)

	err := s.RunQuery("SELECT ?", Int(1))
	require.Error(t, err)
	assert.True(t, IsError(err, ErrDescribe))
	assert.Equal(t, "SQLNumParams: HY010: sequence error", s.Error())
}

func TestStagingBuffersReleased(t *testing.T) {
	fake := clitest.New(nil, nil)
	fake.Params = []cli.ParamDesc{{SQLType: cli.SQL_VARCHAR, ColumnSize: 100}}
	s := openSession(t, fake)

	before := stagingPool.Stats()
	require.NoError(t, s.RunQuery("INSERT INTO t VALUES (?)", String("pooled")))
	after := stagingPool.Stats()
	assert.Equal(t, before["gets"]+1, after["gets"])
	assert.Equal(t, before["puts"]+1, after["puts"])
}
