package odbc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semihalev/go-odbc/cli"
	"github.com/semihalev/go-odbc/internal/clitest"
)

func TestStatementClose(t *testing.T) {
	fake := clitest.New(nil, nil)
	s := openSession(t, fake)

	st, err := newStatement(s)
	require.NoError(t, err)
	assert.Equal(t, 1, fake.Live())

	require.NoError(t, st.close())
	require.NoError(t, st.close())
	assert.Equal(t, 1, fake.Dropped)
	assert.Equal(t, 0, fake.Live())
}

func TestStatementCloseFailure(t *testing.T) {
	fake := clitest.New(nil, nil)
	fake.Fail = map[string]clitest.Failure{
		"FreeStmt": {Ret: cli.SQL_ERROR, Diags: []cli.DiagRecord{{State: "HY010", Text: "still executing"}}},
	}
	s := openSession(t, fake)

	st, err := newStatement(s)
	require.NoError(t, err)
	err = st.close()
	require.Error(t, err)
	assert.True(t, IsError(err, ErrStatement))
	assert.Equal(t, "SQLFreeStmt: HY010: still executing", s.Error())
}

func TestStatementAllocFailure(t *testing.T) {
	fake := clitest.New(nil, nil)
	fake.Fail = map[string]clitest.Failure{
		"AllocStmt": {Ret: cli.SQL_ERROR, Diags: []cli.DiagRecord{{State: "HY001", Text: "out of memory"}}},
	}
	s := openSession(t, fake)

	err := s.RunQuery("SELECT 1")
	require.Error(t, err)
	assert.True(t, IsError(err, ErrStatement))
	assert.Equal(t, "SQLAllocStmt: HY001: out of memory", s.Error())
	assert.Equal(t, 0, fake.Calls("Prepare"))
}

func TestStatementPrepareFailure(t *testing.T) {
	fake := clitest.New(nil, nil)
	fake.Fail = map[string]clitest.Failure{
		"Prepare": {Ret: cli.SQL_ERROR, Diags: []cli.DiagRecord{{State: "42000", Text: "syntax error near FORM"}}},
	}
	s := openSession(t, fake)

	_, err := s.OpenView("bad", "SELECT * FORM t")
	require.Error(t, err)
	assert.True(t, IsError(err, ErrStatement))
	assert.Equal(t, "SQLPrepare: 42000: syntax error near FORM", s.Error())
	assert.Equal(t, 0, fake.Live())
}
