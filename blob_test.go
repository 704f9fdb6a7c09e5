package odbc

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semihalev/go-odbc/cli"
	"github.com/semihalev/go-odbc/internal/clitest"
)

var blobColumns = []cli.ColumnDesc{
	{Name: "id", SQLType: cli.SQL_INTEGER, Precision: 10},
	{Name: "data", SQLType: cli.SQL_LONGVARCHAR},
}

func blobView(t *testing.T, fake *clitest.Fake) *Cursor {
	t.Helper()
	s := openSession(t, fake)
	v, err := s.OpenView("blobs", "SELECT id, data FROM blobs")
	require.NoError(t, err)
	return v
}

func pattern(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteByte('a' + byte(i%26))
	}
	return sb.String()
}

func TestLargeObjectSizes(t *testing.T) {
	for _, n := range []int{10, probeSize - 1, probeSize, probeSize + 1, 5000} {
		want := pattern(n)
		fake := clitest.New(blobColumns, [][]any{{1, want}})
		v := blobView(t, fake)

		data, owned, ok := v.Column("data").String()
		require.True(t, ok, "size %d", n)
		assert.True(t, owned, "size %d", n)
		assert.Equal(t, want, string(data), "size %d", n)
		assert.False(t, v.Column("data").LengthUndetermined(), "size %d", n)

		calls := 1
		if n > probeSize {
			calls = 2
		}
		assert.Equal(t, calls, fake.Calls("GetData"), "size %d", n)
	}
}

func TestLargeObjectProbeReturned(t *testing.T) {
	fake := clitest.New(blobColumns, [][]any{{1, "short value"}})
	v := blobView(t, fake)

	data, owned, ok := v.Column("data").String()
	require.True(t, ok)
	assert.True(t, owned)
	assert.Equal(t, "short value", string(data))
	// the probe buffer itself comes back, sized for the payload plus terminator and slack
	assert.Equal(t, probeSize+2, cap(data))
}

func TestLargeObjectUnknownLength(t *testing.T) {
	want := pattern(2000)
	fake := clitest.New(blobColumns, [][]any{{1, want}})
	fake.UnknownLength = true
	v := blobView(t, fake)

	data, owned, ok := v.Column("data").String()
	require.True(t, ok)
	assert.True(t, owned)
	assert.Equal(t, want[:probeSize], string(data))
	assert.True(t, v.Column("data").LengthUndetermined())
	assert.Equal(t, 1, fake.Calls("GetData"))
}

func TestLargeObjectUnknownLengthStopsAtTerminator(t *testing.T) {
	want := "abc\x00" + pattern(1000)
	fake := clitest.New(blobColumns, [][]any{{1, want}})
	fake.UnknownLength = true
	v := blobView(t, fake)

	data, _, _ := v.Column("data").String()
	assert.Equal(t, "abc", string(data))
}

func TestLargeObjectNull(t *testing.T) {
	fake := clitest.New(blobColumns, [][]any{{1, nil}})
	v := blobView(t, fake)

	data, _, ok := v.Column("data").String()
	assert.True(t, ok)
	assert.Empty(t, data)
	assert.True(t, v.Column("data").Value().IsNull())
	assert.Equal(t, KindText, v.Column("data").PreferredType())
}

func TestLargeObjectGetDataError(t *testing.T) {
	fake := clitest.New(blobColumns, [][]any{{1, "value"}})
	fake.Fail = map[string]clitest.Failure{
		"GetData": {Ret: cli.SQL_ERROR, Diags: []cli.DiagRecord{{State: "HY010", Text: "function sequence error"}}},
	}
	v := blobView(t, fake)

	data, _, ok := v.Column("data").String()
	assert.True(t, ok)
	assert.Empty(t, data)
	assert.Equal(t, "SQLGetData: HY010: function sequence error", v.Error())
}

func TestLargeObjectContinuationFailure(t *testing.T) {
	fake := clitest.New(blobColumns, [][]any{{1, pattern(3000)}})
	fake.Fail = map[string]clitest.Failure{
		"GetData": {Ret: cli.SQL_ERROR, Call: 2, Diags: []cli.DiagRecord{{State: "08S01", Text: "link failure"}}},
	}
	v := blobView(t, fake)

	data, _, _ := v.Column("data").String()
	assert.Empty(t, data)
	assert.Equal(t, "SQLGetData: 08S01: link failure", v.Error())
}

func TestLargeObjectContinuationWithInfo(t *testing.T) {
	fake := clitest.New(blobColumns, [][]any{{1, pattern(3000)}})
	fake.Fail = map[string]clitest.Failure{"GetData": {Ret: cli.SQL_SUCCESS_WITH_INFO, Call: 2}}
	v := blobView(t, fake)

	data, _, _ := v.Column("data").String()
	assert.Empty(t, data)
	assert.Equal(t, "", v.Error())
}

func TestLargeObjectCachedPerRow(t *testing.T) {
	fake := clitest.New(blobColumns, [][]any{{1, "first"}, {2, "second"}})
	v := blobView(t, fake)
	col := v.Column("data")

	a, _, _ := col.String()
	b, _, _ := col.String()
	assert.Equal(t, "first", string(a))
	assert.Equal(t, "first", string(b))
	assert.Equal(t, "first", col.Value().String())
	assert.Equal(t, 1, fake.Calls("GetData"))

	require.NoError(t, v.Skip(1))
	c, _, _ := col.String()
	assert.Equal(t, "second", string(c))
	assert.Equal(t, 2, fake.Calls("GetData"))

	// repositioning on the same row reads again
	require.NoError(t, v.Go(2))
	_, _, _ = col.String()
	assert.Equal(t, 3, fake.Calls("GetData"))
}

func TestLargeObjectLogged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob.log")
	fake := clitest.New(blobColumns, [][]any{{1, "hello"}})
	s := openSession(t, fake, func(c *Config) { c.LogFile = path })
	v, err := s.OpenView("blobs", "SELECT id, data FROM blobs")
	require.NoError(t, err)
	_, _, _ = v.Column("data").String()
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.Contains(data, []byte("+++ BLOB data for column 2: length = 5, data = 'hello'\n")))
	assert.True(t, bytes.Contains(data, []byte("--- Column 2: name = data, datatype = -1, precision = 0, scale = 0, nullable = 0\n")))
	assert.True(t, bytes.Contains(data, []byte("*** load_row( 1 ), eof = 0, deleted = 0\n")))
}
