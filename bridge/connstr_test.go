package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConnString(t *testing.T) {
	tbl := []struct {
		in   string
		want map[string]string
	}{
		{"", map[string]string{}},
		{"DSN=warehouse", map[string]string{"dsn": "warehouse"}},
		{"DRIVER={sqlite};DATABASE=/tmp/a.db;", map[string]string{"driver": "sqlite", "database": "/tmp/a.db"}},
		{"Driver=mysql; UID=scott ;PWD={ti;ger}", map[string]string{"driver": "mysql", "uid": "scott", "pwd": "ti;ger"}},
		{"novalue;DSN=x", map[string]string{"novalue;dsn": "x"}},
		{"A={unterminated", map[string]string{"a": "unterminated"}},
	}
	for _, tt := range tbl {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseConnString(tt.in))
		})
	}
}

func TestFormatConnString(t *testing.T) {
	out := formatConnString(map[string]string{"driver": "mysql", "uid": "scott", "pwd": "tiger", "opts": "a;b"})
	assert.Equal(t, "DRIVER=mysql;OPTS={a;b};UID=scott;", out)
}

func TestDriverName(t *testing.T) {
	for in, want := range map[string]string{
		"sqlite": "sqlite", "{SQLite3}": "sqlite", "MariaDB": "mysql", "mysql": "mysql",
		"postgresql": "postgres", "PgSQL": "postgres",
	} {
		got, ok := driverName(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := driverName("oracle")
	assert.False(t, ok)
}

func TestWithCredentials(t *testing.T) {
	src := withCredentials(Source{Driver: "postgres", DSN: "postgres://{user}:{password}@db/app"}, "app", "s3cret")
	assert.Equal(t, "postgres://app:s3cret@db/app", src.DSN)

	src = withCredentials(Source{Driver: "sqlite", DSN: "file.db"}, "ignored", "ignored")
	assert.Equal(t, "file.db", src.DSN)
}

func TestCountPlaceholders(t *testing.T) {
	assert.Equal(t, 0, countPlaceholders("SELECT 1"))
	assert.Equal(t, 2, countPlaceholders("SELECT * FROM t WHERE a = ? AND b = ?"))
	assert.Equal(t, 1, countPlaceholders("SELECT '?' , \"?\", `?` FROM t WHERE a = ?"))
}
