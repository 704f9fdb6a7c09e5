package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteTarget(t *testing.T) string {
	t.Helper()
	return "DRIVER=sqlite;DATABASE=" + filepath.Join(t.TempDir(), "test.db")
}

func bridgeOpts(target, query string, args ...string) options {
	opts := options{Target: target, Backend: "bridge", Args: args}
	opts.PositionalArgs.Query = query
	return opts
}

func Test_runExecAndSelect(t *testing.T) {
	target := sqliteTarget(t)

	for _, q := range []struct {
		query string
		args  []string
	}{
		{"CREATE TABLE users (id INTEGER, name VARCHAR(20), score DOUBLE)", nil},
		{"INSERT INTO users VALUES (?, ?, ?)", []string{"1", "alice", "9.5"}},
		{"INSERT INTO users VALUES (?, ?, ?)", []string{"2", "bob", "7"}},
	} {
		opts := bridgeOpts(target, q.query, q.args...)
		opts.Exec = true
		var out bytes.Buffer
		require.NoError(t, run(opts, &out))
		assert.Equal(t, "ok\n", out.String())
	}

	var out bytes.Buffer
	require.NoError(t, run(bridgeOpts(target, "SELECT id, name, score FROM users ORDER BY id"), &out))
	assert.Equal(t, "id\tname\tscore\n1\talice\t9.5\n2\tbob\t7\n", out.String())

	out.Reset()
	opts := bridgeOpts(target, "SELECT name FROM users WHERE id > ? ORDER BY id", "0")
	opts.Limit = 1
	require.NoError(t, run(opts, &out))
	assert.Equal(t, "name\nalice\n", out.String())
}

func Test_runNulls(t *testing.T) {
	target := sqliteTarget(t)
	opts := bridgeOpts(target, "CREATE TABLE t (a INTEGER, b VARCHAR(5))")
	opts.Exec = true
	require.NoError(t, run(opts, &bytes.Buffer{}))
	opts.PositionalArgs.Query = "INSERT INTO t (a) VALUES (1)"
	require.NoError(t, run(opts, &bytes.Buffer{}))

	var out bytes.Buffer
	require.NoError(t, run(bridgeOpts(target, "SELECT a, b FROM t"), &out))
	assert.Equal(t, "a\tb\n1\tNULL\n", out.String())
}

func Test_runConfigSources(t *testing.T) {
	dir := t.TempDir()
	conf := filepath.Join(dir, "odbcq.yml")
	data := "forward_only: true\nsources:\n  local:\n    driver: sqlite\n    dsn: " + filepath.Join(dir, "local.db") + "\n"
	require.NoError(t, os.WriteFile(conf, []byte(data), 0o600))

	opts := bridgeOpts("local", "SELECT 1 AS one")
	opts.Config = conf
	opts.SQLLog = filepath.Join(dir, "sql.log")
	var out bytes.Buffer
	require.NoError(t, run(opts, &out))
	assert.Equal(t, "one\n1\n", out.String())

	logged, err := os.ReadFile(opts.SQLLog)
	require.NoError(t, err)
	assert.Contains(t, string(logged), "SELECT 1 AS one\n")
}

func Test_loadConfig(t *testing.T) {
	dir := t.TempDir()
	conf := filepath.Join(dir, "odbcq.yml")
	data := "manual_commit: true\nlog_file: file.log\nsources:\n  pg:\n    driver: postgres\n    dsn: postgres://db/app\n"
	require.NoError(t, os.WriteFile(conf, []byte(data), 0o600))

	opts := options{Config: conf, Truncate: true, SQLLog: "flag.log"}
	res, err := loadConfig(opts)
	require.NoError(t, err)
	assert.True(t, res.ManualCommit)
	assert.True(t, res.Truncate)
	assert.Equal(t, "flag.log", res.LogFile)
	require.Contains(t, res.Sources, "pg")
	assert.Equal(t, "postgres", res.Sources["pg"].Driver)
	assert.Equal(t, "postgres://db/app", res.Sources["pg"].DSN)

	require.NoError(t, os.WriteFile(conf, []byte("sources: [1"), 0o600))
	_, err = loadConfig(opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "can't unmarshal config")
}

func Test_runErrors(t *testing.T) {
	err := run(options{Backend: "bridge"}, &bytes.Buffer{})
	require.EqualError(t, err, "no data source, set --dsn")

	err = run(options{Backend: "bridge", Target: "x"}, &bytes.Buffer{})
	require.EqualError(t, err, "no query")

	err = run(bridgeOpts("missing", "SELECT 1"), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IM002")

	err = run(bridgeOpts(sqliteTarget(t), "SELECT * FROM nowhere"), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "can't open view")

	opts := bridgeOpts(sqliteTarget(t), "SELECT 1")
	opts.Config = "/dev/null/odbcq.yml"
	err = run(opts, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "can't read config")

	opts = bridgeOpts(sqliteTarget(t), "SELECT 1")
	opts.Backend = "native"
	opts.Library = "/nonexistent/libodbc.so"
	err = run(opts, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "can't load driver manager")
}

func Test_runInfo(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(options{Info: true, Library: "/nonexistent/libodbc.so"}, &out))
	assert.Contains(t, out.String(), "Driver manager: Not available")
}

func Test_mainVersion(t *testing.T) {
	code := -1
	exitFunc = func(c int) { code = c }
	defer func() { exitFunc = os.Exit }()

	os.Args = []string{"odbcq", "--version"}
	main()
	assert.Equal(t, 0, code)
}

func Test_mainFailure(t *testing.T) {
	code := -1
	exitFunc = func(c int) { code = c }
	defer func() { exitFunc = os.Exit }()

	os.Args = []string{"odbcq", "--backend=bridge", "--dsn=missing", "SELECT 1"}
	main()
	assert.Equal(t, 1, code)
}
