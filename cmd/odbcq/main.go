package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	odbc "github.com/semihalev/go-odbc"
	"github.com/semihalev/go-odbc/bridge"
	"github.com/semihalev/go-odbc/cli"
	"github.com/semihalev/go-odbc/native"
)

type options struct {
	PositionalArgs struct {
		Query string `positional-arg-name:"query" description:"statement to run"`
	} `positional-args:"yes" positional-optional:"yes"`

	Target   string   `short:"d" long:"dsn" env:"ODBCQ_DSN" description:"data source name or connection string"`
	User     string   `short:"u" long:"user" env:"ODBCQ_USER" description:"user name"`
	Password string   `short:"p" long:"password" env:"ODBCQ_PASSWORD" description:"password"`
	Args     []string `short:"a" long:"arg" description:"statement parameter, repeat for each placeholder"`

	Backend string `short:"b" long:"backend" env:"ODBCQ_BACKEND" description:"call-level backend" choice:"native" choice:"bridge" default:"native"`
	Library string `long:"library" env:"ODBC_LIBRARY" description:"driver manager library"`
	Config  string `short:"c" long:"config" env:"ODBCQ_CONFIG" description:"yaml config file"`

	Exec        bool   `short:"x" long:"exec" description:"run a statement without a result set"`
	Limit       int    `short:"n" long:"limit" description:"max rows to print, 0 for all" default:"0"`
	ForwardOnly bool   `long:"forward-only" description:"open forward-only cursors"`
	Truncate    bool   `long:"truncate" description:"clamp character parameters to the declared size"`
	ManualCmt   bool   `long:"manual-commit" description:"do not commit after the statement"`
	SQLLog      string `long:"sql-log" description:"session log file"`

	Info    bool `long:"info" description:"show driver manager status"`
	Version bool `long:"version" description:"show version"`
	Dbg     bool `long:"dbg" description:"debug mode"`
}

// fileConfig is the yaml config: session settings plus the named sources the
// bridge backend serves.
type fileConfig struct {
	odbc.Config `yaml:",inline"`
	Sources     map[string]bridge.Source `yaml:"sources"`
}

var revision = "latest"

var exitFunc = os.Exit

func main() {
	var opts options
	p := flags.NewParser(&opts, flags.PrintErrors|flags.PassDoubleDash|flags.HelpFlag)
	if _, err := p.Parse(); err != nil {
		exitFunc(1)
		return
	}
	if opts.Version {
		fmt.Printf("odbcq %s\n", revision)
		exitFunc(0)
		return
	}
	setupLog(opts.Dbg)

	if err := run(opts, os.Stdout); err != nil {
		if opts.Dbg {
			log.Printf("[ERROR] %v", err)
		}
		fmt.Fprintf(os.Stderr, "failed, %v\n", err)
		exitFunc(1)
	}
}

func run(opts options, out io.Writer) error {
	if opts.Info {
		fmt.Fprintln(out, native.Probe(opts.Library).String())
		return nil
	}
	if opts.Target == "" {
		return fmt.Errorf("no data source, set --dsn")
	}
	if opts.PositionalArgs.Query == "" {
		return fmt.Errorf("no query")
	}

	conf, err := loadConfig(opts)
	if err != nil {
		return err
	}

	api, closer, err := makeAPI(opts, conf.Sources)
	if err != nil {
		return err
	}
	defer closer()

	conf.API = api
	conf.Logger = lgr.Default()
	sess, err := odbc.Open(conf.Config, opts.Target, opts.User, opts.Password)
	if err != nil {
		return fmt.Errorf("can't connect to %s: %w", opts.Target, err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			log.Printf("[WARN] close session: %v", err)
		}
	}()
	log.Printf("[DEBUG] session %s, backend %s", sess.ID(), opts.Backend)

	args := make([]odbc.Value, 0, len(opts.Args))
	for _, a := range opts.Args {
		args = append(args, odbc.String(a))
	}

	if opts.Exec {
		if err := sess.RunQuery(opts.PositionalArgs.Query, args...); err != nil {
			return fmt.Errorf("can't run statement: %w", err)
		}
		fmt.Fprintln(out, "ok")
		return nil
	}

	v, err := sess.OpenView("q", opts.PositionalArgs.Query, args...)
	if err != nil {
		return fmt.Errorf("can't open view: %w", err)
	}
	return printView(out, v, opts.Limit)
}

// loadConfig reads the optional config file and applies the command line
// overrides.
func loadConfig(opts options) (fileConfig, error) {
	res := fileConfig{}
	if opts.Config != "" {
		if err := odbc.LoadConfigFile(opts.Config, &res); err != nil {
			return res, err
		}
	}
	res.ForwardOnly = res.ForwardOnly || opts.ForwardOnly
	res.Truncate = res.Truncate || opts.Truncate
	res.ManualCommit = res.ManualCommit || opts.ManualCmt
	if opts.SQLLog != "" {
		res.LogFile = opts.SQLLog
	}
	return res, nil
}

func makeAPI(opts options, sources map[string]bridge.Source) (cli.API, func(), error) {
	switch opts.Backend {
	case "bridge":
		bopts := []bridge.Option{bridge.WithLogger(lgr.Default())}
		for name, src := range sources {
			bopts = append(bopts, bridge.WithSource(name, src))
		}
		return bridge.New(bopts...), func() {}, nil
	case "native", "":
		d, err := native.Load(opts.Library)
		if err != nil {
			return nil, nil, fmt.Errorf("can't load driver manager: %w", err)
		}
		return d, func() {
			if err := d.Close(); err != nil {
				log.Printf("[WARN] unload driver manager: %v", err)
			}
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", opts.Backend)
}

// printView writes the result columns as a tab separated header followed by
// up to limit rows.
func printView(out io.Writer, v *odbc.Cursor, limit int) error {
	var cols []*odbc.Column
	var names []string
	for _, c := range v.Columns() {
		if c.Ordinal() == 0 {
			continue
		}
		cols = append(cols, c)
		names = append(names, c.Name())
	}
	fmt.Fprintln(out, color.New(color.Bold).Sprint(strings.Join(names, "\t")))

	for n := 0; !v.EOF() && (limit == 0 || n < limit); n++ {
		vals := make([]string, 0, len(cols))
		for _, c := range cols {
			val := c.Value()
			if val.IsNull() {
				vals = append(vals, "NULL")
				continue
			}
			vals = append(vals, val.String())
		}
		fmt.Fprintln(out, strings.Join(vals, "\t"))
		if err := v.Skip(1); err != nil {
			return fmt.Errorf("can't fetch row %d: %w", v.RecNo()+1, err)
		}
	}
	return nil
}

func setupLog(dbg bool) {
	logOpts := []lgr.Option{lgr.Out(io.Discard), lgr.Err(io.Discard)}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))

	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
