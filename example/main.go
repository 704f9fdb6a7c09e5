package main

import (
	"fmt"
	"log"
	"strings"

	odbc "github.com/semihalev/go-odbc"
	"github.com/semihalev/go-odbc/bridge"
	"github.com/semihalev/go-odbc/cli"
	"github.com/semihalev/go-odbc/native"
)

func main() {
	// Report the driver manager of this host; the example itself runs on the
	// in-process bridge
	fmt.Printf("%s\n\n", native.Probe(""))

	// Large text parameters travel at execution time when they are described
	// as long columns
	describe := func(query string, param uint16) (cli.ParamDesc, bool) {
		if strings.HasPrefix(query, "INSERT INTO notes") && param == 2 {
			return cli.ParamDesc{SQLType: cli.SQL_LONGVARCHAR}, true
		}
		return cli.ParamDesc{}, false
	}
	api := bridge.New(bridge.WithParamDescriber(describe))

	sess, err := odbc.Open(odbc.Config{API: api}, "DRIVER=sqlite;DATABASE=:memory:", "", "")
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer sess.Close()

	// Create a table
	if err := sess.RunQuery(`CREATE TABLE users (id INTEGER PRIMARY KEY, name VARCHAR(20), age INTEGER)`); err != nil {
		log.Fatalf("failed to create table: %v", err)
	}

	// Insert some data, one statement per row
	for i, name := range []string{"Alice", "Bob", "Charlie"} {
		err := sess.RunQuery(`INSERT INTO users (id, name, age) VALUES (?, ?, ?)`,
			odbc.Int(int64(i+1)), odbc.String(name), odbc.Int(int64(25+5*i)))
		if err != nil {
			log.Fatalf("failed to insert data: %v", err)
		}
	}

	// Query with a parameter
	v, err := sess.OpenView("users", `SELECT id, name, age FROM users WHERE age > ? ORDER BY age ASC`, odbc.Int(20))
	if err != nil {
		log.Fatalf("failed to query data: %v", err)
	}

	fmt.Println("ID\tName\tAge")
	fmt.Println("--\t----\t---")
	for !v.EOF() {
		id, _ := v.Column("id").Int()
		name, _, _ := v.Column("name").String()
		age, _ := v.Column("age").Int()
		fmt.Printf("%d\t%s\t%d\n", id, name, age)

		if err := v.Skip(1); err != nil {
			log.Fatalf("failed to fetch: %v", err)
		}
	}

	// The cursor is scrollable, jump back to the middle row
	if err := v.Go(2); err != nil {
		log.Fatalf("failed to position: %v", err)
	}
	name, _, _ := v.Column("name").String()
	fmt.Printf("\nRecord 2 is %s\n", name)

	// Transaction example
	if err := sess.Transact(); err != nil {
		log.Fatalf("failed to begin transaction: %v", err)
	}
	if err := sess.RunQuery(`UPDATE users SET age = age + 1 WHERE name = ?`, odbc.String("Alice")); err != nil {
		_ = sess.Rollback()
		log.Fatalf("failed to update: %v", err)
	}
	if err := sess.Commit(); err != nil {
		log.Fatalf("failed to commit transaction: %v", err)
	}

	// Large object round trip
	if err := sess.RunQuery(`CREATE TABLE notes (id INTEGER, body TEXT)`); err != nil {
		log.Fatalf("failed to create table: %v", err)
	}
	body := strings.Repeat("All work and no play. ", 100)
	if err := sess.RunQuery(`INSERT INTO notes (id, body) VALUES (?, ?)`, odbc.Int(1), odbc.String(body)); err != nil {
		log.Fatalf("failed to insert note: %v", err)
	}
	notes, err := sess.OpenView("notes", `SELECT id, body FROM notes`)
	if err != nil {
		log.Fatalf("failed to query notes: %v", err)
	}
	data, _, _ := notes.Column("body").String()
	fmt.Printf("Note 1 holds %d bytes\n", len(data))

	// Table structure
	fmt.Println("\nStructure of users:")
	for _, f := range v.Structure() {
		fmt.Printf("  %-6s %c %d.%d\n", f.Name, f.Type, f.Len, f.Dec)
	}
}
