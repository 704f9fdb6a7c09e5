/*
Package odbc provides a query execution and cursor adapter over the ODBC call-level interface.

# Overview

A Session owns one connection. Queries run either as views, which keep a
cursor open over the result set, or as plain statements that only report
success. Host values are converted to the parameter types the driver
declares, so scripts can pass untyped values positionally.

The call-level interface itself is abstracted by cli.API. Two backends are
provided:

 1. native: the system ODBC driver manager loaded at run time, no cgo
 2. bridge: an in-process emulation over database/sql (sqlite, mysql, postgres)

# Example

	api, err := native.Load("")
	if err != nil {
		log.Fatalf("failed to load driver manager: %v", err)
	}

	sess, err := odbc.Open(odbc.Config{API: api}, "DSN=warehouse", "scott", "tiger")
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer sess.Close()

	view, err := sess.OpenView("items", "SELECT id, name, notes FROM items WHERE price > ?", odbc.Double(9.5))
	if err != nil {
		log.Fatalf("query failed: %s", sess.Error())
	}
	for !view.EOF() {
		id, _ := view.Column("id").Int()
		notes, _, _ := view.Column("notes").String()
		fmt.Println(id, string(notes))
		if err := view.Skip(1); err != nil {
			break
		}
	}

# Cursors

Views request a static scrollable cursor. When the driver refuses, or the
forwardonly directive is set, the view runs forward-only: positioning
fetches forward until the target row is reached, and earlier targets leave
the cursor where it is.

Every view exposes the synthetic integer columns recno, eof and deleted in
front of the result columns.

# Large objects

LONGVARCHAR and LONGVARBINARY values are bound at execution time and read
on demand. A read starts with a 512 byte probe and, when the driver reports
the total length, finishes with a single continuation read. Drivers that
cannot report the length return the probe only; Column.LengthUndetermined
reports that case.

# Diagnostics

Every failure records a message built from the driver's diagnostic
records, prefixed with the name of the failing call, in Session.Error.
Records that do not fit into 1023 bytes are dropped.
*/
package odbc
