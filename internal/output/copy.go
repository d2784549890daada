package output

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/hurou927/db-dump/internal/persist"
)

// Writer writes COPY-format SQL output. It serves as a store whose sessions print
// every statement instead of executing it.
type Writer struct {
	w io.Writer
}

// NewWriter creates a new COPY output writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// OpenSession returns the writer itself.
func (cw *Writer) OpenSession(context.Context) (persist.Session, error) {
	return cw, nil
}

// Comment writes a SQL line comment.
func (cw *Writer) Comment(text string) error {
	for _, line := range strings.Split(text, "\n") {
		if _, err := fmt.Fprintf(cw.w, "-- %s\n", line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(cw.w)
	return err
}

// Exec writes a single statement.
func (cw *Writer) Exec(_ context.Context, sql string) error {
	_, err := fmt.Fprintf(cw.w, "%s;\n\n", sql)
	return err
}

// ExecTx writes stmts wrapped in BEGIN and COMMIT.
func (cw *Writer) ExecTx(_ context.Context, stmts ...string) error {
	_, err := fmt.Fprintln(cw.w, "BEGIN;")
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := fmt.Fprintf(cw.w, "%s;\n", stmt); err != nil {
			return err
		}
	}
	_, err = fmt.Fprint(cw.w, "COMMIT;\n\n")
	return err
}

// WriteRows writes a COPY block for a single table.
func (cw *Writer) WriteRows(_ context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	_, err := fmt.Fprintf(cw.w, "COPY %s (%s) FROM stdin;\n",
		pgx.Identifier{table}.Sanitize(), strings.Join(quoted, ", "))
	if err != nil {
		return 0, err
	}

	var n int64
	for _, row := range rows {
		vals := make([]string, len(row))
		for i, v := range row {
			vals[i] = EscapeCopyValue(v)
		}
		_, err := fmt.Fprintln(cw.w, strings.Join(vals, "\t"))
		if err != nil {
			return n, err
		}
		n++
	}

	_, err = fmt.Fprintln(cw.w, `\.`)
	if err != nil {
		return n, err
	}
	_, err = fmt.Fprintln(cw.w)
	return n, err
}

// Close is a no-op; the underlying io.Writer belongs to the caller.
func (cw *Writer) Close() error {
	return nil
}
