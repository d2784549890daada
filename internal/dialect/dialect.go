// Package dialect renders identifiers, column types and DDL for the supported
// backends.
package dialect

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/jackc/pgx/v5"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/hurou927/db-dump/internal/convert"
	"github.com/hurou927/db-dump/internal/schema"
)

// Dialect describes one SQL backend.
type Dialect struct {
	name       string
	maxIdent   int
	tokens     map[schema.StorageType]string
	identity   func(c schema.Column) string
	converters []convert.Converter
}

// Name returns the backend name.
func (d *Dialect) Name() string {
	return d.name
}

// MaxIdentifierLength returns the longest identifier the backend accepts, in bytes.
func (d *Dialect) MaxIdentifierLength() int {
	return d.maxIdent
}

// Converters returns the value conversions the backend needs, in registration order.
func (d *Dialect) Converters() []convert.Converter {
	out := make([]convert.Converter, len(d.converters))
	copy(out, d.converters)
	return out
}

// ValidName sanitizes name and truncates it to the identifier limit.
func (d *Dialect) ValidName(name string) string {
	s := Sanitize(name)
	if len(s) > d.maxIdent {
		s = s[:d.maxIdent]
	}
	return s
}

// Quote returns name as a quoted identifier.
func (d *Dialect) Quote(name string) string {
	return pgx.Identifier{d.ValidName(name)}.Sanitize()
}

// StorageDbType returns the backend type token of the column.
func (d *Dialect) StorageDbType(c schema.Column) string {
	if tok, ok := d.tokens[c.Type]; ok {
		return tok
	}
	return d.tokens[schema.String]
}

// ColumnDefinition renders the column clause of a CREATE TABLE statement.
func (d *Dialect) ColumnDefinition(c schema.Column) string {
	var b strings.Builder
	b.WriteString(d.Quote(c.Name))
	b.WriteByte(' ')
	b.WriteString(d.StorageDbType(c))
	if c.Identity && d.identity != nil {
		if clause := d.identity(c); clause != "" {
			b.WriteByte(' ')
			b.WriteString(clause)
		}
	}
	if c.Nullable {
		b.WriteString(" NULL")
	} else {
		b.WriteString(" NOT NULL")
	}
	return b.String()
}

// TableDefinition renders the CREATE TABLE statement of t.
func (d *Dialect) TableDefinition(t *schema.Table) string {
	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		defs[i] = d.ColumnDefinition(c)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", d.Quote(t.Name), strings.Join(defs, ", "))
}

// PromoteStatements replaces live with shadow.
func (d *Dialect) PromoteStatements(shadow, live string) []string {
	return []string{
		fmt.Sprintf("DROP TABLE IF EXISTS %s", d.Quote(live)),
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s", d.Quote(shadow), d.Quote(live)),
	}
}

// ByName returns the dialect of a configured driver.
func ByName(name string) (*Dialect, error) {
	switch name {
	case "postgres":
		return Postgres(), nil
	case "sqlite":
		return SQLite(), nil
	}
	return nil, fmt.Errorf("unknown driver %q", name)
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Sanitize folds accented letters to their base letter and drops everything but
// ASCII letters, digits and underscores.
func Sanitize(name string) string {
	folded, _, err := transform.String(stripMarks, name)
	if err != nil {
		folded = name
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return -1
	}, folded)
}
