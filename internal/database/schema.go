package database

import (
	"database/sql"
	"strings"
)

// ColumnDescriptor is one row of a table description.
type ColumnDescriptor struct {
	Field   string
	Type    string
	Null    string // "YES" or "NO"
	Key     string // PRI, UNI, MUL or empty
	Default sql.NullString
	Extra   string
}

// StructureColumns is the fixed header of a table description.
var StructureColumns = []string{"Field", "Type", "Null", "Key", "Default", "Extra"}

// Nullable reports whether the column accepts NULL.
func (c ColumnDescriptor) Nullable() bool {
	return strings.EqualFold(c.Null, "YES")
}

// IsPrimaryKey reports whether the column is part of the primary key.
func (c ColumnDescriptor) IsPrimaryKey() bool {
	return c.Key == "PRI"
}

// DefaultText renders the default for display.
func (c ColumnDescriptor) DefaultText() string {
	if !c.Default.Valid {
		return "NULL"
	}
	return c.Default.String
}

// Cells returns the descriptor as the six structure cells.
func (c ColumnDescriptor) Cells() []string {
	return []string{c.Field, c.Type, c.Null, c.Key, c.DefaultText(), c.Extra}
}

// quoteIdentifier safely quotes an identifier with double quotes.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteBacktick(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
