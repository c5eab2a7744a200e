package database

import (
	"fmt"
	"strings"
)

// Statement is a parameterized statement plus a literal rendering of it for
// confirmation prompts and logs. Only SQL and Args are sent to the driver.
type Statement struct {
	SQL     string
	Args    []any
	Preview string
}

// Assignment is one column/value pair of an INSERT or UPDATE.
type Assignment struct {
	Column string
	Value  string
}

// BuildInsert builds an INSERT of the given values, bound verbatim.
func BuildInsert(d Dialect, database, table string, values []Assignment) (Statement, error) {
	if len(values) == 0 {
		return Statement{}, fmt.Errorf("no data to insert")
	}

	cols := make([]string, len(values))
	shown := make([]string, len(values))
	holders := make([]string, len(values))
	literals := make([]string, len(values))
	args := make([]any, len(values))

	for i, v := range values {
		cols[i] = d.QuoteIdent(v.Column)
		shown[i] = DisplayIdent(d, v.Column)
		holders[i] = d.Placeholder(i + 1)
		literals[i] = QuoteLiteral(v.Value)
		args[i] = v.Value
	}

	return Statement{
		SQL: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			d.TableRef(database, table), strings.Join(cols, ", "), strings.Join(holders, ", ")),
		Args: args,
		Preview: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			DisplayIdent(d, table), strings.Join(shown, ", "), strings.Join(literals, ", ")),
	}, nil
}

// BuildUpdate builds an UPDATE of values on the rows whose keyColumn equals
// keyValue.
func BuildUpdate(d Dialect, database, table string, values []Assignment, keyColumn string, keyValue any) (Statement, error) {
	if len(values) == 0 {
		return Statement{}, fmt.Errorf("no data to update")
	}
	if keyColumn == "" {
		return Statement{}, fmt.Errorf("no key column")
	}

	sets := make([]string, len(values))
	shown := make([]string, len(values))
	args := make([]any, 0, len(values)+1)

	for i, v := range values {
		sets[i] = fmt.Sprintf("%s = %s", d.QuoteIdent(v.Column), d.Placeholder(i+1))
		shown[i] = fmt.Sprintf("%s=%s", DisplayIdent(d, v.Column), QuoteLiteral(v.Value))
		args = append(args, v.Value)
	}
	args = append(args, keyValue)

	return Statement{
		SQL: fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
			d.TableRef(database, table), strings.Join(sets, ", "),
			d.QuoteIdent(keyColumn), d.Placeholder(len(values)+1)),
		Args: args,
		Preview: fmt.Sprintf("UPDATE %s SET %s WHERE %s=%s",
			DisplayIdent(d, table), strings.Join(shown, ", "),
			DisplayIdent(d, keyColumn), QuoteLiteral(FormatValue(keyValue))),
	}, nil
}

// BuildDelete builds a DELETE of the rows whose keyColumn equals keyValue.
func BuildDelete(d Dialect, database, table, keyColumn string, keyValue any) (Statement, error) {
	if keyColumn == "" {
		return Statement{}, fmt.Errorf("no key column")
	}
	return Statement{
		SQL: fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
			d.TableRef(database, table), d.QuoteIdent(keyColumn), d.Placeholder(1)),
		Args: []any{keyValue},
		Preview: fmt.Sprintf("DELETE FROM %s WHERE %s=%s",
			DisplayIdent(d, table), DisplayIdent(d, keyColumn), QuoteLiteral(FormatValue(keyValue))),
	}, nil
}
