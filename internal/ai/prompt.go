package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/johan-st/sqlhelper/internal/database"
)

// BuildContext describes a table for the model, one "- name: type, null,
// key" line per column.
func BuildContext(table string, cols []database.ColumnDescriptor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Structure of table %s:\n", table)
	for _, c := range cols {
		null := "NOT NULL"
		if c.Nullable() {
			null = "NULL"
		}
		fmt.Fprintf(&b, "- %s: %s, %s, %s\n", c.Field, c.Type, null, c.Key)
	}
	return b.String()
}

func dialectLabel(driver string) string {
	switch driver {
	case "postgres", "postgresql", "pgx":
		return "PostgreSQL"
	case "sqlite", "sqlite3":
		return "SQLite"
	default:
		return "MySQL"
	}
}

func buildPrompt(driver, tableContext, request string) string {
	return fmt.Sprintf(`You are an expert SQL assistant. Write a %s query for the request below, using the table structure given.

Table structure:
%s
Request: %s

Respond with a JSON object only, with these fields:
- "sql": the SQL statement
- "explanation": a short explanation of the SQL`, dialectLabel(driver), tableContext, request)
}

// reply is the JSON object the model is asked for.
type reply struct {
	SQL         string `json:"sql"`
	Explanation string `json:"explanation"`
}

var thinkTag = regexp.MustCompile(`(?s)^\s*<think>.*?</think>\s*`)

// extractJSON finds the first JSON object in content, tolerating code fences,
// leading <think> blocks and surrounding prose.
func extractJSON(content string) (string, error) {
	cleaned := thinkTag.ReplaceAllString(content, "")

	start := strings.IndexByte(cleaned, '{')
	if start < 0 {
		return "", errors.New("no JSON object in response")
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(cleaned); i++ {
		c := cleaned[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				obj := cleaned[start : i+1]
				if !json.Valid([]byte(obj)) {
					return "", errors.New("malformed JSON object in response")
				}
				return obj, nil
			}
		}
	}
	return "", errors.New("unterminated JSON object in response")
}

func parseReply(content string) (reply, error) {
	var r reply
	obj, err := extractJSON(content)
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal([]byte(obj), &r); err != nil {
		return r, fmt.Errorf("unmarshal reply: %w", err)
	}
	if strings.TrimSpace(r.SQL) == "" {
		return r, errors.New(`reply has no "sql" field`)
	}
	return r, nil
}

// CleanStatement drops blank and "--" comment-only lines and joins the rest
// with single spaces.
func CleanStatement(sqlText string) string {
	var parts []string
	for _, line := range strings.Split(sqlText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, " ")
}
