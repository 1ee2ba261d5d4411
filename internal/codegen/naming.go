package codegen

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
)

var initialisms = map[string]string{
	"api":  "API",
	"html": "HTML",
	"http": "HTTP",
	"id":   "ID",
	"ip":   "IP",
	"json": "JSON",
	"sql":  "SQL",
	"uri":  "URI",
	"url":  "URL",
	"uuid": "UUID",
}

// GoName converts a column, alias or table name into an exported Go
// identifier: "workspace_id" and "workspaceId" both become "WorkspaceID".
func GoName(s string) string {
	var sb strings.Builder
	for _, word := range strings.Split(inflect.Underscore(s), "_") {
		if word == "" {
			continue
		}
		if upper, ok := initialisms[word]; ok {
			sb.WriteString(upper)
			continue
		}
		sb.WriteString(inflect.Capitalize(word))
	}

	name := sb.String()
	if name == "" {
		return "X"
	}
	if unicode.IsDigit(rune(name[0])) {
		return "X" + name
	}
	return name
}

// namer hands out unique identifiers within one scope: package-level
// declarations, or the fields of one struct.
type namer struct {
	used map[string]int
}

func newNamer() *namer {
	return &namer{used: make(map[string]int)}
}

// claim returns base, or base2, base3... if base is taken.
func (n *namer) claim(base string) string {
	count := n.used[base]
	n.used[base] = count + 1
	if count == 0 {
		return base
	}
	name := base + strconv.Itoa(count+1)
	for n.used[name] > 0 {
		count++
		name = base + strconv.Itoa(count+1)
	}
	n.used[name] = 1
	return name
}

// rowTypeName is the default name for an unnamed shape of table.
func rowTypeName(table string) string {
	return GoName(inflect.Singularize(table)) + "Row"
}

func fileName(table string) string {
	return strings.ToLower(inflect.Underscore(table)) + "_shapes.go"
}
