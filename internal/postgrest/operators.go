package postgrest

import (
	"fmt"
	"strings"

	"github.com/roach88/pgshape/internal/resolve"
)

// Operator is a PostgREST filter operator, named as on the wire.
type Operator string

const (
	OpEq    Operator = "eq"
	OpNeq   Operator = "neq"
	OpGt    Operator = "gt"
	OpGte   Operator = "gte"
	OpLt    Operator = "lt"
	OpLte   Operator = "lte"
	OpLike  Operator = "like"
	OpILike Operator = "ilike"
	OpIs    Operator = "is"
	OpIn    Operator = "in"

	OpContains      Operator = "cs"
	OpContainedBy   Operator = "cd"
	OpRangeLt       Operator = "sl"
	OpRangeGt       Operator = "sr"
	OpRangeGte      Operator = "nxl"
	OpRangeLte      Operator = "nxr"
	OpRangeAdjacent Operator = "adj"
	OpOverlaps      Operator = "ov"

	OpFTS   Operator = "fts"
	OpPLFTS Operator = "plfts"
	OpPHFTS Operator = "phfts"
	OpWFTS  Operator = "wfts"
)

var operators = []Operator{
	OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte, OpLike, OpILike, OpIs, OpIn,
	OpContains, OpContainedBy, OpRangeLt, OpRangeGt, OpRangeGte, OpRangeLte,
	OpRangeAdjacent, OpOverlaps, OpFTS, OpPLFTS, OpPHFTS, OpWFTS,
}

// Builder-method names accepted by ParseOperator in addition to wire names.
var operatorAliases = map[string]Operator{
	"contains":      OpContains,
	"containedby":   OpContainedBy,
	"rangelt":       OpRangeLt,
	"rangegt":       OpRangeGt,
	"rangegte":      OpRangeGte,
	"rangelte":      OpRangeLte,
	"rangeadjacent": OpRangeAdjacent,
	"overlaps":      OpOverlaps,
	"textsearch":    OpFTS,
}

// Operators returns every supported operator in wire-table order.
func Operators() []Operator {
	return append([]Operator(nil), operators...)
}

// ParseOperator accepts a wire name ("cs") or a builder name ("contains"),
// case-insensitively.
func ParseOperator(s string) (Operator, error) {
	lower := strings.ToLower(strings.TrimSpace(s))
	for _, op := range operators {
		if string(op) == lower {
			return op, nil
		}
	}
	if op, ok := operatorAliases[lower]; ok {
		return op, nil
	}
	return "", fmt.Errorf("unknown filter operator %q", s)
}

// Valid reports whether o is a known operator.
func (o Operator) Valid() bool {
	for _, op := range operators {
		if op == o {
			return true
		}
	}
	return false
}

// Form is the kind of argument the operator takes.
func (o Operator) Form() resolve.ValueForm {
	switch o {
	case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte:
		return resolve.FormScalar
	case OpLike, OpILike:
		return resolve.FormPattern
	case OpIs:
		return resolve.FormIs
	case OpIn:
		return resolve.FormList
	case OpContains, OpContainedBy, OpOverlaps:
		return resolve.FormContainer
	case OpRangeLt, OpRangeGt, OpRangeGte, OpRangeLte, OpRangeAdjacent:
		return resolve.FormRange
	case OpFTS, OpPLFTS, OpPHFTS, OpWFTS:
		return resolve.FormText
	default:
		return resolve.FormRaw
	}
}

// TextSearchType selects the tsquery constructor for TextSearch.
type TextSearchType string

const (
	TextSearchDefault   TextSearchType = ""
	TextSearchPlain     TextSearchType = "plain"
	TextSearchPhrase    TextSearchType = "phrase"
	TextSearchWebsearch TextSearchType = "websearch"
)

func (t TextSearchType) operator() (Operator, error) {
	switch t {
	case TextSearchDefault:
		return OpFTS, nil
	case TextSearchPlain:
		return OpPLFTS, nil
	case TextSearchPhrase:
		return OpPHFTS, nil
	case TextSearchWebsearch:
		return OpWFTS, nil
	default:
		return "", fmt.Errorf("unknown text search type %q", string(t))
	}
}

// Count is the row-counting algorithm requested through Prefer.
type Count string

const (
	CountNone      Count = ""
	CountExact     Count = "exact"
	CountPlanned   Count = "planned"
	CountEstimated Count = "estimated"
)

func (c Count) validate() error {
	switch c {
	case CountNone, CountExact, CountPlanned, CountEstimated:
		return nil
	}
	return fmt.Errorf("unknown count algorithm %q", string(c))
}

// Returning controls whether mutations echo the affected rows.
type Returning string

const (
	ReturnRepresentation Returning = "representation"
	ReturnMinimal        Returning = "minimal"
)

func (r Returning) orDefault() Returning {
	if r == "" {
		return ReturnRepresentation
	}
	return r
}

func (r Returning) validate() error {
	switch r {
	case "", ReturnRepresentation, ReturnMinimal:
		return nil
	}
	return fmt.Errorf("unknown returning mode %q", string(r))
}
