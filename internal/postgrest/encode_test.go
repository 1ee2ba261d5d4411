package postgrest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pgshape/internal/ir"
)

func TestEncodeValue(t *testing.T) {
	tests := []struct {
		name string
		op   Operator
		v    ir.IRValue
		want string
	}{
		{"string", OpEq, ir.IRString("w1"), "w1"},
		{"int", OpGt, ir.IRInt(42), "42"},
		{"float", OpLt, ir.IRFloat(1.5), "1.5"},
		{"bool", OpIs, ir.IRBool(true), "true"},
		{"null", OpIs, ir.IRNull{}, "null"},
		{"nil", OpIs, nil, "null"},
		{"in quotes reserved characters", OpIn, ir.IRArray{ir.IRString("a"), ir.IRString("b,c"), ir.IRInt(3)}, `(a,"b,c",3)`},
		{"in single value", OpIn, ir.IRString("a"), "(a)"},
		{"in empty", OpIn, ir.IRArray{}, "()"},
		{"contains array", OpContains, ir.IRArray{ir.IRString("a"), ir.IRString("b")}, "{a,b}"},
		{"contains object", OpContains, ir.IRObject{"k": ir.IRInt(1)}, `{"k":1}`},
		{"contains range literal", OpContainedBy, ir.IRString("[1,5)"), "[1,5)"},
		{"overlaps array", OpOverlaps, ir.IRArray{ir.IRInt(1), ir.IRInt(2)}, "{1,2}"},
		{"eq object falls back to json", OpEq, ir.IRObject{"a": ir.IRBool(false)}, `{"a":false}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeValue(tt.op, tt.v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodePredicate(t *testing.T) {
	tests := []struct {
		name      string
		p         Predicate
		wantKey   string
		wantValue string
	}{
		{"cond", Cond{Path: "team.workspaceId", Op: OpEq, Value: ir.IRString("w1")}, "team.workspaceId", "eq.w1"},
		{"negated", &Cond{Path: "id", Op: OpIn, Value: ir.IRArray{ir.IRInt(1), ir.IRInt(2)}, Negate: true}, "id", "not.in.(1,2)"},
		{"text search config", Cond{Path: "body", Op: OpWFTS, Value: ir.IRString("cat"), Config: "english"}, "body", "wfts(english).cat"},
		{"or", Any{Filters: "id.eq.1,id.eq.2"}, "or", "(id.eq.1,id.eq.2)"},
		{"foreign or", &Any{Filters: "email.like.*@x.com", ForeignTable: "members"}, "members.or", "(email.like.*@x.com)"},
		{"raw", Raw{Path: "id", Op: "not.in", Value: "(1,2)"}, "id", "not.in.(1,2)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, value, err := EncodePredicate(tt.p)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, key)
			assert.Equal(t, tt.wantValue, value)
		})
	}
}

func TestEncodePredicateErrors(t *testing.T) {
	_, _, err := EncodePredicate(nil)
	assert.Error(t, err)

	_, _, err = EncodePredicate(Cond{Path: "id", Op: "zz", Value: ir.IRInt(1)})
	assert.ErrorContains(t, err, "unknown filter operator")
}
