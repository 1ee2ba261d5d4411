package postgrest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/pgshape/internal/ir"
)

// EncodePredicate returns the query parameter a predicate is sent as.
func EncodePredicate(p Predicate) (key, value string, err error) {
	if p == nil {
		return "", "", fmt.Errorf("cannot encode nil predicate")
	}

	switch pred := p.(type) {
	case Cond:
		return encodeCond(pred)
	case *Cond:
		return encodeCond(*pred)
	case Any:
		return encodeAny(pred), "(" + pred.Filters + ")", nil
	case *Any:
		return encodeAny(*pred), "(" + pred.Filters + ")", nil
	case Raw:
		return pred.Path, pred.Op + "." + pred.Value, nil
	case *Raw:
		return pred.Path, pred.Op + "." + pred.Value, nil
	default:
		return "", "", fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func encodeCond(c Cond) (string, string, error) {
	if !c.Op.Valid() {
		return "", "", fmt.Errorf("unknown filter operator %q", string(c.Op))
	}

	value, err := EncodeValue(c.Op, c.Value)
	if err != nil {
		return "", "", fmt.Errorf("encode %s: %w", c.Path, err)
	}

	var sb strings.Builder
	if c.Negate {
		sb.WriteString("not.")
	}
	sb.WriteString(string(c.Op))
	if c.Config != "" {
		sb.WriteString("(" + c.Config + ")")
	}
	sb.WriteByte('.')
	sb.WriteString(value)
	return c.Path, sb.String(), nil
}

func encodeAny(a Any) string {
	if a.ForeignTable != "" {
		return a.ForeignTable + ".or"
	}
	return "or"
}

// EncodeValue renders a filter argument the way op expects it on the wire.
//
//	in    (a,b,"c,d")   strings holding , ( or ) are double-quoted
//	cs    {a,b}         arrays; objects are sent as JSON, strings as-is
//	other               the scalar's text form
func EncodeValue(op Operator, v ir.IRValue) (string, error) {
	if v == nil {
		v = ir.IRNull{}
	}

	switch op {
	case OpIn:
		items, ok := v.(ir.IRArray)
		if !ok {
			items = ir.IRArray{v}
		}
		parts := make([]string, len(items))
		for i, item := range items {
			text, err := scalarText(item)
			if err != nil {
				return "", err
			}
			if _, isString := item.(ir.IRString); isString && strings.ContainsAny(text, ",()") {
				text = `"` + text + `"`
			}
			parts[i] = text
		}
		return "(" + strings.Join(parts, ",") + ")", nil

	case OpContains, OpContainedBy, OpOverlaps:
		switch val := v.(type) {
		case ir.IRArray:
			parts := make([]string, len(val))
			for i, item := range val {
				text, err := scalarText(item)
				if err != nil {
					return "", err
				}
				parts[i] = text
			}
			return "{" + strings.Join(parts, ",") + "}", nil
		case ir.IRObject:
			b, err := ir.MarshalIRValue(val)
			if err != nil {
				return "", err
			}
			return string(b), nil
		}
	}
	return scalarText(v)
}

// scalarText is the plain text form of a value; composite values fall
// back to JSON.
func scalarText(v ir.IRValue) (string, error) {
	switch val := v.(type) {
	case nil, ir.IRNull:
		return "null", nil
	case ir.IRString:
		return string(val), nil
	case ir.IRInt:
		return strconv.FormatInt(int64(val), 10), nil
	case ir.IRFloat:
		return strconv.FormatFloat(float64(val), 'f', -1, 64), nil
	case ir.IRBool:
		return strconv.FormatBool(bool(val)), nil
	default:
		b, err := ir.MarshalIRValue(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
