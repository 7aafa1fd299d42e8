package lisp

import (
	"math"
	"strconv"
	"strings"
)

// Render returns the external notation of v. It is total over Value.
func Render(v Value) string {
	switch v.Type {
	case TypeVoid:
		return "#<void>"
	case TypeBool:
		if v.Bool {
			return "#t"
		}
		return "#f"
	case TypeInt:
		if v.Big != nil {
			return v.Big.String()
		}
		return strconv.FormatInt(v.Int, 10)
	case TypeFloat:
		return formatFloat(v.Float)
	case TypeString:
		return quoteString(v.Str)
	case TypeSymbol:
		return v.Symbol
	case TypeList:
		parts := make([]string, len(v.List))
		for i, item := range v.List {
			parts[i] = Render(item)
		}
		return "(" + strings.Join(parts, " ") + ")"
	case TypeFunc:
		return "lambda:(" + strings.Join(v.Func.Params, " ") + ")"
	case TypeBuiltin:
		return "host.builtin:" + v.Builtin.Name
	case TypeHost:
		return "host." + v.Host.Tag + ":" + v.Host.Text
	default:
		return "host.unknown:" + v.Type.String()
	}
}

// Display is the form print writes: strings appear without quotes.
func Display(v Value) string {
	if v.Type == TypeString {
		return v.Str
	}
	return Render(v)
}

// formatFloat keeps a visible fraction or exponent so floats never read
// back as integers.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e16 || abs < 1e-4) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

func quoteString(s string) string {
	quote := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}
	var sb strings.Builder
	sb.WriteByte(quote)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case quote:
			sb.WriteByte('\\')
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte(quote)
	return sb.String()
}
