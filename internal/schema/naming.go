package schema

import (
	"reflect"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	dumperrors "github.com/hurou927/db-dump/internal/errors"
)

const scalarWrapperName = "SingleValue"

// ReadableName derives the default table name of a type: the pluralized type name
// followed by "Of<Arg>" for every generic argument. Scalar types are named after the
// scalar wrapper.
func ReadableName(t *Type) (string, error) {
	rt := t.goType
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if t.scalar {
		return Pluralize(scalarWrapperName) + "Of" + label(typeName(rt)), nil
	}
	if rt.Kind() == reflect.Interface {
		return "", &dumperrors.OperationError{
			Op:      "deriving table name",
			Message: "interface " + rt.String() + " is not a concrete type",
		}
	}

	base, args := splitGeneric(typeName(rt))
	var b strings.Builder
	b.WriteString(Pluralize(capitalize(lastSegment(base))))
	for _, arg := range args {
		b.WriteString("Of")
		b.WriteString(label(arg))
	}
	return b.String(), nil
}

func typeName(rt reflect.Type) string {
	if rt.Name() != "" {
		return rt.Name()
	}
	if rt.Kind() == reflect.Slice && rt.Elem().Kind() == reflect.Uint8 {
		return "Bytes"
	}
	return rt.String()
}

// label renders a generic argument: its unqualified name, capitalized, with its own
// arguments appended.
func label(name string) string {
	name = strings.TrimLeft(name, "*")
	if name == "[]uint8" {
		return "Bytes"
	}
	name = strings.TrimPrefix(name, "[]")
	base, args := splitGeneric(name)
	var b strings.Builder
	b.WriteString(capitalize(lastSegment(base)))
	for _, arg := range args {
		b.WriteString("Of")
		b.WriteString(label(arg))
	}
	return b.String()
}

// splitGeneric splits "Pair[a.A,b.B]" into "Pair" and its top-level arguments.
func splitGeneric(name string) (string, []string) {
	open := strings.IndexByte(name, '[')
	if open < 0 || !strings.HasSuffix(name, "]") {
		return name, nil
	}
	inner := name[open+1 : len(name)-1]

	var args []string
	depth, start := 0, 0
	for i, r := range inner {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, inner[start:i])
				start = i + 1
			}
		}
	}
	args = append(args, inner[start:])
	return name[:open], args
}

func lastSegment(name string) string {
	if i := strings.LastIndexAny(name, "./"); i >= 0 {
		return name[i+1:]
	}
	return name
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

type inflection struct {
	pattern     *regexp.Regexp
	replacement string
}

var (
	plurals      []inflection
	uncountables = map[string]bool{}
)

func addPlural(pattern, replacement string) {
	// later rules take precedence
	plurals = append([]inflection{{regexp.MustCompile("(?i)" + pattern), replacement}}, plurals...)
}

func addIrregular(singular, plural string) {
	addPlural("("+singular[:1]+")"+singular[1:]+"$", "${1}"+plural[1:])
}

func init() {
	addPlural("$", "s")
	addPlural("s$", "s")
	addPlural("(ax|test)is$", "${1}es")
	addPlural("(octop|vir)us$", "${1}i")
	addPlural("(alias|status)$", "${1}es")
	addPlural("(bu)s$", "${1}ses")
	addPlural("(buffal|tomat)o$", "${1}oes")
	addPlural("([ti])um$", "${1}a")
	addPlural("sis$", "ses")
	addPlural("(?:([^f])fe|([lr])f)$", "${1}${2}ves")
	addPlural("(hive)$", "${1}s")
	addPlural("([^aeiouy]|qu)y$", "${1}ies")
	addPlural("(x|ch|ss|sh)$", "${1}es")
	addPlural("(matr|vert|ind)ix|ex$", "${1}ices")
	addPlural("([m|l])ouse$", "${1}ice")
	addPlural("^(ox)$", "${1}en")
	addPlural("(quiz)$", "${1}zes")

	addIrregular("person", "people")
	addIrregular("man", "men")
	addIrregular("child", "children")
	addIrregular("sex", "sexes")
	addIrregular("move", "moves")

	for _, w := range []string{"equipment", "information", "rice", "money", "species", "series", "fish", "sheep"} {
		uncountables[w] = true
	}
}

// Pluralize returns the English plural of word.
func Pluralize(word string) string {
	if word == "" || uncountables[strings.ToLower(word)] {
		return word
	}
	for _, rule := range plurals {
		if rule.pattern.MatchString(word) {
			return rule.pattern.ReplaceAllString(word, rule.replacement)
		}
	}
	return word
}
