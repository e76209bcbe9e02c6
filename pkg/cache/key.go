package cache

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Params is a key part carrying named query parameters, e.g. {after: cursor}.
type Params map[string]string

// Key identifies a logical query. It is an ordered sequence of primitive
// parts; equality is structural and decided by String.
type Key struct {
	parts []any
	str   string
}

// NewKey builds a key from its parts. Supported parts are string, bool, the
// integer and float kinds, and Params. Params are copied, so later changes to
// the caller's map do not affect the key.
func NewKey(parts ...any) Key {
	copied := make([]any, len(parts))
	encoded := make([]string, len(parts))

	for i, part := range parts {
		if p, ok := part.(Params); ok {
			dup := make(Params, len(p))
			for name, value := range p {
				dup[name] = value
			}
			part = dup
		}
		copied[i] = part
		encoded[i] = encodePart(part)
	}

	return Key{
		parts: copied,
		str:   strings.Join(encoded, ":"),
	}
}

// String returns the canonical form of the key.
//
// Example:
//
//	images:{after=c1}
func (k Key) String() string {
	return k.str
}

// Equal reports whether both keys identify the same query.
func (k Key) Equal(other Key) bool {
	return k.str == other.str
}

// Len returns the number of parts.
func (k Key) Len() int {
	return len(k.parts)
}

// Part returns the i-th part, or nil when out of range.
func (k Key) Part(i int) any {
	if i < 0 || i >= len(k.parts) {
		return nil
	}
	if p, ok := k.parts[i].(Params); ok {
		dup := make(Params, len(p))
		for name, value := range p {
			dup[name] = value
		}
		return dup
	}
	return k.parts[i]
}

// Root returns the first part when it is a string, otherwise "".
func (k Key) Root() string {
	if len(k.parts) == 0 {
		return ""
	}
	root, _ := k.parts[0].(string)
	return root
}

// Param looks up a named parameter in any Params part of the key.
func (k Key) Param(name string) (string, bool) {
	for _, part := range k.parts {
		if p, ok := part.(Params); ok {
			if value, found := p[name]; found {
				return value, true
			}
		}
	}
	return "", false
}

// HasRoot returns a predicate matching every key whose first part is root.
func HasRoot(root string) func(Key) bool {
	return func(k Key) bool {
		return k.Root() == root
	}
}

// Exact returns a predicate matching only the given key.
func Exact(key Key) func(Key) bool {
	return func(k Key) bool {
		return k.Equal(key)
	}
}

var bareToken = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_./-]*$`)

// encodeString leaves simple identifiers bare and quotes everything else, so
// "1", "true" and values containing separators never collide with other parts.
func encodeString(s string) string {
	if bareToken.MatchString(s) && s != "true" && s != "false" {
		return s
	}
	return strconv.Quote(s)
}

func encodePart(part any) string {
	switch v := part.(type) {
	case string:
		return encodeString(v)
	case Params:
		names := make([]string, 0, len(v))
		for name := range v {
			names = append(names, name)
		}
		sort.Strings(names)

		pairs := make([]string, 0, len(names))
		for _, name := range names {
			pairs = append(pairs, encodeString(name)+"="+encodeString(v[name]))
		}
		return "{" + strings.Join(pairs, ",") + "}"
	case bool:
		return strconv.FormatBool(v)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case nil:
		return "null"
	default:
		return encodeString(fmt.Sprintf("%v", v))
	}
}
