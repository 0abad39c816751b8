// Package pattern compiles declarative URI patterns into request-time
// matchers.
//
// A pattern is a path with optional {name} placeholders and regex fragments,
// optionally followed by query-parameter constraints:
//
//	/user/{userId}/details?filter=*&version=1
//
// Placeholders match a single path segment and capture it under their name.
// Anything else in the path is treated as a regular-expression fragment and
// matched against the full request path. Query constraints require the key to
// be present in the request; a declared value of "*" accepts any non-empty
// value, any other value requires an exact match.
package pattern

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrBadPattern is returned when a pattern fails to compile.
var ErrBadPattern = errors.New("invalid URI pattern")

// Wildcard is the query-constraint value accepting any non-empty value.
const Wildcard = "*"

var placeholderRe = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// Pattern is a compiled URI pattern. Immutable after compilation.
type Pattern struct {
	raw    string
	re     *regexp.Regexp
	params []string
	query  map[string]string
}

// Compile parses and compiles a URI pattern declaration. Malformed syntax is
// reported here, never at request time.
func Compile(uri string) (*Pattern, error) {
	path := uri
	query := map[string]string{}

	if i := strings.Index(uri, "?"); i >= 0 {
		path = uri[:i]
		for _, pair := range strings.Split(uri[i+1:], "&") {
			if pair == "" {
				continue
			}
			kv := strings.SplitN(pair, "=", 2)
			if len(kv) != 2 || kv[0] == "" {
				return nil, fmt.Errorf("%w: bad query constraint %q in %q", ErrBadPattern, pair, uri)
			}
			query[kv[0]] = kv[1]
		}
	}

	var params []string
	expr := placeholderRe.ReplaceAllStringFunc(path, func(m string) string {
		name := m[1 : len(m)-1]
		params = append(params, name)
		return "(?P<" + name + ">[^/]+)"
	})

	re, err := regexp.Compile("^" + expr + "$")
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrBadPattern, uri, err)
	}

	return &Pattern{raw: uri, re: re, params: params, query: query}, nil
}

// String returns the original declaration.
func (p *Pattern) String() string { return p.raw }

// ParamNames returns the named path parameters in declaration order.
func (p *Pattern) ParamNames() []string { return p.params }

// QueryConstraints returns the declared query constraints (value "*" means
// wildcard). The returned map is a copy.
func (p *Pattern) QueryConstraints() map[string]string {
	out := make(map[string]string, len(p.query))
	for k, v := range p.query {
		out[k] = v
	}
	return out
}

// Matches reports whether the request path (without query string) matches the
// compiled path pattern.
func (p *Pattern) Matches(path string) bool {
	return p.re.MatchString(path)
}

// PathParams extracts the named path parameters from a matching path. Returns
// an empty map when the path does not match.
func (p *Pattern) PathParams(path string) map[string]string {
	out := map[string]string{}
	m := p.re.FindStringSubmatch(path)
	if m == nil {
		return out
	}
	for i, name := range p.re.SubexpNames() {
		if i > 0 && name != "" && i < len(m) {
			out[name] = m[i]
		}
	}
	return out
}

// ParseQuery parses a raw request query string ("a=1&b=2") into a map. Later
// occurrences of a key overwrite earlier ones. No unescaping is performed;
// the server is deliberately naive about encoding.
func ParseQuery(raw string) map[string]string {
	out := map[string]string{}
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) == 2 {
			out[kv[0]] = kv[1]
		} else {
			out[kv[0]] = ""
		}
	}
	return out
}

// SatisfiesConstraints checks a set of actual query parameters against
// declared constraints: every constrained key must be present, wildcard
// constraints accept any non-empty value, others require equality.
func SatisfiesConstraints(constraints, actual map[string]string) bool {
	for key, want := range constraints {
		got, ok := actual[key]
		if !ok {
			return false
		}
		if want == Wildcard {
			if got == "" {
				return false
			}
			continue
		}
		if got != want {
			return false
		}
	}
	return true
}

// SplitTarget splits a request target into its path and raw query string.
func SplitTarget(target string) (path, query string) {
	if i := strings.Index(target, "?"); i >= 0 {
		return target[:i], target[i+1:]
	}
	return target, ""
}
