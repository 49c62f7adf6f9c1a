package matching

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/textmock/textmock/pkg/mockfile"
)

// matchAssert evaluates one [Asserts] line against the request.
func matchAssert(a mockfile.Assert, req *mockfile.Request) bool {
	switch a.Kind {
	case mockfile.AssertHeader:
		return matchValues(a, req.HeaderValues(a.Key))

	case mockfile.AssertQueryParam:
		params, err := url.ParseQuery(req.Query)
		if err != nil {
			return false
		}
		return matchValues(a, params[a.Key])

	case mockfile.AssertCookie:
		return matchValues(a, cookieValues(req, a.Key))

	case mockfile.AssertJSONPath:
		return matchJSONPath(a, req.Body)

	default:
		return false
	}
}

// matchValues applies the assert's predicate to the queried values. Exists
// holds when at least one value was found; every other predicate holds when
// any single value satisfies it.
func matchValues(a mockfile.Assert, values []string) bool {
	if a.Op == mockfile.OpExists {
		return len(values) > 0
	}
	for _, v := range values {
		if predicate(a, v) {
			return true
		}
	}
	return false
}

func predicate(a mockfile.Assert, v string) bool {
	switch a.Op {
	case mockfile.OpEquals:
		return v == a.Value
	case mockfile.OpNotEquals:
		return v != a.Value
	case mockfile.OpStartsWith:
		return strings.HasPrefix(v, a.Value)
	case mockfile.OpEndsWith:
		return strings.HasSuffix(v, a.Value)
	case mockfile.OpContains:
		return strings.Contains(v, a.Value)
	case mockfile.OpMatches:
		return a.Regex != nil && a.Regex.MatchString(v)
	default:
		return false
	}
}

// cookieValues collects the values of the named cookie across all Cookie
// headers. Cookie names compare case-sensitively.
func cookieValues(req *mockfile.Request, name string) []string {
	var values []string
	for _, line := range req.HeaderValues("Cookie") {
		cookies, err := http.ParseCookie(line)
		if err != nil {
			continue
		}
		for _, c := range cookies {
			if c.Name == name {
				values = append(values, c.Value)
			}
		}
	}
	return values
}

// matchJSONPath evaluates a JSONPath assert against a JSON request body.
// The expression was compiled at load time. A body that is not valid JSON
// simply doesn't match; that is a matching outcome, not an error.
func matchJSONPath(a mockfile.Assert, body []byte) bool {
	if a.Path == nil {
		return false
	}
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return false
	}

	results := a.Path.Get(data)
	if a.Op == mockfile.OpExists {
		return len(results) > 0
	}
	for _, r := range results {
		s, ok := jsonScalarString(r)
		if ok && predicate(a, s) {
			return true
		}
	}
	return false
}

// jsonScalarString normalizes a JSON scalar for comparison with the
// assert's textual value: 5.0 compares equal to "5", true to "true".
// Non-scalar results report !ok and never satisfy a value predicate.
func jsonScalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	case nil:
		return "null", true
	default:
		return "", false
	}
}
