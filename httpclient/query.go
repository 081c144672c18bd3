package httpclient

import (
	"net/url"
	"strings"
)

// Param is one query string entry.
type Param struct {
	Key   string
	Value string
}

// Query is an ordered list of query parameters. Encoding keeps insertion
// order, unlike url.Values.
type Query []Param

// Add appends a parameter and returns the extended query.
func (q Query) Add(key, value string) Query {
	return append(q, Param{Key: key, Value: value})
}

// Get returns the first value stored under key.
func (q Query) Get(key string) (string, bool) {
	for _, p := range q {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Encode renders the query as key=value pairs joined by "&", escaping keys
// and values with url.QueryEscape. An empty query encodes to "".
func (q Query) Encode() string {
	if len(q) == 0 {
		return ""
	}
	var b strings.Builder
	for i, p := range q {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

// AppendTo appends the encoded query to path, using "&" when path already
// carries a query string.
func (q Query) AppendTo(path string) string {
	enc := q.Encode()
	if enc == "" {
		return path
	}
	if strings.Contains(path, "?") {
		return path + "&" + enc
	}
	return path + "?" + enc
}
