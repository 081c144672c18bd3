package api

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/kbukum/piholedash/httpclient"
	"github.com/kbukum/piholedash/validation"
)

// Param is one log filter.
type Param struct {
	Key   string
	Value any
}

// Params is an ordered set of log filters.
type Params []Param

// Set appends a filter and returns the extended set.
func (p Params) Set(key string, value any) Params {
	return append(p, Param{Key: key, Value: value})
}

// Query keeps every entry whose value is neither absent (nil, a nil
// pointer or a nil slice) nor the empty string, in order. Zero numbers and false are kept.
// Slices are joined with commas; absent elements become empty.
func (p Params) Query() httpclient.Query {
	var q httpclient.Query
	for _, param := range p {
		s, ok := formatParam(param.Value)
		if !ok {
			continue
		}
		q = q.Add(param.Key, s)
	}
	return q
}

func formatParam(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return "", false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.String:
		if rv.String() == "" {
			return "", false
		}
		return rv.String(), true
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), true
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return "", false
		}
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i], _ = formatParam(rv.Index(i).Interface())
		}
		return strings.Join(parts, ","), true
	default:
		return fmt.Sprint(rv.Interface()), true
	}
}

// Log status filters.
const (
	LogStatusBlocked = "blocked"
	LogStatusAllowed = "allowed"
	LogStatusCached  = "cached"
)

// MaxLogsPerPage is the largest page the backend serves.
const MaxLogsPerPage = 200

// LogQuery is the typed form of the query-log filters. Zero values mean
// "no filter".
type LogQuery struct {
	Page    int
	PerPage int
	Domain  string
	Client  string
	Status  string
	// From and To bound the query timestamps (unix seconds).
	From int64
	To   int64
}

// Validate checks the filters.
func (q LogQuery) Validate() error {
	return validation.New().
		Min("page", q.Page, 0).
		Range("per_page", q.PerPage, 0, MaxLogsPerPage).
		OneOf("status", q.Status, []string{LogStatusBlocked, LogStatusAllowed, LogStatusCached}).
		Custom(q.To == 0 || q.From <= q.To, "from", "must not be after to").
		Err()
}

// Params converts the filters to Params in backend order
// (page, per_page, domain, client, status, from, to).
func (q LogQuery) Params() Params {
	return Params{}.
		Set("page", positive(q.Page)).
		Set("per_page", positive(q.PerPage)).
		Set("domain", q.Domain).
		Set("client", q.Client).
		Set("status", q.Status).
		Set("from", positive64(q.From)).
		Set("to", positive64(q.To))
}

func positive(n int) *int {
	if n <= 0 {
		return nil
	}
	return &n
}

func positive64(n int64) *int64 {
	if n <= 0 {
		return nil
	}
	return &n
}
