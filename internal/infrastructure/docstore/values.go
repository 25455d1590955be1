package docstore

import (
	"reflect"
	"sort"
	"strings"
	"time"
)

// Normalize converts a Go value into the representation documents are
// read back with. Integers become int64, floats float64, slices
// []interface{}, maps with string keys map[string]interface{}, *time.Time
// either time.Time or nil. Sentinels (ServerTimestamp, Increment) pass
// through untouched.
func Normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case nil:
		return nil
	case string, bool, int64, float64, serverTimestamp, increment:
		return t
	case time.Time:
		return t.UTC()
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.UTC()
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case float32:
		return float64(t)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = Normalize(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = Normalize(val)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return nil
		}
		return Normalize(rv.Elem().Interface())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Slice, reflect.Array:
		out := make([]interface{}, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = Normalize(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		out := make(map[string]interface{}, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = Normalize(iter.Value().Interface())
		}
		return out
	}
	return v
}

// NormalizeMap normalizes every value of data into a fresh map.
func NormalizeMap(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = Normalize(v)
	}
	return out
}

func deepCopy(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	}
	return v
}

// Lookup resolves a dotted field path inside data.
func Lookup(data map[string]interface{}, path string) (interface{}, bool) {
	var cur interface{} = data
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func (d *Document) Value(path string) (interface{}, bool) {
	if d == nil {
		return nil, false
	}
	return Lookup(d.Data, path)
}

func (d *Document) String(path string) string {
	v, _ := d.Value(path)
	s, _ := v.(string)
	return s
}

func (d *Document) Bool(path string) bool {
	v, _ := d.Value(path)
	b, _ := v.(bool)
	return b
}

func (d *Document) Int(path string) int {
	v, _ := d.Value(path)
	switch n := v.(type) {
	case int64:
		return int(n)
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}

func (d *Document) Float(path string) float64 {
	v, _ := d.Value(path)
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	}
	return 0
}

// Time returns the zero time when the field is absent or null.
func (d *Document) Time(path string) time.Time {
	v, _ := d.Value(path)
	t, _ := v.(time.Time)
	return t
}

// TimePtr returns nil when the field is absent or null.
func (d *Document) TimePtr(path string) *time.Time {
	v, _ := d.Value(path)
	t, ok := v.(time.Time)
	if !ok {
		return nil
	}
	return &t
}

func (d *Document) Strings(path string) []string {
	v, _ := d.Value(path)
	items, _ := v.([]interface{})
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (d *Document) Maps(path string) []map[string]interface{} {
	v, _ := d.Value(path)
	items, _ := v.([]interface{})
	out := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}

// IntMap reads a map of counters such as unreadCount.
func (d *Document) IntMap(path string) map[string]int {
	v, _ := d.Value(path)
	m, _ := v.(map[string]interface{})
	out := make(map[string]int, len(m))
	for k, val := range m {
		switch n := val.(type) {
		case int64:
			out[k] = int(n)
		case float64:
			out[k] = int(n)
		}
	}
	return out
}

func equalValues(a, b interface{}) bool {
	a, b = Normalize(a), Normalize(b)
	if fa, ok := asFloat(a); ok {
		if fb, ok := asFloat(b); ok {
			return fa == fb
		}
		return false
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return reflect.DeepEqual(a, b)
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// compareValues orders values of the same kind; mixed kinds order by a
// fixed type rank.
func compareValues(a, b interface{}) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch x := a.(type) {
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	case string:
		return strings.Compare(x, b.(string))
	case time.Time:
		y := b.(time.Time)
		switch {
		case x.Before(y):
			return -1
		case x.After(y):
			return 1
		}
		return 0
	}
	if fa, ok := asFloat(a); ok {
		fb, _ := asFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
	}
	return 0
}

func typeRank(v interface{}) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case int64, float64:
		return 2
	case time.Time:
		return 3
	case string:
		return 4
	}
	return 5
}

func sortDocuments(docs []*Document, orders []Order) {
	sort.SliceStable(docs, func(i, j int) bool {
		for _, o := range orders {
			vi, _ := Lookup(docs[i].Data, o.Field)
			vj, _ := Lookup(docs[j].Data, o.Field)
			c := compareValues(vi, vj)
			if c == 0 {
				continue
			}
			if o.Direction == Desc {
				return c > 0
			}
			return c < 0
		}
		return docs[i].ID < docs[j].ID
	})
}
