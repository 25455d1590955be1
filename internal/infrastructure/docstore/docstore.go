// Package docstore is the document-database capability the chat core is
// written against: one-shot queries, realtime subscriptions, inserts,
// partial updates with dotted field paths, server timestamps and
// transactions. Firestore, MongoDB and an in-process store implement it.
package docstore

import (
	"context"
	"strings"
)

const (
	DriverFirestore = "firestore"
	DriverMongo     = "mongo"
	DriverMemory    = "memory"
)

// Document is a single stored record. Data holds normalized values:
// strings, bool, int64, float64, time.Time, nil, []interface{} and
// map[string]interface{}.
type Document struct {
	ID   string
	Path string
	Data map[string]interface{}
}

type Op string

const (
	OpEqual         Op = "=="
	OpNotEqual      Op = "!="
	OpArrayContains Op = "array-contains"
)

type Filter struct {
	Field string
	Op    Op
	Value interface{}
}

type Direction int

const (
	Asc Direction = iota
	Desc
)

type Order struct {
	Field     string
	Direction Direction
}

// Query selects documents from one collection path, e.g. "chats" or
// "chats/{chatId}/messages".
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    []Order
	Limit      int
}

func From(collection string) Query {
	return Query{Collection: collection}
}

func (q Query) Where(field string, op Op, value interface{}) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Op: op, Value: value})
	return q
}

func (q Query) Ordered(field string, dir Direction) Query {
	q.OrderBy = append(append([]Order(nil), q.OrderBy...), Order{Field: field, Direction: dir})
	return q
}

func (q Query) Take(n int) Query {
	q.Limit = n
	return q
}

// Update sets one field. Path may be dotted to address a nested map entry
// ("unreadCount.user-1") without replacing the whole map.
type Update struct {
	Path  string
	Value interface{}
}

type serverTimestamp struct{}

// ServerTimestamp is replaced by the store's clock when written. Within a
// collection the assigned values are strictly increasing.
var ServerTimestamp interface{} = serverTimestamp{}

type increment struct {
	n int64
}

// Increment atomically adds n to a numeric field (missing fields count as 0).
func Increment(n int64) interface{} {
	return increment{n: n}
}

// Tx is the view of the store inside RunTransaction. All reads must happen
// before the first write.
type Tx interface {
	Get(path string) (*Document, error)
	Query(q Query) ([]*Document, error)
	Set(path string, data map[string]interface{}) error
	Update(path string, updates []Update) error
}

type Store interface {
	Get(ctx context.Context, path string) (*Document, error)
	Query(ctx context.Context, q Query) ([]*Document, error)
	// Subscribe delivers the full result set of q now and after every
	// change. The caller must Close the subscription exactly once.
	Subscribe(ctx context.Context, q Query) (*Subscription, error)
	Insert(ctx context.Context, collection string, data map[string]interface{}) (string, error)
	// Set creates or replaces the document at path.
	Set(ctx context.Context, path string, data map[string]interface{}) error
	// Update changes the listed fields of an existing document; it returns
	// ErrNotFound if the document does not exist.
	Update(ctx context.Context, path string, updates []Update) error
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Driver() string
	Close() error
}

// DocPath joins path segments: DocPath("chats", id, "messages", msgID).
func DocPath(segments ...string) string {
	return strings.Join(segments, "/")
}

// SplitPath returns the collection path and id of a document path.
func SplitPath(path string) (collection, id string, err error) {
	segments := strings.Split(path, "/")
	if len(segments) < 2 || len(segments)%2 != 0 {
		return "", "", invalidPath(path)
	}
	for _, s := range segments {
		if s == "" {
			return "", "", invalidPath(path)
		}
	}
	return strings.Join(segments[:len(segments)-1], "/"), segments[len(segments)-1], nil
}

func validCollection(path string) bool {
	segments := strings.Split(path, "/")
	if len(segments)%2 != 1 {
		return false
	}
	for _, s := range segments {
		if s == "" {
			return false
		}
	}
	return true
}
