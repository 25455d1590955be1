package docstore

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Operation string

const (
	OperationGet         Operation = "get"
	OperationQuery       Operation = "query"
	OperationSubscribe   Operation = "subscribe"
	OperationInsert      Operation = "insert"
	OperationSet         Operation = "set"
	OperationUpdate      Operation = "update"
	OperationTransaction Operation = "transaction"
)

// FaultFunc lets tests make a MemoryStore fail like a remote store would.
// Returning nil lets the operation proceed.
type FaultFunc func(op Operation, path string) error

// MemoryStore is an in-process Store with the same observable semantics
// as the Firestore adapter. It backs local development and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]interface{}
	lastStamp   time.Time
	subs        map[*memorySubscription]struct{}
	fault       FaultFunc
	now         func() time.Time
}

type memorySubscription struct {
	query  Query
	sub    *Subscription
	signal chan struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]map[string]interface{}),
		subs:        make(map[*memorySubscription]struct{}),
		now:         time.Now,
	}
}

func (s *MemoryStore) Driver() string { return DriverMemory }

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	subs := make([]*memorySubscription, 0, len(s.subs))
	for ms := range s.subs {
		subs = append(subs, ms)
	}
	s.mu.Unlock()

	for _, ms := range subs {
		ms.sub.Close()
	}
	return nil
}

func (s *MemoryStore) SetFault(fn FaultFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = fn
}

func (s *MemoryStore) checkFault(op Operation, path string) error {
	s.mu.RLock()
	fn := s.fault
	s.mu.RUnlock()
	if fn == nil {
		return nil
	}
	return fn(op, path)
}

func (s *MemoryStore) Get(ctx context.Context, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.checkFault(OperationGet, path); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLocked(path)
}

func (s *MemoryStore) getLocked(path string) (*Document, error) {
	collection, id, err := SplitPath(path)
	if err != nil {
		return nil, err
	}
	data, ok := s.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return &Document{ID: id, Path: path, Data: deepCopy(data).(map[string]interface{})}, nil
}

func (s *MemoryStore) Query(ctx context.Context, q Query) ([]*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.checkFault(OperationQuery, q.Collection); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryLocked(q)
}

func (s *MemoryStore) queryLocked(q Query) ([]*Document, error) {
	if !validCollection(q.Collection) {
		return nil, invalidPath(q.Collection)
	}
	var docs []*Document
	for id, data := range s.collections[q.Collection] {
		if !matches(data, q) {
			continue
		}
		docs = append(docs, &Document{
			ID:   id,
			Path: q.Collection + "/" + id,
			Data: deepCopy(data).(map[string]interface{}),
		})
	}
	sortDocuments(docs, q.OrderBy)
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs, nil
}

func matches(data map[string]interface{}, q Query) bool {
	for _, o := range q.OrderBy {
		if _, ok := Lookup(data, o.Field); !ok {
			return false
		}
	}
	for _, f := range q.Filters {
		v, ok := Lookup(data, f.Field)
		switch f.Op {
		case OpEqual:
			if !ok || !equalValues(v, f.Value) {
				return false
			}
		case OpNotEqual:
			if !ok || v == nil || equalValues(v, f.Value) {
				return false
			}
		case OpArrayContains:
			items, isSlice := v.([]interface{})
			if !ok || !isSlice {
				return false
			}
			found := false
			for _, item := range items {
				if equalValues(item, f.Value) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func (s *MemoryStore) Subscribe(ctx context.Context, q Query) (*Subscription, error) {
	if err := s.checkFault(OperationSubscribe, q.Collection); err != nil {
		return nil, err
	}
	if !validCollection(q.Collection) {
		return nil, invalidPath(q.Collection)
	}

	ms := &memorySubscription{
		query:  q,
		sub:    newSubscription(ctx),
		signal: make(chan struct{}, 1),
	}
	ms.signal <- struct{}{}

	s.mu.Lock()
	s.subs[ms] = struct{}{}
	s.mu.Unlock()

	go s.runSubscription(ms)
	return ms.sub, nil
}

func (s *MemoryStore) runSubscription(ms *memorySubscription) {
	var err error
	defer func() {
		s.mu.Lock()
		delete(s.subs, ms)
		s.mu.Unlock()
		ms.sub.finish(err)
	}()

	for {
		select {
		case <-ms.sub.ctx.Done():
			return
		case <-ms.signal:
		}

		if err = s.checkFault(OperationSubscribe, ms.query.Collection); err != nil {
			return
		}
		s.mu.RLock()
		docs, qerr := s.queryLocked(ms.query)
		s.mu.RUnlock()
		if qerr != nil {
			err = qerr
			return
		}
		if !ms.sub.publish(docs) {
			return
		}
	}
}

// notifyLocked wakes every subscription on the given collections.
func (s *MemoryStore) notifyLocked(collections map[string]struct{}) {
	for ms := range s.subs {
		if _, ok := collections[ms.query.Collection]; !ok {
			continue
		}
		select {
		case ms.signal <- struct{}{}:
		default:
		}
	}
}

func (s *MemoryStore) Insert(ctx context.Context, collection string, data map[string]interface{}) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := s.checkFault(OperationInsert, collection); err != nil {
		return "", err
	}
	if !validCollection(collection) {
		return "", invalidPath(collection)
	}
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	if err := s.write(func() (string, error) {
		return collection, s.setLocked(collection+"/"+id, data)
	}); err != nil {
		return "", err
	}
	return id, nil
}

func (s *MemoryStore) Set(ctx context.Context, path string, data map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.checkFault(OperationSet, path); err != nil {
		return err
	}
	return s.write(func() (string, error) {
		collection, _, err := SplitPath(path)
		if err != nil {
			return "", err
		}
		return collection, s.setLocked(path, data)
	})
}

func (s *MemoryStore) Update(ctx context.Context, path string, updates []Update) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.checkFault(OperationUpdate, path); err != nil {
		return err
	}
	return s.write(func() (string, error) {
		collection, _, err := SplitPath(path)
		if err != nil {
			return "", err
		}
		return collection, s.updateLocked(path, updates)
	})
}

func (s *MemoryStore) write(fn func() (string, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	collection, err := fn()
	if err != nil {
		return err
	}
	s.notifyLocked(map[string]struct{}{collection: {}})
	return nil
}

func (s *MemoryStore) setLocked(path string, data map[string]interface{}) error {
	collection, id, err := SplitPath(path)
	if err != nil {
		return err
	}
	resolved := make(map[string]interface{}, len(data))
	for k, v := range data {
		resolved[k] = s.resolveLocked(Normalize(v), nil)
	}
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]map[string]interface{})
	}
	s.collections[collection][id] = resolved
	return nil
}

func (s *MemoryStore) updateLocked(path string, updates []Update) error {
	collection, id, err := SplitPath(path)
	if err != nil {
		return err
	}
	data, ok := s.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	for _, u := range updates {
		parts := strings.Split(u.Path, ".")
		parent := data
		for _, part := range parts[:len(parts)-1] {
			next, ok := parent[part].(map[string]interface{})
			if !ok {
				next = make(map[string]interface{})
				parent[part] = next
			}
			parent = next
		}
		leaf := parts[len(parts)-1]
		current, exists := parent[leaf]
		if !exists {
			current = nil
		}
		parent[leaf] = s.resolveLocked(Normalize(u.Value), current)
	}
	return nil
}

// resolveLocked replaces sentinels with concrete values.
func (s *MemoryStore) resolveLocked(v interface{}, current interface{}) interface{} {
	switch t := v.(type) {
	case serverTimestamp:
		return s.stampLocked()
	case increment:
		switch n := current.(type) {
		case int64:
			return n + t.n
		case float64:
			return n + float64(t.n)
		}
		return t.n
	case map[string]interface{}:
		for k, val := range t {
			t[k] = s.resolveLocked(val, nil)
		}
		return t
	}
	return v
}

// stampLocked hands out strictly increasing timestamps so ordering by a
// server timestamp is total.
func (s *MemoryStore) stampLocked() time.Time {
	now := s.now().UTC()
	if !now.After(s.lastStamp) {
		now = s.lastStamp.Add(time.Microsecond)
	}
	s.lastStamp = now
	return now
}

func (s *MemoryStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.checkFault(OperationTransaction, ""); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{store: s}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	touched := make(map[string]struct{})
	for _, w := range tx.writes {
		collection, err := w()
		if err != nil {
			return err
		}
		touched[collection] = struct{}{}
	}
	s.notifyLocked(touched)
	return nil
}

// memoryTx runs with the store's write lock held; writes are buffered and
// applied in order when the transaction function returns nil.
type memoryTx struct {
	store   *MemoryStore
	writes  []func() (string, error)
	created map[string]struct{}
}

func (t *memoryTx) Get(path string) (*Document, error) {
	return t.store.getLocked(path)
}

// Query sees committed documents only, like Firestore transaction reads.
func (t *memoryTx) Query(q Query) ([]*Document, error) {
	return t.store.queryLocked(q)
}

func (t *memoryTx) Set(path string, data map[string]interface{}) error {
	collection, _, err := SplitPath(path)
	if err != nil {
		return err
	}
	data = NormalizeMap(data)
	if t.created == nil {
		t.created = make(map[string]struct{})
	}
	t.created[path] = struct{}{}
	t.writes = append(t.writes, func() (string, error) {
		return collection, t.store.setLocked(path, data)
	})
	return nil
}

func (t *memoryTx) Update(path string, updates []Update) error {
	collection, id, err := SplitPath(path)
	if err != nil {
		return err
	}
	if _, ok := t.store.collections[collection][id]; !ok {
		if _, pending := t.created[path]; !pending {
			return ErrNotFound
		}
	}
	t.writes = append(t.writes, func() (string, error) {
		return collection, t.store.updateLocked(path, updates)
	})
	return nil
}
