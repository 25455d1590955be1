package docstore

import (
	"context"
	"log"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) Driver() string { return DriverFirestore }

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func (s *FirestoreStore) doc(path string) (*firestore.DocumentRef, error) {
	if _, _, err := SplitPath(path); err != nil {
		return nil, err
	}
	ref := s.client.Doc(path)
	if ref == nil {
		return nil, invalidPath(path)
	}
	return ref, nil
}

func (s *FirestoreStore) query(q Query) (firestore.Query, error) {
	if !validCollection(q.Collection) {
		return firestore.Query{}, invalidPath(q.Collection)
	}
	coll := s.client.Collection(q.Collection)
	if coll == nil {
		return firestore.Query{}, invalidPath(q.Collection)
	}
	fq := coll.Query
	for _, f := range q.Filters {
		fq = fq.Where(f.Field, string(f.Op), toFirestore(f.Value))
	}
	for _, o := range q.OrderBy {
		dir := firestore.Asc
		if o.Direction == Desc {
			dir = firestore.Desc
		}
		fq = fq.OrderBy(o.Field, dir)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}
	return fq, nil
}

func (s *FirestoreStore) Get(ctx context.Context, path string) (*Document, error) {
	ref, err := s.doc(path)
	if err != nil {
		return nil, err
	}
	snap, err := ref.Get(ctx)
	if err != nil {
		return nil, Classify(err)
	}
	return fromSnapshot(snap), nil
}

func (s *FirestoreStore) Query(ctx context.Context, q Query) ([]*Document, error) {
	fq, err := s.query(q)
	if err != nil {
		return nil, err
	}
	snaps, err := fq.Documents(ctx).GetAll()
	if err != nil {
		return nil, Classify(err)
	}
	docs := make([]*Document, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, fromSnapshot(snap))
	}
	return docs, nil
}

func (s *FirestoreStore) Subscribe(ctx context.Context, q Query) (*Subscription, error) {
	fq, err := s.query(q)
	if err != nil {
		return nil, err
	}
	sub := newSubscription(ctx)
	it := fq.Snapshots(sub.ctx)

	go func() {
		var err error
		defer func() {
			it.Stop()
			sub.finish(err)
		}()
		for {
			snap, nerr := it.Next()
			if nerr != nil {
				if sub.ctx.Err() != nil || nerr == iterator.Done || status.Code(nerr) == codes.Canceled {
					return
				}
				log.Printf("Firestore listener error on %s: %v", q.Collection, nerr)
				err = Classify(nerr)
				return
			}
			snaps, gerr := snap.Documents.GetAll()
			if gerr != nil {
				err = Classify(gerr)
				return
			}
			docs := make([]*Document, 0, len(snaps))
			for _, ds := range snaps {
				docs = append(docs, fromSnapshot(ds))
			}
			if !sub.publish(docs) {
				return
			}
		}
	}()
	return sub, nil
}

func (s *FirestoreStore) Insert(ctx context.Context, collection string, data map[string]interface{}) (string, error) {
	if !validCollection(collection) {
		return "", invalidPath(collection)
	}
	ref, _, err := s.client.Collection(collection).Add(ctx, toFirestoreMap(data))
	if err != nil {
		return "", Classify(err)
	}
	return ref.ID, nil
}

func (s *FirestoreStore) Set(ctx context.Context, path string, data map[string]interface{}) error {
	ref, err := s.doc(path)
	if err != nil {
		return err
	}
	if _, err := ref.Set(ctx, toFirestoreMap(data)); err != nil {
		return Classify(err)
	}
	return nil
}

func (s *FirestoreStore) Update(ctx context.Context, path string, updates []Update) error {
	ref, err := s.doc(path)
	if err != nil {
		return err
	}
	if _, err := ref.Update(ctx, toFirestoreUpdates(updates)); err != nil {
		return Classify(err)
	}
	return nil
}

func (s *FirestoreStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	err := s.client.RunTransaction(ctx, func(ctx context.Context, ftx *firestore.Transaction) error {
		return fn(ctx, &firestoreTx{store: s, tx: ftx})
	})
	return Classify(err)
}

type firestoreTx struct {
	store *FirestoreStore
	tx    *firestore.Transaction
}

func (t *firestoreTx) Get(path string) (*Document, error) {
	ref, err := t.store.doc(path)
	if err != nil {
		return nil, err
	}
	snap, err := t.tx.Get(ref)
	if err != nil {
		// NotFound must surface unwrapped so the transaction is not retried.
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return fromSnapshot(snap), nil
}

func (t *firestoreTx) Query(q Query) ([]*Document, error) {
	fq, err := t.store.query(q)
	if err != nil {
		return nil, err
	}
	snaps, err := t.tx.Documents(fq).GetAll()
	if err != nil {
		return nil, err
	}
	docs := make([]*Document, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, fromSnapshot(snap))
	}
	return docs, nil
}

func (t *firestoreTx) Set(path string, data map[string]interface{}) error {
	ref, err := t.store.doc(path)
	if err != nil {
		return err
	}
	return t.tx.Set(ref, toFirestoreMap(data))
}

func (t *firestoreTx) Update(path string, updates []Update) error {
	ref, err := t.store.doc(path)
	if err != nil {
		return err
	}
	return t.tx.Update(ref, toFirestoreUpdates(updates))
}

func fromSnapshot(snap *firestore.DocumentSnapshot) *Document {
	return &Document{
		ID:   snap.Ref.ID,
		Path: strings.TrimPrefix(snap.Ref.Path, documentsPrefix(snap.Ref.Path)),
		Data: NormalizeMap(snap.Data()),
	}
}

// documentsPrefix strips "projects/{p}/databases/{d}/documents/" from a
// fully qualified reference path.
func documentsPrefix(path string) string {
	const marker = "/documents/"
	if i := strings.Index(path, marker); i >= 0 {
		return path[:i+len(marker)]
	}
	return ""
}

func toFirestoreUpdates(updates []Update) []firestore.Update {
	out := make([]firestore.Update, 0, len(updates))
	for _, u := range updates {
		out = append(out, firestore.Update{
			FieldPath: firestore.FieldPath(strings.Split(u.Path, ".")),
			Value:     toFirestore(u.Value),
		})
	}
	return out
}

func toFirestoreMap(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = toFirestore(v)
	}
	return out
}

func toFirestore(v interface{}) interface{} {
	switch t := Normalize(v).(type) {
	case serverTimestamp:
		return firestore.ServerTimestamp
	case increment:
		return firestore.Increment(t.n)
	case map[string]interface{}:
		return toFirestoreMap(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = toFirestore(item)
		}
		return out
	default:
		return t
	}
}
