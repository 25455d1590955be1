package docstore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Reserved fields the Mongo adapter keeps on every stored document.
const (
	mongoIDField     = "_id"
	mongoParentField = "_parent"
	mongoDocIDField  = "_docId"
)

// MongoStore maps the document model onto MongoDB. Every collection path
// becomes one physical collection named after its collection segments
// ("chats/{id}/messages" -> "chats_messages"); documents carry their full
// path as _id and their parent document path in _parent.
//
// Transactions and change streams require a replica set.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database

	mu        sync.Mutex
	lastStamp time.Time
}

func ConnectMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)
	clientOptions.SetServerSelectionTimeout(10 * time.Second)

	log.Printf("Attempting to connect to MongoDB...")
	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, classifyMongo(err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 10*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, classifyMongo(err)
	}

	log.Printf("Connected to MongoDB database %s", database)
	return NewMongoStore(client, database), nil
}

func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{client: client, db: client.Database(database)}
}

func (s *MongoStore) Driver() string { return DriverMongo }

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes the repository queries filter and
// sort on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	for name, indexes := range mongoIndexes() {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			return classifyMongo(err)
		}
	}
	return nil
}

func mongoIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		"chats": {{
			Keys:    bson.D{{Key: "participantIds", Value: 1}, {Key: "lastMessageTime", Value: -1}},
			Options: options.Index().SetName("idx_participants_last_message"),
		}},
		"chats_messages": {
			{
				Keys:    bson.D{{Key: mongoParentField, Value: 1}, {Key: "timestamp", Value: 1}},
				Options: options.Index().SetName("idx_parent_timestamp"),
			},
			{
				Keys:    bson.D{{Key: mongoParentField, Value: 1}, {Key: "read", Value: 1}},
				Options: options.Index().SetName("idx_parent_read"),
			},
		},
		"chats_typing": {{
			Keys:    bson.D{{Key: mongoParentField, Value: 1}},
			Options: options.Index().SetName("idx_parent"),
		}},
		"listings": {
			{
				Keys:    bson.D{{Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("idx_created"),
			},
			{
				Keys:    bson.D{{Key: "category", Value: 1}, {Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("idx_category_created"),
			},
		},
	}
}

type mongoLocation struct {
	collection string
	parent     string
}

func locateCollection(path string) (mongoLocation, error) {
	if !validCollection(path) {
		return mongoLocation{}, invalidPath(path)
	}
	segments := strings.Split(path, "/")
	names := make([]string, 0, len(segments)/2+1)
	for i := 0; i < len(segments); i += 2 {
		names = append(names, segments[i])
	}
	return mongoLocation{
		collection: strings.Join(names, "_"),
		parent:     strings.Join(segments[:len(segments)-1], "/"),
	}, nil
}

func locateDocument(path string) (mongoLocation, string, error) {
	collection, id, err := SplitPath(path)
	if err != nil {
		return mongoLocation{}, "", err
	}
	loc, err := locateCollection(collection)
	return loc, id, err
}

func (s *MongoStore) Get(ctx context.Context, path string) (*Document, error) {
	return s.get(ctx, path)
}

func (s *MongoStore) get(ctx context.Context, path string) (*Document, error) {
	loc, _, err := locateDocument(path)
	if err != nil {
		return nil, err
	}
	var raw bson.M
	if err := s.db.Collection(loc.collection).FindOne(ctx, bson.M{mongoIDField: path}).Decode(&raw); err != nil {
		return nil, classifyMongo(err)
	}
	return fromMongo(raw), nil
}

func (s *MongoStore) Query(ctx context.Context, q Query) ([]*Document, error) {
	loc, err := locateCollection(q.Collection)
	if err != nil {
		return nil, err
	}
	filter, opts := buildMongoQuery(loc, q)
	cur, err := s.db.Collection(loc.collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, classifyMongo(err)
	}
	defer cur.Close(ctx)

	var docs []*Document
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, classifyMongo(err)
		}
		docs = append(docs, fromMongo(raw))
	}
	if err := cur.Err(); err != nil {
		return nil, classifyMongo(err)
	}
	return docs, nil
}

func buildMongoQuery(loc mongoLocation, q Query) (bson.M, *options.FindOptions) {
	conds := bson.A{bson.M{mongoParentField: loc.parent}}
	for _, f := range q.Filters {
		value := Normalize(f.Value)
		switch f.Op {
		case OpEqual, OpArrayContains:
			conds = append(conds, bson.M{f.Field: value})
		case OpNotEqual:
			conds = append(conds, bson.M{f.Field: bson.M{"$exists": true, "$nin": bson.A{value, nil}}})
		}
	}

	sort := bson.D{}
	for _, o := range q.OrderBy {
		conds = append(conds, bson.M{o.Field: bson.M{"$exists": true}})
		dir := 1
		if o.Direction == Desc {
			dir = -1
		}
		sort = append(sort, bson.E{Key: o.Field, Value: dir})
	}
	sort = append(sort, bson.E{Key: mongoDocIDField, Value: 1})

	opts := options.Find().SetSort(sort)
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	return bson.M{"$and": conds}, opts
}

// Subscribe opens a change stream on the physical collection and re-runs
// the query after every event.
func (s *MongoStore) Subscribe(ctx context.Context, q Query) (*Subscription, error) {
	loc, err := locateCollection(q.Collection)
	if err != nil {
		return nil, err
	}
	sub := newSubscription(ctx)
	stream, err := s.db.Collection(loc.collection).Watch(sub.ctx, mongo.Pipeline{})
	if err != nil {
		sub.cancel()
		return nil, classifyMongo(err)
	}

	go func() {
		var err error
		defer func() {
			stream.Close(context.Background())
			sub.finish(err)
		}()

		for {
			docs, qerr := s.Query(sub.ctx, q)
			if qerr != nil {
				if sub.ctx.Err() == nil {
					err = qerr
				}
				return
			}
			if !sub.publish(docs) {
				return
			}
			if !stream.Next(sub.ctx) {
				if sub.ctx.Err() == nil {
					log.Printf("MongoDB change stream on %s ended: %v", loc.collection, stream.Err())
					err = classifyMongo(stream.Err())
				}
				return
			}
			// Drain events that arrived together into one re-query.
			for stream.RemainingBatchLength() > 0 && stream.TryNext(sub.ctx) {
			}
		}
	}()
	return sub, nil
}

func (s *MongoStore) Insert(ctx context.Context, collection string, data map[string]interface{}) (string, error) {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	if err := s.Set(ctx, collection+"/"+id, data); err != nil {
		return "", err
	}
	return id, nil
}

func (s *MongoStore) Set(ctx context.Context, path string, data map[string]interface{}) error {
	return s.set(ctx, path, data)
}

func (s *MongoStore) set(ctx context.Context, path string, data map[string]interface{}) error {
	loc, id, err := locateDocument(path)
	if err != nil {
		return err
	}
	doc := bson.M{}
	for k, v := range data {
		doc[k] = s.resolve(Normalize(v))
	}
	doc[mongoIDField] = path
	doc[mongoParentField] = loc.parent
	doc[mongoDocIDField] = id

	_, err = s.db.Collection(loc.collection).ReplaceOne(ctx, bson.M{mongoIDField: path}, doc, options.Replace().SetUpsert(true))
	return classifyMongo(err)
}

func (s *MongoStore) Update(ctx context.Context, path string, updates []Update) error {
	return s.update(ctx, path, updates)
}

func (s *MongoStore) update(ctx context.Context, path string, updates []Update) error {
	loc, _, err := locateDocument(path)
	if err != nil {
		return err
	}
	set := bson.M{}
	inc := bson.M{}
	for _, u := range updates {
		switch v := Normalize(u.Value).(type) {
		case increment:
			inc[u.Path] = v.n
		default:
			set[u.Path] = s.resolve(v)
		}
	}
	change := bson.M{}
	if len(set) > 0 {
		change["$set"] = set
	}
	if len(inc) > 0 {
		change["$inc"] = inc
	}
	if len(change) == 0 {
		return nil
	}

	res, err := s.db.Collection(loc.collection).UpdateOne(ctx, bson.M{mongoIDField: path}, change)
	if err != nil {
		return classifyMongo(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return classifyMongo(err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, &mongoTx{store: s, ctx: sc})
	})
	return classifyMongo(err)
}

type mongoTx struct {
	store *MongoStore
	ctx   mongo.SessionContext
}

func (t *mongoTx) Get(path string) (*Document, error) {
	return t.store.get(t.ctx, path)
}

func (t *mongoTx) Query(q Query) ([]*Document, error) {
	return t.store.Query(t.ctx, q)
}

func (t *mongoTx) Set(path string, data map[string]interface{}) error {
	return t.store.set(t.ctx, path, data)
}

func (t *mongoTx) Update(path string, updates []Update) error {
	return t.store.update(t.ctx, path, updates)
}

// resolve replaces ServerTimestamp with a store-assigned time. MongoDB keeps
// millisecond precision, so stamps advance by at least a millisecond.
func (s *MongoStore) resolve(v interface{}) interface{} {
	switch t := v.(type) {
	case serverTimestamp:
		s.mu.Lock()
		defer s.mu.Unlock()
		now := time.Now().UTC().Truncate(time.Millisecond)
		if !now.After(s.lastStamp) {
			now = s.lastStamp.Add(time.Millisecond)
		}
		s.lastStamp = now
		return now
	case increment:
		return t.n
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = s.resolve(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = s.resolve(val)
		}
		return out
	}
	return v
}

func fromMongo(raw bson.M) *Document {
	path, _ := raw[mongoIDField].(string)
	id, _ := raw[mongoDocIDField].(string)
	data := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		switch k {
		case mongoIDField, mongoParentField, mongoDocIDField:
			continue
		}
		data[k] = fromBSON(v)
	}
	return &Document{ID: id, Path: path, Data: data}
}

func fromBSON(v interface{}) interface{} {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.ObjectID:
		return t.Hex()
	case primitive.Null, primitive.Undefined:
		return nil
	case int32:
		return int64(t)
	case primitive.A:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = fromBSON(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = fromBSON(item)
		}
		return out
	case bson.M:
		out := make(map[string]interface{}, len(t))
		for k, item := range t {
			out[k] = fromBSON(item)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, item := range t {
			out[k] = fromBSON(item)
		}
		return out
	case bson.D:
		out := make(map[string]interface{}, len(t))
		for _, e := range t {
			out[e.Key] = fromBSON(e.Value)
		}
		return out
	}
	return Normalize(v)
}

// MongoDB server error codes that map onto sentinels.
const (
	mongoCodeUnauthorized     = 13
	mongoCodeIllegalOperation = 20
	mongoCodeWriteConflict    = 112
)

// classifyMongo keeps the driver error in the chain next to the sentinel;
// WithTransaction finds retry labels on it with errors.As.
func classifyMongo(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		switch {
		case cmdErr.Code == mongoCodeUnauthorized:
			return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
		case cmdErr.Code == mongoCodeWriteConflict || cmdErr.HasErrorLabel("TransientTransactionError"):
			return fmt.Errorf("%w: %w", ErrAborted, err)
		case cmdErr.Code == mongoCodeIllegalOperation:
			return fmt.Errorf("%w: %w", ErrFailedPrecondition, err)
		}
	}
	return Classify(err)
}
