package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/theleywin/talentnest-connections/src/models"
)

// MongoStore keeps users, connection requests and notifications in three
// collections of one database. Connection sets live on the user documents.
type MongoStore struct {
	db           *mongo.Database
	transactions bool
}

// NewMongoStore wraps db. transactions must only be true when the deployment
// is a replica set or sharded cluster.
func NewMongoStore(db *mongo.Database, transactions bool) *MongoStore {
	return &MongoStore{db: db, transactions: transactions}
}

func (s *MongoStore) users() *mongo.Collection {
	return s.db.Collection(UsersCollection)
}

func (s *MongoStore) requests() *mongo.Collection {
	return s.db.Collection(ConnectionsCollection)
}

func (s *MongoStore) notifications() *mongo.Collection {
	return s.db.Collection(NotificationsCollection)
}

// public user fields; the password hash never leaves the store
var userProjection = bson.M{"password": 0}

// EnsureIndexes creates the indexes the lookups rely on
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.users().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}

	// no unique index on the pair: duplicate pending requests are allowed
	_, err = s.requests().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "sender", Value: 1}, {Key: "recipient", Value: 1}, {Key: "status", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("connections indexes: %w", err)
	}

	_, err = s.notifications().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("notifications indexes: %w", err)
	}

	log.Println("MongoDB indexes ensured")
	return nil
}

func (s *MongoStore) InsertUser(ctx context.Context, user *models.User) error {
	if user.Id.IsZero() {
		user.Id = primitive.NewObjectID()
	}
	// $addToSet fails on a null field
	if user.Connections == nil {
		user.Connections = []primitive.ObjectID{}
	}
	if _, err := s.users().InsertOne(ctx, user); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *MongoStore) FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *MongoStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"username": username})
}

func (s *MongoStore) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := s.users().FindOne(ctx, filter, options.FindOne().SetProjection(userProjection)).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func (s *MongoStore) FindUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	filter := bson.M{"_id": bson.M{"$in": ids}}
	return s.findUsers(ctx, filter, options.Find().SetProjection(userProjection))
}

func (s *MongoStore) SuggestUsers(ctx context.Context, exclude []primitive.ObjectID, limit int64) ([]models.User, error) {
	if exclude == nil {
		exclude = []primitive.ObjectID{}
	}
	filter := bson.M{"_id": bson.M{"$nin": exclude}}
	opts := options.Find().SetProjection(userProjection).SetLimit(limit)
	return s.findUsers(ctx, filter, opts)
}

func (s *MongoStore) findUsers(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.User, error) {
	cursor, err := s.users().Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

func (s *MongoStore) AddConnection(ctx context.Context, user, other primitive.ObjectID) (bool, error) {
	result, err := s.users().UpdateOne(ctx,
		bson.M{"_id": user},
		bson.M{"$addToSet": bson.M{"connections": other}},
	)
	if err != nil {
		return false, fmt.Errorf("add connection: %w", err)
	}
	if result.MatchedCount == 0 {
		return false, ErrNotFound
	}
	return result.ModifiedCount > 0, nil
}

func (s *MongoStore) RemoveConnection(ctx context.Context, user, other primitive.ObjectID) (bool, error) {
	result, err := s.users().UpdateOne(ctx,
		bson.M{"_id": user},
		bson.M{"$pull": bson.M{"connections": other}},
	)
	if err != nil {
		return false, fmt.Errorf("remove connection: %w", err)
	}
	return result.ModifiedCount > 0, nil
}

func (s *MongoStore) InsertRequest(ctx context.Context, req *models.ConnectionRequest) error {
	if req.Id.IsZero() {
		req.Id = primitive.NewObjectID()
	}
	if _, err := s.requests().InsertOne(ctx, req); err != nil {
		return fmt.Errorf("insert connection request: %w", err)
	}
	return nil
}

func (s *MongoStore) FindRequestByID(ctx context.Context, id primitive.ObjectID) (*models.ConnectionRequest, error) {
	var req models.ConnectionRequest
	err := s.requests().FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find connection request: %w", err)
	}
	return &req, nil
}

func (s *MongoStore) TransitionRequest(ctx context.Context, id, recipient primitive.ObjectID, from, to models.ConnectionStatus, at time.Time) (*models.ConnectionRequest, error) {
	filter := bson.M{
		"_id":       id,
		"recipient": recipient,
		"status":    from,
	}
	update := bson.M{
		"$set": bson.M{
			"status":    to,
			"updatedAt": at,
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var req models.ConnectionRequest
	err := s.requests().FindOneAndUpdate(ctx, filter, update, opts).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("transition connection request: %w", err)
	}
	return &req, nil
}

func (s *MongoStore) FindPendingForRecipient(ctx context.Context, recipient primitive.ObjectID) ([]models.ConnectionRequest, error) {
	filter := bson.M{
		"recipient": recipient,
		"status":    models.ConnectionStatusPending,
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := s.requests().Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find pending requests: %w", err)
	}
	defer cursor.Close(ctx)

	requests := []models.ConnectionRequest{}
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, fmt.Errorf("decode pending requests: %w", err)
	}
	return requests, nil
}

func (s *MongoStore) FindPendingBetween(ctx context.Context, a, b primitive.ObjectID) (*models.ConnectionRequest, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"sender": a, "recipient": b},
			{"sender": b, "recipient": a},
		},
		"status": models.ConnectionStatusPending,
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	var req models.ConnectionRequest
	err := s.requests().FindOne(ctx, filter, opts).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find pending request between users: %w", err)
	}
	return &req, nil
}

func (s *MongoStore) InsertNotification(ctx context.Context, n *models.Notification) error {
	if n.Id.IsZero() {
		n.Id = primitive.NewObjectID()
	}
	if _, err := s.notifications().InsertOne(ctx, n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *MongoStore) FindNotificationsForRecipient(ctx context.Context, recipient primitive.ObjectID) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.notifications().Find(ctx, bson.M{"recipient": recipient}, opts)
	if err != nil {
		return nil, fmt.Errorf("find notifications: %w", err)
	}
	defer cursor.Close(ctx)

	notifications := []models.Notification{}
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	return notifications, nil
}

func (s *MongoStore) MarkNotificationRead(ctx context.Context, id, recipient primitive.ObjectID, at time.Time) (*models.Notification, error) {
	// scoped to the recipient so nobody can touch another user's notifications
	filter := bson.M{
		"_id":       id,
		"recipient": recipient,
	}
	update := bson.M{
		"$set": bson.M{
			"read":      true,
			"updatedAt": at,
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var n models.Notification
	err := s.notifications().FindOneAndUpdate(ctx, filter, update, opts).Decode(&n)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	return &n, nil
}

func (s *MongoStore) DeleteNotification(ctx context.Context, id, recipient primitive.ObjectID) error {
	result, err := s.notifications().DeleteOne(ctx, bson.M{"_id": id, "recipient": recipient})
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.transactions {
		return ErrTransactionsUnsupported
	}

	session, err := s.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
