package store

import (
	"context"
	"time"

	"github.com/lumenstudio/lumen/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UsersCount returns the number of documents in the users collection.
func (db *DB) UsersCount(ctx context.Context) (int64, error) {
	return db.Users().CountDocuments(ctx, bson.M{})
}

// AdminsCount returns the number of users with role admin.
func (db *DB) AdminsCount(ctx context.Context) (int64, error) {
	return db.Users().CountDocuments(ctx, bson.M{"role": models.RoleAdmin})
}

func (db *DB) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := db.Users().FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (db *DB) UserByUID(ctx context.Context, uid string) (*models.User, error) {
	var u models.User
	err := db.Users().FindOne(ctx, bson.M{"uid": uid}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (db *DB) CreateUser(ctx context.Context, user *models.User) (primitive.ObjectID, error) {
	res, err := db.Users().InsertOne(ctx, user, options.InsertOne())
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

// EnsureProfile returns the profile for uid, creating one with the default
// role when absent. The upsert is conditional (insert-if-absent), so two
// concurrent first logins for the same identity cannot clobber each other:
// the first write wins and both callers see the same document.
func (db *DB) EnsureProfile(ctx context.Context, uid, email string) (*models.User, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	update := bson.M{"$setOnInsert": bson.M{
		"uid":       uid,
		"email":     email,
		"role":      models.DefaultRole,
		"createdAt": time.Now(),
	}}
	var u models.User
	if err := db.Users().FindOneAndUpdate(ctx, bson.M{"uid": uid}, update, opts).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (db *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	cur, err := db.Users().Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"createdAt": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SetUserRole updates just the role field (partial merge).
func (db *DB) SetUserRole(ctx context.Context, uid string, role models.Role) error {
	_, err := db.Users().UpdateOne(ctx, bson.M{"uid": uid}, bson.M{"$set": bson.M{"role": role}})
	return err
}

// UpdateUser merges the given credential fields. Role changes go through
// SetUserRole so the session store can refresh in-memory state.
func (db *DB) UpdateUser(ctx context.Context, id primitive.ObjectID, email *string, hashedPassword *string) error {
	updates := bson.M{}
	if email != nil {
		updates["email"] = *email
	}
	if hashedPassword != nil {
		updates["password"] = *hashedPassword
	}
	if len(updates) == 0 {
		return nil
	}
	_, err := db.Users().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updates})
	return err
}

func (db *DB) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	_, err := db.Users().DeleteOne(ctx, bson.M{"_id": id})
	return err
}
