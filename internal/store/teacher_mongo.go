package store

import (
	"context"
	"errors"

	"github.com/mergington/announcements/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const teachersCollection = "teachers"

// MongoTeacherRepository reads and writes teacher accounts in MongoDB.
// Documents are keyed by username.
type MongoTeacherRepository struct {
	collection *mongo.Collection
}

func NewMongoTeacherRepository(db *mongo.Database) *MongoTeacherRepository {
	return &MongoTeacherRepository{collection: db.Collection(teachersCollection)}
}

func (r *MongoTeacherRepository) GetByUsername(ctx context.Context, username string) (types.Teacher, error) {
	var teacher types.Teacher
	err := r.collection.FindOne(ctx, bson.M{"_id": username}).Decode(&teacher)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return types.Teacher{}, ErrNotFound
		}
		return types.Teacher{}, err
	}
	return teacher, nil
}

func (r *MongoTeacherRepository) Create(ctx context.Context, teacher types.Teacher) (types.Teacher, error) {
	_, err := r.collection.InsertOne(ctx, bson.M{
		"_id":          teacher.Username,
		"username":     teacher.Username,
		"display_name": teacher.DisplayName,
		"role":         teacher.Role,
		"password":     teacher.PasswordHash,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return types.Teacher{}, ErrAlreadyExists
		}
		return types.Teacher{}, err
	}
	return teacher, nil
}
