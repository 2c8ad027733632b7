package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/mergington/announcements/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const announcementsCollection = "announcements"

// MongoAnnouncementRepository handles persistence for announcements in MongoDB.
type MongoAnnouncementRepository struct {
	collection *mongo.Collection
}

func NewMongoAnnouncementRepository(db *mongo.Database) *MongoAnnouncementRepository {
	return &MongoAnnouncementRepository{collection: db.Collection(announcementsCollection)}
}

func (r *MongoAnnouncementRepository) Insert(ctx context.Context, announcement types.Announcement) (primitive.ObjectID, error) {
	announcement.ID = primitive.NilObjectID
	result, err := r.collection.InsertOne(ctx, announcement)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("unexpected inserted id type %T", result.InsertedID)
	}
	return id, nil
}

func (r *MongoAnnouncementRepository) FindOne(ctx context.Context, id primitive.ObjectID) (types.Announcement, error) {
	var announcement types.Announcement
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&announcement)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return types.Announcement{}, ErrNotFound
		}
		return types.Announcement{}, err
	}
	return announcement, nil
}

func (r *MongoAnnouncementRepository) Find(ctx context.Context, filter AnnouncementFilter) ([]types.Announcement, error) {
	query := bson.M{}
	if filter.ExpiresAfter != "" {
		query["expiration_date"] = bson.M{"$gt": filter.ExpiresAfter}
	}

	cursor, err := r.collection.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	announcements := make([]types.Announcement, 0)
	if err := cursor.All(ctx, &announcements); err != nil {
		return nil, err
	}
	return announcements, nil
}

func (r *MongoAnnouncementRepository) UpdateOne(ctx context.Context, id primitive.ObjectID, patch types.AnnouncementPatch) (UpdateResult, error) {
	set := bson.M{}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Message != nil {
		set["message"] = *patch.Message
	}
	if patch.StartDate != nil {
		set["start_date"] = *patch.StartDate
	}
	if patch.ExpirationDate != nil {
		set["expiration_date"] = *patch.ExpirationDate
	}
	if len(set) == 0 {
		return UpdateResult{}, ErrEmptyPatch
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return UpdateResult{}, err
	}
	return UpdateResult{Matched: result.MatchedCount, Modified: result.ModifiedCount}, nil
}

func (r *MongoAnnouncementRepository) DeleteOne(ctx context.Context, id primitive.ObjectID) (int64, error) {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}
