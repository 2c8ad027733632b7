package store

import "go.mongodb.org/mongo-driver/bson/primitive"

// ParseKey converts the external hex form of an announcement id into a
// store key. Every backend uses ObjectIDs, so the accepted form is the same
// regardless of where announcements live.
func ParseKey(raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidKey
	}
	return id, nil
}
