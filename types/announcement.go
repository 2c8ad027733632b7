package types

import "go.mongodb.org/mongo-driver/bson/primitive"

// Announcement represents a time-bounded notice shown on the school site.
// Dates are kept as the ISO-8601 strings the client submitted; the active
// window is evaluated by comparing those strings.
type Announcement struct {
	// ID is the store key. It is assigned by the store on insert and is
	// rendered as a 24 character hex string.
	ID primitive.ObjectID `json:"_id" bson:"_id,omitempty"`

	// Title is the headline, 1 to 200 characters.
	Title string `json:"title" bson:"title"`

	// Message is the body text, 1 to 2000 characters.
	Message string `json:"message" bson:"message"`

	// StartDate is the optional ISO-8601 timestamp the announcement starts at.
	// It is stored but not used by the active-window filter.
	StartDate *string `json:"start_date" bson:"start_date"`

	// ExpirationDate is the ISO-8601 timestamp after which the announcement
	// is no longer active.
	ExpirationDate string `json:"expiration_date" bson:"expiration_date"`

	// CreatedBy is the username of the teacher who created the announcement.
	CreatedBy string `json:"created_by" bson:"created_by"`

	// CreatedAt is the UTC creation timestamp, set by the server.
	CreatedAt string `json:"created_at" bson:"created_at"`
}

// AnnouncementPatch holds the fields of a partial update. A nil field is
// left untouched.
type AnnouncementPatch struct {
	Title          *string `json:"title,omitempty"`
	Message        *string `json:"message,omitempty"`
	StartDate      *string `json:"start_date,omitempty"`
	ExpirationDate *string `json:"expiration_date,omitempty"`
}

// IsEmpty reports whether the patch carries no field at all.
func (p AnnouncementPatch) IsEmpty() bool {
	return p.Title == nil && p.Message == nil && p.StartDate == nil && p.ExpirationDate == nil
}

// Apply returns a copy of a with the supplied patch fields set.
func (p AnnouncementPatch) Apply(a Announcement) Announcement {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Message != nil {
		a.Message = *p.Message
	}
	if p.StartDate != nil {
		startDate := *p.StartDate
		a.StartDate = &startDate
	}
	if p.ExpirationDate != nil {
		a.ExpirationDate = *p.ExpirationDate
	}
	return a
}
