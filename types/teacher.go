package types

// Teacher is a staff account allowed to manage announcements.
type Teacher struct {
	// Username is the login name. It doubles as the document key.
	Username string `json:"username" bson:"_id" db:"username"`

	// DisplayName is the name shown in the UI.
	DisplayName string `json:"display_name" bson:"display_name" db:"display_name"`

	// Role is the staff role, e.g. "teacher" or "admin".
	Role string `json:"role" bson:"role" db:"role"`

	// PasswordHash stores the bcrypt hash of the teacher's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" bson:"password" db:"password_hash"`
}
