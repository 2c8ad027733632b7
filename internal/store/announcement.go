package store

// AnnouncementFilter selects announcements in Find. The zero value matches
// every announcement.
type AnnouncementFilter struct {
	// ExpiresAfter keeps announcements whose expiration_date sorts strictly
	// after this value. Comparison is on the stored strings.
	ExpiresAfter string
}

// UpdateResult reports how many records an update matched and changed.
// Matched can exceed Modified when the new values equal the stored ones.
type UpdateResult struct {
	Matched  int64
	Modified int64
}
