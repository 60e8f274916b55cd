package domain

import "time"

// Notification captures one persisted, read-trackable message addressed to a
// single recipient.
type Notification struct {
	ID              string
	RecipientUserID string
	Kind            Kind
	Title           string
	Message         string
	ExtraJSON       string
	CreatedAt       time.Time
	ReadAt          *time.Time
}

// IsRead reports whether the read transition has happened. Read state is
// derived from ReadAt so the record cannot hold an inconsistent pair.
func (n Notification) IsRead() bool {
	return n.ReadAt != nil
}

// Extra decodes the opaque payload attached at creation time.
func (n Notification) Extra() (ExtraData, error) {
	return ParseExtraData(n.ExtraJSON)
}
