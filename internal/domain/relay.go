package domain

import "time"

// RelayMapping links a message the bot sent to the administrator back to
// the user whose text it carries.
type RelayMapping struct {
	AdminMessageID int
	UserID         int64
	CreatedAt      time.Time
}
