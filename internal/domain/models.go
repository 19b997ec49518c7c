// Package domain defines the persistence models for users and messages.
// These types are mapped with GORM and form the core data layer of the
// messaging demo backend.
package domain

import "time"

// User represents a registered account. Users are created at registration,
// read at login, and never updated or deleted in this application.
//
// Fields:
//   - ID: auto-increment primary key.
//   - Username: unique login name.
//   - PasswordHash: bcrypt hash; the clear password is never stored.
//   - CreatedAt: timestamp managed by GORM.
type User struct {
	ID           uint      `json:"id"       gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"type:varchar(64);not null;uniqueIndex:ux_users_username"`
	PasswordHash string    `json:"-"        gorm:"column:password;type:varchar(255);not null"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Message represents a single saved message. The author reference is
// nullable: the legacy /db/message path inserts rows without one.
//
// Fields:
//   - ID: auto-increment primary key.
//   - UserID: optional foreign key to the author.
//   - Body: message text (column "message" for continuity with the
//     original schema).
//   - CreatedAt: server-assigned creation timestamp, indexed for the
//     created_at DESC listing order.
type Message struct {
	ID        uint      `json:"id"         gorm:"primaryKey"`
	UserID    *uint     `json:"user_id"    gorm:"index"`
	Body      string    `json:"message"    gorm:"column:message;type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_messages_created_at"`

	// User is the author. Kept nullable so legacy rows survive.
	User *User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// MessageView is the read model returned by list and search queries: a
// message joined with its author's display name.
type MessageView struct {
	ID        uint      `json:"id"`
	Body      string    `json:"message"    gorm:"column:message"`
	CreatedAt time.Time `json:"created_at"`
	Username  string    `json:"username"`
}
