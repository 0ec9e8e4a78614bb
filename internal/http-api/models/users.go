package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	Email     string    `gorm:"uniqueIndex;size:254;not null" json:"email"`
	Username  string    `gorm:"uniqueIndex;size:150;not null" json:"username"`
	FirstName string    `gorm:"size:150;not null" json:"first_name"`
	LastName  string    `gorm:"size:150;not null" json:"last_name"`
	Password  string    `gorm:"column:password_hash;not null" json:"-"`
	Role      string    `gorm:"default:'user';not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook to set UUID before creating a User
func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	return
}

func (User) TableName() string {
	return "users"
}

// Subscription: subscriber follows author. A user cannot follow themselves.
type Subscription struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SubscriberID string    `gorm:"type:uuid;not null;uniqueIndex:idx_subscriber_author" json:"subscriber_id"`
	AuthorID     string    `gorm:"type:uuid;not null;uniqueIndex:idx_subscriber_author;index;check:chk_no_self_follow,subscriber_id <> author_id" json:"author_id"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`

	Subscriber *User `gorm:"foreignKey:SubscriberID;constraint:OnDelete:CASCADE" json:"-"`
	Author     *User `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
