package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User represents an account. Email and phone number are unique across all users.
type User struct {
	ID             bson.ObjectID `bson:"_id,omitempty"`
	FirstName      string        `bson:"first_name"`
	LastName       string        `bson:"last_name"`
	Email          string        `bson:"email"`
	PhoneNumber    string        `bson:"phone_number"`
	PasswordHash   string        `bson:"password_hash"`
	Verified       bool          `bson:"verified"`
	ProfilePicture string        `bson:"profile_picture"`
	CreatedAt      time.Time     `bson:"created_at"`
	UpdatedAt      time.Time     `bson:"updated_at"`
}
