package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Purpose identifies which flow a verification token belongs to. Tokens of
// different purposes never interfere with each other.
type Purpose string

const (
	PurposeEmailVerification Purpose = "email_verification"
	PurposePasswordReset     Purpose = "password_reset"
	PurposeEmailChange       Purpose = "email_change"
)

// VerificationToken is the outstanding code for one user and one purpose.
// Only the hash of the code is stored.
type VerificationToken struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	UserID    bson.ObjectID `bson:"user_id"`
	Purpose   Purpose       `bson:"purpose"`
	CodeHash  string        `bson:"code_hash"`
	NewEmail  string        `bson:"new_email,omitempty"`
	ExpiresAt time.Time     `bson:"expires_at"`
	CreatedAt time.Time     `bson:"created_at"`
}

// IsExpired reports whether the token is past its expiry at now.
func (t *VerificationToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
