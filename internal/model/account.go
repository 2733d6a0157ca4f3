package model

import (
	"time"
)

// Role classifies an account. Staff accounts carry RoleAdmin; everyone
// else is a client.
type Role string

const (
	RoleClient Role = "client"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleClient || r == RoleAdmin
}

// Account is a registered user of the platform.
type Account struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Email     string    `bson:"email" json:"email"`
	Phone     string    `bson:"phone,omitempty" json:"phone,omitempty"`
	Role      Role      `bson:"role" json:"role"`
	AvatarURL string    `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Info projects the account into thread-embedded participant metadata.
func (a *Account) Info() ParticipantInfo {
	return ParticipantInfo{Name: a.Name, AvatarURL: a.AvatarURL}
}

// ListAccountsResponse is the response for listing accounts.
type ListAccountsResponse struct {
	Accounts []Account `json:"accounts"`
	Total    int       `json:"total"`
}
