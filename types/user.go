package types

import "time"

// Account is the authentication identity. Its ID doubles as the primary
// key of the matching Profile.
type Account struct {
	// ID is the unique identifier of the account.
	ID string `json:"id" db:"id"`

	// Email is the login address.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the bcrypt hash of the account password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Profile is the public face of an account.
type Profile struct {
	// ID equals the owning Account ID.
	ID string `json:"id" db:"id"`

	// Username is unique and cannot be changed after sign up.
	Username string `json:"username" db:"username"`

	// FullName is optional.
	FullName *string `json:"fullname" db:"fullname"`

	// Bio is optional. The 500 character guidance is advisory only.
	Bio *string `json:"bio" db:"bio"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Summary returns the display projection of the profile.
func (p Profile) Summary() ProfileSummary {
	return ProfileSummary{
		ID:       p.ID,
		Username: p.Username,
		FullName: p.FullName,
		Bio:      p.Bio,
	}
}

// ProfileSummary is the subset of profile fields attached to directory entries.
type ProfileSummary struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	FullName *string `json:"fullname"`
	Bio      *string `json:"bio"`
}

// ProfilePatch updates the mutable profile fields. Nil fields are left untouched.
type ProfilePatch struct {
	FullName *string `json:"fullname,omitempty"`
	Bio      *string `json:"bio,omitempty"`
}

// CallerIdentity is the authenticated caller on whose behalf a mutation runs.
// The zero value represents an anonymous caller.
type CallerIdentity struct {
	UserID string
}

// Authenticated reports whether the identity names a caller.
func (c CallerIdentity) Authenticated() bool {
	return c.UserID != ""
}
