package identity

import "time"

// User is an account that can sign in with a bearer token.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash []byte
	Token        string
	CreatedAt    time.Time
	LastLoginAt  time.Time
	IsActive     bool
	Phones       []Phone
}

// Phone is a contact number owned by exactly one User.
type Phone struct {
	Number      int64
	CityCode    int
	CountryCode string
}

// clone returns a copy of u that shares no slices with it.
func (u User) clone() User {
	c := u
	if u.PasswordHash != nil {
		c.PasswordHash = append([]byte(nil), u.PasswordHash...)
	}
	if u.Phones != nil {
		c.Phones = append([]Phone(nil), u.Phones...)
	}
	return c
}
