package profiles

import (
	"errors"
	"time"
)

// MaxPerAccount caps how many viewer profiles one account may hold.
const MaxPerAccount = 5

var (
	ErrNotFound     = errors.New("profile not found")
	ErrProfileLimit = errors.New("profile limit reached")
	ErrNameRequired = errors.New("please enter a name for the profile")
)

// Profile is one viewer under an account ("who's watching?").
type Profile struct {
	ID         string    `json:"id"`
	AccountID  string    `json:"account_id"`
	Name       string    `json:"name"`
	AvatarPath *string   `json:"-"`
	HasAvatar  bool      `json:"has_avatar"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
