package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// FallbackRole is applied to stored rows that carry no recognised role.
const FallbackRole = RoleUser

var errUnknownRole = errors.New("unknown role")

// RoleNames lists the accepted role values in display order.
func RoleNames() []string {
	return []string{string(RoleAdmin), string(RoleUser)}
}

// ParseRole trims and upper-cases s before matching it against the closed set.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleUser:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", errUnknownRole, s)
	}
}

// NormalizeStoredRole maps a persisted role column to a Role, substituting
// fallback for empty or unrecognised values.
func NormalizeStoredRole(stored string, fallback Role) Role {
	if r, err := ParseRole(stored); err == nil {
		return r
	}
	return fallback
}

// NormalizeUsername is the single case-folding rule for every username path.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Account is the stored credential record.
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PublicAccount is the projection returned to callers.
type PublicAccount struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (a Account) Public() PublicAccount {
	return PublicAccount{
		ID:        a.ID,
		Username:  a.Username,
		Role:      a.Role,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// AccountUpdate carries already-normalized values; nil fields are left as is.
type AccountUpdate struct {
	Username     *string
	PasswordHash *string
	Role         *Role
}
