// Package auth resolves login credentials to an Identity. Callers only see
// the Authenticator interface and never learn which backend answered.
package auth

import (
	"context"
	"errors"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

// Group and tariff names the school directory uses for administrators.
const (
	AdminGroup  = "Администраторы"
	AdminTariff = "Администратор"
)

var (
	// ErrInvalidCredentials means a backend recognized the attempt and refused it.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnavailable means the backend could not be asked.
	ErrUnavailable = errors.New("authentication backend unavailable")
	// ErrUnknownUser means the backend does not know the login; others may.
	ErrUnknownUser = errors.New("unknown user")
)

type Credentials struct {
	Login    string
	Password string
}

type Identity struct {
	Login    string `json:"login"`
	FullName string `json:"fullname"`
	Group    string `json:"group,omitempty"`
	Tariff   string `json:"tarif,omitempty"`
	UserID   int    `json:"userid,omitempty"`
	Role     Role   `json:"role"`
	Demo     bool   `json:"isDemo"`
}

// DisplayName falls back to the login when no full name is known.
func (id Identity) DisplayName() string {
	if id.FullName != "" {
		return id.FullName
	}
	return id.Login
}

type Authenticator interface {
	Authenticate(ctx context.Context, c Credentials) (Identity, error)
}

type AuthenticatorFunc func(ctx context.Context, c Credentials) (Identity, error)

func (f AuthenticatorFunc) Authenticate(ctx context.Context, c Credentials) (Identity, error) {
	return f(ctx, c)
}

func RoleFor(group, tariff string) Role {
	if group == AdminGroup || tariff == AdminTariff {
		return RoleAdmin
	}
	return RoleStudent
}

// Chain asks each authenticator in turn. The first success wins; an
// ErrInvalidCredentials answer stops the chain, any other failure moves
// on to the next authenticator.
type Chain []Authenticator

func (c Chain) Authenticate(ctx context.Context, cred Credentials) (Identity, error) {
	err := ErrUnavailable
	for _, a := range c {
		var id Identity
		id, err = a.Authenticate(ctx, cred)
		if err == nil {
			return id, nil
		}
		if errors.Is(err, ErrInvalidCredentials) {
			return Identity{}, err
		}
	}
	return Identity{}, err
}
