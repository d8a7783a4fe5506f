package auth

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// UserLookup finds a locally registered user and the bcrypt hash of its
// password. It returns ErrUnknownUser for logins it does not hold.
type UserLookup interface {
	LookupUser(ctx context.Context, login string) (hash []byte, id Identity, err error)
}

type Local struct {
	Users UserLookup
}

func (l Local) Authenticate(ctx context.Context, c Credentials) (Identity, error) {
	hash, id, err := l.Users.LookupUser(ctx, c.Login)
	if err != nil {
		return Identity{}, err
	}
	if len(hash) == 0 {
		return Identity{}, ErrUnknownUser
	}
	err = bcrypt.CompareHashAndPassword(hash, []byte(c.Password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return Identity{}, ErrInvalidCredentials
	}
	if err != nil {
		return Identity{}, err
	}
	return id, nil
}

// Demo accepts any non-empty login without a password check. Logins
// containing "admin" become administrators. Used when the directory is
// unreachable and demo mode is enabled.
type Demo struct{}

func (Demo) Authenticate(_ context.Context, c Credentials) (Identity, error) {
	login := strings.TrimSpace(c.Login)
	if login == "" {
		return Identity{}, ErrInvalidCredentials
	}
	if strings.Contains(strings.ToLower(login), "admin") {
		return Identity{
			Login:    login,
			FullName: AdminTariff,
			Group:    AdminGroup,
			Tariff:   AdminTariff,
			Role:     RoleAdmin,
			Demo:     true,
		}, nil
	}
	return Identity{
		Login:    login,
		FullName: login,
		Group:    "Ученики",
		Tariff:   "Ученический",
		Role:     RoleStudent,
		Demo:     true,
	}, nil
}
