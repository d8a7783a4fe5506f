package database

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/TrAlSe1812/survey-gym42/auth"
)

// Users stores local accounts and the last known profile of every user
// that logged in, whichever backend authenticated them.
type Users struct {
	db *sql.DB
}

func NewUsers(db *sql.DB) *Users {
	return &Users{db}
}

const profileColumns = "username, fullname, grp, tariff, userid, role, demo"

func scanProfile(row *sql.Row, extra ...any) (id auth.Identity, err error) {
	var role string
	dest := append([]any{&id.Login, &id.FullName, &id.Group, &id.Tariff, &id.UserID, &role, &id.Demo}, extra...)
	err = row.Scan(dest...)
	id.Role = auth.Role(role)
	return
}

// LookupUser returns the password hash of a local account. Users known
// only from remote logins have no hash.
func (u *Users) LookupUser(ctx context.Context, login string) ([]byte, auth.Identity, error) {
	var hash []byte
	id, err := scanProfile(
		u.db.QueryRowContext(ctx, "SELECT "+profileColumns+", password_hash FROM user WHERE username = ?", login),
		&hash,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.Identity{}, auth.ErrUnknownUser
	}
	if err != nil {
		return nil, auth.Identity{}, errors.Wrap(err, "lookup user")
	}
	return hash, id, nil
}

// SetPassword creates or updates a local account.
func (u *Users) SetPassword(ctx context.Context, id auth.Identity, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	if err := u.SaveProfile(ctx, id); err != nil {
		return err
	}
	_, err = u.db.ExecContext(ctx, "UPDATE user SET password_hash = ? WHERE username = ?", hash, id.Login)
	return errors.Wrap(err, "set password")
}

// SaveProfile upserts the profile fields, leaving any password untouched.
func (u *Users) SaveProfile(ctx context.Context, id auth.Identity) error {
	_, err := u.db.ExecContext(ctx, `
		INSERT INTO user (`+profileColumns+`, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (username) DO UPDATE SET
			fullname = excluded.fullname,
			grp = excluded.grp,
			tariff = excluded.tariff,
			userid = excluded.userid,
			role = excluded.role,
			demo = excluded.demo,
			updated_at = excluded.updated_at`,
		id.Login, id.FullName, id.Group, id.Tariff, id.UserID, string(id.Role), id.Demo,
	)
	return errors.Wrap(err, "save profile")
}

func (u *Users) Profile(ctx context.Context, login string) (auth.Identity, error) {
	id, err := scanProfile(u.db.QueryRowContext(ctx, "SELECT "+profileColumns+" FROM user WHERE username = ?", login))
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Identity{}, auth.ErrUnknownUser
	}
	return id, errors.Wrap(err, "load profile")
}
