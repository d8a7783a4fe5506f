package httpx

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/oauth"

	"github.com/TrAlSe1812/survey-gym42/auth"
	"github.com/TrAlSe1812/survey-gym42/config"
	"github.com/TrAlSe1812/survey-gym42/database"
	"github.com/TrAlSe1812/survey-gym42/log"
)

// Claims carried by every access token.
const (
	ClaimRoles = "roles"
	ClaimName  = "name"
	ClaimDemo  = "demo"
)

// RefreshTTL is how long a refresh token stays usable.
const RefreshTTL = 8760 * time.Hour

type credentialsVerifier struct {
	auth   auth.Authenticator
	users  *database.Users
	tokens *database.Tokens
	now    func() time.Time
}

// CredentialsVerifier checks passwords with a, remembers the resulting
// profile in users so refreshed tokens get the same claims, and keeps
// refresh token ids in tokens.
func CredentialsVerifier(a auth.Authenticator, users *database.Users, tokens *database.Tokens) oauth.CredentialsVerifier {
	return &credentialsVerifier{a, users, tokens, time.Now}
}

func NewBearerServer(cfg config.Config, verifier oauth.CredentialsVerifier) *oauth.BearerServer {
	return oauth.NewBearerServer(cfg.TokenSecret, cfg.TokenTTL, verifier, nil)
}

func (cs *credentialsVerifier) ValidateUser(username string, password string, scope string, r *http.Request) error {
	id, err := cs.auth.Authenticate(r.Context(), auth.Credentials{Login: username, Password: password})
	if err != nil {
		log.WithFields(log.Fields{"login": username}).Debugf("login.authenticate: %s", err)
		return err
	}
	id.Login = username
	if err := cs.users.SaveProfile(r.Context(), id); err != nil {
		log.Errorf("login.save_profile: %s", err)
		return err
	}
	log.WithFields(log.Fields{"login": username, "role": id.Role, "demo": id.Demo}).Info("login.ok")
	return nil
}

func (cs *credentialsVerifier) StoreTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	return cs.tokens.Store(context.Background(), credential, tokenID, refreshTokenID, cs.now().Add(RefreshTTL))
}

func (cs *credentialsVerifier) ValidateTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	err := cs.tokens.Consume(context.Background(), credential, tokenID, refreshTokenID, cs.now())
	if errors.Is(err, database.ErrTokenNotFound) {
		return errors.New("could not refresh")
	}
	return err
}

func (cs *credentialsVerifier) AddClaims(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	id, err := cs.users.Profile(r.Context(), credential)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		ClaimRoles: string(id.Role),
		ClaimName:  id.DisplayName(),
		ClaimDemo:  strconv.FormatBool(id.Demo),
	}, nil
}

func (cs *credentialsVerifier) AddProperties(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	id, err := cs.users.Profile(r.Context(), credential)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"login":    id.Login,
		"fullname": id.DisplayName(),
		"role":     string(id.Role),
	}, nil
}

func (*credentialsVerifier) ValidateClient(clientID string, clientSecret string, scope string, r *http.Request) error {
	return errors.New("not supported")
}
