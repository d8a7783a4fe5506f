package app

import (
	"github.com/go-chi/oauth"

	"github.com/TrAlSe1812/survey-gym42/authoring"
	"github.com/TrAlSe1812/survey-gym42/config"
	"github.com/TrAlSe1812/survey-gym42/database"
	"github.com/TrAlSe1812/survey-gym42/store"
	"github.com/TrAlSe1812/survey-gym42/submission"
)

type App struct {
	*oauth.BearerServer
	config.Config

	Store       *store.Store
	Authoring   *authoring.Service
	Submissions *submission.Service
	Users       *database.Users
	Tokens      *database.Tokens
}
