package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/TrAlSe1812/survey-gym42/log"
)

// errRefused marks a strategy the server answered but did not accept.
var errRefused = errors.New("refused")

// Remote logs in against the school directory at BaseURL + "/login/".
// The directory has accepted different request shapes over time, so each
// known shape is tried in turn. When ProxyURL is set and the directory
// cannot be reached directly, the same attempts go through the proxy
// (ProxyURL is prefixed to the full directory URL).
type Remote struct {
	BaseURL   string
	ProxyURL  string
	Timeout   time.Duration
	Transport http.RoundTripper
}

type strategy struct {
	name string
	run  func(ctx context.Context, client *http.Client, loginURL string, c Credentials) (Identity, error)
}

var strategies = []strategy{
	{"json", postJSON},
	{"form", postForm},
	{"basic", basicGet},
}

func (rm *Remote) Authenticate(ctx context.Context, c Credentials) (Identity, error) {
	loginURL := strings.TrimSuffix(rm.BaseURL, "/") + "/login/"
	targets := []string{loginURL}
	if rm.ProxyURL != "" {
		targets = append(targets, rm.ProxyURL+loginURL)
	}

	var err error
	for _, target := range targets {
		var id Identity
		id, err = rm.attempt(ctx, target, c)
		if err == nil || errors.Is(err, ErrInvalidCredentials) {
			return id, err
		}
	}
	return Identity{}, err
}

func (rm *Remote) attempt(ctx context.Context, loginURL string, c Credentials) (Identity, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return Identity{}, err
	}
	timeout := rm.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	client := &http.Client{Jar: jar, Timeout: timeout, Transport: rm.Transport}

	answered := false
	var lastErr error
	for _, s := range strategies {
		id, err := s.run(ctx, client, loginURL, c)
		if err == nil {
			return id, nil
		}
		if errors.Is(err, errRefused) {
			answered = true
		} else {
			lastErr = err
		}
		log.WithFields(log.Fields{"strategy": s.name, "url": loginURL}).Debugf("auth.remote: %s", err)
	}
	if answered {
		return Identity{}, ErrInvalidCredentials
	}
	return Identity{}, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

// postJSON posts the credentials as JSON; the directory answers "OK" and
// sets a session cookie the profile is then read with.
func postJSON(ctx context.Context, client *http.Client, loginURL string, c Credentials) (Identity, error) {
	body, err := json.Marshal(map[string]string{"login": c.Login, "password": c.Password})
	if err != nil {
		return Identity{}, err
	}
	return postThenFetch(ctx, client, loginURL, "application/json", bytes.NewReader(body))
}

func postForm(ctx context.Context, client *http.Client, loginURL string, c Credentials) (Identity, error) {
	form := url.Values{"login": {c.Login}, "password": {c.Password}}
	return postThenFetch(ctx, client, loginURL, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
}

func basicGet(ctx context.Context, client *http.Client, loginURL string, c Credentials) (Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loginURL, nil)
	if err != nil {
		return Identity{}, err
	}
	req.SetBasicAuth(c.Login, c.Password)
	req.Header.Set("Accept", "application/json")
	return readProfile(client, req)
}

func postThenFetch(ctx context.Context, client *http.Client, loginURL, contentType string, body io.Reader) (Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL, body)
	if err != nil {
		return Identity{}, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return Identity{}, err
	}
	text, err := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
	resp.Body.Close()
	if err != nil {
		return Identity{}, err
	}
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(text)) != "OK" {
		return Identity{}, fmt.Errorf("%w: status %d", errRefused, resp.StatusCode)
	}

	req, err = http.NewRequestWithContext(ctx, http.MethodGet, loginURL, nil)
	if err != nil {
		return Identity{}, err
	}
	req.Header.Set("Accept", "application/json")
	return readProfile(client, req)
}

type profile struct {
	Login    string `json:"login"`
	FullName string `json:"fullname"`
	F        string `json:"f"`
	I        string `json:"i"`
	O        string `json:"o"`
	UserID   int    `json:"userid"`
	Group    string `json:"group"`
	Tariff   string `json:"tarif"`
}

func (p profile) identity() Identity {
	name := p.FullName
	if name == "" && p.F != "" {
		name = strings.TrimSpace(fmt.Sprintf("%s %s. %s.", p.F, p.I, p.O))
	}
	return Identity{
		Login:    p.Login,
		FullName: name,
		Group:    p.Group,
		Tariff:   p.Tariff,
		UserID:   p.UserID,
		Role:     RoleFor(p.Group, p.Tariff),
	}
}

func readProfile(client *http.Client, req *http.Request) (Identity, error) {
	resp, err := client.Do(req)
	if err != nil {
		return Identity{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Identity{}, fmt.Errorf("%w: profile status %d", errRefused, resp.StatusCode)
	}
	var p profile
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&p); err != nil {
		return Identity{}, fmt.Errorf("%w: profile: %v", errRefused, err)
	}
	if p.Login == "" {
		return Identity{}, fmt.Errorf("%w: profile without login", errRefused)
	}
	return p.identity(), nil
}
