package config

import (
	"io"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("QSURVEY_TOKEN_SECRET", "s3cret")
	t.Setenv("QSURVEY_DEMO_AUTH", "yes")

	cfg, err := parse(nil, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != "0.0.0.0:80" || cfg.Storage != StorageSQLite || cfg.TokenTTL != 120*time.Second {
		t.Errorf("defaults = %+v", cfg)
	}
	if !cfg.DemoAuth || cfg.TokenSecret != "s3cret" {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.Url() != "http://localhost:80" {
		t.Errorf("Url = %q", cfg.Url())
	}
}

func TestParseFlagsOverrideEnv(t *testing.T) {
	t.Setenv("QSURVEY_PORT", "9000")
	t.Setenv("QSURVEY_STORAGE", "mongo")

	cfg, err := parse([]string{
		"-token-secret", "x",
		"-port", "8080",
		"-storage", "memory",
		"-auth-url", "https://school.example",
		"-cors-origins", "https://a.example, ,https://b.example",
		"-token-ttl", "60",
	}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != "0.0.0.0:8080" || cfg.Storage != StorageMemory || cfg.TokenTTL != time.Minute {
		t.Errorf("cfg = %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.CORSOrigins, []string{"https://a.example", "https://b.example"}) {
		t.Errorf("origins = %q", cfg.CORSOrigins)
	}
}

func TestParseCollectsAllErrors(t *testing.T) {
	_, err := parse([]string{"-storage", "etcd", "-admin-login", "root"}, io.Discard)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"-token-secret", `unknown -storage "etcd"`, "-admin-password"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestParseRequiresLoginBackend(t *testing.T) {
	_, err := parse([]string{"-token-secret", "x"}, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "no login backend") {
		t.Errorf("err = %v", err)
	}
}
