package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Storage backends the survey and response lists can be kept in.
const (
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
	StorageMongo  = "mongo"
	StorageMemory = "memory"
)

type Config struct {
	Addr        string
	DBUrl       string
	Storage     string
	RedisAddr   string
	RedisPrefix string
	MongoURI    string
	MongoDB     string
	TokenSecret string
	TokenTTL    time.Duration
	AuthURL     string
	AuthProxy   string
	DemoAuth    bool
	AdminLogin  string
	AdminPass   string
	CORSOrigins []string
	PublicDir   string
	PrivateDir  string
	Debug       bool
}

// Parse reads flags from args (without the program name). Every flag
// defaults to its QSURVEY_* environment variable when set.
func Parse(args []string) (cfg Config, err error) {
	return parse(args, os.Stderr)
}

func parse(args []string, output io.Writer) (cfg Config, err error) {
	fs := flag.NewFlagSet("qsurvey", flag.ContinueOnError)
	fs.SetOutput(output)

	host := fs.String("host", envOr("QSURVEY_HOST", "0.0.0.0"), "listen host name")
	port := fs.Uint("port", envUint("QSURVEY_PORT", 80), "listen port number")
	fs.StringVar(&cfg.DBUrl, "db-url", envOr("QSURVEY_DB_URL", "qsurvey.sqlite"), "path to SQLite3 DB file")
	fs.StringVar(&cfg.Storage, "storage", envOr("QSURVEY_STORAGE", StorageSQLite), "survey storage: sqlite, redis, mongo or memory")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", envOr("QSURVEY_REDIS_ADDR", "localhost:6379"), "redis address for -storage redis")
	fs.StringVar(&cfg.RedisPrefix, "redis-prefix", envOr("QSURVEY_REDIS_PREFIX", "qsurvey:"), "redis key prefix")
	fs.StringVar(&cfg.MongoURI, "mongo-uri", envOr("QSURVEY_MONGO_URI", "mongodb://localhost:27017"), "mongodb URI for -storage mongo")
	fs.StringVar(&cfg.MongoDB, "mongo-db", envOr("QSURVEY_MONGO_DB", "qsurvey"), "mongodb database name")
	fs.StringVar(&cfg.TokenSecret, "token-secret", os.Getenv("QSURVEY_TOKEN_SECRET"), "secret key for token encryption and decryption")
	ttl := fs.Uint("token-ttl", envUint("QSURVEY_TOKEN_TTL", 120), "token TTL in seconds")
	fs.StringVar(&cfg.AuthURL, "auth-url", os.Getenv("QSURVEY_AUTH_URL"), "school directory base URL (empty disables remote login)")
	fs.StringVar(&cfg.AuthProxy, "auth-proxy", os.Getenv("QSURVEY_AUTH_PROXY"), "proxy URL prefixed to the directory URL when it cannot be reached directly")
	fs.BoolVar(&cfg.DemoAuth, "demo-auth", envBool("QSURVEY_DEMO_AUTH", false), "accept any login when no other backend answers")
	fs.StringVar(&cfg.AdminLogin, "admin-login", os.Getenv("QSURVEY_ADMIN_LOGIN"), "local administrator account created at startup")
	fs.StringVar(&cfg.AdminPass, "admin-password", os.Getenv("QSURVEY_ADMIN_PASSWORD"), "password of the local administrator")
	origins := fs.String("cors-origins", envOr("QSURVEY_CORS_ORIGINS", ""), "comma separated allowed CORS origins")
	fs.StringVar(&cfg.PublicDir, "public-dir", envOr("QSURVEY_PUBLIC_DIR", "public"), "directory of public static files")
	fs.StringVar(&cfg.PrivateDir, "private-dir", envOr("QSURVEY_PRIVATE_DIR", "private"), "directory of admin static files")
	fs.BoolVar(&cfg.Debug, "debug", envBool("QSURVEY_DEBUG", false), "log at DEBUG level")

	if err = fs.Parse(args); err != nil {
		return
	}

	cfg.Addr = net.JoinHostPort(*host, strconv.Itoa(int(*port)))
	cfg.TokenTTL = time.Duration(*ttl) * time.Second
	cfg.CORSOrigins = splitCSV(*origins)

	err = cfg.validate()
	return
}

func (cfg Config) validate() error {
	var result *multierror.Error
	if cfg.TokenSecret == "" {
		result = multierror.Append(result, errors.New("missing parameter -token-secret"))
	}
	if cfg.TokenTTL <= 0 {
		result = multierror.Append(result, errors.New("-token-ttl must be positive"))
	}
	switch cfg.Storage {
	case StorageSQLite, StorageMemory:
	case StorageRedis:
		if cfg.RedisAddr == "" {
			result = multierror.Append(result, errors.New("-storage redis needs -redis-addr"))
		}
	case StorageMongo:
		if cfg.MongoURI == "" || cfg.MongoDB == "" {
			result = multierror.Append(result, errors.New("-storage mongo needs -mongo-uri and -mongo-db"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("unknown -storage %q", cfg.Storage))
	}
	if (cfg.AdminLogin == "") != (cfg.AdminPass == "") {
		result = multierror.Append(result, errors.New("-admin-login and -admin-password go together"))
	}
	if cfg.AuthURL == "" && !cfg.DemoAuth && cfg.AdminLogin == "" {
		result = multierror.Append(result, errors.New("no login backend: set -auth-url, -admin-login or -demo-auth"))
	}
	return result.ErrorOrNil()
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envUint(k string, def uint) uint {
	v, err := strconv.ParseUint(os.Getenv(k), 10, 32)
	if err != nil {
		return def
	}
	return uint(v)
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
