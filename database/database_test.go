package database

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/TrAlSe1812/survey-gym42/auth"
	"github.com/TrAlSe1812/survey-gym42/store"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// exerciseKV runs the contract every store.KV backend must satisfy.
func exerciseKV(t *testing.T, kv store.KV) {
	ctx := context.Background()
	if _, ok, err := kv.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}
	if err := kv.Put(ctx, "k", []byte(`[1]`)); err != nil {
		t.Fatal(err)
	}
	if err := kv.Put(ctx, "k", []byte(`[1,2]`)); err != nil {
		t.Fatal(err)
	}
	v, ok, err := kv.Get(ctx, "k")
	if err != nil || !ok || string(v) != `[1,2]` {
		t.Fatalf("get = %q %v %v", v, ok, err)
	}

	st, err := store.Open(ctx, kv)
	if err != nil {
		t.Fatal(err)
	}
	if len(st.Surveys.List()) != 0 {
		t.Errorf("fresh store has surveys")
	}
}

func TestSQLiteKV(t *testing.T) {
	exerciseKV(t, NewSQLiteKV(openTestDB(t)))
}

func TestOpenTwiceKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.sqlite")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := NewSQLiteKV(db).Put(context.Background(), "k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	v, ok, err := NewSQLiteKV(db).Get(context.Background(), "k")
	if err != nil || !ok || string(v) != "v" {
		t.Errorf("after reopen = %q %v %v", v, ok, err)
	}
}

func TestRedisKV(t *testing.T) {
	addr := os.Getenv("QSURVEY_TEST_REDIS")
	if addr == "" {
		t.Skip("QSURVEY_TEST_REDIS not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	prefix := "qsurvey-test:" + time.Now().Format("150405.000") + ":"
	defer client.Del(context.Background(), prefix+"k", prefix+store.SurveysKey, prefix+store.ResponsesKey)
	exerciseKV(t, NewRedisKV(client, prefix))
}

func TestMongoKV(t *testing.T) {
	uri := os.Getenv("QSURVEY_TEST_MONGO")
	if uri == "" {
		t.Skip("QSURVEY_TEST_MONGO not set")
	}
	ctx := context.Background()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatal(err)
	}
	defer client.Disconnect(ctx)
	db := client.Database("qsurvey_test_" + time.Now().Format("150405"))
	defer db.Drop(ctx)
	exerciseKV(t, NewMongoKV(db))
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	users := NewUsers(openTestDB(t))

	if _, _, err := users.LookupUser(ctx, "nobody"); !errors.Is(err, auth.ErrUnknownUser) {
		t.Errorf("unknown lookup err = %v", err)
	}

	remote := auth.Identity{Login: "ivanov", FullName: "Иванов И. П.", Group: "9А", UserID: 7, Role: auth.RoleStudent}
	if err := users.SaveProfile(ctx, remote); err != nil {
		t.Fatal(err)
	}
	hash, id, err := users.LookupUser(ctx, "ivanov")
	if err != nil || len(hash) != 0 || id != remote {
		t.Errorf("remote user = %x %+v %v", hash, id, err)
	}

	admin := auth.Identity{Login: "head", FullName: "Head Teacher", Role: auth.RoleAdmin}
	if err := users.SetPassword(ctx, admin, "pw"); err != nil {
		t.Fatal(err)
	}
	got, err := (auth.Local{Users: users}).Authenticate(ctx, auth.Credentials{Login: "head", Password: "pw"})
	if err != nil || got != admin {
		t.Errorf("local login = %+v %v", got, err)
	}

	// A later profile refresh must not drop the password.
	admin.FullName = "Head T."
	if err := users.SaveProfile(ctx, admin); err != nil {
		t.Fatal(err)
	}
	if _, err := (auth.Local{Users: users}).Authenticate(ctx, auth.Credentials{Login: "head", Password: "pw"}); err != nil {
		t.Errorf("password lost on profile save: %v", err)
	}
	if p, err := users.Profile(ctx, "head"); err != nil || p.FullName != "Head T." {
		t.Errorf("profile = %+v %v", p, err)
	}
}

func TestTokens(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	if err := NewUsers(db).SaveProfile(ctx, auth.Identity{Login: "u", Role: auth.RoleStudent}); err != nil {
		t.Fatal(err)
	}
	tokens := NewTokens(db)
	now := time.Now()

	if err := tokens.Store(ctx, "u", "t1", "r1", now.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := tokens.Consume(ctx, "u", "t1", "r1", now); err != nil {
		t.Fatalf("first consume: %v", err)
	}
	if err := tokens.Consume(ctx, "u", "t1", "r1", now); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("second consume err = %v", err)
	}

	if err := tokens.Store(ctx, "u", "t2", "r2", now.Add(-time.Minute)); err != nil {
		t.Fatal(err)
	}
	if err := tokens.Consume(ctx, "u", "t2", "r2", now); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("expired consume err = %v", err)
	}

	_ = tokens.Store(ctx, "u", "t3", "r3", now.Add(-time.Minute))
	_ = tokens.Store(ctx, "u", "t4", "r4", now.Add(time.Hour))
	if n, err := tokens.Prune(ctx, now); err != nil || n != 1 {
		t.Errorf("prune = %d %v", n, err)
	}
	if err := tokens.Revoke(ctx, "u"); err != nil {
		t.Fatal(err)
	}
	if err := tokens.Consume(ctx, "u", "t4", "r4", now); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("revoked consume err = %v", err)
	}
}
