package tests

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/phonegate/portal/internal/auth"
	"github.com/phonegate/portal/internal/config"
	"github.com/phonegate/portal/internal/db"
	httphandler "github.com/phonegate/portal/internal/http"
	"github.com/phonegate/portal/internal/http/handlers"
	"github.com/phonegate/portal/internal/middleware"
	"github.com/phonegate/portal/internal/randomuser"
	"github.com/phonegate/portal/internal/repo"
	"github.com/phonegate/portal/internal/session"
	"github.com/phonegate/portal/internal/storage"
	"github.com/phonegate/portal/internal/toast"
)

const (
	testSecret     = "test-client-secret"
	randomUserBody = `{"results":[{"login":{"uuid":"7c1f2a0e-8f5b-4c8e-9d7a-1b2c3d4e5f60"},"name":{"first":"Ada","last":"Lovelace"},"email":"ada@example.com","picture":{"thumbnail":"https://randomuser.me/api/portraits/thumb/women/1.jpg"}}]}`
)

// namedBackend is a storage backend under test.
type namedBackend struct {
	name    string
	backend storage.Backend
	ping    func(ctx context.Context) error
}

// backends returns the memory backend plus Redis and Postgres when
// REDIS_ADDR and DATABASE_URL are set.
func backends(t *testing.T) []namedBackend {
	t.Helper()
	ctx := context.Background()
	out := []namedBackend{{name: "memory", backend: storage.NewMemoryBackend()}}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
		rdb := storage.NewRedisBackend(ctx, config.RedisConfig{Addr: addr, Password: os.Getenv("REDIS_PASSWORD"), DB: redisDB}, zaptest.NewLogger(t))
		t.Cleanup(func() { _ = rdb.Close() })
		out = append(out, namedBackend{name: "redis", backend: rdb, ping: rdb.Ping})
	}

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		database := openTestDB(t, dsn)
		out = append(out, namedBackend{name: "postgres", backend: repo.NewKVRepo(database), ping: database.PingContext})
	}
	return out
}

func openTestDB(t *testing.T, dsn string) *sql.DB {
	t.Helper()
	ctx := context.Background()
	database, err := db.Open(ctx, dsn, zaptest.NewLogger(t))
	require.NoError(t, err, "database open must succeed; check DATABASE_URL and that test DB exists")
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, RunMigrations(database), "migrations must run successfully")
	require.NoError(t, TruncateKV(ctx, database))
	return database
}

// testServer is one running instance of the portal.
type testServer struct {
	Server  *httptest.Server
	Fetches *atomic.Int32
}

func newTestServer(t *testing.T, nb namedBackend, upstream http.HandlerFunc) *testServer {
	t.Helper()
	logger := zaptest.NewLogger(t)

	var fetches atomic.Int32
	rnd := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		upstream(w, r)
	}))
	t.Cleanup(rnd.Close)

	source, err := randomuser.New(rnd.URL)
	require.NoError(t, err)
	authService, err := auth.NewService(source, logger)
	require.NoError(t, err)
	sessions, err := session.NewFactory(nb.backend, logger)
	require.NoError(t, err)

	limiter := middleware.NewRateLimiter(10*time.Minute, 30)
	t.Cleanup(limiter.Stop)
	board := toast.NewBoard(time.Minute, toast.RealClock)
	t.Cleanup(board.Stop)

	router, err := httphandler.NewRouter(httphandler.Deps{
		AuthService:  authService,
		JWTService:   auth.NewJWTService(testSecret),
		Sessions:     sessions,
		Toasts:       board,
		LoginLimiter: limiter,
		Health:       handlers.NewHealthHandler(nb.ping, logger),
		Logger:       logger,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, Fetches: &fetches}
}

func okUpstream(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, randomUserBody)
}

// browser is a cookie-keeping client that does not follow redirects.
type browser struct {
	client *http.Client
}

func newBrowser(t *testing.T) *browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{client: &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}}
}

// carry copies the browser's cookies for from onto to, simulating the same
// browser talking to a restarted server on a new address.
func (b *browser) carry(t *testing.T, from, to string) {
	t.Helper()
	fromURL, err := url.Parse(from)
	require.NoError(t, err)
	toURL, err := url.Parse(to)
	require.NoError(t, err)
	b.client.Jar.SetCookies(toURL, b.client.Jar.Cookies(fromURL))
}

func (b *browser) get(t *testing.T, u string) (*http.Response, string) {
	t.Helper()
	resp, err := b.client.Get(u)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (b *browser) post(t *testing.T, u string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := b.client.PostForm(u, form)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}
