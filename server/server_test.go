package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/go-rift-portal/accounts/repomem"
	"github.com/jrsteele09/go-rift-portal/imagetools"
	"github.com/jrsteele09/go-rift-portal/internal/config"
	apperrors "github.com/jrsteele09/go-rift-portal/internal/errors"
	"github.com/jrsteele09/go-rift-portal/internal/events"
	"github.com/jrsteele09/go-rift-portal/navigation"
	"github.com/jrsteele09/go-rift-portal/notify"
	"github.com/jrsteele09/go-rift-portal/sessions"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	srv      *Server
	ts       *httptest.Server
	storage  sessions.Storage
	accounts *repomem.Repo
}

type fakeImages struct {
	err error
}

func (f fakeImages) SearchPhotos(_ context.Context, query string, count int) ([]imagetools.Image, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]imagetools.Image, count)
	for i := range out {
		out[i] = imagetools.Image{ID: query, URL: "https://images.example/" + query, Description: "No description"}
	}
	return out, nil
}

func (f fakeImages) CollectionPhotos(_ context.Context, collectionID string, count int) ([]imagetools.Image, error) {
	return f.SearchPhotos(context.Background(), collectionID, count)
}

// failingStorage answers every call with a backend error
type failingStorage struct{}

var errBackend = errors.New("backend unavailable")

func (failingStorage) Get(context.Context, string, string) ([]byte, error) { return nil, errBackend }
func (failingStorage) Set(context.Context, string, string, []byte) error   { return errBackend }
func (failingStorage) Delete(context.Context, string, string) error        { return errBackend }
func (failingStorage) Close() error                                        { return nil }

// recordWriteFailures fails writes of the session record while failing is set
type recordWriteFailures struct {
	sessions.Storage
	failing atomic.Bool
}

func (s *recordWriteFailures) Set(ctx context.Context, scope, key string, value []byte) error {
	if key == sessions.RecordKey && s.failing.Load() {
		return errBackend
	}
	return s.Storage.Set(ctx, scope, key, value)
}

func newFixture(t *testing.T, storage sessions.Storage, deps Dependencies) *fixture {
	t.Helper()
	t.Setenv("ENV", "TEST")

	table, err := navigation.DefaultTable()
	require.NoError(t, err)

	if storage == nil {
		storage = sessions.NewInMemoryStorage(0)
	}
	center := notify.NewCenter(storage)

	repo := repomem.New()
	deps.Accounts = repo
	if deps.Events == nil {
		deps.Events = events.New()
		require.NoError(t, events.RegisterToasts(deps.Events, center))
	}

	srv, err := New(config.New(), navigation.NewGuard(table), storage, center, deps)
	require.NoError(t, err)

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return &fixture{srv: srv, ts: ts, storage: storage, accounts: repo}
}

// client keeps cookies and does not follow redirects
func (f *fixture) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (f *fixture) get(t *testing.T, c *http.Client, path string) (*http.Response, string) {
	t.Helper()
	resp, err := c.Get(f.ts.URL + path)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (f *fixture) post(t *testing.T, c *http.Client, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := c.PostForm(f.ts.URL+path, form)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

// scopeOf returns the browser scope the client's cookie carries, visiting the home page first
// when the client has none yet.
func (f *fixture) scopeOf(t *testing.T, c *http.Client) string {
	t.Helper()
	u, err := url.Parse(f.ts.URL)
	require.NoError(t, err)
	for _, ck := range c.Jar.Cookies(u) {
		if ck.Name == scopeCookieName {
			scope, err := f.srv.scopes.Verify(ck.Value)
			require.NoError(t, err)
			return scope
		}
	}
	resp, _ := f.get(t, c, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return f.scopeOf(t, c)
}

func (f *fixture) signIn(t *testing.T, c *http.Client, record sessions.Record) {
	t.Helper()
	h := sessions.NewHolder(f.storage, f.scopeOf(t, c))
	require.NoError(t, h.SignIn(context.Background(), record))
}

func requireRedirect(t *testing.T, resp *http.Response, location string) {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, location, resp.Header.Get("Location"))
}

func TestServer_GuardedPagesRedirectToSignup(t *testing.T) {
	f := newFixture(t, nil, Dependencies{})
	c := f.client(t)

	for _, path := range []string{"/create-profile", "/verify-riot-account", "/dashboard", "/teams", "/events", "/rankings", "/settings"} {
		t.Run(path, func(t *testing.T) {
			resp, _ := f.get(t, c, path)
			requireRedirect(t, resp, "/signup")
		})
	}
}

func TestServer_PublicPagesAlwaysRender(t *testing.T) {
	paths := []string{"/", "/about", "/signup", "/auth/callback", "/verify-email"}

	t.Run("signed out", func(t *testing.T) {
		f := newFixture(t, nil, Dependencies{})
		c := f.client(t)
		for _, path := range paths {
			resp, _ := f.get(t, c, path)
			require.Equal(t, http.StatusOK, resp.StatusCode, path)
		}
	})

	t.Run("signed in", func(t *testing.T) {
		f := newFixture(t, nil, Dependencies{})
		c := f.client(t)
		f.signIn(t, c, sessions.Record{IdentityID: "1", Email: "test@example.com", DisplayName: "Tester"})
		for _, path := range paths {
			resp, body := f.get(t, c, path)
			require.Equal(t, http.StatusOK, resp.StatusCode, path)
			require.Contains(t, body, "Sign out")
		}
	})

	t.Run("failing storage", func(t *testing.T) {
		f := newFixture(t, failingStorage{}, Dependencies{Events: events.New()})
		c := f.client(t)
		for _, path := range paths {
			resp, _ := f.get(t, c, path)
			require.Equal(t, http.StatusOK, resp.StatusCode, path)
		}
	})
}

func TestServer_StorageFailureOnGuardedPage(t *testing.T) {
	f := newFixture(t, failingStorage{}, Dependencies{Events: events.New()})
	resp, body := f.get(t, f.client(t), "/dashboard")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Contains(t, body, "Something went wrong")
}

func TestServer_RedirectsToCanonicalPaths(t *testing.T) {
	f := newFixture(t, nil, Dependencies{})
	c := f.client(t)

	t.Run("redirect descriptor", func(t *testing.T) {
		resp, _ := f.get(t, c, "/home")
		requireRedirect(t, resp, "/")
	})

	t.Run("trailing slash", func(t *testing.T) {
		resp, _ := f.get(t, c, "/about/")
		requireRedirect(t, resp, "/about")
	})

	t.Run("unknown path", func(t *testing.T) {
		resp, body := f.get(t, c, "/no-such-page")
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		require.Contains(t, body, "Page not found")
	})
}

func TestServer_SignupValidation(t *testing.T) {
	f := newFixture(t, nil, Dependencies{})
	c := f.client(t)

	tests := []struct {
		name     string
		form     url.Values
		status   int
		contains string
	}{
		{"invalid email", url.Values{"email": {"not-an-email"}, "password": {"password123"}}, http.StatusUnprocessableEntity, "Please enter a valid email"},
		{"empty email", url.Values{"password": {"password123"}}, http.StatusUnprocessableEntity, "Please enter a valid email"},
		{"short password", url.Values{"email": {"test@example.com"}, "password": {"short"}}, http.StatusUnprocessableEntity, "Password must be at least 8 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := f.post(t, c, "/signup", tt.form)
			require.Equal(t, tt.status, resp.StatusCode)
			require.Contains(t, body, tt.contains)
		})
	}

	t.Run("email is kept in the form", func(t *testing.T) {
		_, body := f.post(t, c, "/signup", url.Values{"email": {"gamer@example.com"}, "password": {"short"}})
		require.Contains(t, body, `value="gamer@example.com"`)
	})
}

func TestServer_OnboardingFlow(t *testing.T) {
	f := newFixture(t, nil, Dependencies{})
	c := f.client(t)
	ctx := context.Background()

	resp, _ := f.post(t, c, "/signup", url.Values{"email": {"Test@Example.com"}, "password": {"password123"}})
	requireRedirect(t, resp, "/verify-email")

	account, err := f.accounts.GetByEmail(ctx, "test@example.com")
	require.NoError(t, err)
	require.False(t, account.Verified)

	ok, err := sessions.NewHolder(f.storage, f.scopeOf(t, c)).Check(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	resp, body := f.get(t, c, "/verify-email")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Welcome, test@example.com")

	t.Run("toasts are shown once", func(t *testing.T) {
		_, body := f.get(t, c, "/verify-email")
		require.NotContains(t, body, "Welcome, test@example.com")
	})

	t.Run("no profile yet", func(t *testing.T) {
		resp, _ := f.get(t, c, "/dashboard")
		requireRedirect(t, resp, "/create-profile")
	})

	resp, _ = f.post(t, c, "/verify-email", nil)
	requireRedirect(t, resp, "/create-profile")
	account, err = f.accounts.GetByEmail(ctx, "test@example.com")
	require.NoError(t, err)
	require.True(t, account.Verified)

	t.Run("invalid profile", func(t *testing.T) {
		resp, body := f.post(t, c, "/create-profile", url.Values{"username": {"a"}, "display_name": {"Test User"}})
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		require.Contains(t, body, "Username must be 3 to 32 letters")
	})

	resp, _ = f.post(t, c, "/create-profile", url.Values{"username": {"TestUser"}, "display_name": {"Test User"}})
	requireRedirect(t, resp, "/verify-riot-account")

	t.Run("invalid riot id", func(t *testing.T) {
		resp, body := f.post(t, c, "/verify-riot-account", url.Values{"riot_id": {"TestUser"}})
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		require.Contains(t, body, "Riot ID must look like Name#TAG")
	})

	resp, _ = f.post(t, c, "/verify-riot-account", url.Values{"riot_id": {"TestUser#NA1"}})
	requireRedirect(t, resp, "/dashboard")

	resp, body = f.get(t, c, "/dashboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Test User")
	require.Contains(t, body, "TestUser#NA1")

	account, err = f.accounts.GetByEmail(ctx, "test@example.com")
	require.NoError(t, err)
	require.Equal(t, "TestUser", account.Username)
	require.Equal(t, "TestUser#NA1", account.RiotID)
}

func TestServer_SignupExistingAccount(t *testing.T) {
	f := newFixture(t, nil, Dependencies{})
	form := url.Values{"email": {"test@example.com"}, "password": {"password123"}}

	resp, _ := f.post(t, f.client(t), "/signup", form)
	requireRedirect(t, resp, "/verify-email")

	t.Run("duplicate signup", func(t *testing.T) {
		resp, body := f.post(t, f.client(t), "/signup", form)
		require.Equal(t, http.StatusConflict, resp.StatusCode)
		require.Contains(t, body, "already exists")
	})

	t.Run("sign in with wrong password", func(t *testing.T) {
		resp, body := f.post(t, f.client(t), "/signup", url.Values{"email": {"test@example.com"}, "password": {"wrong-password"}, "intent": {"signin"}})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Contains(t, body, "Invalid email or password")
	})

	t.Run("sign in", func(t *testing.T) {
		c := f.client(t)
		form := url.Values{"email": {"test@example.com"}, "password": {"password123"}, "intent": {"signin"}}
		resp, _ := f.post(t, c, "/signup", form)
		requireRedirect(t, resp, "/verify-email")
	})
}

func TestServer_SignupRetryAfterSignInFailure(t *testing.T) {
	storage := &recordWriteFailures{Storage: sessions.NewInMemoryStorage(0)}
	f := newFixture(t, storage, Dependencies{})
	form := url.Values{"email": {"retry@example.com"}, "password": {"password123"}}

	storage.failing.Store(true)
	resp, _ := f.post(t, f.client(t), "/signup", form)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	_, err := f.accounts.GetByEmail(context.Background(), "retry@example.com")
	require.ErrorIs(t, err, apperrors.ErrAccountNotFound)

	storage.failing.Store(false)
	resp, _ = f.post(t, f.client(t), "/signup", form)
	requireRedirect(t, resp, "/verify-email")
}

func TestServer_SignedInWithoutProfile(t *testing.T) {
	f := newFixture(t, nil, Dependencies{})
	c := f.client(t)
	f.signIn(t, c, sessions.Record{IdentityID: "1", Email: "test@example.com"})

	resp, _ := f.get(t, c, "/dashboard")
	requireRedirect(t, resp, "/create-profile")

	resp, _ = f.get(t, c, "/create-profile")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Sessions without a stored account still complete onboarding
	resp, _ = f.post(t, c, "/create-profile", url.Values{"username": {"tester"}, "display_name": {"Tester"}})
	requireRedirect(t, resp, "/verify-riot-account")

	resp, _ = f.get(t, c, "/dashboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_FormPostsRequireSession(t *testing.T) {
	f := newFixture(t, nil, Dependencies{})
	c := f.client(t)

	for _, path := range []string{"/create-profile", "/verify-riot-account", "/settings"} {
		t.Run(path, func(t *testing.T) {
			resp, _ := f.post(t, c, path, url.Values{})
			requireRedirect(t, resp, "/signup?error=Please+sign+up+to+continue")
		})
	}

	t.Run("verify email", func(t *testing.T) {
		resp, _ := f.post(t, c, "/verify-email", nil)
		requireRedirect(t, resp, "/signup?error=Please+sign+up+to+continue")
	})
}

func TestServer_SettingsAndSignout(t *testing.T) {
	f := newFixture(t, nil, Dependencies{})
	c := f.client(t)
	f.signIn(t, c, sessions.Record{IdentityID: "1", Email: "test@example.com", DisplayName: "Tester"})

	t.Run("invalid theme", func(t *testing.T) {
		resp, body := f.post(t, c, "/settings", url.Values{"theme": {"neon"}})
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		require.Contains(t, body, "Choose the light or dark theme")
	})

	resp, _ := f.post(t, c, "/settings", url.Values{"theme": {"dark"}, "notifications": {"on"}})
	requireRedirect(t, resp, "/settings")

	resp, body := f.get(t, c, "/settings")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, `data-theme="dark"`)
	require.Contains(t, body, "Settings saved")

	record, err := sessions.NewHolder(f.storage, f.scopeOf(t, c)).Record(context.Background())
	require.NoError(t, err)
	require.Equal(t, sessions.ThemeDark, record.ThemeOrDefault())
	require.True(t, record.NotificationsEnabled())

	resp, _ = f.post(t, c, "/signout", nil)
	requireRedirect(t, resp, "/")

	resp, body = f.get(t, c, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "You have been signed out")

	resp, _ = f.get(t, c, "/dashboard")
	requireRedirect(t, resp, "/signup")
}

func TestServer_MutedNotifications(t *testing.T) {
	f := newFixture(t, nil, Dependencies{})
	c := f.client(t)
	f.signIn(t, c, sessions.Record{IdentityID: "1", Email: "test@example.com", DisplayName: "Tester"})

	resp, _ := f.post(t, c, "/settings", url.Values{"theme": {"light"}})
	requireRedirect(t, resp, "/settings")

	resp, body := f.get(t, c, "/settings")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotContains(t, body, "Settings saved")

	resp, _ = f.post(t, c, "/verify-riot-account", url.Values{"riot_id": {"TestUser#NA1"}})
	requireRedirect(t, resp, "/dashboard")

	resp, body = f.get(t, c, "/dashboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotContains(t, body, "Riot account TestUser#NA1 linked")

	resp, _ = f.post(t, c, "/signout", nil)
	requireRedirect(t, resp, "/")

	resp, body = f.get(t, c, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotContains(t, body, "You have been signed out")
}

func TestServer_RouteLogColoursMatchRegisteredMethods(t *testing.T) {
	f := newFixture(t, nil, Dependencies{})

	used := map[string]bool{}
	for _, route := range f.srv.routes {
		method, _, found := strings.Cut(route, " ")
		if !found {
			continue // catch-all patterns match every method
		}
		_, ok := methodColors[method]
		require.True(t, ok, "no colour for %s", method)
		used[method] = true
	}
	for method := range methodColors {
		require.True(t, used[method], "colour for unregistered method %s", method)
	}
}

func TestServer_ScopeCookie(t *testing.T) {
	f := newFixture(t, nil, Dependencies{})
	c := f.client(t)

	first := f.scopeOf(t, c)
	f.get(t, c, "/about")
	require.Equal(t, first, f.scopeOf(t, c))

	t.Run("tampered cookie gets a new scope", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, f.ts.URL+"/about", nil)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: scopeCookieName, Value: "tampered"})
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		readBody(t, resp)

		var issued *http.Cookie
		for _, ck := range resp.Cookies() {
			if ck.Name == scopeCookieName {
				issued = ck
			}
		}
		require.NotNil(t, issued)
		scope, err := f.srv.scopes.Verify(issued.Value)
		require.NoError(t, err)
		require.NotEqual(t, first, scope)
	})
}

func TestServer_ExternalSignIn(t *testing.T) {
	t.Setenv("OIDC_ISSUER", "")
	f := newFixture(t, nil, Dependencies{})
	c := f.client(t)

	t.Run("not configured", func(t *testing.T) {
		resp, _ := f.get(t, c, "/auth/oidc/start")
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		require.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/signup?error="))
	})

	t.Run("callback without state", func(t *testing.T) {
		resp, _ := f.get(t, c, "/auth/callback?code=abc")
		requireRedirect(t, resp, "/signup?error=Missing+code+or+state+parameter")
	})

	t.Run("callback with unknown state", func(t *testing.T) {
		resp, _ := f.get(t, c, "/auth/callback?code=abc&state=unknown")
		requireRedirect(t, resp, "/signup?error=Sign-in+expired%2C+please+try+again")
	})

	t.Run("provider error", func(t *testing.T) {
		resp, _ := f.get(t, c, "/auth/callback?error=access_denied")
		requireRedirect(t, resp, "/signup?error=External+sign-in+was+cancelled")
	})
}

func postJSON(t *testing.T, f *fixture, path, body string, header http.Header) (*http.Response, map[string]string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, f.ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	out := map[string]string{}
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &out))
	return resp, out
}

func TestServer_ToolAPI(t *testing.T) {
	tools := imagetools.NewDispatcher(imagetools.NewNoteStore(), fakeImages{})
	f := newFixture(t, nil, Dependencies{Tools: tools})

	tests := []struct {
		name   string
		tool   string
		body   string
		status int
		field  string
		want   string
	}{
		{"create note", "create_note", `{"title":"Hello","content":"World"}`, http.StatusOK, "result", "Created note 3: Hello"},
		{"create note missing content", "create_note", `{"title":"Hello"}`, http.StatusBadRequest, "error", "title and content required"},
		{"empty query", "fetch_image", `{"query":"","count":3}`, http.StatusBadRequest, "error", "query and count required"},
		{"count too large", "fetch_image", `{"query":"cats","count":11}`, http.StatusBadRequest, "error", "count must be between 1 and 10"},
		{"unknown tool", "delete_note", `{}`, http.StatusNotFound, "error", "unknown tool"},
		{"not json", "create_note", `[1,2]`, http.StatusBadRequest, "error", "arguments must be a JSON object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, out := postJSON(t, f, "/api/tools/"+tt.tool, tt.body, nil)
			require.Equal(t, tt.status, resp.StatusCode)
			require.Contains(t, out[tt.field], tt.want)
		})
	}

	t.Run("fetch image", func(t *testing.T) {
		resp, out := postJSON(t, f, "/api/tools/fetch_image", `{"query":"cats","count":2}`, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var images []imagetools.Image
		require.NoError(t, json.Unmarshal([]byte(out["result"]), &images))
		require.Len(t, images, 2)
	})

	t.Run("upstream failure", func(t *testing.T) {
		failing := imagetools.NewDispatcher(imagetools.NewNoteStore(), fakeImages{err: apperrors.ErrFetchFailed})
		f := newFixture(t, nil, Dependencies{Tools: failing})
		resp, _ := postJSON(t, f, "/api/tools/fetch_image", `{"query":"cats","count":2}`, nil)
		require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	})

	t.Run("not configured", func(t *testing.T) {
		f := newFixture(t, nil, Dependencies{})
		resp, _ := postJSON(t, f, "/api/tools/create_note", `{}`, nil)
		require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}

func TestServer_GamingImages(t *testing.T) {
	f := newFixture(t, nil, Dependencies{Gallery: imagetools.NewGallery(fakeImages{})})

	resp, body := f.get(t, f.client(t), "/api/images/gaming")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var images imagetools.GamingImages
	require.NoError(t, json.Unmarshal([]byte(body), &images))
	require.Len(t, images.Gaming, 10)
	require.Len(t, images.Abstract, 10)
	require.Len(t, images.Technology, 10)
	require.Equal(t, imagetools.GamingCollectionID, images.Gaming[0].ID)
}

func TestServer_Cors(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:5173")
	f := newFixture(t, nil, Dependencies{})

	req, err := http.NewRequest(http.MethodOptions, f.ts.URL+"/api/tools/create_note", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	readBody(t, resp)

	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}

func TestServer_Operations(t *testing.T) {
	f := newFixture(t, nil, Dependencies{})
	c := f.client(t)

	resp, body := f.get(t, c, "/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"status":"ok"}`, body)

	f.get(t, c, "/dashboard")
	resp, body = f.get(t, c, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "rift_portal_guard_decisions_total")
	require.Contains(t, body, `state="redirected"`)

	t.Run("static assets", func(t *testing.T) {
		resp, body := f.get(t, c, "/css/app.css")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Contains(t, resp.Header.Get("Content-Type"), "text/css")
		require.Contains(t, body, ".toast")

		etag := resp.Header.Get("ETag")
		require.NotEmpty(t, etag)
		req, err := http.NewRequest(http.MethodGet, f.ts.URL+"/css/app.css", nil)
		require.NoError(t, err)
		req.Header.Set("If-None-Match", etag)
		cached, err := c.Do(req)
		require.NoError(t, err)
		readBody(t, cached)
		require.Equal(t, http.StatusNotModified, cached.StatusCode)

		resp, _ = f.get(t, c, "/css/missing.css")
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestServer_RecoverMiddleware(t *testing.T) {
	f := newFixture(t, nil, Dependencies{})
	f.srv.RegisterRouteHandler("GET /panic", ChainMiddleware(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}, f.srv.HTMLMiddleWare()...))

	resp, _ := f.get(t, f.client(t), "/panic")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp, _ = f.get(t, f.client(t), "/about")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTemplateFileName(t *testing.T) {
	require.Equal(t, "verify_riot_account.html", templateFileName("verifyRiotAccount"))
	require.Equal(t, "home.html", templateFileName("home"))
	require.Equal(t, "auth_callback.html", templateFileName("authCallback"))
}
