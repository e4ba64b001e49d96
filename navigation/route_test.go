package navigation_test

import (
	"strings"
	"testing"

	apperrors "github.com/jrsteele09/go-rift-portal/internal/errors"
	"github.com/jrsteele09/go-rift-portal/navigation"
	"github.com/stretchr/testify/require"
)

func TestDefaultTable(t *testing.T) {
	table, err := navigation.DefaultTable()
	require.NoError(t, err)

	require.Equal(t, "/signup", table.Fallback())
	require.Equal(t, []string{
		"/", "/home", "/about", "/signup", "/auth/callback", "/verify-email",
		"/create-profile", "/verify-riot-account",
		"/dashboard", "/teams", "/events", "/rankings", "/settings",
	}, table.Paths())

	path, ok := table.PathFor("verifyRiotAccount")
	require.True(t, ok)
	require.Equal(t, "/verify-riot-account", path)

	_, ok = table.PathFor("app")
	require.False(t, ok, "layouts have no path of their own")
}

func TestTable_ResolveInheritsFlags(t *testing.T) {
	table, err := navigation.DefaultTable()
	require.NoError(t, err)

	tests := []struct {
		path            string
		requiresAuth    bool
		requiresProfile bool
	}{
		{"/", false, false},
		{"/signup", false, false},
		{"/create-profile", true, false},
		{"/verify-riot-account", true, false},
		{"/dashboard", true, true},
		{"/settings", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			m, err := table.Resolve(tt.path)
			require.NoError(t, err)
			require.Equal(t, tt.requiresAuth, m.RequiresAuth())
			require.Equal(t, tt.requiresProfile, m.RequiresProfile())
		})
	}
}

func TestTable_ResolveNormalizes(t *testing.T) {
	table, err := navigation.DefaultTable()
	require.NoError(t, err)

	m, err := table.Resolve("/dashboard/")
	require.NoError(t, err)
	require.Equal(t, "/dashboard", m.Path)
	require.Len(t, m.Chain, 2)
	require.Equal(t, "app", m.Chain[0].Name)

	m, err = table.Resolve("")
	require.NoError(t, err)
	require.Equal(t, "/", m.Path)
}

func TestNewTable_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing fallback",
			yaml: "routes:\n  - {path: /, name: home}\n",
			want: "fallback path is required",
		},
		{
			name: "guarded fallback",
			yaml: "fallback: /login\nroutes:\n  - {path: /login, name: login, requires_auth: true}\n",
			want: "must be reachable without a session",
		},
		{
			name: "unknown fallback",
			yaml: "fallback: /login\nroutes:\n  - {path: /, name: home}\n",
			want: "route not found",
		},
		{
			name: "duplicate names",
			yaml: "fallback: /\nroutes:\n  - {path: /, name: home}\n  - {path: /a, name: home}\n",
			want: "duplicate route name",
		},
		{
			name: "duplicate paths",
			yaml: "fallback: /\nroutes:\n  - {path: /, name: home}\n  - {path: /, name: other}\n",
			want: "duplicate path",
		},
		{
			name: "redirect loop",
			yaml: "fallback: /\nroutes:\n  - {path: /, name: home}\n  - {path: /a, name: a, redirect: /b}\n  - {path: /b, name: b, redirect: /a}\n",
			want: "redirect loop",
		},
		{
			name: "dangling redirect",
			yaml: "fallback: /\nroutes:\n  - {path: /, name: home}\n  - {path: /a, name: a, redirect: /gone}\n",
			want: "route not found",
		},
		{
			name: "empty layout",
			yaml: "fallback: /\nroutes:\n  - {path: /, name: home}\n  - {path: /, name: app, abstract: true}\n",
			want: "has no children",
		},
		{
			name: "relative top level",
			yaml: "fallback: /\nroutes:\n  - {path: home, name: home}\n",
			want: "must be absolute",
		},
		{
			name: "unknown field",
			yaml: "fallback: /\nroutes:\n  - {path: /, name: home, guarded: true}\n",
			want: "decode",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := navigation.LoadTable(strings.NewReader(tt.yaml))
			require.ErrorIs(t, err, apperrors.ErrInvalidRoutes)
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestNewTable_NestedRelativePaths(t *testing.T) {
	table, err := navigation.NewTable(navigation.TableDefinition{
		Fallback: "/",
		Routes: []navigation.Route{
			{Path: "/", Name: "home"},
			{
				Path: "/league", Name: "league", RequiresAuth: true,
				Children: []navigation.Route{
					{Path: "standings", Name: "standings"},
					{Path: "/archive", Name: "archive"},
				},
			},
		},
	})
	require.NoError(t, err)

	m, err := table.Resolve("/league/standings")
	require.NoError(t, err)
	require.True(t, m.RequiresAuth())

	m, err = table.Resolve("/archive")
	require.NoError(t, err)
	require.True(t, m.RequiresAuth(), "absolute child paths still inherit their parent's flags")
}
