package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPortalE2E runs the complete browser flow against every available
// storage backend: login page, rejected submits, successful login,
// dashboard, session surviving a restart, logout.
func TestPortalE2E(t *testing.T) {
	for _, nb := range backends(t) {
		nb := nb
		t.Run(nb.name, func(t *testing.T) {
			ts := newTestServer(t, nb, okUpstream)
			base := ts.Server.URL
			b := newBrowser(t)

			t.Run("A_Health", func(t *testing.T) {
				resp, body := b.get(t, base+"/health")
				assert.Equal(t, http.StatusOK, resp.StatusCode)
				var got map[string]bool
				require.NoError(t, json.Unmarshal([]byte(body), &got))
				assert.True(t, got["ok"])
			})

			t.Run("B_SignedOutRedirects", func(t *testing.T) {
				resp, _ := b.get(t, base+"/")
				assert.Equal(t, "/auth", resp.Header.Get("Location"))
				resp, _ = b.get(t, base+"/dashboard")
				assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
				assert.Equal(t, "/auth", resp.Header.Get("Location"))
			})

			t.Run("C_RejectedSubmitsNeverFetch", func(t *testing.T) {
				resp, body := b.post(t, base+"/auth", url.Values{"phone": {"0912345678"}})
				assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
				assert.Contains(t, body, "Phone number must be at least 11 digits")

				resp, body = b.post(t, base+"/auth", url.Values{"phone": {"19123456789"}})
				assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
				assert.Contains(t, body, "must start with 09")

				assert.Zero(t, ts.Fetches.Load())
			})

			t.Run("D_LoginAndDashboard", func(t *testing.T) {
				resp, _ := b.post(t, base+"/auth", url.Values{"phone": {"09123456789"}})
				require.Equal(t, http.StatusSeeOther, resp.StatusCode)
				assert.Equal(t, "/dashboard", resp.Header.Get("Location"))
				assert.Equal(t, int32(1), ts.Fetches.Load())

				resp, body := b.get(t, base+"/dashboard")
				require.Equal(t, http.StatusOK, resp.StatusCode)
				assert.Contains(t, body, "Ada Lovelace")
				assert.Contains(t, body, "ada@example.com")
			})

			t.Run("E_SessionSurvivesRestart", func(t *testing.T) {
				restarted := newTestServer(t, nb, okUpstream)
				b.carry(t, base, restarted.Server.URL)

				resp, body := b.get(t, restarted.Server.URL+"/dashboard")
				require.Equal(t, http.StatusOK, resp.StatusCode)
				assert.Contains(t, body, "Ada Lovelace")
				assert.Zero(t, restarted.Fetches.Load())
			})

			t.Run("F_OtherBrowserIsSignedOut", func(t *testing.T) {
				resp, _ := newBrowser(t).get(t, base+"/dashboard")
				assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
			})

			t.Run("G_Logout", func(t *testing.T) {
				resp, _ := b.post(t, base+"/logout", nil)
				require.Equal(t, http.StatusSeeOther, resp.StatusCode)
				assert.Equal(t, "/auth", resp.Header.Get("Location"))

				resp, _ = b.get(t, base+"/dashboard")
				assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

				restarted := newTestServer(t, nb, okUpstream)
				resp, _ = b.get(t, restarted.Server.URL+"/dashboard")
				assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
			})
		})
	}
}

func TestPortalE2E_UpstreamDown(t *testing.T) {
	for _, nb := range backends(t) {
		nb := nb
		t.Run(nb.name, func(t *testing.T) {
			ts := newTestServer(t, nb, func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "maintenance", http.StatusServiceUnavailable)
			})
			b := newBrowser(t)

			resp, body := b.post(t, ts.Server.URL+"/auth", url.Values{"phone": {"09123456789"}})
			assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
			assert.Contains(t, body, "Connection error. Please try again.")
			assert.Contains(t, body, `value="09123456789"`)

			resp, _ = b.get(t, ts.Server.URL+"/dashboard")
			assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		})
	}
}

func TestHealth_StoragePing(t *testing.T) {
	for _, nb := range backends(t) {
		if nb.ping == nil {
			continue
		}
		require.NoError(t, nb.ping(context.Background()), nb.name)
	}
}
