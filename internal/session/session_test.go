package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/adaptive-survey/config"
)

func testManager(secret string) *Manager {
	cfg := &config.Config{}
	cfg.Session.Secret = secret
	cfg.Session.MaxAge = time.Hour
	return NewManager(cfg)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	m := testManager("secret")
	in := &Data{UserID: 3, Username: "alice", RespondentID: "abc", Flashes: []string{"hi"}}

	value, err := m.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := m.Decode(value)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.UserID != 3 || out.Username != "alice" || out.RespondentID != "abc" || len(out.Flashes) != 1 {
		t.Fatalf("unexpected session %+v", out)
	}
}

func TestDecodeRejectsForeignAndExpiredTokens(t *testing.T) {
	m := testManager("secret")
	value, err := m.Encode(&Data{UserID: 1})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if _, err := testManager("other").Decode(value); err == nil {
		t.Fatal("expected signature mismatch to fail")
	}
	if _, err := m.Decode(value + "x"); err == nil {
		t.Fatal("expected tampered token to fail")
	}

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := m.Decode(value); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestLoadAndSaveCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := testManager("secret")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	d := m.Load(c)
	if d.LoggedIn() || d.RespondentID != "" {
		t.Fatalf("expected empty session, got %+v", d)
	}
	rid, changed := d.EnsureRespondentID()
	if !changed || rid == "" {
		t.Fatal("expected a new respondent id")
	}
	if again, changed := d.EnsureRespondentID(); changed || again != rid {
		t.Fatal("respondent id must be stable")
	}
	d.LogIn(9, "bob")
	if err := m.Save(c, d); err != nil {
		t.Fatalf("Save: %v", err)
	}

	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != CookieName || !cookies[0].HttpOnly {
		t.Fatalf("unexpected cookies %+v", cookies)
	}

	c2, _ := gin.CreateTestContext(httptest.NewRecorder())
	c2.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c2.Request.AddCookie(cookies[0])
	loaded := m.Load(c2)
	if loaded.UserID != 9 || loaded.RespondentID != rid {
		t.Fatalf("unexpected loaded session %+v", loaded)
	}

	loaded.LogOut()
	if loaded.LoggedIn() || loaded.RespondentID != rid {
		t.Fatalf("logout must keep the respondent id, got %+v", loaded)
	}
}

func TestFlashesArePoppedOnce(t *testing.T) {
	d := &Data{}
	d.AddFlash("one")
	d.AddFlash("two")
	if got := d.PopFlashes(); len(got) != 2 {
		t.Fatalf("expected 2 flashes, got %v", got)
	}
	if got := d.PopFlashes(); len(got) != 0 {
		t.Fatalf("expected flashes cleared, got %v", got)
	}
}
