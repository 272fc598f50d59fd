package cookie

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGetAndValue(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "lang", Value: "en"})

	if c := Get(r, "lang"); c == nil || c.Value != "en" {
		t.Fatalf("Get(lang) = %v", c)
	}
	if c := Get(r, "missing"); c != nil {
		t.Errorf("Get(missing) = %v, want nil", c)
	}
	if v, ok := Value(r, "lang"); !ok || v != "en" {
		t.Errorf("Value(lang) = %q, %v", v, ok)
	}
	if _, ok := Value(r, "missing"); ok {
		t.Error("Value(missing) reported present")
	}
}

func TestAll(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Cookie", "a=1; b=2; a=3")
	all := All(r)
	if len(all) != 2 || all["a"].Value != "1" || all["b"].Value != "2" {
		t.Errorf("All() = %v", all)
	}
}

func TestSet(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want []string
		not  []string
	}{
		{
			name: "defaults",
			want: []string{"name=value", "Path=/", "HttpOnly"},
			not:  []string{"Secure", "Max-Age"},
		},
		{
			name: "options",
			opts: []Option{WithPath("/app"), WithMaxAge(time.Hour), WithSecure(true), WithHTTPOnly(false), WithSameSite(http.SameSiteLaxMode)},
			want: []string{"Path=/app", "Max-Age=3600", "Secure", "SameSite=Lax"},
			not:  []string{"HttpOnly"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			if err := Set(w, "name", "value", tt.opts...); err != nil {
				t.Fatal(err)
			}
			header := w.Header().Get("Set-Cookie")
			for _, s := range tt.want {
				if !strings.Contains(header, s) {
					t.Errorf("Set-Cookie %q missing %q", header, s)
				}
			}
			for _, s := range tt.not {
				if strings.Contains(header, s) {
					t.Errorf("Set-Cookie %q should not contain %q", header, s)
				}
			}
		})
	}
}

func TestSetRejectsInvalidName(t *testing.T) {
	w := httptest.NewRecorder()
	if err := Set(w, "bad name", "v"); err == nil {
		t.Fatal("expected error for invalid cookie name")
	}
	if len(w.Header().Values("Set-Cookie")) != 0 {
		t.Error("invalid cookie must not be written")
	}
}

func TestDelete(t *testing.T) {
	w := httptest.NewRecorder()
	if err := Delete(w, "lang", WithPath("/app")); err != nil {
		t.Fatal(err)
	}
	resp := w.Result()
	cookies := resp.Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies = %v", cookies)
	}
	c := cookies[0]
	if c.Name != "lang" || c.MaxAge != -1 || c.Path != "/app" || c.Value != "" {
		t.Errorf("deleted cookie = %+v", c)
	}
}
