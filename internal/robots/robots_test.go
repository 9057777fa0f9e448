package robots

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const sampleRobots = `# sample robots.txt
User-agent: OtherBot
Disallow: /

User-agent: *
Disallow: /private/
Disallow: /tmp
Allow: /private/public-page

Sitemap: https://example.com/sitemap.xml
`

func TestParse(t *testing.T) {
	t.Parallel()

	rules := Parse(strings.NewReader(sampleRobots))

	tests := []struct {
		path string
		want bool
	}{
		{"/", true},
		{"/about", true},
		{"/private/secret", false},
		{"/private/public-page", true},
		{"/tmp", false},
		{"/tmp/file", false},
		{"", true},
	}

	for _, tt := range tests {
		if got := rules.Allows(tt.path); got != tt.want {
			t.Errorf("Allows(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestParseIgnoresForeignAgentGroups(t *testing.T) {
	t.Parallel()

	rules := Parse(strings.NewReader(`User-agent: OtherBot
Disallow: /everything
`))

	if !rules.Allows("/everything") {
		t.Error("rules for a foreign agent must not apply")
	}
}

func TestAllowAgainstFullURL(t *testing.T) {
	t.Parallel()

	rules := Parse(strings.NewReader("User-agent: *\nDisallow: /hidden/\n"))

	if rules.Allow("https://example.com/hidden/page") {
		t.Error("expected /hidden/page to be disallowed")
	}
	if !rules.Allow("https://example.com/visible") {
		t.Error("expected /visible to be allowed")
	}
}

func TestFetch(t *testing.T) {
	t.Parallel()

	t.Run("parses served rules", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/robots.txt" {
				http.NotFound(w, r)
				return
			}
			w.Write([]byte("User-agent: *\nDisallow: /admin/\n"))
		}))
		defer srv.Close()

		rules, err := Fetch(context.Background(), srv.URL+"/some/page", "test-agent")
		if err != nil {
			t.Fatalf("Fetch() unexpected error: %v", err)
		}
		if rules.Allows("/admin/panel") {
			t.Error("expected /admin/panel to be disallowed")
		}
		if !rules.Allows("/open") {
			t.Error("expected /open to be allowed")
		}
	})

	t.Run("missing robots.txt allows everything", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(http.NotFound))
		defer srv.Close()

		rules, err := Fetch(context.Background(), srv.URL, "test-agent")
		if err != nil {
			t.Fatalf("Fetch() unexpected error: %v", err)
		}
		if !rules.Allows("/anything") {
			t.Error("missing robots.txt must allow everything")
		}
	})

	t.Run("invalid site URL", func(t *testing.T) {
		t.Parallel()

		if _, err := Fetch(context.Background(), "not a url at all\x00", "test-agent"); err == nil {
			t.Error("expected error for unusable site URL")
		}
	})
}
