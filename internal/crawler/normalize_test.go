package crawler

import "testing"

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "bare host gains https scheme and root path",
			input: "example.com",
			want:  "https://example.com/",
		},
		{
			name:  "explicit http scheme is kept",
			input: "http://example.com/page",
			want:  "http://example.com/page",
		},
		{
			name:  "fragment is stripped",
			input: "https://example.com/docs#section-2",
			want:  "https://example.com/docs",
		},
		{
			name:  "scheme and host are lowercased",
			input: "HTTPS://EXAMPLE.COM/Path",
			want:  "https://example.com/Path",
		},
		{
			name:  "query string is preserved",
			input: "https://example.com/search?q=go&page=2",
			want:  "https://example.com/search?q=go&page=2",
		},
		{
			name:  "surrounding whitespace is trimmed",
			input: "  example.com/a  ",
			want:  "https://example.com/a",
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
		{
			name:    "whitespace only",
			input:   "   ",
			wantErr: true,
		},
		{
			name:    "scheme without host",
			input:   "https://",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Normalize(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Normalize(%q) expected error, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"example.com",
		"http://example.com/page#frag",
		"HTTPS://Example.COM",
		"https://example.com/a?b=c",
	}

	for _, input := range inputs {
		once, err := Normalize(input)
		if err != nil {
			t.Fatalf("Normalize(%q) unexpected error: %v", input, err)
		}
		twice, err := Normalize(once)
		if err != nil {
			t.Fatalf("Normalize(%q) unexpected error: %v", once, err)
		}
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestSameHost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		baseHost string
		target   string
		want     bool
	}{
		{
			name:     "same host matches",
			baseHost: "example.com",
			target:   "https://example.com/page",
			want:     true,
		},
		{
			name:     "case differs",
			baseHost: "example.com",
			target:   "https://EXAMPLE.com/page",
			want:     true,
		},
		{
			name:     "subdomain is a different host",
			baseHost: "example.com",
			target:   "https://blog.example.com/",
			want:     false,
		},
		{
			name:     "foreign host",
			baseHost: "example.com",
			target:   "https://other.org/",
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := SameHost(tt.baseHost, tt.target); got != tt.want {
				t.Errorf("SameHost(%q, %q) = %v, want %v", tt.baseHost, tt.target, got, tt.want)
			}
		})
	}
}
