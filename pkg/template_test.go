package pkg

import (
	"errors"
	"net/url"
	"testing"
)

func mustBase(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse base %s: %v", raw, err)
	}
	return u
}

func TestMaterializeWholeSkeleton(t *testing.T) {
	raw := "POST /api/FUZZ HTTP/1.1\r\n" +
		"Host: internal.example.com\r\n" +
		"X-Token: FUZZ\r\n" +
		"Content-Length: 9\r\n" +
		"\r\n" +
		"user=FUZZ"
	tmpl := NewTemplate([]byte(raw), "FUZZ")
	base := mustBase(t, "http://target:8080")

	c, err := tmpl.Materialize("pass", base)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if c.Method != "POST" {
		t.Fatalf("expected POST, got %s", c.Method)
	}
	if c.URL.String() != "http://target:8080/api/pass" {
		t.Fatalf("unexpected url %s", c.URL.String())
	}
	if got := c.Header.Get("X-Token"); got != "pass" {
		t.Fatalf("expected substituted header, got %q", got)
	}
	if c.Host != "internal.example.com" {
		t.Fatalf("unexpected host %s", c.Host)
	}
	if string(c.Body) != "user=pass" {
		t.Fatalf("unexpected body %q", string(c.Body))
	}
}

func TestMaterializeURLJoin(t *testing.T) {
	tmpl := NewTemplate([]byte("GET /FUZZ HTTP/1.1\r\nHost: x\r\n\r\n"), "")
	base := mustBase(t, "http://target:8080/app/")

	c, err := tmpl.Materialize("admin", base)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	// absolute path in the request line replaces the base path
	if c.URL.String() != "http://target:8080/admin" {
		t.Fatalf("unexpected url %s", c.URL.String())
	}
}

func TestMaterializeBodyBoundedByContentLength(t *testing.T) {
	raw := "POST / HTTP/1.1\r\n" +
		"Host: x\r\n" +
		"Content-Length: 4\r\n" +
		"\r\n" +
		"abcdGARBAGE"
	tmpl := NewTemplate([]byte(raw), "FUZZ")

	c, err := tmpl.Materialize("w", mustBase(t, "http://target"))
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if string(c.Body) != "abcd" {
		t.Fatalf("expected body bounded to 4 bytes, got %q", string(c.Body))
	}
}

func TestMaterializeTrailingBytesWithoutContentLength(t *testing.T) {
	raw := "GET / HTTP/1.1\r\n" +
		"Host: x\r\n" +
		"\r\n" +
		"orphan body"
	tmpl := NewTemplate([]byte(raw), "FUZZ")

	_, err := tmpl.Materialize("w", mustBase(t, "http://target"))
	if err == nil {
		t.Fatal("expected error for trailing bytes without Content-Length")
	}
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %T", err)
	}
	if perr.Word != "w" {
		t.Fatalf("error should carry the word, got %q", perr.Word)
	}
}

func TestMaterializeTrailingNewlineArtifact(t *testing.T) {
	// editors append a final newline after the header block; that is not a
	// body remainder and must not fail a bodyless skeleton
	for _, suffix := range []string{"\n", "\r\n", "\n\n", " \t\n"} {
		raw := "GET /FUZZ HTTP/1.1\r\nHost: x\r\n\r\n" + suffix
		tmpl := NewTemplate([]byte(raw), "FUZZ")

		c, err := tmpl.Materialize("admin", mustBase(t, "http://target"))
		if err != nil {
			t.Fatalf("suffix %q: %v", suffix, err)
		}
		if c.URL.Path != "/admin" {
			t.Fatalf("suffix %q: unexpected path %s", suffix, c.URL.Path)
		}
		if len(c.Body) != 0 {
			t.Fatalf("suffix %q: expected empty body, got %q", suffix, string(c.Body))
		}
	}
}

func TestMaterializeDuplicateHeaderLastWins(t *testing.T) {
	raw := "GET / HTTP/1.1\r\n" +
		"Host: x\r\n" +
		"X-Mode: one\r\n" +
		"X-Mode: two\r\n" +
		"\r\n"
	tmpl := NewTemplate([]byte(raw), "FUZZ")

	c, err := tmpl.Materialize("w", mustBase(t, "http://target"))
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if got := c.Header.Get("X-Mode"); got != "two" {
		t.Fatalf("expected last duplicate to win, got %q", got)
	}
	if len(c.Header.Values("X-Mode")) != 1 {
		t.Fatalf("expected a single collapsed value, got %v", c.Header.Values("X-Mode"))
	}
}

func TestMaterializeVerbatimNonRecursive(t *testing.T) {
	tmpl := NewTemplate([]byte("GET /FUZZ HTTP/1.1\r\nHost: x\r\n\r\n"), "FUZZ")

	// a word containing the placeholder token is inserted verbatim,
	// substitution never re-scans its own output
	c, err := tmpl.Materialize("aFUZZb", mustBase(t, "http://target"))
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if c.URL.Path != "/aFUZZb" {
		t.Fatalf("unexpected path %s", c.URL.Path)
	}
}

func TestMaterializeEmptyWord(t *testing.T) {
	tmpl := NewTemplate([]byte("GET /dir/FUZZ HTTP/1.1\r\nHost: x\r\n\r\n"), "FUZZ")

	c, err := tmpl.Materialize("", mustBase(t, "http://target"))
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if c.URL.Path != "/dir/" {
		t.Fatalf("unexpected path %s", c.URL.Path)
	}
}

func TestMaterializeContentLengthRecomputed(t *testing.T) {
	raw := "POST / HTTP/1.1\r\n" +
		"Host: x\r\n" +
		"Content-Length: 4\r\n" +
		"\r\n" +
		"FUZZ"
	tmpl := NewTemplate([]byte(raw), "FUZZ")

	c, err := tmpl.Materialize("word", mustBase(t, "http://target"))
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	// the template's Content-Length must not leak into the candidate,
	// the client recomputes it from the materialized body
	if got := c.Header.Get("Content-Length"); got != "" {
		t.Fatalf("expected Content-Length dropped, got %q", got)
	}
	if string(c.Body) != "word" {
		t.Fatalf("unexpected body %q", string(c.Body))
	}
}
