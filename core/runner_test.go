package core

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/expr-lang/expr"
	"github.com/stormloft/pummel/pkg"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func testOption(t *testing.T, target string, words string) *Option {
	t.Helper()
	dir := t.TempDir()
	opt := &Option{}
	opt.Mod = "http"
	opt.URL = target
	opt.RawFile = writeFile(t, dir, "req.raw", "GET /FUZZ HTTP/1.1\r\nHost: x\r\n\r\n")
	opt.Dictionaries = []string{writeFile(t, dir, "dict.txt", words)}
	opt.Rate = 5
	opt.MaxBodyLength = 100
	opt.Quiet = true
	opt.NoStat = true
	return opt
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Option)
	}{
		{"no target", func(o *Option) { o.URL = "" }},
		{"zero rate", func(o *Option) { o.Rate = 0 }},
		{"negative rate", func(o *Option) { o.Rate = -1 }},
		{"no template", func(o *Option) { o.RawFile = "" }},
		{"no wordlist", func(o *Option) { o.Dictionaries = nil; o.Word = "" }},
		{"negative offset", func(o *Option) { o.Offset = -1 }},
	}
	for _, tt := range cases {
		opt := testOption(t, "http://target", "a\n")
		tt.mutate(opt)
		if err := opt.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tt.name)
		}
	}
}

func TestOffsetLimitWindow(t *testing.T) {
	cases := []struct {
		offset, limit int
		total         int
	}{
		{0, 0, 5},
		{2, 0, 3},
		{2, 2, 2},
		{4, 10, 1},
		{10, 0, 0},
	}
	for _, tt := range cases {
		opt := testOption(t, "http://target", "a\nb\nc\nd\ne\n")
		opt.Offset = tt.offset
		opt.Limit = tt.limit
		r, err := opt.NewRunner()
		if err != nil {
			t.Fatalf("offset=%d limit=%d: %v", tt.offset, tt.limit, err)
		}
		if r.Total != tt.total {
			t.Fatalf("offset=%d limit=%d: expected total %d, got %d", tt.offset, tt.limit, tt.total, r.Total)
		}
	}
}

func TestRunnerEndToEnd(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/admin" {
			w.Write([]byte("Welcome home"))
			return
		}
		w.WriteHeader(404)
		w.Write([]byte("not found"))
	}))
	defer ts.Close()

	opt := testOption(t, ts.URL, "admin\nfoo\nbar\n")
	opt.Status = 200
	opt.Contains = "Welcome"
	opt.OutputFile = filepath.Join(t.TempDir(), "out.json")

	r, err := opt.NewRunner()
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	f, err := os.Open(opt.OutputFile)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	valid := make(map[string]bool)
	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var o struct {
			Word  string `json:"word"`
			Valid bool   `json:"valid"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &o); err != nil {
			t.Fatalf("bad output line %q: %v", scanner.Text(), err)
		}
		valid[o.Word] = o.Valid
		count++
	}
	if count != 3 {
		t.Fatalf("expected 3 verdict lines, got %d", count)
	}
	if !valid["admin"] || valid["foo"] || valid["bar"] {
		t.Fatalf("unexpected verdicts: %v", valid)
	}
}

func TestClassifyTransportFailureIsFinal(t *testing.T) {
	exp, err := expr.Compile("current.Status == 0")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	r := &Runner{
		Option:    &Option{},
		Criteria:  &pkg.Criteria{},
		MatchExpr: exp,
	}

	// the expression holds for a failed outcome, but a transport failure is
	// FAILURE before any check runs
	failed := pkg.NewFailedOutcome(1, "w", "http://target/w", 3, errors.New("connection refused"))
	r.classify(failed)
	if failed.IsValid {
		t.Fatal("transport failure must stay FAILURE regardless of match expression")
	}

	// the same expression still drives the verdict for received responses
	received := &pkg.Outcome{Number: 2, Word: "w", Status: 200}
	r.classify(received)
	if received.IsValid {
		t.Fatal("match expression should reject a received 200")
	}
}

func TestRunnerFatalOnBrokenTemplate(t *testing.T) {
	opt := testOption(t, "http://target", "a\n")
	dir := t.TempDir()
	opt.RawFile = writeFile(t, dir, "bad.raw", "not an http request\r\n\r\n")
	if _, err := opt.NewRunner(); err == nil {
		t.Fatal("expected an unparsable skeleton to fail preparation")
	}
}
