package pkg

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const DefaultPlaceholder = "FUZZ"

// ParseError marks a template that failed to parse as an HTTP request after
// substitution. It is a configuration error, fatal to the run.
type ParseError struct {
	Word string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid request template (word %q): %s", e.Word, e.Err.Error())
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Template is the immutable raw skeleton of one HTTP request, containing zero
// or more occurrences of the placeholder token.
type Template struct {
	raw         []byte
	placeholder []byte
}

func NewTemplate(raw []byte, placeholder string) *Template {
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	return &Template{raw: raw, placeholder: []byte(placeholder)}
}

// Candidate is one fully materialized request, tagged with the wordlist entry
// it was generated from. All fields are immutable once built; attempts copy
// from it, never into it.
type Candidate struct {
	Word   string
	Method string
	URL    *url.URL
	Host   string
	Header http.Header
	Body   []byte
}

// Materialize substitutes word into every placeholder occurrence of the whole
// skeleton (request line, headers and body), re-parses the result and resolves
// the request target against base.
//
// The body is bounded by the declared Content-Length: exactly that many bytes
// after the header block, trailing bytes excluded. A non-whitespace remainder
// without a parsable Content-Length is rejected rather than sent blind.
func (t *Template) Materialize(word string, base *url.URL) (*Candidate, error) {
	substituted := bytes.ReplaceAll(t.raw, t.placeholder, []byte(word))

	br := bytes.NewReader(substituted)
	reader := bufio.NewReader(br)
	req, err := http.ReadRequest(reader)
	if err != nil {
		return nil, &ParseError{Word: word, Err: err}
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, &ParseError{Word: word, Err: err}
	}

	// Whitespace past the parsed request is the trailing-newline artifact of a
	// template file, not a body remainder.
	leftover, err := io.ReadAll(reader)
	if err != nil {
		return nil, &ParseError{Word: word, Err: err}
	}
	if len(bytes.TrimSpace(leftover)) > 0 && req.ContentLength <= 0 {
		return nil, &ParseError{
			Word: word,
			Err:  fmt.Errorf("%d trailing bytes without a Content-Length header", len(leftover)),
		}
	}

	u, err := base.Parse(req.RequestURI)
	if err != nil {
		return nil, &ParseError{Word: word, Err: err}
	}

	// Duplicate header names collapse to the last occurrence, the same merge a
	// map-based header copy produces.
	header := make(http.Header, len(req.Header))
	for k, vv := range req.Header {
		header.Set(k, vv[len(vv)-1])
	}
	// The template's Content-Length counts template bytes; the client recomputes
	// it from the materialized body.
	header.Del("Content-Length")

	return &Candidate{
		Word:   word,
		Method: req.Method,
		URL:    u,
		Host:   req.Host,
		Header: header,
		Body:   body,
	}, nil
}
