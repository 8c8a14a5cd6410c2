package ihttp

import (
	"bytes"
	"context"
	"net/http"

	"github.com/valyala/fasthttp"
)

// BuildRequest materializes one outbound request. Every call allocates a fresh
// request object so retries never share mutable state.
func BuildRequest(ctx context.Context, clientType int, method, uri, host string, header http.Header, body []byte) (*Request, error) {
	if clientType == FAST {
		req := fasthttp.AcquireRequest()
		req.Header.SetMethod(method)
		req.SetRequestURI(uri)
		for k, vv := range header {
			for _, v := range vv {
				req.Header.Set(k, v)
			}
		}
		if host != "" {
			req.SetHost(host)
		}
		if len(body) > 0 {
			req.SetBody(body)
		}
		return &Request{FastRequest: req, ClientType: FAST}, nil
	}

	var req *http.Request
	var err error
	if len(body) > 0 {
		req, err = http.NewRequestWithContext(ctx, method, uri, bytes.NewReader(body))
	} else {
		req, err = http.NewRequestWithContext(ctx, method, uri, nil)
	}
	if err != nil {
		return nil, err
	}
	req.Header = header.Clone()
	if host != "" {
		req.Host = host
	}
	return &Request{StandardRequest: req, ClientType: STANDARD}, nil
}

type Request struct {
	StandardRequest *http.Request
	FastRequest     *fasthttp.Request
	ClientType      int
}

func (r *Request) SetHeader(key, value string) {
	if r.StandardRequest != nil {
		r.StandardRequest.Header.Set(key, value)
	} else if r.FastRequest != nil {
		r.FastRequest.Header.Set(key, value)
	}
}

func (r *Request) URI() string {
	if r.FastRequest != nil {
		return r.FastRequest.URI().String()
	} else if r.StandardRequest != nil {
		return r.StandardRequest.URL.String()
	} else {
		return ""
	}
}

func (r *Request) Host() string {
	if r.FastRequest != nil {
		return string(r.FastRequest.Host())
	} else if r.StandardRequest != nil {
		return r.StandardRequest.Host
	} else {
		return ""
	}
}

// Release returns pooled request/response objects to fasthttp. No-op for the
// standard client.
func (r *Request) Release() {
	if r.FastRequest != nil {
		fasthttp.ReleaseRequest(r.FastRequest)
	}
}
