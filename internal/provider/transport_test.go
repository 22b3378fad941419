package provider_test

import (
	"bytes"
	"io"
	"net/http"
	"sync"
)

// fakeTransport answers every request with a canned response and keeps the last body.
type fakeTransport struct {
	mu          sync.Mutex
	status      int
	contentType string
	body        []byte
	lastURL     string
	lastBody    []byte
	calls       int
}

func newFake(status int, contentType, body string) *fakeTransport {
	return &fakeTransport{status: status, contentType: contentType, body: []byte(body)}
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var b []byte
	if req.Body != nil {
		b, _ = io.ReadAll(req.Body)
		_ = req.Body.Close()
	}
	f.mu.Lock()
	f.lastURL = req.URL.String()
	f.lastBody = b
	f.calls++
	f.mu.Unlock()

	resp := &http.Response{
		StatusCode: f.status,
		Body:       io.NopCloser(bytes.NewReader(f.body)),
		Header:     make(http.Header),
		Request:    req,
	}
	resp.Header.Set("Content-Type", f.contentType)
	return resp, nil
}

func (f *fakeTransport) client() *http.Client {
	return &http.Client{Transport: f}
}
