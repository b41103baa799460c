package llm

import (
	"context"
	"iter"
	"strings"
	"sync"
)

// FakeProvider is an in-memory Provider for tests and offline runs. It
// records every request it receives.
type FakeProvider struct {
	// Reply is returned by GenerateResponse and, when Fragments is empty,
	// streamed as a single fragment.
	Reply     string
	Fragments []string
	// Err fails GenerateResponse and the stream before any fragment.
	Err error
	// StreamErr is delivered after Fragments have been streamed.
	StreamErr    error
	NoCredential bool
	ProviderName string

	mu       sync.Mutex
	requests []Request
}

var _ Provider = (*FakeProvider)(nil)

func (f *FakeProvider) Name() string {
	if f.ProviderName != "" {
		return f.ProviderName
	}
	return "fake"
}

func (f *FakeProvider) CheckCredential() error {
	if f.NoCredential {
		return &CredentialError{Provider: f.Name(), EnvVar: strings.ToUpper(f.Name()) + "_API_KEY"}
	}
	return nil
}

func (f *FakeProvider) GenerateResponse(ctx context.Context, req *Request) (string, error) {
	if err := f.CheckCredential(); err != nil {
		return "", err
	}
	f.record(req)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.Err != nil {
		return "", f.Err
	}
	if f.Reply == "" && len(f.Fragments) > 0 {
		return strings.Join(f.Fragments, ""), nil
	}
	return f.Reply, nil
}

func (f *FakeProvider) StreamResponse(ctx context.Context, req *Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if err := f.CheckCredential(); err != nil {
			yield("", err)
			return
		}
		f.record(req)
		if f.Err != nil {
			yield("", f.Err)
			return
		}

		fragments := f.Fragments
		if len(fragments) == 0 && f.Reply != "" {
			fragments = []string{f.Reply}
		}
		for _, frag := range fragments {
			if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}
			if !yield(frag, nil) {
				return
			}
		}
		if f.StreamErr != nil {
			yield("", f.StreamErr)
		}
	}
}

// Requests returns a copy of the requests received so far.
func (f *FakeProvider) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Request, len(f.requests))
	copy(out, f.requests)
	return out
}

// LastRequest returns the most recent request, if any.
func (f *FakeProvider) LastRequest() (Request, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return Request{}, false
	}
	return f.requests[len(f.requests)-1], true
}

func (f *FakeProvider) record(req *Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := *req
	r.Messages = append([]Message(nil), req.Messages...)
	f.requests = append(f.requests, r)
}
