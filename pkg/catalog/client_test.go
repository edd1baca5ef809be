package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestHTTPClient_Fetch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products" {
			t.Errorf("path = %q, want /products", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"products":[{"id":"p1","name":"قميص","price":350,"occasion_tags":["work"]},{"id":"p2","name":"جاكت"}]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL+"/", time.Second)
	got, err := c.Fetch(context.Background(), map[string]string{ParamItemTypes: "shirt", ParamOccasion: "work"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotQuery != "item_types=shirt&occasion=work" {
		t.Errorf("query = %q", gotQuery)
	}
	if len(got) != 2 || got[0].ID != "p1" || got[0].Price == nil || *got[0].Price != 350 {
		t.Fatalf("Fetch = %+v", got)
	}
	if got[1].Price != nil {
		t.Errorf("p2 price = %v, want nil", *got[1].Price)
	}
}

func TestHTTPClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"products":[{"id":"p1","name":"x"}]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second, WithBackoff(time.Millisecond))
	got, err := c.Fetch(context.Background(), nil)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d products, want 1", len(got))
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("calls = %d, want 3", n)
	}
}

func TestHTTPClient_GivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second, WithBackoff(time.Millisecond))
	_, err := c.Fetch(context.Background(), nil)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("calls = %d, want 3", n)
	}
}

func TestHTTPClient_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second, WithBackoff(time.Millisecond))
	_, err := c.Fetch(context.Background(), nil)
	if err == nil || errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want a non-retryable error", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestHTTPClient_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := NewHTTPClient(srv.URL, time.Second, WithBackoff(time.Hour))
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	if _, err := c.Fetch(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestHTTPClient_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %s, want HEAD", r.Method)
		}
	}))
	defer srv.Close()

	if err := NewHTTPClient(srv.URL, time.Second).Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
