package openhab

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/ohbridge/internal/infrastructure/config"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
	Auth   string
	Type   string
}

// fakeOpenHAB serves a fixed item table and records every request.
type fakeOpenHAB struct {
	mu       sync.Mutex
	items    map[string]string // name -> JSON description
	states   map[string]string
	requests []recordedRequest
	status   int
}

func newFakeOpenHAB(t *testing.T) (*fakeOpenHAB, *httptest.Server) {
	t.Helper()
	f := &fakeOpenHAB{
		items: map[string]string{
			"Kitchen_Blind": `{"name":"Kitchen_Blind","type":"Rollershutter","state":"30"}`,
			"Hall Temp":     `{"name":"Hall Temp","type":"Number:Temperature","state":"21.5 °C"}`,
			"Broken":        `{"name":`,
			"Untyped":       `{"name":"Untyped"}`,
		},
		states: map[string]string{
			"Kitchen_Blind": "30",
			"Hall Temp":     "21.5 °C",
		},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.requests = append(f.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Body:   string(body),
			Auth:   r.Header.Get("Authorization"),
			Type:   r.Header.Get("Content-Type"),
		})
		status := f.status
		f.mu.Unlock()

		if status != 0 {
			http.Error(w, "forced failure", status)
			return
		}
		f.serve(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeOpenHAB) serve(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/rest/" {
		w.Write([]byte(`{"version":"4"}`))
		return
	}
	const prefix = "/rest/items/"
	if len(path) <= len(prefix) {
		http.NotFound(w, r)
		return
	}
	name := path[len(prefix):]
	wantState := false
	if n := len(name) - len("/state"); n > 0 && name[n:] == "/state" {
		name, wantState = name[:n], true
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	desc, ok := f.items[name]
	if !ok {
		http.NotFound(w, r)
		return
	}
	switch {
	case r.Method == http.MethodPost && !wantState:
		w.WriteHeader(http.StatusAccepted)
	case wantState:
		w.Write([]byte(f.states[name]))
	default:
		w.Write([]byte(desc))
	}
}

func (f *fakeOpenHAB) all() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func TestClient_GetState(t *testing.T) {
	_, srv := newFakeOpenHAB(t)
	c := NewWithHTTPClient(srv.URL, "", nil)

	tests := []struct {
		item string
		want string
	}{
		{"Kitchen_Blind", "30"},
		{"Hall Temp", "21.5 °C"},
	}
	for _, tt := range tests {
		got, err := c.GetState(context.Background(), tt.item)
		if err != nil || got != tt.want {
			t.Errorf("GetState(%q) = %q, %v; want %q", tt.item, got, err, tt.want)
		}
	}
}

func TestClient_GetItemType(t *testing.T) {
	_, srv := newFakeOpenHAB(t)
	c := NewWithHTTPClient(srv.URL+"/", "", nil)

	tests := []struct {
		item    string
		want    string
		wantErr error
	}{
		{"Kitchen_Blind", "Rollershutter", nil},
		{"Hall Temp", "Number:Temperature", nil},
		{"Missing", "", ErrItemNotFound},
		{"Broken", "", ErrUnexpectedPayload},
		{"Untyped", "", ErrUnexpectedPayload},
	}
	for _, tt := range tests {
		got, err := c.GetItemType(context.Background(), tt.item)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("GetItemType(%q) error = %v, want %v", tt.item, err, tt.wantErr)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("GetItemType(%q) = %q, %v; want %q", tt.item, got, err, tt.want)
		}
	}
}

func TestClient_SetState(t *testing.T) {
	fake, srv := newFakeOpenHAB(t)
	c := NewWithHTTPClient(srv.URL, "secret-token", nil)

	if err := c.SetState(context.Background(), "Kitchen_Blind", "STOP"); err != nil {
		t.Fatalf("SetState() error = %v", err)
	}

	reqs := fake.all()
	if len(reqs) != 1 {
		t.Fatalf("requests = %d, want 1", len(reqs))
	}
	got := reqs[0]
	want := recordedRequest{
		Method: http.MethodPost,
		Path:   "/rest/items/Kitchen_Blind",
		Body:   "STOP",
		Auth:   "Bearer secret-token",
		Type:   "text/plain",
	}
	if got != want {
		t.Errorf("request = %+v, want %+v", got, want)
	}
}

func TestClient_SetStateEmptyCommand(t *testing.T) {
	fake, srv := newFakeOpenHAB(t)
	c := NewWithHTTPClient(srv.URL, "", nil)

	if err := c.SetState(context.Background(), "Kitchen_Blind", ""); !errors.Is(err, ErrEmptyCommand) {
		t.Fatalf("SetState(\"\") error = %v, want ErrEmptyCommand", err)
	}
	if n := len(fake.all()); n != 0 {
		t.Errorf("requests = %d, want 0", n)
	}
}

func TestClient_ServerError(t *testing.T) {
	fake, srv := newFakeOpenHAB(t)
	fake.status = http.StatusInternalServerError
	c := NewWithHTTPClient(srv.URL, "", nil)

	_, err := c.GetState(context.Background(), "Kitchen_Blind")
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("GetState() error = %v, want ErrRequestFailed", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Status != http.StatusInternalServerError {
		t.Errorf("error = %#v, want *StatusError with 500", err)
	}
	if n := len(fake.all()); n != 1 {
		t.Errorf("requests = %d, want exactly 1 (no retries)", n)
	}
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewWithHTTPClient(url, "", &http.Client{Timeout: time.Second})
	if err := c.SetState(context.Background(), "Kitchen_Blind", "50"); !errors.Is(err, ErrRequestFailed) {
		t.Errorf("SetState() error = %v, want ErrRequestFailed", err)
	}
}

func TestClient_HealthCheck(t *testing.T) {
	_, srv := newFakeOpenHAB(t)
	c := NewWithHTTPClient(srv.URL, "", nil)
	if err := c.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestNew_UsesConfig(t *testing.T) {
	c := New(config.OpenHABConfig{Host: "oh.local", Port: 8080, Scheme: "http", Timeout: 3})
	if c.baseURL != "http://oh.local:8080" {
		t.Errorf("baseURL = %q", c.baseURL)
	}
	if c.httpClient.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v, want 3s", c.httpClient.Timeout)
	}
}
