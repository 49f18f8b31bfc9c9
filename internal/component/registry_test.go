package component

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

type stub struct {
	name    string
	initErr error
	inited  bool
}

func (s *stub) Name() string { return s.name }

func (s *stub) Init(Services) error {
	s.inited = true
	return s.initErr
}

func (s *stub) Routes(r chi.Router) {
	r.Get("/"+s.name, func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(s.name)) })
}

func reset() {
	mu.Lock()
	registry = map[string]Component{}
	mu.Unlock()
}

func TestMount(t *testing.T) {
	reset()
	defer reset()
	b, a := &stub{name: "b"}, &stub{name: "a"}
	Register(b)
	Register(a)

	all := All()
	if len(all) != 2 || all[0].Name() != "a" || all[1].Name() != "b" {
		t.Fatalf("All = %v", all)
	}

	r := chi.NewRouter()
	if err := Mount(r, Services{}); err != nil {
		t.Fatal(err)
	}
	if !a.inited || !b.inited {
		t.Fatal("Init not called")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/b", nil))
	if rec.Body.String() != "b" {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestMountInitError(t *testing.T) {
	reset()
	defer reset()
	Register(&stub{name: "broken", initErr: errors.New("no db")})
	if err := Mount(chi.NewRouter(), Services{}); err == nil || !strings.Contains(err.Error(), "broken") {
		t.Fatalf("err = %v", err)
	}
}

func TestDecodeAndRespond(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","extra":1}`))
	if err := Decode(req, &dst); err == nil {
		t.Fatal("unknown field accepted")
	}
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
	if err := Decode(req, &dst); err != nil || dst.Name != "x" {
		t.Fatalf("Decode = %v, %+v", err, dst)
	}
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("a", MaxBody+10)))
	if _, err := ReadBody(req); err == nil {
		t.Fatal("oversized body accepted")
	}

	rec := httptest.NewRecorder()
	Invalid(rec, map[string]string{"slug": "is required"})
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), `"slug":"is required"`) {
		t.Fatalf("Invalid = %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	Fail(rec, httptest.NewRequest(http.MethodGet, "/x", nil), http.StatusInternalServerError, "internal error", errors.New("db down"))
	if rec.Code != 500 || strings.Contains(rec.Body.String(), "db down") {
		t.Fatalf("Fail leaked detail: %s", rec.Body.String())
	}
}
