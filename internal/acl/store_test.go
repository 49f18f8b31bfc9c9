// internal/acl/store_test.go
//
// Unit-tests for acl store helpers and middleware.
//
// Run: go test ./internal/acl -v

package acl

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/yanizio/demosite/internal/auth"
)

const allowedQ = `SELECT 1 FROM role_acl WHERE role = ? AND permission = ? AND permitted = TRUE LIMIT 1`

func TestRoleAllowed(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	s := NewStore(db)

	mock.ExpectQuery(regexp.QuoteMeta(allowedQ)).
		WithArgs("editor", DemoSitesCreate).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	ok, err := s.RoleAllowed(context.Background(), "editor", DemoSitesCreate)
	if err != nil || !ok {
		t.Fatalf("RoleAllowed = %v, %v; want true", ok, err)
	}

	mock.ExpectQuery(regexp.QuoteMeta(allowedQ)).
		WithArgs("sales", DemoSitesDelete).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	ok, err = s.RoleAllowed(context.Background(), "sales", DemoSitesDelete)
	if err != nil || ok {
		t.Fatalf("RoleAllowed = %v, %v; want false", ok, err)
	}

	ok, err = s.RoleAllowed(context.Background(), "", DemoSitesDelete)
	if err != nil || ok {
		t.Fatalf("empty role allowed: %v, %v", ok, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestPermissions(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT permission FROM role_acl WHERE role = ? AND permitted = TRUE ORDER BY permission`,
	)).
		WithArgs("sales").
		WillReturnRows(sqlmock.NewRows([]string{"permission"}).AddRow(LeadsUpdate).AddRow(LeadsView))

	got, err := NewStore(db).Permissions(context.Background(), "sales")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != LeadsUpdate || got[1] != LeadsView {
		t.Fatalf("unexpected result: %#v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

type stubAllower struct {
	allow bool
	err   error
}

func (s stubAllower) RoleAllowed(context.Context, string, string) (bool, error) {
	return s.allow, s.err
}

func TestRequirePermission(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	withActor := func(r *http.Request) *http.Request {
		return r.WithContext(auth.WithActor(r.Context(), auth.Actor{ID: "u1", Role: "editor"}))
	}

	cases := []struct {
		name  string
		a     Allower
		actor bool
		want  int
	}{
		{"anonymous", stubAllower{allow: true}, false, http.StatusUnauthorized},
		{"allowed", stubAllower{allow: true}, true, http.StatusNoContent},
		{"denied", stubAllower{}, true, http.StatusForbidden},
		{"store error", stubAllower{err: errors.New("db down")}, true, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/admin/api/demo-sites", nil)
			if tc.actor {
				r = withActor(r)
			}
			w := httptest.NewRecorder()
			RequirePermission(tc.a, DemoSitesCreate)(ok).ServeHTTP(w, r)
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}
