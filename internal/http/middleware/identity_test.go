package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/admission-desk/backend/internal/models"
	"github.com/admission-desk/backend/internal/service"
)

func identityRouter(capture *service.Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Identity())
	r.GET("/probe", func(c *gin.Context) {
		*capture = CallerIdentity(c)
		c.Status(http.StatusOK)
	})
	return r
}

func TestIdentityParsesHeaders(t *testing.T) {
	var got service.Identity
	r := identityRouter(&got)

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set(EmployeeIDHeader, "42")
	req.Header.Set(EmployeeAdminHeader, "true")
	req.Header.Set(EmployeeQueuesHeader, "epgu, epgu_mail, bogus")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got.EmployeeID != 42 || !got.IsAdmin {
		t.Fatalf("unexpected identity: %+v", got)
	}
	if len(got.Queues) != 2 || got.Queues[0] != models.QueueEPGU || got.Queues[1] != models.QueueEPGUMail {
		t.Fatalf("unexpected queues: %v", got.Queues)
	}
}

func TestIdentityRejectsMissingHeader(t *testing.T) {
	var got service.Identity
	r := identityRouter(&got)

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestIdentityRejectsNonNumericID(t *testing.T) {
	var got service.Identity
	r := identityRouter(&got)

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set(EmployeeIDHeader, "operator-7")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAdminOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Identity(), AdminOnly())
	r.GET("/probe", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set(EmployeeIDHeader, "7")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set(EmployeeIDHeader, "7")
	req.Header.Set(EmployeeAdminHeader, "true")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", w.Code)
	}
}
