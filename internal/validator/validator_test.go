package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

type loginBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type listQuery struct {
	Page int    `form:"page" binding:"omitempty,min=1"`
	Kind string `form:"kind" binding:"omitempty,oneof=quiz exam"`
}

func init() {
	gin.SetMode(gin.TestMode)
	Setup()
}

func TestBindTranslatesJSONFieldNames(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"not-an-email"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	var body loginBody
	fields := Bind(c, &body)
	if fields == nil {
		t.Fatal("expected validation errors")
	}
	if _, ok := fields["email"]; !ok {
		t.Fatalf("missing email error: %v", fields)
	}
	if msg := fields["password"]; !strings.Contains(msg, "password is a required field") {
		t.Fatalf("password message = %q", msg)
	}
}

func TestBindQueryUsesFormNames(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?page=0&kind=essay", nil)

	var q listQuery
	fields := BindQuery(c, &q)
	if _, ok := fields["kind"]; !ok {
		t.Fatalf("missing kind error: %v", fields)
	}
}

func TestBindReportsSyntaxErrors(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	c.Request.Header.Set("Content-Type", "application/json")

	var body loginBody
	if fields := Bind(c, &body); fields["detail"] == "" {
		t.Fatalf("expected detail, got %v", fields)
	}
}
