package vtmiddleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecretKey(t *testing.T) {
	key := generateSecretKey()
	assert.Len(t, key, 32)

	// Vérifier que deux appels génèrent des clés différentes
	key2 := generateSecretKey()
	assert.NotEqual(t, key, key2)
}

func TestVisitorCookieIssued(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(VisitorCookie(false))

	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = Visitor(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	r.ServeHTTP(w, req)

	require.NotEmpty(t, seen)

	var issued *http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "_visitor_id" {
			issued = ck
		}
	}
	require.NotNil(t, issued)
	assert.Equal(t, seen, issued.Value)
	assert.True(t, issued.HttpOnly)
}

func TestVisitorCookieReused(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(VisitorCookie(false))

	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = Visitor(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: "_visitor_id", Value: "existing-id"})
	r.ServeHTTP(w, req)

	assert.Equal(t, "existing-id", seen)
	// Aucun nouveau cookie posé
	assert.False(t, strings.Contains(w.Header().Get("Set-Cookie"), "_visitor_id"))
}
