package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pix_gateway/internal/domain"
	"pix_gateway/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type usersByID map[uint]*domain.User

func (u usersByID) GetUser(_ context.Context, id uint) (*domain.User, error) {
	if user, ok := u[id]; ok {
		return user, nil
	}
	return nil, domain.ErrNotFound
}

type recordingAuth struct {
	user     *domain.User
	err      error
	recorded map[string]any
	endpoint string
}

func (a *recordingAuth) AuthenticateClient(_ context.Context, clientID, secret, _ string) (*domain.User, error) {
	if clientID == "" || secret == "" {
		return nil, domain.ErrAuth
	}
	return a.user, a.err
}

func (a *recordingAuth) RecordAPICall(_ context.Context, _ uint, _, endpoint, _ string, body map[string]any) error {
	a.endpoint = endpoint
	a.recorded = body
	return nil
}

func TestJWTAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	users := usersByID{
		5: {ID: 5, Role: domain.RoleAdmin, Status: domain.UserActive},
		6: {ID: 6, Role: domain.RolePartner, Status: domain.UserActive},
	}
	r := gin.New()
	r.GET("/admin", JWTAuthMiddleware("secret", users), StaffOnlyMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.GetUint(CtxUserID)})
	})

	call := func(token string) int {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	admin, err := utils.GenerateJWT(5, domain.RoleAdmin, "secret", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, call(admin))
	partner, err := utils.GenerateJWT(6, domain.RolePartner, "secret", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, call(partner))

	assert.Equal(t, http.StatusUnauthorized, call(""))
	assert.Equal(t, http.StatusUnauthorized, call("garbage"))

	ghost, err := utils.GenerateJWT(9, domain.RoleAdmin, "secret", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call(ghost))

	// The role claim is not trusted on its own.
	users[5].Role = domain.RoleUser
	assert.Equal(t, http.StatusForbidden, call(admin))
}

func TestAPIKeyMiddleware_ReplaysBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	auth := &recordingAuth{user: &domain.User{ID: 3, Status: domain.UserActive}}
	r := gin.New()
	r.POST("/api/v1/withdraw", APIKeyMiddleware(auth), func(c *gin.Context) {
		raw, _ := io.ReadAll(c.Request.Body)
		c.JSON(http.StatusOK, gin.H{"body": string(raw), "api": c.GetBool(CtxAPIGenerated)})
	})

	body := `{"amountCents":1000,"destinationKey":"loja@pix.test"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/withdraw", strings.NewReader(body))
	req.Header.Set("X-Client-ID", "live_abc")
	req.Header.Set("X-Client-Secret", "sk_abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"api":true`)
	assert.Contains(t, w.Body.String(), "destinationKey")
	assert.Equal(t, "/api/v1/withdraw", auth.endpoint)
	assert.EqualValues(t, 1000, auth.recorded["amountCents"])

	req = httptest.NewRequest(http.MethodPost, "/api/v1/withdraw", strings.NewReader(body))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
