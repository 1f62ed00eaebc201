package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vet_chat/internal/config"
	"vet_chat/internal/domain"
	"vet_chat/pkg/jwt"
	"vet_chat/pkg/logger"
)

const testSecret = "test-secret"

func newIdentityRouter(t *testing.T, extra ...gin.HandlerFunc) (*gin.Engine, *IdentityMiddleware) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m := NewIdentityMiddleware(config.IdentityConfig{Secret: testSecret, Issuer: "test"}, logger.New("error"))

	router := gin.New()
	chain := append([]gin.HandlerFunc{m.RequireIdentity()}, extra...)
	chain = append(chain, func(c *gin.Context) {
		participantID, _ := c.Get(ContextParticipantID)
		role, _ := c.Get(ContextParticipantRole)
		c.JSON(http.StatusOK, gin.H{
			"participant_id": participantID.(uuid.UUID).String(),
			"role":           role,
		})
	})
	router.GET("/protected", chain...)

	return router, m
}

func TestRequireIdentity_ValidToken(t *testing.T) {
	router, _ := newIdentityRouter(t)

	participantID := uuid.New()
	token, err := jwt.GenerateToken(participantID, domain.RoleOwner, testSecret, "test", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), participantID.String())
	assert.Contains(t, rec.Body.String(), domain.RoleOwner)
}

func TestRequireIdentity_TokenFromQuery(t *testing.T) {
	router, _ := newIdentityRouter(t)

	token, err := jwt.GenerateToken(uuid.New(), domain.RoleVet, testSecret, "test", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected?token="+token, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireIdentity_MissingToken(t *testing.T) {
	router, _ := newIdentityRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireIdentity_WrongSecret(t *testing.T) {
	router, _ := newIdentityRouter(t)

	token, err := jwt.GenerateToken(uuid.New(), domain.RoleOwner, "other-secret", "test", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewIdentityMiddleware(config.IdentityConfig{Secret: testSecret, Issuer: "test"}, logger.New("error"))

	router := gin.New()
	router.POST("/close", m.RequireIdentity(), m.RequireRole(domain.RoleScheduler), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	ownerToken, err := jwt.GenerateToken(uuid.New(), domain.RoleOwner, testSecret, "test", time.Minute)
	require.NoError(t, err)
	schedulerToken, err := jwt.GenerateToken(uuid.New(), domain.RoleScheduler, testSecret, "test", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/close", nil)
	req.Header.Set("Authorization", "Bearer "+ownerToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/close", nil)
	req.Header.Set("Authorization", "Bearer "+schedulerToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
