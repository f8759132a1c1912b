package authclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperror "agromarket/internal/errors"
	"agromarket/internal/pkg/authclient"
	"agromarket/internal/pkg/logger"
)

func newAuthServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"valid":false,"error":"Token expired"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func unauthorizedDetail(t *testing.T, err error) string {
	t.Helper()
	var ue *apperror.UnauthorizedError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "Invalid token", ue.Msg)
	return ue.Detail
}

func TestValidate_Success(t *testing.T) {
	srv := newAuthServer(t, http.StatusOK, `{"valid":true,"user_id":42,"farm_id":"farm-7","role":"farmer"}`)
	c := authclient.NewClient(srv.URL, time.Second, logger.NewNop())

	id, err := c.Validate(context.Background(), "good-token")

	require.NoError(t, err)
	assert.Equal(t, "42", id.UserID)
	assert.Equal(t, "farm-7", id.FarmID)
	assert.Equal(t, "farmer", id.Claims["role"])
}

func TestValidate_UserIDOnly(t *testing.T) {
	srv := newAuthServer(t, http.StatusOK, `{"valid":true,"user_id":"farm1"}`)
	c := authclient.NewClient(srv.URL, time.Second, logger.NewNop())

	id, err := c.Validate(context.Background(), "good-token")

	require.NoError(t, err)
	assert.Equal(t, "farm1", id.CallerFarmID())
}

func TestValidate_Rejected(t *testing.T) {
	srv := newAuthServer(t, http.StatusOK, `{}`)
	c := authclient.NewClient(srv.URL, time.Second, logger.NewNop())

	_, err := c.Validate(context.Background(), "bad-token")

	assert.Equal(t, "Auth service returned 401", unauthorizedDetail(t, err))
}

func TestValidate_ValidFalse(t *testing.T) {
	srv := newAuthServer(t, http.StatusOK, `{"valid":false,"error":"Token revoked"}`)
	c := authclient.NewClient(srv.URL, time.Second, logger.NewNop())

	_, err := c.Validate(context.Background(), "good-token")

	assert.Equal(t, "Token revoked", unauthorizedDetail(t, err))
}

func TestValidate_MissingValidFlag(t *testing.T) {
	srv := newAuthServer(t, http.StatusOK, `{"user_id":"farm1"}`)
	c := authclient.NewClient(srv.URL, time.Second, logger.NewNop())

	_, err := c.Validate(context.Background(), "good-token")

	assert.Equal(t, "Invalid token", unauthorizedDetail(t, err))
}

func TestValidate_UnreadableBody(t *testing.T) {
	srv := newAuthServer(t, http.StatusOK, `<html>oops</html>`)
	c := authclient.NewClient(srv.URL, time.Second, logger.NewNop())

	_, err := c.Validate(context.Background(), "good-token")

	assert.Contains(t, unauthorizedDetail(t, err), "unreadable")
}

func TestValidate_ServiceDown(t *testing.T) {
	srv := newAuthServer(t, http.StatusOK, `{"valid":true}`)
	url := srv.URL
	srv.Close()
	c := authclient.NewClient(url, time.Second, logger.NewNop())

	_, err := c.Validate(context.Background(), "good-token")

	assert.Contains(t, unauthorizedDetail(t, err), "Auth service unavailable")
}
