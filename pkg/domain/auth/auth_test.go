package auth_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/loom-ml/loom/pkg/domain/auth"
	"github.com/loom-ml/loom/pkg/utils/try"
)

func TestSigner(t *testing.T) {
	t.Run("it verifies a token it issued", func(t *testing.T) {
		secret := try.To(auth.NewSecret(32)).OrFatal(t)
		testee := try.To(auth.NewSigner(secret, 1*time.Hour)).OrFatal(t)

		token := try.To(testee.Issue("loom-driver")).OrFatal(t)
		claims := try.To(testee.Verify(token)).OrFatal(t)

		if claims.Subject != "loom-driver" {
			t.Errorf("unexpected subject: %s", claims.Subject)
		}
	})

	t.Run("it rejects a token signed with another secret", func(t *testing.T) {
		secretA := try.To(auth.NewSecret(32)).OrFatal(t)
		secretB := try.To(auth.NewSecret(32)).OrFatal(t)
		signerA := try.To(auth.NewSigner(secretA, 1*time.Hour)).OrFatal(t)
		signerB := try.To(auth.NewSigner(secretB, 1*time.Hour)).OrFatal(t)

		token := try.To(signerA.Issue("loom-driver")).OrFatal(t)

		if _, err := signerB.Verify(token); !errors.Is(err, auth.ErrInvalidToken) {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("it rejects a malformed token", func(t *testing.T) {
		secret := try.To(auth.NewSecret(32)).OrFatal(t)
		testee := try.To(auth.NewSigner(secret, 1*time.Hour)).OrFatal(t)

		if _, err := testee.Verify("not.a.token"); !errors.Is(err, auth.ErrInvalidToken) {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("it rejects an expired token", func(t *testing.T) {
		secret := try.To(auth.NewSecret(32)).OrFatal(t)
		testee := try.To(auth.NewSigner(secret, -1*time.Minute)).OrFatal(t)

		token := try.To(testee.Issue("loom-driver")).OrFatal(t)

		if _, err := testee.Verify(token); !errors.Is(err, auth.ErrInvalidToken) {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("it rejects an empty secret", func(t *testing.T) {
		if _, err := auth.NewSigner(nil, 1*time.Hour); err == nil {
			t.Error("no error is returned")
		}
	})
}

func TestMiddleware(t *testing.T) {
	secret := try.To(auth.NewSecret(32)).OrFatal(t)
	signer := try.To(auth.NewSigner(secret, 1*time.Hour)).OrFatal(t)

	handler := func(c echo.Context) error {
		claims := auth.ClaimsFrom(c)
		if claims == nil {
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.String(http.StatusOK, claims.Subject)
	}

	invoke := func(t *testing.T, authorization string) *httptest.ResponseRecorder {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
		if authorization != "" {
			req.Header.Set(echo.HeaderAuthorization, authorization)
		}
		resp := httptest.NewRecorder()
		c := e.NewContext(req, resp)

		if err := auth.Middleware(signer)(handler)(c); err != nil {
			e.HTTPErrorHandler(err, c)
		}
		return resp
	}

	t.Run("it passes a request with a valid token", func(t *testing.T) {
		token := try.To(signer.Issue("loom-driver")).OrFatal(t)
		resp := invoke(t, "Bearer "+token)

		if resp.Code != http.StatusOK {
			t.Errorf("unexpected status code: %d", resp.Code)
		}
		if resp.Body.String() != "loom-driver" {
			t.Errorf("claims are not stored: %s", resp.Body.String())
		}
	})

	t.Run("it rejects a request without authorization header", func(t *testing.T) {
		resp := invoke(t, "")
		if resp.Code != http.StatusUnauthorized {
			t.Errorf("unexpected status code: %d", resp.Code)
		}
	})

	t.Run("it rejects a request with a non-bearer scheme", func(t *testing.T) {
		resp := invoke(t, "Basic dXNlcjpwYXNz")
		if resp.Code != http.StatusUnauthorized {
			t.Errorf("unexpected status code: %d", resp.Code)
		}
	})

	t.Run("it rejects a request with a bad token", func(t *testing.T) {
		resp := invoke(t, "Bearer bogus")
		if resp.Code != http.StatusUnauthorized {
			t.Errorf("unexpected status code: %d", resp.Code)
		}
	})
}
