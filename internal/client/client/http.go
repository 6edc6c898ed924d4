package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/impacthands/internal/client/models"
	"github.com/dmitrijs2005/impacthands/internal/common"
	"github.com/dmitrijs2005/impacthands/internal/netx"
)

const tokenExpiredMessage = "token expired"

// HTTPClient implements AuthService, DataStore and BlobStore.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	now     func() time.Time

	// refreshMu makes concurrent callers share one rotation.
	refreshMu sync.Mutex
}

func NewHTTPClient(baseURL string, tokens TokenSource) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		tokens:  tokens,
		now:     time.Now,
	}
}

// sendFunc performs one attempt with the given bearer token and returns the
// raw status and body.
type sendFunc func(ctx context.Context, token string) (int, []byte, error)

// call runs send. An access token that has already expired locally is
// refreshed before the request; otherwise the token is refreshed and the
// request replayed once on 401 "token expired". A 401 that survives the
// refresh expires the session.
func (c *HTTPClient) call(ctx context.Context, authed bool, send sendFunc) ([]byte, error) {
	token := ""
	refreshed := false
	if authed {
		token = c.tokens.AccessToken()
		if token == "" {
			return nil, ErrUnauthorized
		}
		if !c.tokens.Valid(c.now()) {
			fresh, err := c.refresh(ctx, token)
			if err != nil {
				return nil, err
			}
			token, refreshed = fresh, true
		}
	}

	status, body, err := send(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if authed && !refreshed && isTokenExpired(status, body) {
		fresh, rerr := c.refresh(ctx, token)
		if rerr != nil {
			return nil, rerr
		}
		status, body, err = send(ctx, fresh)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	if status >= 200 && status < 300 {
		return body, nil
	}
	if authed && status == http.StatusUnauthorized {
		c.tokens.Expire()
	}
	return nil, decodeError(status, body)
}

// refresh rotates the tokens unless another caller already did so since
// stale was read.
func (c *HTTPClient) refresh(ctx context.Context, stale string) (string, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if cur := c.tokens.AccessToken(); cur != "" && cur != stale {
		return cur, nil
	}
	rt := c.tokens.RefreshToken()
	if rt == "" {
		c.tokens.Expire()
		return "", ErrUnauthorized
	}
	s, err := c.Refresh(ctx, rt)
	if err != nil {
		if !errors.Is(err, ErrUnavailable) {
			c.tokens.Expire()
		}
		return "", err
	}
	c.tokens.UpdateTokens(s.AccessToken, s.RefreshToken, s.ExpiresAt)
	return s.AccessToken, nil
}

func (c *HTTPClient) jsonSend(method, path string, in any) sendFunc {
	return func(ctx context.Context, token string) (int, []byte, error) {
		var body io.Reader
		if in != nil {
			b, err := json.Marshal(in)
			if err != nil {
				return 0, nil, err
			}
			body = bytes.NewReader(b)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return 0, nil, err
		}
		if in != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		if token != "" {
			req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return 0, nil, err
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return 0, nil, err
		}
		return resp.StatusCode, b, nil
	}
}

func (c *HTTPClient) doJSON(ctx context.Context, authed bool, method, path string, in, out any) error {
	body, err := c.call(ctx, authed, c.jsonSend(method, path, in))
	if err != nil {
		return err
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type sessionResponse struct {
	AccessToken  string          `json:"access_token"`
	ExpiresAt    int64           `json:"expires_at"`
	RefreshToken string          `json:"refresh_token"`
	User         models.Identity `json:"user"`
}

func (r sessionResponse) toSession() models.AuthSession {
	s := models.AuthSession{
		Identity:     r.User,
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
	}
	if r.ExpiresAt > 0 {
		s.ExpiresAt = time.Unix(r.ExpiresAt, 0)
	}
	return s
}

func (c *HTTPClient) SendCode(ctx context.Context, email, redirectTo string) error {
	return c.doJSON(ctx, false, http.MethodPost, "/auth/v1/otp",
		map[string]string{"email": email, "redirect_to": redirectTo}, nil)
}

func (c *HTTPClient) VerifyCode(ctx context.Context, email, code string) (models.AuthSession, error) {
	var resp sessionResponse
	err := c.doJSON(ctx, false, http.MethodPost, "/auth/v1/verify",
		map[string]string{"email": email, "token": code, "type": "email"}, &resp)
	if err != nil {
		return models.AuthSession{}, err
	}
	return resp.toSession(), nil
}

func (c *HTTPClient) Refresh(ctx context.Context, refreshToken string) (models.AuthSession, error) {
	var resp sessionResponse
	err := c.doJSON(ctx, false, http.MethodPost, "/auth/v1/token?grant_type=refresh_token",
		map[string]string{"refresh_token": refreshToken}, &resp)
	if err != nil {
		return models.AuthSession{}, err
	}
	return resp.toSession(), nil
}

func (c *HTTPClient) SignOut(ctx context.Context) error {
	return c.doJSON(ctx, true, http.MethodPost, "/auth/v1/logout", nil, nil)
}

func (c *HTTPClient) GetUser(ctx context.Context) (models.Identity, error) {
	var id models.Identity
	err := c.doJSON(ctx, true, http.MethodGet, "/auth/v1/user", nil, &id)
	return id, err
}

func (c *HTTPClient) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	err := c.doJSON(ctx, true, http.MethodGet, "/rest/v1/profiles/"+url.PathEscape(userID), nil, &p)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, userID string, patch models.ProfilePatch) error {
	return c.doJSON(ctx, true, http.MethodPatch, "/rest/v1/profiles/"+url.PathEscape(userID), patch, nil)
}

func (c *HTTPClient) CreateEnrollment(ctx context.Context, e *models.Enrollment) (*models.Enrollment, error) {
	var out models.Enrollment
	if err := c.doJSON(ctx, true, http.MethodPost, "/rest/v1/enrollments", e, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ListEnrollments(ctx context.Context) ([]*models.Enrollment, error) {
	var out []*models.Enrollment
	if err := c.doJSON(ctx, true, http.MethodGet, "/rest/v1/enrollments", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Upload puts data at path in the avatars bucket.
func (c *HTTPClient) Upload(ctx context.Context, path string, data []byte, contentType string, overwrite bool) error {
	target := c.baseURL + "/storage/v1/object/" + common.AvatarBucket + "/" + strings.TrimPrefix(path, "/")
	_, err := c.call(ctx, true, func(ctx context.Context, token string) (int, []byte, error) {
		h := http.Header{}
		h.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
		h.Set(common.UpsertHeaderName, fmt.Sprint(overwrite))
		b, err := netx.PutBytes(ctx, c.http, target, data, contentType, h)
		var se *netx.StatusError
		if errors.As(err, &se) {
			return se.Code, se.Body, nil
		}
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, b, nil
	})
	return err
}

// PublicURL returns the public address of the object at path.
func (c *HTTPClient) PublicURL(path string) string {
	return c.baseURL + "/storage/v1/object/public/" + common.AvatarBucket + "/" + strings.TrimPrefix(path, "/")
}
