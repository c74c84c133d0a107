// Package storefront is the HTTP client the shopping front end uses to talk
// to the dress rental API. It implements the remote contracts of the wishlist
// view model, the catalog store and the cart.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/utafrali/dressrental/internal/catalog"
	"github.com/utafrali/dressrental/internal/domain"
	apperrors "github.com/utafrali/dressrental/pkg/errors"
	"github.com/utafrali/dressrental/pkg/httpclient"
	"github.com/utafrali/dressrental/pkg/httputil"
	"github.com/utafrali/dressrental/pkg/logger"
	"github.com/utafrali/dressrental/pkg/middleware"
)

const (
	serviceName = "dressrental-api"
	apiPrefix   = "/api/v1"

	// fetchPageSize is the largest page the API serves.
	fetchPageSize = 100

	dateLayout = "2006-01-02"
)

type envelope[T any] struct {
	Data T `json:"data"`
}

type authResult struct {
	User   *domain.User     `json:"user"`
	Tokens domain.TokenPair `json:"tokens"`
}

// CheckoutItem is one cart line as sent to POST /rentals/checkout.
type CheckoutItem struct {
	DressID   int64  `json:"dress_id"`
	Color     string `json:"color"`
	Size      string `json:"size"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Client calls the dress rental API on behalf of the current Session.
type Client struct {
	baseURL string
	doer    httpclient.Doer
	session *Session
	logger  *slog.Logger
}

// New returns a Client sending requests through doer.
func New(baseURL string, doer httpclient.Doer, session *Session, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		doer:    doer,
		session: session,
		logger:  logger,
	}
}

// NewDefault returns a Client using a retrying HTTP client behind a circuit
// breaker.
func NewDefault(baseURL string, session *Session, logger *slog.Logger) *Client {
	doer := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.DefaultConfig()),
		httpclient.DefaultCircuitBreakerConfig(serviceName),
		logger,
	)
	return New(baseURL, doer, session, logger)
}

func (c *Client) Session() *Session {
	return c.session
}

// --- Auth ---

// Register creates an account and signs the session in.
func (c *Client) Register(ctx context.Context, email, password, name string) (*domain.User, error) {
	body := map[string]string{"email": email, "password": password, "name": name}
	return c.authenticate(ctx, "/auth/register", body)
}

// Login signs the session in.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.User, error) {
	body := map[string]string{"email": email, "password": password}
	return c.authenticate(ctx, "/auth/login", body)
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (*domain.User, error) {
	var res envelope[authResult]
	if err := c.do(ctx, request{method: http.MethodPost, path: path, body: body}, &res); err != nil {
		return nil, err
	}
	c.session.SignIn(res.Data.User, res.Data.Tokens)
	return res.Data.User, nil
}

// Logout forgets the session credentials. Access tokens are short lived and
// are not revoked server side.
func (c *Client) Logout() {
	c.session.SignOut()
}

// GetCurrentUser returns the signed-in user, or nil when nobody is signed in
// or the session is no longer accepted.
func (c *Client) GetCurrentUser(ctx context.Context) (*domain.User, error) {
	if !c.session.IsAuthenticated() {
		return nil, nil
	}

	var res envelope[*domain.User]
	err := c.do(ctx, request{method: http.MethodGet, path: "/auth/me", auth: true}, &res)
	if errors.Is(err, apperrors.ErrUnauthorized) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if res.Data != nil {
		c.session.setUser(res.Data)
	}
	return res.Data, nil
}

// --- Catalog ---

// FetchDresses returns every dress matching f, following pagination until
// the last page. An empty filter returns the whole catalogue.
func (c *Client) FetchDresses(ctx context.Context, f catalog.Filter) ([]domain.Dress, error) {
	dresses := []domain.Dress{}
	for page := 1; ; page++ {
		q := f.Encode()
		q.Set("page", strconv.Itoa(page))
		q.Set("per_page", strconv.Itoa(fetchPageSize))

		var res httputil.PaginatedResponse[domain.Dress]
		if err := c.do(ctx, request{method: http.MethodGet, path: "/dresses", query: q}, &res); err != nil {
			return nil, fmt.Errorf("fetch dresses page %d: %w", page, err)
		}
		dresses = append(dresses, res.Data...)
		if !res.HasNext || len(res.Data) == 0 {
			return dresses, nil
		}
	}
}

// FetchDress returns a single dress.
func (c *Client) FetchDress(ctx context.Context, id int64) (*domain.Dress, error) {
	var res envelope[*domain.Dress]
	path := "/dresses/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, request{method: http.MethodGet, path: path}, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

// --- Wishlist ---

// FetchUserWishlist returns the signed-in user's wishlist. A user without a
// wishlist gets an empty snapshot with no id.
func (c *Client) FetchUserWishlist(ctx context.Context) (domain.WishlistSnapshot, error) {
	var res envelope[domain.WishlistSnapshot]
	if err := c.do(ctx, request{method: http.MethodGet, path: "/wishlist", auth: true}, &res); err != nil {
		return domain.WishlistSnapshot{}, err
	}
	if res.Data.Items == nil {
		res.Data.Items = []domain.WishlistItem{}
	}
	return res.Data, nil
}

// AddWishlistItem adds a dress to the wishlist. A dress that is already
// present counts as added.
func (c *Client) AddWishlistItem(ctx context.Context, dressID int64) error {
	err := c.do(ctx, request{method: http.MethodPost, path: wishlistItemPath(dressID), auth: true}, nil)
	if apperrors.IsAlreadyExists(err) {
		return nil
	}
	return err
}

// RemoveWishlistItem removes a dress from the wishlist. It fails with
// ErrNotFound when the dress is not on it.
func (c *Client) RemoveWishlistItem(ctx context.Context, dressID int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: wishlistItemPath(dressID), auth: true}, nil)
}

func wishlistItemPath(dressID int64) string {
	return "/wishlist/items/" + strconv.FormatInt(dressID, 10)
}

// --- Rentals ---

// Checkout books every cart line and returns the created rentals.
func (c *Client) Checkout(ctx context.Context, lines []domain.CartLineItem) ([]domain.Rental, error) {
	items := make([]CheckoutItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, CheckoutItem{
			DressID:   l.Dress.ID,
			Color:     l.Color,
			Size:      l.Size,
			StartDate: l.StartDate.Format(dateLayout),
			EndDate:   l.EndDate.Format(dateLayout),
		})
	}

	var res envelope[[]domain.Rental]
	req := request{method: http.MethodPost, path: "/rentals/checkout", body: map[string]any{"items": items}, auth: true}
	if err := c.do(ctx, req, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

// ListRentals returns one page of the user's rentals.
func (c *Client) ListRentals(ctx context.Context, page int) (httputil.PaginatedResponse[domain.Rental], error) {
	var res httputil.PaginatedResponse[domain.Rental]
	q := url.Values{"page": {strconv.Itoa(page)}}
	err := c.do(ctx, request{method: http.MethodGet, path: "/rentals", query: q, auth: true}, &res)
	return res, err
}

// --- Notify me ---

// Subscribe asks to be emailed when a matching dress becomes available.
func (c *Client) Subscribe(ctx context.Context, email string, categories, sizes []string) (*domain.Subscription, error) {
	body := map[string]any{"email": email, "categories": categories, "sizes": sizes}

	var res envelope[*domain.Subscription]
	if err := c.do(ctx, request{method: http.MethodPost, path: "/notify", body: body}, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

// --- Transport ---

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	auth   bool
}

// do sends r and decodes the response into out. An authenticated request
// rejected with 401 is retried once after refreshing the token pair; when the
// refresh fails the session is signed out.
func (c *Client) do(ctx context.Context, r request, out any) error {
	if r.auth && !c.session.IsAuthenticated() {
		return apperrors.Unauthorized("sign in required")
	}

	resp, err := c.send(ctx, r)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && r.auth && c.session.refreshToken() != "" {
		discard(resp)
		if err := c.refresh(ctx); err != nil {
			c.logger.WarnContext(ctx, "token refresh failed, signing out",
				slog.String("error", err.Error()),
			)
			c.session.SignOut()
			return apperrors.Unauthorized("session expired")
		}
		if resp, err = c.send(ctx, r); err != nil {
			return err
		}
	}

	return decode(resp, out)
}

func (c *Client) refresh(ctx context.Context) error {
	body := map[string]string{"refresh_token": c.session.refreshToken()}
	resp, err := c.send(ctx, request{method: http.MethodPost, path: "/auth/refresh", body: body})
	if err != nil {
		return err
	}

	var res envelope[domain.TokenPair]
	if err := decode(resp, &res); err != nil {
		return err
	}
	c.session.setTokens(res.Data)
	return nil
}

func (c *Client) send(ctx context.Context, r request) (*http.Response, error) {
	u := c.baseURL + apiPrefix + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", r.method, r.path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", r.method, r.path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.auth {
		req.Header.Set("Authorization", "Bearer "+c.session.accessToken())
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.CorrelationHeader, id)
	}

	start := time.Now()
	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		c.logger.WarnContext(ctx, "api request failed",
			slog.String("method", r.method),
			slog.String("path", r.path),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()),
		)
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, apperrors.ServiceUnavailable(serviceName, err)
	}
	return resp, nil
}

func decode(resp *http.Response, out any) error {
	if resp.StatusCode >= http.StatusBadRequest {
		return httpclient.ParseResponseError(resp, serviceName)
	}
	defer discard(resp)

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", serviceName, err)
	}
	return nil
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
