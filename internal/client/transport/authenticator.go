// Package transport provides the http.RoundTripper that authenticates
// outgoing API requests and repairs them when the access token has expired.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrijs2005/rainwise/internal/client/metrics"
	"github.com/dmitrijs2005/rainwise/internal/client/session"
	"github.com/dmitrijs2005/rainwise/internal/common"
	"github.com/dmitrijs2005/rainwise/internal/logging"
	"github.com/dmitrijs2005/rainwise/internal/models"
)

// ErrAccessDenied is returned for requests the API answered with 403.
var ErrAccessDenied = common.ErrorForbidden

// DefaultPublicEndpoints never carry a bearer token.
var DefaultPublicEndpoints = []string{"/auth/", "/public/", "/cities"}

// Session is what the authenticator needs from the session manager.
type Session interface {
	AccessToken(ctx context.Context) string
	RefreshFor(ctx context.Context, trigger string) (*models.AuthResult, error)
	Expire(ctx context.Context, cause error)
}

type Options struct {
	PublicEndpoints []string
	Logger          logging.Logger
	Metrics         *metrics.Session
}

// Authenticator attaches the bearer token to non-public requests. On 401
// it runs at most one refresh at a time, shared by every failed request,
// and retries each request once with the new token.
type Authenticator struct {
	next    http.RoundTripper
	sess    Session
	nav     session.Navigator
	public  []string
	log     logging.Logger
	metrics *metrics.Session
	group   singleflight.Group
}

// beforeRefreshWait is a test seam run after a request joined the refresh
// and before it blocks on the result.
var beforeRefreshWait = func() {}

// New wraps next. A nil next uses http.DefaultTransport.
func New(next http.RoundTripper, sess Session, nav session.Navigator, opts Options) *Authenticator {
	if next == nil {
		next = http.DefaultTransport
	}
	if nav == nil {
		nav = session.NavigatorFunc(func(context.Context, session.Redirect) {})
	}
	if opts.PublicEndpoints == nil {
		opts.PublicEndpoints = DefaultPublicEndpoints
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop{}
	}
	return &Authenticator{
		next:    next,
		sess:    sess,
		nav:     nav,
		public:  opts.PublicEndpoints,
		log:     opts.Logger.With("component", "transport"),
		metrics: opts.Metrics,
	}
}

// IsPublic reports whether path is on the public allow-list.
func (a *Authenticator) IsPublic(path string) bool {
	for _, p := range a.public {
		if strings.Contains(path, p) {
			return true
		}
	}
	return false
}

func (a *Authenticator) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	out, err := prepare(req)
	if err != nil {
		return nil, err
	}

	if a.IsPublic(out.URL.Path) {
		return a.next.RoundTrip(out)
	}

	token := a.sess.AccessToken(ctx)
	if token == "" {
		return a.next.RoundTrip(out)
	}
	out.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)

	resp, err := a.next.RoundTrip(out)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		discard(resp)
		return a.recover(out, token)
	case http.StatusForbidden:
		discard(resp)
		a.log.Warn(ctx, "access denied", "method", out.Method, "path", out.URL.Path)
		a.nav.Navigate(ctx, session.Redirect{Route: session.RouteHome})
		return nil, ErrAccessDenied
	}
	return resp, nil
}

// recover handles a 401 for a request sent with token.
func (a *Authenticator) recover(req *http.Request, token string) (*http.Response, error) {
	ctx := req.Context()

	// Another request already replaced the token this one was sent with.
	if cur := a.sess.AccessToken(ctx); cur != "" && cur != token {
		return a.retry(req, cur)
	}

	ch := a.group.DoChan("refresh", func() (any, error) {
		rctx := context.WithoutCancel(ctx)
		res, err := a.sess.RefreshFor(rctx, metrics.TriggerTransport)
		if err != nil {
			// A logout during the refresh already ended the session.
			if !errors.Is(err, session.ErrSessionEnded) {
				a.sess.Expire(rctx, err)
			}
			return nil, err
		}
		return res.AccessToken, nil
	})

	beforeRefreshWait()

	var r singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r = <-ch:
	}

	if r.Shared {
		a.metrics.RecordRefreshWait()
	}
	if r.Err != nil {
		return nil, r.Err
	}

	a.log.Debug(ctx, "retrying after refresh", "method", req.Method, "path", req.URL.Path, "shared", r.Shared)
	return a.retry(req, r.Val.(string))
}

func (a *Authenticator) retry(req *http.Request, token string) (*http.Response, error) {
	out := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("rewind request body: %w", err)
		}
		out.Body = body
	}
	out.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	return a.next.RoundTrip(out)
}

// prepare clones req so it can be modified and resent: the body is
// buffered when it cannot be rewound and a request id is assigned.
func prepare(req *http.Request) (*http.Request, error) {
	out := req.Clone(req.Context())

	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		buf, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("buffer request body: %w", err)
		}
		out.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(buf)), nil
		}
		out.Body, _ = out.GetBody()
	}

	if out.Header.Get(common.RequestIDHeaderName) == "" {
		out.Header.Set(common.RequestIDHeaderName, uuid.NewString())
	}
	return out, nil
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
