// Package atproto is a small XRPC client for the identity/repository service
// behind Bluesky accounts.
//
// It covers the calls skyavatar needs: password sessions, profile reads,
// blob upload and record reads and writes. Queries (GET) are retried on
// network failures and 5xx responses; procedures (POST) are never retried
// because they are not idempotent.
//
// Errors returned by the client are *errors.Error values from
// github.com/nornoe/skyavatar/pkg/errors:
//
//   - authentication failures carry ErrCodeUnauthorized
//   - service error responses carry ErrCodeUpstream and the upstream status
//   - transport failures carry ErrCodeNetwork
//
// The underlying *XRPCError stays reachable with errors.As and matches the
// package sentinels (ErrNotFound, ErrInvalidSwap, ErrAuth) with errors.Is.
package atproto

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nornoe/skyavatar/pkg/buildinfo"
	"github.com/nornoe/skyavatar/pkg/errors"
	"github.com/nornoe/skyavatar/pkg/httputil"
	"github.com/nornoe/skyavatar/pkg/observability"
	"github.com/nornoe/skyavatar/pkg/session"
)

// DefaultService is the default PDS entryway.
const DefaultService = "https://bsky.social"

const (
	httpTimeout      = 30 * time.Second
	maxErrorBodySize = 64 << 10
)

// Config configures a [Client].
type Config struct {
	Service    string
	Identifier string
	Password   string

	// HTTPClient defaults to a client with a 30s timeout.
	HTTPClient *http.Client

	// Sessions persists sessions between runs. Defaults to memory.
	Sessions session.Store

	Logger *log.Logger

	// RetryAttempts and RetryDelay tune query retries. Zero values use
	// 3 attempts starting at 1s.
	RetryAttempts int
	RetryDelay    time.Duration
}

// Client talks XRPC to one service as one account. It is safe for
// concurrent use; the session is shared and refreshed under a mutex.
type Client struct {
	http       *http.Client
	service    string
	identifier string
	password   string
	sessions   session.Store
	logger     *log.Logger
	attempts   int
	delay      time.Duration

	mu   sync.Mutex
	sess *session.Session
}

// NewClient creates a client. It does not contact the service; the first
// authenticated call logs in (or resumes a stored session).
func NewClient(cfg Config) *Client {
	c := &Client{
		http:       cfg.HTTPClient,
		service:    strings.TrimRight(cfg.Service, "/"),
		identifier: cfg.Identifier,
		password:   cfg.Password,
		sessions:   cfg.Sessions,
		logger:     cfg.Logger,
		attempts:   cfg.RetryAttempts,
		delay:      cfg.RetryDelay,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: httpTimeout}
	}
	if c.service == "" {
		c.service = DefaultService
	}
	if c.sessions == nil {
		c.sessions = session.NewMemoryStore()
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	if c.attempts <= 0 {
		c.attempts = 3
	}
	if c.delay <= 0 {
		c.delay = time.Second
	}
	return c
}

// Service returns the service base URL.
func (c *Client) Service() string { return c.service }

// =============================================================================
// Sessions
// =============================================================================

// Login returns the current session, resuming a stored one or creating a
// new one with the configured credentials.
func (c *Client) Login(ctx context.Context) (*session.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ensureSessionLocked(ctx)
}

// DID returns the account DID, logging in if needed.
func (c *Client) DID(ctx context.Context) (string, error) {
	s, err := c.Login(ctx)
	if err != nil {
		return "", err
	}
	return s.DID, nil
}

// Logout forgets the current session, in memory and in the store.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sess = nil
	return c.sessions.Delete(ctx, c.sessionKey())
}

func (c *Client) sessionKey() string {
	return session.Key(c.service, c.identifier)
}

func (c *Client) ensureSessionLocked(ctx context.Context) (*session.Session, error) {
	if c.sess != nil {
		return c.sess, nil
	}
	if stored, err := c.sessions.Get(ctx, c.sessionKey()); err != nil {
		c.logger.Warn("session store read failed", "err", err)
	} else if stored != nil && stored.Service == c.service {
		c.logger.Debug("resumed session", "did", stored.DID, "handle", stored.Handle)
		c.sess = stored
		return stored, nil
	}
	return c.createSessionLocked(ctx)
}

func (c *Client) createSessionLocked(ctx context.Context) (*session.Session, error) {
	if c.identifier == "" || c.password == "" {
		return nil, errors.New(errors.ErrCodeUnauthorized, "no account credentials configured")
	}

	var out sessionOutput
	body := createSessionInput{Identifier: c.identifier, Password: c.password}
	if err := c.procedure(ctx, "com.atproto.server.createSession", "", body, &out); err != nil {
		if stderrors.Is(err, ErrAuth) || isStatus(err, http.StatusBadRequest) {
			return nil, errors.Wrap(errors.ErrCodeUnauthorized, err, "login as %s", c.identifier)
		}
		return nil, err
	}
	return c.storeSessionLocked(ctx, out)
}

// refreshLocked exchanges the refresh token for new tokens, falling back to
// a fresh login when the refresh token itself is rejected.
func (c *Client) refreshLocked(ctx context.Context) (*session.Session, error) {
	if c.sess == nil || c.sess.RefreshJwt == "" {
		return c.createSessionLocked(ctx)
	}
	var out sessionOutput
	err := c.procedure(ctx, "com.atproto.server.refreshSession", c.sess.RefreshJwt, nil, &out)
	if err != nil {
		c.logger.Debug("session refresh failed, logging in again", "err", err)
		c.sess = nil
		_ = c.sessions.Delete(ctx, c.sessionKey())
		return c.createSessionLocked(ctx)
	}
	return c.storeSessionLocked(ctx, out)
}

func (c *Client) storeSessionLocked(ctx context.Context, out sessionOutput) (*session.Session, error) {
	if out.DID == "" || out.AccessJwt == "" {
		return nil, errors.New(errors.ErrCodeUnauthorized, "service returned an incomplete session")
	}
	now := time.Now()
	s := &session.Session{
		ID:         c.sessionKey(),
		Service:    c.service,
		DID:        out.DID,
		Handle:     out.Handle,
		AccessJwt:  out.AccessJwt,
		RefreshJwt: out.RefreshJwt,
		CreatedAt:  now,
		ExpiresAt:  now.Add(session.DefaultTTL),
	}
	c.sess = s
	if err := c.sessions.Set(ctx, s); err != nil {
		c.logger.Warn("session store write failed", "err", err)
	}
	return s, nil
}

// authed runs fn with the current access token, refreshing once if the
// token has expired.
func (c *Client) authed(ctx context.Context, fn func(token string) error) error {
	c.mu.Lock()
	s, err := c.ensureSessionLocked(ctx)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	err = fn(s.AccessJwt)
	var xe *XRPCError
	if err == nil || !stderrors.As(err, &xe) || !xe.expiredToken() {
		return err
	}

	c.mu.Lock()
	// another caller may have refreshed already
	if c.sess != nil && c.sess.AccessJwt != s.AccessJwt {
		s = c.sess
	} else {
		s, err = c.refreshLocked(ctx)
	}
	c.mu.Unlock()
	if err != nil {
		return err
	}
	return fn(s.AccessJwt)
}

// =============================================================================
// Transport
// =============================================================================

// query performs a GET with retries.
func (c *Client) query(ctx context.Context, nsid, token string, params url.Values, out any) error {
	err := httputil.Retry(ctx, c.attempts, c.delay, func() error {
		return c.do(ctx, http.MethodGet, nsid, token, params, nil, "", out)
	})
	return httputil.Permanent(err)
}

// procedure performs a JSON POST. in may be nil for an empty body.
func (c *Client) procedure(ctx context.Context, nsid, token string, in, out any) error {
	var body []byte
	ctype := ""
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "encode %s", nsid)
		}
		ctype = "application/json"
	}
	return httputil.Permanent(c.do(ctx, http.MethodPost, nsid, token, nil, body, ctype, out))
}

func (c *Client) do(ctx context.Context, method, nsid, token string, params url.Values, body []byte, ctype string, out any) error {
	u := c.service + "/xrpc/" + nsid
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "build %s request", nsid)
	}
	if ctype != "" {
		req.Header.Set("Content-Type", ctype)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, method, host, path, err)
		if ctx.Err() != nil {
			return errors.Upstream(ctx.Err(), 0, "%s", nsid)
		}
		return &httputil.RetryableError{Err: errors.Upstream(err, 0, "%s", nsid)}
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, method, host, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		xe := decodeError(nsid, resp)
		uerr := errors.Upstream(xe, resp.StatusCode, "%s", nsid)
		if resp.StatusCode >= 500 {
			return &httputil.RetryableError{Err: uerr, After: httputil.RetryAfter(resp.Header)}
		}
		return uerr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Upstream(err, resp.StatusCode, "decode %s response", nsid)
	}
	return nil
}

func decodeError(nsid string, resp *http.Response) *XRPCError {
	xe := &XRPCError{Status: resp.StatusCode, Method: nsid}
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if json.Unmarshal(data, &body) == nil {
		xe.Name, xe.Message = body.Error, body.Message
	}
	return xe
}

func isStatus(err error, status int) bool {
	var xe *XRPCError
	return stderrors.As(err, &xe) && xe.Status == status
}

// =============================================================================
// Calls
// =============================================================================

// GetProfile fetches an actor's profile view.
func (c *Client) GetProfile(ctx context.Context, actor string) (*Profile, error) {
	var out Profile
	err := c.authed(ctx, func(token string) error {
		return c.query(ctx, "app.bsky.actor.getProfile", token, url.Values{"actor": {actor}}, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadBlob uploads data and returns its blob reference.
func (c *Client) UploadBlob(ctx context.Context, data []byte, mimeType string) (*Blob, error) {
	var out uploadBlobOutput
	err := c.authed(ctx, func(token string) error {
		return httputil.Permanent(c.do(ctx, http.MethodPost, "com.atproto.repo.uploadBlob", token, nil, data, mimeType, &out))
	})
	if err != nil {
		return nil, err
	}
	if out.Blob.Ref.Link == "" {
		return nil, errors.Upstream(fmt.Errorf("empty blob ref"), http.StatusOK, "com.atproto.repo.uploadBlob")
	}
	return &out.Blob, nil
}

// GetRecord fetches one record. A missing record matches [ErrNotFound].
func (c *Client) GetRecord(ctx context.Context, repo, collection, rkey string) (*Record, error) {
	var out Record
	params := url.Values{"repo": {repo}, "collection": {collection}, "rkey": {rkey}}
	err := c.authed(ctx, func(token string) error {
		return c.query(ctx, "com.atproto.repo.getRecord", token, params, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// PutRecord creates or replaces a record. With SwapRecord set, the write
// fails with [ErrInvalidSwap] if the record changed since it was read.
func (c *Client) PutRecord(ctx context.Context, in PutRecordInput) (*RecordRef, error) {
	var out RecordRef
	err := c.authed(ctx, func(token string) error {
		return c.procedure(ctx, "com.atproto.repo.putRecord", token, in, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateRecord appends a record with a service-assigned key.
func (c *Client) CreateRecord(ctx context.Context, repo, collection string, record any) (*RecordRef, error) {
	var out RecordRef
	in := createRecordInput{Repo: repo, Collection: collection, Record: record}
	err := c.authed(ctx, func(token string) error {
		return c.procedure(ctx, "com.atproto.repo.createRecord", token, in, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListRecords returns one page of a collection. An empty cursor requests
// the first page.
func (c *Client) ListRecords(ctx context.Context, repo, collection string, limit int, cursor string) (*ListRecordsOutput, error) {
	params := url.Values{"repo": {repo}, "collection": {collection}}
	if limit > 0 {
		params.Set("limit", fmt.Sprint(limit))
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}
	var out ListRecordsOutput
	err := c.authed(ctx, func(token string) error {
		return c.query(ctx, "com.atproto.repo.listRecords", token, params, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// maxSwapAttempts bounds UpdateProfile's read-modify-write loop.
const maxSwapAttempts = 3

// UpdateProfile applies mutate to the account's profile record and writes
// it back. Fields mutate does not touch are preserved, including ones this
// package does not know about. Concurrent edits are detected with
// swapRecord and the update is re-applied to the fresh record.
func (c *Client) UpdateProfile(ctx context.Context, mutate func(profile map[string]any) error) error {
	did, err := c.DID(ctx)
	if err != nil {
		return err
	}

	for attempt := 1; ; attempt++ {
		value := map[string]any{"$type": ProfileCollection}
		var swap *string

		rec, err := c.GetRecord(ctx, did, ProfileCollection, ProfileRKey)
		switch {
		case stderrors.Is(err, ErrNotFound):
			// first profile write for this account
		case err != nil:
			return err
		default:
			dec := json.NewDecoder(bytes.NewReader(rec.Value))
			dec.UseNumber()
			if err := dec.Decode(&value); err != nil {
				return errors.Upstream(err, http.StatusOK, "decode profile record")
			}
			cid := rec.CID
			swap = &cid
		}

		if err := mutate(value); err != nil {
			return err
		}

		_, err = c.PutRecord(ctx, PutRecordInput{
			Repo:       did,
			Collection: ProfileCollection,
			RKey:       ProfileRKey,
			Record:     value,
			SwapRecord: swap,
		})
		if err == nil {
			return nil
		}
		if !stderrors.Is(err, ErrInvalidSwap) || attempt >= maxSwapAttempts {
			return err
		}
		c.logger.Debug("profile changed during update, retrying", "attempt", attempt)
	}
}
