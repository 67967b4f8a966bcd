package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"github.com/abhisek/laesemaskine/internal/backend"
	"github.com/abhisek/laesemaskine/internal/blob"
	"github.com/abhisek/laesemaskine/internal/session"
	"github.com/abhisek/laesemaskine/internal/store"
)

var _ backend.Backend = (*Client)(nil)

// Client is a backend.Backend that talks to a Server.
type Client struct {
	baseURL string
	client  *http.Client
	now     func() time.Time
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.client = hc }
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Health returns the server version.
func (c *Client) Health(ctx context.Context) (string, error) {
	var resp healthResponse
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Version, nil
}

// CheckCompatibility fails with ErrIncompatibleServer when the server and
// local major versions differ. Development builds are always compatible.
func (c *Client) CheckCompatibility(ctx context.Context, local string) error {
	remote, err := c.Health(ctx)
	if err != nil {
		return err
	}
	if !semver.IsValid(local) || !semver.IsValid(remote) {
		return nil
	}
	if semver.Major(local) != semver.Major(remote) {
		return fmt.Errorf("%w: server %s, client %s", ErrIncompatibleServer, remote, local)
	}
	return nil
}

func (c *Client) FetchWords(ctx context.Context, level, count, band int) ([]session.Word, error) {
	q := url.Values{}
	q.Set("level", strconv.Itoa(level))
	q.Set("count", strconv.Itoa(count))
	q.Set("band", strconv.Itoa(band))
	var resp wordsResponse
	if err := c.do(ctx, http.MethodGet, "/api/words?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Words, nil
}

func (c *Client) StartSession(ctx context.Context, req backend.StartRequest) (session.Context, error) {
	var resp startResponse
	if err := c.do(ctx, http.MethodPost, "/api/sessions/start", req, &resp); err != nil {
		return session.Context{}, err
	}
	return resp.Context, nil
}

func (c *Client) SubmitAnswer(ctx context.Context, sessionID string, rec session.AnswerRecord) (session.Verdict, error) {
	var resp answerResponse
	if err := c.do(ctx, http.MethodPost, sessionPath(sessionID, "answer"), rec, &resp); err != nil {
		return session.Verdict{}, err
	}
	return session.Verdict{SessionWordID: resp.SessionWordID, Correct: resp.Correct, Diagnostics: resp.Diagnostics}, nil
}

func (c *Client) FinishSession(ctx context.Context, sessionID string, estimatedLevel int) (session.Result, error) {
	var resp finishResponse
	err := c.do(ctx, http.MethodPost, sessionPath(sessionID, "finish"), finishRequest{EstimatedLevel: estimatedLevel}, &resp)
	if err != nil {
		return session.Result{}, err
	}
	return resp.Session, nil
}

// SaveResult links the session recording to the session. Only the audio key
// travels; the rest of the result is already stored by FinishSession.
func (c *Client) SaveResult(ctx context.Context, r session.Result) error {
	if r.AudioKey == "" {
		return nil
	}
	return c.do(ctx, http.MethodPost, sessionPath(r.SessionID, "audio_key"), audioKeyRequest{AudioKey: r.AudioKey}, nil)
}

func (c *Client) Session(ctx context.Context, id string) (*backend.SessionDetail, error) {
	var d backend.SessionDetail
	if err := c.do(ctx, http.MethodGet, sessionPath(id, ""), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) ListSessions(ctx context.Context, studentID string) ([]backend.SessionInfo, error) {
	var resp sessionsResponse
	path := "/api/me/sessions?" + url.Values{"student_id": {studentID}}.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

func (c *Client) Answers(ctx context.Context, f backend.AnswerFilter) ([]backend.AnswerItem, error) {
	q := url.Values{}
	if f.StudentID != "" {
		q.Set("student_id", f.StudentID)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	var resp itemsResponse
	if err := c.do(ctx, http.MethodGet, withQuery("/api/answers", q), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) Overview(ctx context.Context) ([]backend.StudentOverview, error) {
	var resp overviewResponse
	if err := c.do(ctx, http.MethodGet, "/api/admin/overview", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Students, nil
}

func (c *Client) Difficulty(ctx context.Context, studentID string) (*store.Breakdown, error) {
	var b store.Breakdown
	if err := c.do(ctx, http.MethodGet, studentPath(studentID, "difficulty"), nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) Drilldown(ctx context.Context, studentID, group, key string) ([]backend.AnswerItem, error) {
	q := url.Values{"group": {group}, "key": {key}}
	var resp itemsResponse
	if err := c.do(ctx, http.MethodGet, withQuery(studentPath(studentID, "drilldown"), q), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) CreateDispute(ctx context.Context, req backend.DisputeRequest) (*store.Dispute, error) {
	var resp disputeResponse
	if err := c.do(ctx, http.MethodPost, "/api/disputes", req, &resp); err != nil {
		return nil, err
	}
	if resp.Dispute == nil {
		return &store.Dispute{ID: resp.DisputeID}, nil
	}
	return resp.Dispute, nil
}

func (c *Client) Disputes(ctx context.Context, f store.DisputeFilter) ([]store.Dispute, error) {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	var resp disputesResponse
	if err := c.do(ctx, http.MethodGet, withQuery("/api/admin/disputes", q), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Disputes, nil
}

// DisputeAudio downloads the dispute's audio, or returns nil when it has
// none.
func (c *Client) DisputeAudio(ctx context.Context, id int64) (*blob.Blob, error) {
	resp, err := c.send(ctx, http.MethodGet, disputePath(id, "audio"), nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read dispute audio: %w", err)
	}
	return &blob.Blob{
		Key:       strconv.FormatInt(id, 10),
		Data:      data,
		MIME:      resp.Header.Get("Content-Type"),
		CreatedAt: c.now(),
	}, nil
}

func (c *Client) ReviewDispute(ctx context.Context, id int64, status string) error {
	return c.do(ctx, http.MethodPatch, disputePath(id, ""), statusRequest{Status: status}, nil)
}

func (c *Client) DeleteDisputeAudio(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, disputePath(id, "audio"), nil, nil)
}

func (c *Client) SendToAI(ctx context.Context, id int64, errorType string) (bool, error) {
	var resp sendToAIResponse
	if err := c.do(ctx, http.MethodPost, disputePath(id, "send_to_ai"), sendToAIRequest{ErrorType: errorType}, &resp); err != nil {
		return false, err
	}
	return resp.Queued, nil
}

// do sends body as JSON and decodes the response into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// send performs the request and turns non-2xx responses into *StatusError.
func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer func() { _ = resp.Body.Close() }()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	se := &StatusError{Code: resp.StatusCode, Body: string(raw)}
	var er errorResponse
	if json.Unmarshal(raw, &er) == nil {
		se.Kind = er.Error
	}
	return nil, se
}

func sessionPath(id, action string) string {
	p := "/api/sessions/" + url.PathEscape(id)
	if action != "" {
		p += "/" + action
	}
	return p
}

func disputePath(id int64, action string) string {
	p := "/api/admin/disputes/" + strconv.FormatInt(id, 10)
	if action != "" {
		p += "/" + action
	}
	return p
}

func studentPath(id, action string) string {
	return "/api/admin/student/" + url.PathEscape(id) + "/" + action
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
