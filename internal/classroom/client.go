package classroom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"classroom-notifier/internal/content"
	"classroom-notifier/internal/contextutil"
	"classroom-notifier/internal/storage"
)

// maxPages stops pagination from looping forever on a misbehaving server.
const maxPages = 100

// TokenFunc resolves the bearer token used for a user's requests.
type TokenFunc func(ctx context.Context, user storage.User) (string, error)

// CredentialRefToken uses the user's stored credential reference as the bearer token.
func CredentialRefToken(_ context.Context, user storage.User) (string, error) {
	if strings.TrimSpace(user.CredentialRef) == "" {
		return "", fmt.Errorf("user %s: %w", user.ID, ErrMissingCredential)
	}
	return user.CredentialRef, nil
}

// Client is a Source backed by a Classroom-style REST API.
type Client struct {
	BaseURL string
	Token   TokenFunc
	client  *http.Client
	limiter *rate.Limiter
}

// NewClient creates a new content source client. requestsPerSecond <= 0
// disables throttling.
func NewClient(baseURL string, requestsPerSecond float64) *Client {
	limit := rate.Inf
	burst := 1
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
		burst = max(1, int(requestsPerSecond))
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   CredentialRefToken,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(limit, burst),
	}
}

type apiCourse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type apiCourseWork struct {
	ID            string             `json:"id"`
	Title         string             `json:"title"`
	Description   string             `json:"description"`
	DueDate       *content.Date      `json:"dueDate"`
	DueTime       *content.TimeOfDay `json:"dueTime"`
	CreationTime  time.Time          `json:"creationTime"`
	UpdateTime    time.Time          `json:"updateTime"`
	Link          string             `json:"link"`
	AlternateLink string             `json:"alternateLink"`
}

type apiAnnouncement struct {
	ID            string    `json:"id"`
	Text          string    `json:"text"`
	CreationTime  time.Time `json:"creationTime"`
	UpdateTime    time.Time `json:"updateTime"`
	Link          string    `json:"link"`
	AlternateLink string    `json:"alternateLink"`
}

type apiMaterial struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	CreationTime  time.Time `json:"creationTime"`
	UpdateTime    time.Time `json:"updateTime"`
	Link          string    `json:"link"`
	AlternateLink string    `json:"alternateLink"`
}

type apiSubmission struct {
	State string `json:"state"`
}

// ListCourses returns the user's active courses.
func (c *Client) ListCourses(ctx context.Context, user storage.User) ([]content.Course, error) {
	query := url.Values{}
	query.Set("studentId", "me")
	query.Set("courseStates", "ACTIVE")

	raws, err := c.listRaw(ctx, user, "/v1/courses", "courses", query)
	if err != nil {
		return nil, err
	}

	courses := make([]content.Course, 0, len(raws))
	for _, raw := range raws {
		var ac apiCourse
		if err := json.Unmarshal(raw, &ac); err != nil {
			return nil, fmt.Errorf("decode course: %w: %w", ErrUnavailable, err)
		}
		courses = append(courses, content.Course{ID: ac.ID, Name: ac.Name})
	}
	return courses, nil
}

// ListItems returns all items of kind in the course, across every page.
func (c *Client) ListItems(ctx context.Context, user storage.User, courseID string, kind content.Kind) ([]content.SourceItem, error) {
	base := "/v1/courses/" + url.PathEscape(courseID)

	var path, field string
	switch kind {
	case content.KindAssignment:
		path, field = base+"/courseWork", "courseWork"
	case content.KindAnnouncement:
		path, field = base+"/announcements", "announcements"
	case content.KindMaterial:
		path, field = base+"/courseWorkMaterials", "courseWorkMaterial"
	default:
		return nil, fmt.Errorf("unknown content kind %q", kind)
	}

	raws, err := c.listRaw(ctx, user, path, field, url.Values{})
	if err != nil {
		return nil, err
	}

	items := make([]content.SourceItem, 0, len(raws))
	for _, raw := range raws {
		item, err := decodeItem(kind, raw)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w: %w", kind, ErrUnavailable, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func decodeItem(kind content.Kind, raw json.RawMessage) (content.SourceItem, error) {
	switch kind {
	case content.KindAssignment:
		var w apiCourseWork
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		return content.Assignment{
			ID:            w.ID,
			Title:         w.Title,
			Description:   w.Description,
			DueDate:       w.DueDate,
			DueTime:       w.DueTime,
			CreationTime:  w.CreationTime,
			UpdateTime:    w.UpdateTime,
			Link:          w.Link,
			AlternateLink: w.AlternateLink,
			Raw:           raw,
		}, nil
	case content.KindAnnouncement:
		var a apiAnnouncement
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		return content.Announcement{
			ID:            a.ID,
			Text:          a.Text,
			CreationTime:  a.CreationTime,
			UpdateTime:    a.UpdateTime,
			Link:          a.Link,
			AlternateLink: a.AlternateLink,
			Raw:           raw,
		}, nil
	default:
		var m apiMaterial
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
		return content.Material{
			ID:            m.ID,
			Title:         m.Title,
			Description:   m.Description,
			CreationTime:  m.CreationTime,
			UpdateTime:    m.UpdateTime,
			Link:          m.Link,
			AlternateLink: m.AlternateLink,
			Raw:           raw,
		}, nil
	}
}

// IsSubmitted reports whether any of the user's submissions is turned in or returned.
func (c *Client) IsSubmitted(ctx context.Context, user storage.User, courseID, itemID string) (bool, error) {
	path := fmt.Sprintf("/v1/courses/%s/courseWork/%s/studentSubmissions", url.PathEscape(courseID), url.PathEscape(itemID))
	query := url.Values{}
	query.Set("userId", "me")

	raws, err := c.listRaw(ctx, user, path, "studentSubmissions", query)
	if err != nil {
		return false, err
	}
	for _, raw := range raws {
		var s apiSubmission
		if err := json.Unmarshal(raw, &s); err != nil {
			return false, fmt.Errorf("decode submission: %w: %w", ErrUnavailable, err)
		}
		if s.State == "TURNED_IN" || s.State == "RETURNED" {
			return true, nil
		}
	}
	return false, nil
}

// listRaw follows nextPageToken and collects the raw elements of field.
func (c *Client) listRaw(ctx context.Context, user storage.User, path, field string, query url.Values) ([]json.RawMessage, error) {
	logger := contextutil.LoggerFromContext(ctx)

	token, err := c.Token(ctx, user)
	if err != nil {
		return nil, err
	}

	var out []json.RawMessage
	pageToken := ""
	for page := 0; page < maxPages; page++ {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}

		var body map[string]json.RawMessage
		if err := c.get(ctx, token, path, q, &body); err != nil {
			return nil, err
		}

		if rawItems, ok := body[field]; ok {
			var items []json.RawMessage
			if err := json.Unmarshal(rawItems, &items); err != nil {
				return nil, fmt.Errorf("decode %s: %w: %w", field, ErrUnavailable, err)
			}
			out = append(out, items...)
		}

		pageToken = ""
		if rawNext, ok := body["nextPageToken"]; ok {
			_ = json.Unmarshal(rawNext, &pageToken)
		}
		if pageToken == "" {
			logger.DebugContext(ctx, "listed content", "path", path, "items", len(out), "pages", page+1)
			return out, nil
		}
	}
	return nil, fmt.Errorf("%s: %w: more than %d pages", path, ErrUnavailable, maxPages)
}

func (c *Client) get(ctx context.Context, token, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	endpoint := c.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%s: %w: %w", path, ErrUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%s: status %d: %w", path, resp.StatusCode, ErrMissingCredential)
	case resp.StatusCode != http.StatusOK:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s: %w: bad status %d: %s", path, ErrUnavailable, resp.StatusCode, string(raw))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%s: %w: failed to decode response: %w", path, ErrUnavailable, err)
	}
	return nil
}
