package classroom

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"classroom-notifier/internal/content"
	"classroom-notifier/internal/storage"
)

var testUser = storage.User{ID: "u1", Handle: "h1", CredentialRef: "tok-1"}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, 0)
}

func TestClient_ListCourses_Paginates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/courses" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("pageToken") {
		case "":
			_, _ = fmt.Fprint(w, `{"courses":[{"id":"c1","name":"Math"}],"nextPageToken":"p2"}`)
		case "p2":
			_, _ = fmt.Fprint(w, `{"courses":[{"id":"c2","name":"History"}]}`)
		default:
			t.Errorf("unexpected pageToken %q", r.URL.Query().Get("pageToken"))
		}
	})

	courses, err := client.ListCourses(context.Background(), testUser)
	if err != nil {
		t.Fatalf("ListCourses() error = %v", err)
	}
	if len(courses) != 2 || courses[0].ID != "c1" || courses[1].Name != "History" {
		t.Errorf("ListCourses() = %+v", courses)
	}
}

func TestClient_ListItems(t *testing.T) {
	tests := []struct {
		name     string
		kind     content.Kind
		wantPath string
		body     string
		check    func(t *testing.T, item content.SourceItem)
	}{
		{
			name:     "course work",
			kind:     content.KindAssignment,
			wantPath: "/v1/courses/c1/courseWork",
			body:     `{"courseWork":[{"id":"w1","title":"Lab 3","dueDate":{"year":2024,"month":3,"day":10},"dueTime":{"hours":17},"creationTime":"2024-03-01T10:00:00Z","alternateLink":"https://x/w1"}]}`,
			check: func(t *testing.T, item content.SourceItem) {
				a, ok := item.(content.Assignment)
				if !ok {
					t.Fatalf("item is %T, want Assignment", item)
				}
				if a.ID != "w1" || a.Title != "Lab 3" || a.AlternateLink != "https://x/w1" {
					t.Errorf("assignment = %+v", a)
				}
				if a.DueDate == nil || a.DueDate.Day != 10 {
					t.Errorf("DueDate = %+v", a.DueDate)
				}
				if h, m := a.DueTime.Clock(); h != 17 || m != 59 {
					t.Errorf("DueTime.Clock() = %d:%d, want 17:59", h, m)
				}
				if !a.CreationTime.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)) {
					t.Errorf("CreationTime = %v", a.CreationTime)
				}
				if len(a.Raw) == 0 {
					t.Error("Raw should carry the original payload")
				}
			},
		},
		{
			name:     "announcements",
			kind:     content.KindAnnouncement,
			wantPath: "/v1/courses/c1/announcements",
			body:     `{"announcements":[{"id":"a1","text":"Exam moved","updateTime":"2024-03-02T08:00:00Z"}]}`,
			check: func(t *testing.T, item content.SourceItem) {
				a, ok := item.(content.Announcement)
				if !ok || a.Text != "Exam moved" {
					t.Errorf("item = %+v", item)
				}
			},
		},
		{
			name:     "materials",
			kind:     content.KindMaterial,
			wantPath: "/v1/courses/c1/courseWorkMaterials",
			body:     `{"courseWorkMaterial":[{"id":"m1","title":"Slides"}]}`,
			check: func(t *testing.T, item content.SourceItem) {
				m, ok := item.(content.Material)
				if !ok || m.Title != "Slides" {
					t.Errorf("item = %+v", item)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != tt.wantPath {
					t.Errorf("path = %s, want %s", r.URL.Path, tt.wantPath)
				}
				_, _ = fmt.Fprint(w, tt.body)
			})

			items, err := client.ListItems(context.Background(), testUser, "c1", tt.kind)
			if err != nil {
				t.Fatalf("ListItems() error = %v", err)
			}
			if len(items) != 1 {
				t.Fatalf("ListItems() returned %d items, want 1", len(items))
			}
			tt.check(t, items[0])
		})
	}
}

func TestClient_EmptyListField(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{}`)
	})
	items, err := client.ListItems(context.Background(), testUser, "c1", content.KindMaterial)
	if err != nil || len(items) != 0 {
		t.Errorf("ListItems() = %v, %v; want empty", items, err)
	}
}

func TestClient_IsSubmitted(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{name: "turned in", body: `{"studentSubmissions":[{"state":"TURNED_IN"}]}`, want: true},
		{name: "returned", body: `{"studentSubmissions":[{"state":"RETURNED"}]}`, want: true},
		{name: "created", body: `{"studentSubmissions":[{"state":"CREATED"}]}`, want: false},
		{name: "none", body: `{}`, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/courses/c1/courseWork/w1/studentSubmissions" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if r.URL.Query().Get("userId") != "me" {
					t.Errorf("userId = %q, want me", r.URL.Query().Get("userId"))
				}
				_, _ = fmt.Fprint(w, tt.body)
			})

			got, err := client.IsSubmitted(context.Background(), testUser, "c1", "w1")
			if err != nil {
				t.Fatalf("IsSubmitted() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("IsSubmitted() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		user    storage.User
		status  int
		body    string
		wantErr error
	}{
		{name: "unauthorized", user: testUser, status: http.StatusUnauthorized, wantErr: ErrMissingCredential},
		{name: "forbidden", user: testUser, status: http.StatusForbidden, wantErr: ErrMissingCredential},
		{name: "server error", user: testUser, status: http.StatusInternalServerError, wantErr: ErrUnavailable},
		{name: "bad json", user: testUser, status: http.StatusOK, body: `{"courses":`, wantErr: ErrUnavailable},
		{name: "no credential", user: storage.User{ID: "u2"}, status: http.StatusOK, body: `{}`, wantErr: ErrMissingCredential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = fmt.Fprint(w, tt.body)
			})

			_, err := client.ListCourses(context.Background(), tt.user)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ListCourses() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestClient_UnreachableServer(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	client := NewClient(server.URL, 5)
	_, err := client.ListCourses(context.Background(), testUser)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("ListCourses() error = %v, want ErrUnavailable", err)
	}
}
