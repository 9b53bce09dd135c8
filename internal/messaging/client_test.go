package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClient_Send(t *testing.T) {
	tests := []struct {
		name     string
		format   Format
		text     string
		status   int
		wantText string
		wantErr  bool
	}{
		{
			name:     "plain text",
			format:   FormatText,
			text:     "Reminder: **Lab 3**",
			status:   http.StatusAccepted,
			wantText: "Reminder: Lab 3",
		},
		{
			name:     "html rendering",
			format:   FormatHTML,
			text:     "Reminder: **Lab 3**",
			status:   http.StatusOK,
			wantText: "<p>Reminder: <strong>Lab 3</strong></p>",
		},
		{
			name:    "gateway error",
			format:  FormatText,
			text:    "hi",
			status:  http.StatusBadGateway,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/v1/messages" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer secret" {
					t.Errorf("Authorization = %q", got)
				}
				var req sendRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("decode request: %v", err)
				}
				if !tt.wantErr {
					if req.To != "chat-42" {
						t.Errorf("To = %q, want chat-42", req.To)
					}
					if req.Text != tt.wantText {
						t.Errorf("Text = %q, want %q", req.Text, tt.wantText)
					}
					if req.Format != tt.format {
						t.Errorf("Format = %q, want %q", req.Format, tt.format)
					}
				}
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := NewClient(server.URL, "secret", tt.format)
			err := client.Send(context.Background(), "chat-42", tt.text)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Send() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrDeliveryFailed) {
				t.Errorf("Send() error = %v, want ErrDeliveryFailed", err)
			}
		})
	}
}

func TestClient_SendRejectsEmptyHandle(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "", "")
	if err := client.Send(context.Background(), " ", "hi"); !errors.Is(err, ErrDeliveryFailed) {
		t.Errorf("Send() error = %v, want ErrDeliveryFailed", err)
	}
	if client.Format != FormatText {
		t.Errorf("default Format = %q, want text", client.Format)
	}
}

func TestLogMessenger(t *testing.T) {
	if err := NewLogMessenger().Send(context.Background(), "h", "text"); err != nil {
		t.Errorf("Send() error = %v", err)
	}
	if !strings.Contains(FormatSearchResults(nil, nil), "No matching") {
		t.Error("empty results should say nothing matched")
	}
}
