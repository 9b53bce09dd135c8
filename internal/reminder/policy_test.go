package reminder

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestParseThresholds(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []time.Duration
		wantErr bool
	}{
		{name: "hours", input: "24,12,6", want: hours(24, 12, 6)},
		{name: "spaces and blanks", input: " 2 , ,1 ", want: hours(2, 1)},
		{name: "durations", input: "90m,0.5", want: []time.Duration{90 * time.Minute, 30 * time.Minute}},
		{name: "garbage", input: "soon", wantErr: true},
		{name: "empty", input: " , ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseThresholds(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseThresholds() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPolicy) {
					t.Errorf("ParseThresholds() error = %v, want ErrInvalidPolicy", err)
				}
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseThresholds() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewPolicy(t *testing.T) {
	offset := time.FixedZone("UTC+8", 8*3600)
	p, err := NewPolicy("custom", hours(1, 24, 6, 24), 5*time.Minute, offset)
	if err != nil {
		t.Fatalf("NewPolicy() error = %v", err)
	}
	if !reflect.DeepEqual(p.Thresholds, hours(24, 6, 1)) {
		t.Errorf("Thresholds = %v, want sorted descending without duplicates", p.Thresholds)
	}
	if p.Max() != 24*time.Hour || p.Location != offset {
		t.Errorf("NewPolicy() = %+v", p)
	}

	for _, bad := range [][]time.Duration{nil, {0}, {-time.Hour}} {
		if _, err := NewPolicy("bad", bad, 0, nil); !errors.Is(err, ErrInvalidPolicy) {
			t.Errorf("NewPolicy(%v) error = %v, want ErrInvalidPolicy", bad, err)
		}
	}
	if _, err := NewPolicy("bad", hours(1), -time.Second, nil); err == nil {
		t.Error("NewPolicy() with negative grace should fail")
	}
}

func TestPolicyByName(t *testing.T) {
	tests := []struct {
		name    string
		want    []time.Duration
		wantErr bool
	}{
		{name: "", want: hours(24, 12, 6, 2, 1)},
		{name: "Standard", want: hours(24, 12, 6, 2, 1)},
		{name: "legacy", want: hours(24, 12, 6, 2)},
		{name: "weekly", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := PolicyByName(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("PolicyByName() error = %v", err)
			}
			if !tt.wantErr && !reflect.DeepEqual(p.Thresholds, tt.want) {
				t.Errorf("Thresholds = %v, want %v", p.Thresholds, tt.want)
			}
		})
	}
}

func TestLabel(t *testing.T) {
	tests := map[time.Duration]string{
		24 * time.Hour:   "24h",
		time.Hour:        "1h",
		90 * time.Minute: "90m",
	}
	for d, want := range tests {
		if got := Label(d); got != want {
			t.Errorf("Label(%v) = %q, want %q", d, got, want)
		}
	}
}
