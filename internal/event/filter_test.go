package event

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParseStatusFilter(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []Status
		wantErr error
	}{
		{"empty means no filter", "", nil, nil},
		{"single", "WAITING", []Status{StatusWaiting}, nil},
		{"multiple", "WAITING,ACTIVE", []Status{StatusWaiting, StatusActive}, nil},
		{"unknown value", "WAITING,BOGUS", nil, ErrInvalidStatusFilter},
		{"lowercase rejected", "waiting", nil, ErrInvalidStatusFilter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStatusFilter(tt.raw)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestParseKeywords(t *testing.T) {
	if got := ParseKeywords(""); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
	if got := ParseKeywords("mountain trip"); !reflect.DeepEqual(got, []string{"mountain", "trip"}) {
		t.Fatalf("unexpected keywords: %v", got)
	}
}

func TestBuildWhereKeywords(t *testing.T) {
	where, args := buildWhere(ListFilter{
		Statuses: []Status{StatusWaiting},
		Keywords: []string{"mountain"},
	})

	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(args))
	}
	if args[1] != "%mountain%" {
		t.Fatalf("expected substring pattern, got %v", args[1])
	}
	if !strings.Contains(where, "LIKE") {
		t.Fatalf("expected a LIKE clause, got %q", where)
	}
	if !strings.Contains(where, "= ANY") {
		t.Fatalf("expected a status inclusion clause, got %q", where)
	}
}

func TestBuildWhereExclusion(t *testing.T) {
	where, _ := buildWhere(ListFilter{
		Statuses: []Status{StatusPassed},
		Exclude:  true,
	})
	if !strings.Contains(where, "!= ALL") {
		t.Fatalf("expected a status exclusion clause, got %q", where)
	}
}

func TestBuildWhereEmpty(t *testing.T) {
	where, args := buildWhere(ListFilter{})
	if where != "" || args != nil {
		t.Fatalf("expected empty clause, got %q with %v", where, args)
	}
}
