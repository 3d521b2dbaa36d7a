package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, query string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	rec := httptest.NewRecorder()
	return FromContext(e.NewContext(req, rec))
}

func TestFromContext(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", DefaultLimit, 0},
		{"explicit", "limit=5&offset=30", 5, 30},
		{"limit capped", "limit=500", MaxLimit, 0},
		{"zero limit", "limit=0", DefaultLimit, 0},
		{"negative offset", "offset=-3", DefaultLimit, 0},
		{"garbage", "limit=abc&offset=xyz", DefaultLimit, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := paramsFor(t, tt.query)
			if p.Limit != tt.wantLimit || p.Offset != tt.wantOffset {
				t.Errorf("params = %+v, want limit %d offset %d", p, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestResponseHasMore(t *testing.T) {
	if r := NewResponse(nil, 50, 20, 0); !r.HasMore {
		t.Error("50 total at offset 0 should have more")
	}
	if r := NewResponse(nil, 50, 20, 40); r.HasMore {
		t.Error("last page should not have more")
	}
}

func TestParamsNext(t *testing.T) {
	p := Params{Limit: 20, Offset: 20}
	if !p.HasNext(50) {
		t.Error("HasNext(50) = false")
	}
	if p.HasNext(40) {
		t.Error("HasNext(40) = true at the boundary")
	}
	if got := p.NextOffset(); got != 40 {
		t.Errorf("NextOffset = %d, want 40", got)
	}
}
