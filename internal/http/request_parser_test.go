package http

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"cupsreport/internal/core"
)

func TestParseCounterTarget(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		body    string
		want    core.Tier
		wantErr error
	}{
		{"query tier", "/x?tier=Grande", "", core.TierGrande, nil},
		{"form tier", "/x", "tier=medio", core.TierMedio, nil},
		{"default fixed", "/x", "", core.TierFixed, nil},
		{"invalid", "/x?tier=large", "", "", core.ErrInvalidTier},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, tt.target, strings.NewReader(tt.body))
			r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			r.SetPathValue("category", "Brosty")
			r.SetPathValue("product", "BB")

			got, err := ParseCounterTarget(r)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseCounterTarget() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && (got.Tier != tt.want || got.Category != "Brosty" || got.Product != "BB") {
				t.Errorf("ParseCounterTarget() = %+v", got)
			}
		})
	}
}

func TestParseCashierForm(t *testing.T) {
	long := strings.Repeat("A", 200)
	form := url.Values{"date": {"  10/19/2026 "}, "cashier": {long}}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	got, err := ParseCashierForm(httptest.NewRecorder(), r)
	if err != nil {
		t.Fatalf("ParseCashierForm() error = %v", err)
	}
	if got.Date != "  10/19/2026 " || got.Cashier != long {
		t.Errorf("ParseCashierForm() = %+v", got)
	}
}

func TestReportUploadRawBody(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/report/load", strings.NewReader("Category,Product\n"))
	body, name, err := ReportUpload(httptest.NewRecorder(), r)
	if err != nil {
		t.Fatalf("ReportUpload() error = %v", err)
	}
	defer body.Close()
	data, _ := io.ReadAll(body)
	if name != defaultUpload || string(data) != "Category,Product\n" {
		t.Errorf("ReportUpload() = %q, %q", name, data)
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput(" a\tb\r\nc "); got != "a\tbc" {
		t.Errorf("sanitizeInput() = %q", got)
	}
}
