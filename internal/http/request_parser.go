// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.

package http

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"cupsreport/internal/core"
)

const (
	// maxReportBytes bounds an uploaded report. The full menu is well under 10 KiB.
	maxReportBytes = 1 << 20
	maxFormBytes   = 4 << 10
	defaultUpload  = "upload.csv"
)

// CounterTarget identifies the counter a mutation applies to.
type CounterTarget struct {
	Category string
	Product  string
	Tier     core.Tier
}

// ParseCounterTarget reads category and product from the path and the tier
// from the query string (or form). A missing tier means fixed.
func ParseCounterTarget(r *http.Request) (CounterTarget, error) {
	tierStr := r.URL.Query().Get("tier")
	if tierStr == "" {
		tierStr = r.FormValue("tier")
	}
	tier, err := core.ParseTier(tierStr)
	if err != nil {
		return CounterTarget{}, err
	}
	return CounterTarget{
		Category: r.PathValue("category"),
		Product:  r.PathValue("product"),
		Tier:     tier,
	}, nil
}

// CashierForm holds the fields of the cashier performance form.
type CashierForm struct {
	Date    string
	Cashier string
}

// ParseCashierForm reads date and cashier from a form body of at most 4 KiB.
// Both values are free text and are returned exactly as sent.
func ParseCashierForm(w http.ResponseWriter, r *http.Request) (CashierForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return CashierForm{}, fmt.Errorf("parse form: %w", err)
	}
	return CashierForm{
		Date:    r.Form.Get("date"),
		Cashier: r.Form.Get("cashier"),
	}, nil
}

// ReportUpload returns the uploaded report body and a name for logging.
// Multipart uploads read the "file" field; any other body is the report itself.
// The caller must close the returned reader.
func ReportUpload(w http.ResponseWriter, r *http.Request) (io.ReadCloser, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxReportBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxReportBytes); err != nil {
			return nil, "", fmt.Errorf("parse upload: %w", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", fmt.Errorf("missing file field: %w", err)
		}
		return file, sanitizeInput(header.Filename), nil
	}

	name := sanitizeInput(r.URL.Query().Get("name"))
	if name == "" {
		name = defaultUpload
	}
	return r.Body, name, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 {
			return -1
		}
		return r
	}, s)
}
