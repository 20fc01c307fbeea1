package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"smartdash/internal/config"
	"smartdash/internal/models"
	"smartdash/internal/schema"
	"smartdash/internal/session"
)

const sampleCSV = "Date,Product,Region,Sales Amount\n" +
	"2024-01-05,Widget,North,100\n" +
	"2024-01-20,Widget,South,50\n" +
	"2024-02-01,Gadget,North,200\n"

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := &config.Config{
		MaxUploadBytes: 1 << 20,
		SessionTTL:     time.Hour,
		PreviewRows:    10,
		CurrencySymbol: "₹",
		DBRowLimit:     1000,
	}
	h := NewHandler(session.NewStore(cfg.SessionTTL), schema.NewInferencer(), cfg, zap.NewNop())
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func uploadCSV(t *testing.T, srv *httptest.Server, csv string) models.SessionResponse {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "sales.csv")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	fmt.Fprint(fw, csv)
	mw.Close()

	resp, err := http.Post(srv.URL+"/api/sessions", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload status got %d", resp.StatusCode)
	}
	var out models.SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func doJSON(t *testing.T, method, url string, body interface{}) *http.Response {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	return resp
}

func TestUploadCreatesSessionWithInferredMapping(t *testing.T) {
	srv := newServer(t)
	out := uploadCSV(t, srv, sampleCSV)

	if out.SessionID == "" {
		t.Fatalf("missing session id")
	}
	if out.View.TotalRows != 3 {
		t.Fatalf("total rows got %d", out.View.TotalRows)
	}
	if out.View.Mapping["revenue"] != "Sales Amount" || out.View.Mapping["region"] != "Region" {
		t.Fatalf("inferred mapping got %v", out.View.Mapping)
	}
	if out.View.KPIs.TotalRevenue != 350 {
		t.Fatalf("total revenue got %v", out.View.KPIs.TotalRevenue)
	}
}

func TestUploadReportsDetectedUnitCost(t *testing.T) {
	srv := newServer(t)
	out := uploadCSV(t, srv, "Product,Unit Cost,Sales Amount\nWidget,3,100\n")
	if out.UnitCostColumn != "Unit Cost" {
		t.Fatalf("unit cost detection got %q", out.UnitCostColumn)
	}
	if _, mapped := out.View.Mapping["unit_cost"]; mapped {
		t.Fatalf("unit cost must never enter the mapping: %v", out.View.Mapping)
	}
}

func TestUploadRejectsUnreadableFile(t *testing.T) {
	srv := newServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "sales.csv")
	fmt.Fprint(fw, "Amount,Amount\n1,2\n")
	mw.Close()

	resp, err := http.Post(srv.URL+"/api/sessions", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("duplicate headers must 400, got %d", resp.StatusCode)
	}
	var e models.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
		t.Fatalf("expected error body, got %v %v", e, err)
	}
}

func TestUnknownSessionReturns404(t *testing.T) {
	srv := newServer(t)
	resp, err := http.Get(srv.URL + "/api/sessions/nope/view")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status got %d want 404", resp.StatusCode)
	}
}

func TestFilterRoundTrip(t *testing.T) {
	srv := newServer(t)
	out := uploadCSV(t, srv, sampleCSV)
	url := srv.URL + "/api/sessions/" + out.SessionID + "/filters"

	resp := doJSON(t, http.MethodPut, url, models.FilterRequest{Role: "region", Values: []string{"North"}})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("filter status got %d", resp.StatusCode)
	}
	var got models.SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.View.FilteredRows != 2 {
		t.Fatalf("filtered rows got %d want 2", got.View.FilteredRows)
	}
	if got.View.KPIs.TotalRevenue != 300 {
		t.Fatalf("filtered revenue got %v want 300", got.View.KPIs.TotalRevenue)
	}
}

func TestFilterRejectsUnknownValue(t *testing.T) {
	srv := newServer(t)
	out := uploadCSV(t, srv, sampleCSV)
	url := srv.URL + "/api/sessions/" + out.SessionID + "/filters"

	resp := doJSON(t, http.MethodPut, url, models.FilterRequest{Role: "region", Values: []string{"Atlantis"}})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown value must 400, got %d", resp.StatusCode)
	}
}

func TestMappingUpdateClearsAffectedFilter(t *testing.T) {
	srv := newServer(t)
	out := uploadCSV(t, srv, sampleCSV)
	base := srv.URL + "/api/sessions/" + out.SessionID

	resp := doJSON(t, http.MethodPut, base+"/filters", models.FilterRequest{Role: "region", Values: []string{"North"}})
	resp.Body.Close()

	// Remap region to the product column; the stale selection must go.
	resp = doJSON(t, http.MethodPut, base+"/mapping", models.MappingRequest{Mapping: map[string]string{"region": "Product"}})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("mapping status got %d", resp.StatusCode)
	}
	var got models.SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.View.Filters["region"]) != 0 {
		t.Fatalf("region filter must be cleared after remap, got %v", got.View.Filters)
	}
	if got.View.FilteredRows != 3 {
		t.Fatalf("all rows must be back, got %d", got.View.FilteredRows)
	}
}

func TestMappingRejectsUnknownColumn(t *testing.T) {
	srv := newServer(t)
	out := uploadCSV(t, srv, sampleCSV)
	url := srv.URL + "/api/sessions/" + out.SessionID + "/mapping"

	resp := doJSON(t, http.MethodPut, url, models.MappingRequest{Mapping: map[string]string{"revenue": "Nope"}})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown column must 400, got %d", resp.StatusCode)
	}
}

func TestPreferencesUpdate(t *testing.T) {
	srv := newServer(t)
	out := uploadCSV(t, srv, sampleCSV)
	url := srv.URL + "/api/sessions/" + out.SessionID + "/preferences"

	dark := "dark"
	full := true
	resp := doJSON(t, http.MethodPut, url, models.PreferencesRequest{Theme: &dark, ShowFullPreview: &full})
	defer resp.Body.Close()
	var got models.SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.View.Theme != "dark" || !got.View.ShowFullPreview {
		t.Fatalf("preferences not applied: %+v", got.View)
	}
	// Mapping must survive preference changes.
	if got.View.Mapping["revenue"] != "Sales Amount" {
		t.Fatalf("mapping lost after preferences update: %v", got.View.Mapping)
	}
}

func TestExportCSVDownload(t *testing.T) {
	srv := newServer(t)
	out := uploadCSV(t, srv, sampleCSV)

	resp, err := http.Get(srv.URL + "/api/sessions/" + out.SessionID + "/export/csv")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "filtered_sales.csv") {
		t.Fatalf("content disposition got %q", cd)
	}
	var body bytes.Buffer
	body.ReadFrom(resp.Body)
	if !strings.HasPrefix(body.String(), "Date,Product,Region,Sales Amount\n") {
		t.Fatalf("csv body got %q", body.String())
	}
}

func TestExportReportDownload(t *testing.T) {
	srv := newServer(t)
	out := uploadCSV(t, srv, sampleCSV)

	resp, err := http.Get(srv.URL + "/api/sessions/" + out.SessionID + "/export/report")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("content type got %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "SmartDash_Report.pdf") {
		t.Fatalf("content disposition got %q", cd)
	}
	var body bytes.Buffer
	body.ReadFrom(resp.Body)
	if !bytes.HasPrefix(body.Bytes(), []byte("%PDF")) {
		t.Fatalf("report is not a PDF")
	}
}

func TestDeleteSession(t *testing.T) {
	srv := newServer(t)
	out := uploadCSV(t, srv, sampleCSV)
	base := srv.URL + "/api/sessions/" + out.SessionID

	resp := doJSON(t, http.MethodDelete, base, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status got %d", resp.StatusCode)
	}
	resp, err := http.Get(base + "/view")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("deleted session must 404, got %d", resp.StatusCode)
	}
}

func TestConcurrentSessionUpdates(t *testing.T) {
	srv := newServer(t)
	out := uploadCSV(t, srv, sampleCSV)
	base := srv.URL + "/api/sessions/" + out.SessionID

	put := func(path string, body interface{}) error {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		req, err := http.NewRequest(http.MethodPut, base+path, bytes.NewReader(b))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("status %d for %s", resp.StatusCode, path)
		}
		return nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := put("/filters", models.FilterRequest{Role: "region", Values: []string{"North"}}); err != nil {
				t.Errorf("filter: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			full := true
			if err := put("/preferences", models.PreferencesRequest{ShowFullPreview: &full}); err != nil {
				t.Errorf("preferences: %v", err)
			}
		}()
	}
	wg.Wait()

	resp, err := http.Get(base + "/view")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var got models.SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.View.Mapping["revenue"] != "Sales Amount" {
		t.Fatalf("mapping corrupted by concurrent updates: %v", got.View.Mapping)
	}
	if got.View.FilteredRows != 2 {
		t.Fatalf("filter lost, got %d rows", got.View.FilteredRows)
	}
}

func TestDBEndpointsRequireConnection(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Get(srv.URL + "/api/db/tables")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("tables without connection must 400, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/db/load", models.DBLoadRequest{Table: "sales"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("load without connection must 400, got %d", resp.StatusCode)
	}
}
