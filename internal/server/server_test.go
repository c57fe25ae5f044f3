package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/complykit/screendiff"
	"github.com/complykit/screendiff/internal/sources"
	"github.com/complykit/screendiff/pkg/logging"
	"github.com/complykit/screendiff/pkg/screening"
)

type stubSource struct {
	id      screening.SourceID
	matches map[string][]screening.MatchRecord
}

func (s *stubSource) ID() screening.SourceID { return s.id }

func (s *stubSource) Screen(_ context.Context, name string) ([]screening.MatchRecord, error) {
	return s.matches[name], nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	registry := sources.NewSources()
	registry.Set(screening.SourceV2, &stubSource{
		id: screening.SourceV2,
		matches: map[string][]screening.MatchRecord{
			"Alice Doe": {
				{Source: screening.SourceV2, EntityID: "1", EntityName: "DOE, Alice"},
				{Source: screening.SourceV2, EntityID: "2", EntityName: "DOE, Alicia"},
			},
		},
	})
	registry.Set(screening.SourceV4, &stubSource{
		id: screening.SourceV4,
		matches: map[string][]screening.MatchRecord{
			"Alice Doe": {
				{Source: screening.SourceV4, EntityID: "2", EntityName: "DOE, Alicia"},
			},
		},
	})

	screener, err := screendiff.New(
		screendiff.WithRegistry(registry),
		screendiff.WithLogger(logging.NewNopLogger()),
	)
	require.NoError(t, err)

	return New(screener, ":0", logging.NewNopLogger())
}

func uploadBody(t *testing.T, names ...string) (*bytes.Buffer, string) {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A1", "Name"))
	for i, name := range names {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, name))
	}

	var workbook bytes.Buffer
	require.NoError(t, f.Write(&workbook))
	require.NoError(t, f.Close())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "names.xlsx")
	require.NoError(t, err)
	_, err = part.Write(workbook.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &body, mw.FormDataContentType()
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealthz(t *testing.T) {
	handler := newTestServer(t).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Nil(t, resp.Error)
}

func TestListBeforeAnyRun(t *testing.T) {
	handler := newTestServer(t).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/screenings", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestCreateRejectsMissingFile(t *testing.T) {
	handler := newTestServer(t).Handler()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("other", "value"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/screenings", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadScreenAndExport(t *testing.T) {
	handler := newTestServer(t).Handler()

	body, contentType := uploadBody(t, "Alice Doe", "Bob Smith")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/screenings", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decodeEnvelope(t, rec)
	assert.Nil(t, resp.Error)

	// Raw results are now listable.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/screenings", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	data, ok := decodeEnvelope(t, rec).Data.(map[string]any)
	require.True(t, ok)
	names, ok := data["names"].([]any)
	require.True(t, ok)
	assert.Len(t, names, 2)

	// Export streams a workbook with the requested sheets.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/screenings/export?views=all,common", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	workbook, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer func() { _ = workbook.Close() }()
	assert.ElementsMatch(t, []string{"All Results", "Common Only"}, workbook.GetSheetList())
}

func TestExportRejectsUnknownView(t *testing.T) {
	handler := newTestServer(t).Handler()

	body, contentType := uploadBody(t, "Alice Doe")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/screenings", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/screenings/export?views=bogus", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
