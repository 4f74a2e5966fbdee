// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metaview/internal/config"
	"metaview/internal/formatters/shared"
	"metaview/internal/geo"
	"metaview/internal/metadata"
)

type testServer struct {
	*WebServer
	logs *bytes.Buffer
}

func newTestServer(t *testing.T, mutate func(*Options)) *testServer {
	t.Helper()
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	settings, err := cfg.Effective("")
	require.NoError(t, err)

	logs := &bytes.Buffer{}
	logger := logrus.New()
	logger.SetOutput(logs)
	logger.SetFormatter(&logrus.JSONFormatter{})

	web := cfg.Web
	web.TempDir = t.TempDir()
	opts := Options{
		Settings: settings,
		Web:      web,
		Map:      cfg.Map,
		Logger:   logger,
		Output:   io.Discard,
	}
	if mutate != nil {
		mutate(&opts)
	}

	ws, err := NewWebServer(opts)
	require.NoError(t, err)
	return &testServer{WebServer: ws, logs: logs}
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	return rec
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func uploadRequest(t *testing.T, target, filename string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if filename != "" {
		part, err := mw.CreateFormFile(uploadField, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	return req
}

func assertTempDirEmpty(t *testing.T, ts *testServer) {
	t.Helper()
	entries, err := os.ReadDir(ts.tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "staged uploads must be removed")
}

func TestServeHome(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")
	assert.Contains(t, rec.Body.String(), "Metadata File Reader")
	assert.Contains(t, rec.Body.String(), `accept=".doc,.docx,.jpeg,.jpg,.pdf,.png"`)
	assert.Contains(t, rec.Body.String(), "max 50 MB")
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	assert.NotContains(t, rec.Body.String(), "Metadata for:")
}

func TestHandleUpload_Image(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(uploadRequest(t, "/upload", "pixel.png", pngBytes(t)))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Metadata for: pixel.png")
	assert.Contains(t, body, `src="data:image/png;base64,`)
	assert.Contains(t, body, "<th>Property</th>")
	assert.Contains(t, body, "<td>Size</td>")
	assert.NotContains(t, body, `role="alert"`)
	assertTempDirEmpty(t, ts)
}

func TestHandleUpload_PreviewCap(t *testing.T) {
	ts := newTestServer(t, func(o *Options) { o.Web.MaxPreviewKB = 0 })

	rec := ts.do(uploadRequest(t, "/upload", "pixel.png", pngBytes(t)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "data:image")
	assert.Contains(t, rec.Body.String(), "<td>Size</td>")
}

func TestHandleUpload_ExtractionFailure(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  []byte
		want     string
	}{
		{"unsupported", "notes.txt", []byte("hello"), "Unsupported file format: .txt"},
		{"corrupt pdf", "broken.pdf", []byte("not a pdf at all"), "Corrupt File"},
		{"image with bad bytes", "fake.png", []byte("definitely not png"), "Corrupt File"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, nil)

			rec := ts.do(uploadRequest(t, "/upload", tt.filename, tt.content))

			require.Equal(t, http.StatusOK, rec.Code)
			body := rec.Body.String()
			assert.Contains(t, body, "Metadata for: "+tt.filename)
			assert.Contains(t, body, `role="alert"`)
			assert.Contains(t, body, tt.want)
			assert.NotContains(t, body, "data:image")
			assert.NotContains(t, body, "<th>Property</th>")
			assertTempDirEmpty(t, ts)
		})
	}
}

func TestHandleUpload_MissingFile(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(uploadRequest(t, "/upload", "", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")
	assert.Contains(t, rec.Body.String(), "validation failed for field: file")
}

func TestHandleUpload_PathInFilename(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(uploadRequest(t, "/upload", `..\..\windows\pixel.png`, pngBytes(t)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Metadata for: pixel.png")
	assertTempDirEmpty(t, ts)
}

func TestHandleAPIMetadata(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(uploadRequest(t, "/api/metadata", "pixel.png", pngBytes(t)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get(echo.HeaderContentType))
	assert.Empty(t, rec.Header().Get(echo.HeaderContentDisposition))

	var report shared.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "pixel.png", report.File)
	assert.Equal(t, "image", report.Format)
	assert.NotEmpty(t, report.Metadata)
	assert.Nil(t, report.Error)
	assertTempDirEmpty(t, ts)
}

func TestHandleAPIMetadata_Download(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(uploadRequest(t, "/api/metadata?format=CSV&download=1", "pixel.png", pngBytes(t)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "attachment; filename=pixel-metadata.csv", rec.Header().Get(echo.HeaderContentDisposition))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Property,Value\n"))
}

func TestHandleAPIMetadata_ExtractionFailure(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(uploadRequest(t, "/api/metadata", "broken.pdf", []byte("not a pdf at all")))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var report shared.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.NotNil(t, report.Error)
	assert.Equal(t, string(metadata.ErrorKindCorruptFile), report.Error.Kind)
	assert.Empty(t, report.Metadata)
	assertTempDirEmpty(t, ts)
}

func TestHandleAPIMetadata_UnknownFormat(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(uploadRequest(t, "/api/metadata?format=sarif", "pixel.png", pngBytes(t)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, "BAD_REQUEST", apiErr.Code)
	assert.Equal(t, "unsupported format 'sarif'", apiErr.Message)
	assert.Contains(t, apiErr.Details, "csv, json, msgpack, text, yaml")
	assertTempDirEmpty(t, ts)
}

func TestBodyLimit(t *testing.T) {
	ts := newTestServer(t, func(o *Options) { o.Settings.MaxFileSizeMB = 1 })

	big := bytes.Repeat([]byte{0}, 3*1024*1024)
	rec := ts.do(uploadRequest(t, "/api/metadata", "huge.png", big))

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, "TOO_LARGE", apiErr.Code)
	assert.Equal(t, "File exceeds the maximum allowed size of 1 MB", apiErr.Message)
	assertTempDirEmpty(t, ts)
}

func TestHandleFormats(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/formats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Formats []struct {
			Name     string `json:"name"`
			MimeType string `json:"mime_type"`
		} `json:"formats"`
		Default string `json:"default"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Formats, 5)
	assert.Equal(t, "json", body.Default)
}

func TestHandleHealth(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "metaview-web", body["service"])
	assert.Contains(t, body, "build_info")
	// Health probes are not request-logged
	assert.NotContains(t, ts.logs.String(), `"path":"/health"`)
}

func TestNotFound_JSONForAPI(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, "HTTP_ERROR", apiErr.Code)
}

func TestRecoverMiddleware(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.echo.GET("/api/panic", func(c echo.Context) error { panic("boom") })

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, ts.logs.String(), "panic recovered")
}

func TestRequestLogging(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, ts.logs.String(), `"msg":"request"`)
	assert.Contains(t, ts.logs.String(), `"path":"/"`)

	quiet := newTestServer(t, func(o *Options) { o.Web.RequestLogging = false })
	quiet.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotContains(t, quiet.logs.String(), `"msg":"request"`)
}

func TestToAPIError(t *testing.T) {
	ts := newTestServer(t, nil)

	assert.Equal(t, "UNKNOWN_ERROR", ts.toAPIError(errors.New("secret detail")).Code)
	assert.Empty(t, ts.toAPIError(errors.New("secret detail")).Details)

	ts.settings.Debug = true
	assert.Equal(t, "secret detail", ts.toAPIError(errors.New("secret detail")).Details)

	apiErr := NewValidationError("file", "missing")
	assert.Same(t, apiErr, ts.toAPIError(apiErr))
	assert.Equal(t, "VALIDATION_ERROR: validation failed for field: file", apiErr.Error())
}

func TestResultPage_Location(t *testing.T) {
	loc := geo.Coordinates{Latitude: 40.446111, Longitude: -79.982222}
	result := metadata.Success("photo.jpg", "image", metadata.NewRecord(), &loc)

	tests := []struct {
		name      string
		mutate    func(*Options)
		wantMaps  bool
		wantEmbed bool
	}{
		{"defaults", nil, true, true},
		{"embed disabled", func(o *Options) { o.Map.EmbedProvider = "none" }, true, false},
		{"map hidden", func(o *Options) { o.Settings.ShowMap = false }, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, tt.mutate)
			p := ts.resultPage(result, "")

			require.NotNil(t, p.Location)
			assert.Equal(t, "40.446111", p.Location.Latitude)
			assert.Equal(t, "-79.982222", p.Location.Longitude)
			assert.Equal(t, tt.wantMaps, p.Location.MapsURL != "")
			assert.Equal(t, tt.wantEmbed, p.Location.EmbedURL != "")

			rec := httptest.NewRecorder()
			c := ts.echo.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			require.NoError(t, ts.render(c, http.StatusOK, p))
			body := rec.Body.String()
			assert.Contains(t, body, "Latitude: 40.446111, Longitude: -79.982222")
			assert.Equal(t, tt.wantMaps, strings.Contains(body, "https://www.google.com/maps?q=40.446111,-79.982222"))
			assert.Equal(t, tt.wantEmbed, strings.Contains(body, "openstreetmap.org/export/embed.html"))
		})
	}
}

func TestResultPage_ErrorHidesPreview(t *testing.T) {
	ts := newTestServer(t, nil)
	result := metadata.Failure("bad.jpg", "image", metadata.NewExtractionError(
		"/tmp/bad.jpg", "image", metadata.ErrorKindCorruptFile, "Failed to extract image metadata", nil))

	p := ts.resultPage(result, "data:image/png;base64,AAAA")

	assert.Empty(t, p.Preview)
	assert.Empty(t, p.Rows)
	assert.Equal(t, "Corrupt File", p.ErrorTitle)
	assert.Equal(t, "Failed to extract image metadata", p.Error)
}

func TestCandidatePorts(t *testing.T) {
	ports := candidatePorts(9090)
	assert.Len(t, ports, 11)
	assert.Equal(t, 9090, ports[0])
	assert.Equal(t, 8080, ports[1])

	ports = candidatePorts(8083)
	assert.Len(t, ports, 10)
	assert.Equal(t, 8083, ports[0])
	assert.NotContains(t, ports[1:], 8083)

	ports = candidatePorts(0)
	assert.Equal(t, []int{8080, 8081, 8082, 8083, 8084, 8085, 8086, 8087, 8088, 8089}, ports)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"photo.jpg", "photo.jpg"},
		{"../../etc/passwd.pdf", "passwd.pdf"},
		{`C:\Users\me\report.docx`, "report.docx"},
		{"name\x00with\nctrl.png", "namewithctrl.png"},
		{"  spaced.doc  ", "spaced.doc"},
		{"..", ""},
		{"", ""},
		{strings.Repeat("a", 300) + ".pdf", strings.Repeat("a", 251) + ".pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeFilename(tt.in))
		})
	}
}
