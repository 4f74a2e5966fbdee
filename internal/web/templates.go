// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package web

import (
	"bytes"
	"embed"
	"html/template"
	"strings"

	"metaview/internal/formatters/shared"
	"metaview/internal/metadata"
	"metaview/internal/version"

	"github.com/labstack/echo/v4"
)

//go:embed templates/index.html
var templateFS embed.FS

const pageTitle = "Metadata File Reader"

// page is the view model of the upload page
type page struct {
	Title      string
	Accept     string
	MaxSizeMB  int64
	Version    string
	Filename   string
	Error      string
	ErrorTitle string
	Preview    template.URL
	Rows       []row
	Location   *locationView
}

type row struct {
	Property string
	Value    string
}

type locationView struct {
	Latitude  string
	Longitude string
	MapsURL   string
	EmbedURL  string
}

func parseTemplates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/index.html")
}

// newPage returns an empty upload page
func (ws *WebServer) newPage() *page {
	return &page{
		Title:     pageTitle,
		Accept:    strings.Join(ws.router.AllowedExtensions(), ","),
		MaxSizeMB: ws.settings.MaxFileSizeMB,
		Version:   version.Short(),
	}
}

// resultPage fills the page with an extraction result. The preview is only
// shown for successful results.
func (ws *WebServer) resultPage(result metadata.Result, preview template.URL) *page {
	p := ws.newPage()
	p.Filename = result.Filename

	if result.IsError() {
		p.Error = result.Message()
		p.ErrorTitle = result.Kind().Title()
		return p
	}

	p.Preview = preview
	for _, r := range shared.Rows(result) {
		p.Rows = append(p.Rows, row{Property: r[0], Value: r[1]})
	}

	if loc := shared.BuildLocation(result, ws.formatterOptions()); loc != nil {
		view := &locationView{
			Latitude:  result.Location.LatitudeString(),
			Longitude: result.Location.LongitudeString(),
			MapsURL:   loc.MapsURL,
		}
		if ws.maps.EmbedProvider == "openstreetmap" {
			view.EmbedURL = loc.EmbedURL
		}
		p.Location = view
	}
	return p
}

// render executes the page template into a buffer so a template failure
// never produces a half-written response
func (ws *WebServer) render(c echo.Context, status int, p *page) error {
	var buf bytes.Buffer
	if err := ws.templates.ExecuteTemplate(&buf, "index.html", p); err != nil {
		return err
	}
	return c.HTMLBlob(status, buf.Bytes())
}
