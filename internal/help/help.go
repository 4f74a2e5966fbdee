// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package help

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"metaview/internal/formatters"

	"github.com/fatih/color"
)

// TypeInfo describes one supported file type
type TypeInfo struct {
	Name        string   // Name of the type (e.g., "image")
	Extensions  []string // Extensions routed to the extractor
	Description string   // What is extracted
	Fields      []string // Typical property names
	Notes       []string // Edge cases worth knowing
}

// Provider defines the interface for help content providers
type Provider interface {
	GetTypeInfo() TypeInfo
}

// staticProvider serves a fixed TypeInfo
type staticProvider TypeInfo

func (p staticProvider) GetTypeInfo() TypeInfo { return TypeInfo(p) }

// System manages help content for the application
type System struct {
	out       io.Writer
	providers map[string]Provider
	noColor   bool
	colors    map[string]*color.Color
}

// NewSystem creates a help system writing to out with the built-in file
// types registered
func NewSystem(out io.Writer, noColor bool) *System {
	h := &System{
		out:       out,
		providers: make(map[string]Provider),
		noColor:   noColor,
		colors: map[string]*color.Color{
			"title":   color.New(color.FgWhite, color.Bold),
			"header":  color.New(color.FgBlue, color.Bold),
			"item":    color.New(color.FgCyan),
			"example": color.New(color.FgMagenta),
		},
	}
	for _, info := range builtinTypes {
		h.RegisterProvider(staticProvider(info))
	}
	return h
}

// RegisterProvider adds a help provider to the system
func (h *System) RegisterProvider(provider Provider) {
	info := provider.GetTypeInfo()
	h.providers[strings.ToLower(info.Name)] = provider
}

// Types returns the registered type names, sorted
func (h *System) Types() []string {
	names := make([]string, 0, len(h.providers))
	for name := range h.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (h *System) println(style, text string) {
	if h.noColor {
		fmt.Fprintln(h.out, text)
		return
	}
	h.colors[style].Fprintln(h.out, text)
}

// ShowGeneralHelp displays usage, options and examples
func (h *System) ShowGeneralHelp() {
	h.println("title", "metaview - File Metadata Reader")
	fmt.Fprintln(h.out, "===============================")
	fmt.Fprintln(h.out)
	h.println("header", "USAGE:")
	fmt.Fprintln(h.out, "  metaview -file <path> [options]")
	fmt.Fprintln(h.out, "  metaview -web [-port <port>]  # Web UI mode")
	fmt.Fprintln(h.out)

	h.println("header", "OPTIONS:")
	w := tabwriter.NewWriter(h.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  -file\t<path>\tFile to read (.jpg .jpeg .png .pdf .docx .doc)")
	fmt.Fprintln(w, "  -config\t<path>\tPath to configuration file (YAML)")
	fmt.Fprintln(w, "  -profile\t<name>\tProfile name to use from config file")
	fmt.Fprintln(w, "  -list-profiles\t\tList available profiles")
	fmt.Fprintf(w, "  -format\t<format>\tOutput format: %s (default: text)\n", strings.Join(formatters.List(), ", "))
	fmt.Fprintln(w, "  -list-formats\t\tList output formats")
	fmt.Fprintln(w, "  -output\t<path>\tWrite output to a file instead of stdout")
	fmt.Fprintln(w, "  -no-color\t\tDisable colored output")
	fmt.Fprintln(w, "  -no-map\t\tOmit map links for geotagged images")
	fmt.Fprintln(w, "  -strict\t\tReject files whose content does not match the extension")
	fmt.Fprintln(w, "  -debug\t\tLog routing and extraction steps to stderr")
	fmt.Fprintln(w, "  -web\t\tStart the web UI instead of reading a file")
	fmt.Fprintln(w, "  -port\t<port>\tPort for the web UI (default: 8080, falls back to 8080-8089)")
	fmt.Fprintln(w, "  -version\t\tShow version information")
	fmt.Fprintln(w, "  -help [topic]\t\tShow help; topics: formats, "+strings.Join(h.Types(), ", "))
	_ = w.Flush()

	fmt.Fprintln(h.out)
	h.println("header", "EXAMPLES:")
	h.println("example", "  metaview -file holiday.jpg")
	h.println("example", "  metaview -file report.pdf -format json -output report.json")
	h.println("example", "  metaview -file memo.doc -profile script")
	h.println("example", "  metaview -web -port 9000")

	fmt.Fprintln(h.out)
	h.println("header", "CONFIGURATION:")
	fmt.Fprintln(h.out, "  Project config: metaview.yaml or .metaview.yaml (in current directory)")
	fmt.Fprintln(h.out, "  User config: $XDG_CONFIG_HOME/metaview/config.yaml or ~/.metaview.yaml")
	fmt.Fprintln(h.out, "  Environment: METAVIEW_CONFIG_DIR overrides the config directory")
}

// ShowFormatsHelp lists the output formats
func (h *System) ShowFormatsHelp() {
	h.println("title", "Output Formats")
	fmt.Fprintln(h.out)
	w := tabwriter.NewWriter(h.out, 0, 0, 2, ' ', 0)
	for _, info := range formatters.GetSupportedFormats() {
		fmt.Fprintf(w, "  %s\t%s\t%s\n", info.Name, info.Extension, info.Description)
	}
	_ = w.Flush()
}

// ShowTypeHelp shows details for one file type. It returns false for an
// unknown type.
func (h *System) ShowTypeHelp(name string) bool {
	provider, ok := h.providers[strings.ToLower(name)]
	if !ok {
		return false
	}
	info := provider.GetTypeInfo()

	h.println("title", fmt.Sprintf("%s (%s)", info.Name, strings.Join(info.Extensions, ", ")))
	fmt.Fprintln(h.out, info.Description)

	if len(info.Fields) > 0 {
		fmt.Fprintln(h.out)
		h.println("header", "FIELDS:")
		for _, f := range info.Fields {
			h.println("item", "  "+f)
		}
	}
	if len(info.Notes) > 0 {
		fmt.Fprintln(h.out)
		h.println("header", "NOTES:")
		for _, n := range info.Notes {
			fmt.Fprintln(h.out, "  - "+n)
		}
	}
	return true
}

// Show dispatches a help topic. An empty topic prints general help.
func (h *System) Show(topic string) error {
	switch strings.ToLower(strings.TrimSpace(topic)) {
	case "":
		h.ShowGeneralHelp()
		return nil
	case "formats":
		h.ShowFormatsHelp()
		return nil
	}
	if h.ShowTypeHelp(topic) {
		return nil
	}
	return fmt.Errorf("unknown help topic '%s'. Available topics: formats, %s", topic, strings.Join(h.Types(), ", "))
}

var builtinTypes = []TypeInfo{
	{
		Name:        "image",
		Extensions:  []string{".jpg", ".jpeg", ".png"},
		Description: "EXIF tags by name plus format, mode and size. GPS positions are converted to decimal degrees with a map link.",
		Fields:      []string{"Format", "Mode", "Size", "Make", "Model", "DateTime"},
		Notes: []string{
			"Images without EXIF still report format, mode and size.",
			"Hemisphere references are compared case-insensitively.",
			"Malformed GPS data yields no location and no error.",
		},
	},
	{
		Name:        "pdf",
		Extensions:  []string{".pdf"},
		Description: "Document Info dictionary entries, page count and file size.",
		Fields:      []string{"Pages", "Title", "Author", "Producer", "CreationDate", "PDF Version", "File Size"},
	},
	{
		Name:        "docx",
		Extensions:  []string{".docx"},
		Description: "Core properties of the Office Open XML package.",
		Fields:      []string{"Author", "Title", "Subject", "Created", "Modified", "Last Modified By", "Revision"},
		Notes:       []string{"Properties that are missing or empty are omitted."},
	},
	{
		Name:        "doc",
		Extensions:  []string{".doc"},
		Description: "SummaryInformation of the legacy OLE compound file plus company and file size.",
		Fields:      []string{"Title", "Subject", "Author", "Last Saved By", "Created", "Revision Number", "Company", "File Size"},
		Notes:       []string{"A file without a SummaryInformation stream still reports file size."},
	},
}
