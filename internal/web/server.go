// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"metaview/internal/config"
	"metaview/internal/formatters"
	"metaview/internal/observability"
	"metaview/internal/paths"
	"metaview/internal/router"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	// Import formatters to register them
	_ "metaview/internal/formatters/csv"
	_ "metaview/internal/formatters/json"
	_ "metaview/internal/formatters/msgpack"
	_ "metaview/internal/formatters/text"
	_ "metaview/internal/formatters/yaml"
)

// fallbackPortBase and fallbackPortCount define the range tried when the
// configured port is busy
const (
	fallbackPortBase  = 8080
	fallbackPortCount = 10
)

// Options configures a WebServer
type Options struct {
	Settings config.Defaults
	Web      config.WebConfig
	Map      config.MapConfig
	Observer *observability.StandardObserver
	// Logger receives request and application logs; nil logs JSON to stderr.
	Logger *logrus.Logger
	// Output receives startup messages; nil means stdout.
	Output io.Writer
}

// WebServer represents the web server instance
type WebServer struct {
	settings  config.Defaults
	web       config.WebConfig
	maps      config.MapConfig
	router    *router.FileRouter
	echo      *echo.Echo
	logger    *logrus.Logger
	output    io.Writer
	templates *template.Template
	tempDir   string
}

// NewWebServer creates a new web server instance with all routes registered
func NewWebServer(opts Options) (*WebServer, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(os.Stderr)
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
		if opts.Settings.Debug {
			logger.SetLevel(logrus.DebugLevel)
		}
	}
	output := opts.Output
	if output == nil {
		output = os.Stdout
	}

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("template validation failed: %w", err)
	}

	tempDir := opts.Web.TempDir
	if tempDir == "" {
		tempDir = paths.GetTempDir()
	}
	if err := os.MkdirAll(tempDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to prepare upload directory %s: %w", tempDir, err)
	}

	settings := opts.Settings
	if settings.MaxFileSizeMB <= 0 {
		settings.MaxFileSizeMB = router.MaxFileSize / (1024 * 1024)
	}

	ws := &WebServer{
		settings: settings,
		web:      opts.Web,
		maps:     opts.Map,
		router: router.NewFileRouter(router.Options{
			AllowedExtensions:  settings.AllowedExtensions,
			MaxFileSize:        settings.MaxFileSizeBytes(),
			StrictContentCheck: settings.StrictContentCheck,
			ProcessingTimeout:  settings.ProcessingTimeout,
		}, opts.Observer),
		logger:    logger,
		output:    output,
		templates: tmpl,
		tempDir:   tempDir,
	}
	ws.echo = ws.newEcho()
	return ws, nil
}

// newEcho builds the echo instance with middleware and routes
func (ws *WebServer) newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ws.errorHandler

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return !ws.web.RequestLogging || c.Request().URL.Path == "/health"
		},
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := ws.logger.WithFields(logrus.Fields{
				"method":     v.Method,
				"path":       v.URIPath,
				"status":     v.Status,
				"latency_ms": v.Latency.Milliseconds(),
				"remote_ip":  v.RemoteIP,
				"request_id": v.RequestID,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Warn("request")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			ws.logger.WithError(err).WithField("stack", string(stack)).Error("panic recovered")
			return err
		},
	}))
	e.Use(middleware.BodyLimit(strconv.FormatInt(ws.bodyLimit(), 10) + "B"))

	ws.setupRoutes(e)
	return e
}

// setupRoutes configures all HTTP route handlers
func (ws *WebServer) setupRoutes(e *echo.Echo) {
	e.GET("/", ws.serveHome)
	e.POST("/upload", ws.handleUpload)
	e.GET("/health", ws.handleHealth)

	api := e.Group("/api")
	api.POST("/metadata", ws.handleAPIMetadata)
	api.GET("/formats", ws.handleFormats)
}

// bodyLimit allows the file plus multipart framing overhead
func (ws *WebServer) bodyLimit() int64 {
	return ws.settings.MaxFileSizeBytes() + 1<<20
}

// formatterOptions derives formatter settings from the configuration
func (ws *WebServer) formatterOptions() formatters.FormatterOptions {
	return formatters.FormatterOptions{
		NoColor:         true,
		NoMap:           !ws.settings.ShowMap,
		MapsURLTemplate: ws.maps.MapsURLTemplate,
		MapSpan:         ws.maps.Span,
	}
}

// Handler returns the HTTP handler, for tests and embedding
func (ws *WebServer) Handler() http.Handler {
	return ws.echo
}

// Start listens on the configured port, falling back to 8080-8089 when it
// is busy, and serves until Shutdown
func (ws *WebServer) Start() error {
	var lastError error
	for i, port := range candidatePorts(ws.web.Port) {
		addr := net.JoinHostPort(ws.web.Host, strconv.Itoa(port))
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			lastError = err
			if i == 0 {
				fmt.Fprintf(ws.output, "Port %d is not available, trying alternative ports...\n", port)
			}
			continue
		}
		return ws.Serve(listener)
	}

	return fmt.Errorf("could not find an available port in range %d-%d\n"+
		"Last error: %v\n"+
		"Troubleshooting:\n"+
		"  1. Check if other services are using these ports: netstat -an | grep :808\n"+
		"  2. Try a specific port with -port <number>\n"+
		"  3. Ensure you have permission to bind to the requested port",
		fallbackPortBase, fallbackPortBase+fallbackPortCount-1, lastError)
}

// Serve serves on an existing listener
func (ws *WebServer) Serve(listener net.Listener) error {
	server := ws.createSecureServer()
	ws.echo.Listener = listener
	ws.echo.Server = server

	fmt.Fprintf(ws.output, "metaview web UI started on http://%s\n", displayAddr(listener.Addr()))
	ws.logger.WithField("addr", listener.Addr().String()).Info("web server started")

	if err := ws.echo.StartServer(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (ws *WebServer) Shutdown(ctx context.Context) error {
	return ws.echo.Shutdown(ctx)
}

// createSecureServer creates an HTTP server with security timeouts
func (ws *WebServer) createSecureServer() *http.Server {
	readTimeout := ws.web.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 60 * time.Second
	}
	writeTimeout := ws.web.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 60 * time.Second
	}
	return &http.Server{
		// Timeout for reading request headers (prevents slow header attacks)
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       120 * time.Second,
	}
}

// candidatePorts returns the configured port followed by the fallback range
func candidatePorts(configured int) []int {
	ports := make([]int, 0, fallbackPortCount+1)
	if configured > 0 {
		ports = append(ports, configured)
	}
	for p := fallbackPortBase; p < fallbackPortBase+fallbackPortCount; p++ {
		if p != configured {
			ports = append(ports, p)
		}
	}
	return ports
}

// displayAddr renders a listen address as a browsable host:port
func displayAddr(addr net.Addr) string {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok {
		return addr.String()
	}
	if tcp.IP == nil || tcp.IP.IsUnspecified() {
		return net.JoinHostPort("localhost", strconv.Itoa(tcp.Port))
	}
	return tcp.String()
}
