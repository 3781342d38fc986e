package staticsvc

import (
	"net/http"
	"os"
	"path"

	"github.com/mkrupp/homecase-checkout/internal/infra/logging"
	http_ "github.com/mkrupp/homecase-checkout/internal/infra/transport/http"
)

// StaticConfig contains configuration parameters for static asset serving.
type StaticConfig struct {
	// Dir is the directory files are served from
	Dir string `env:"STATIC_DIR" default:"views"`
}

// HTTPTransport serves files from a directory unmodified.
type HTTPTransport struct {
	files http.Handler
	log   logging.Logger
	cfg   StaticConfig
}

// NewHTTPTransport creates a new HTTPTransport serving cfg.Dir.
func NewHTTPTransport(cfg StaticConfig) *HTTPTransport {
	return &HTTPTransport{
		files: http.FileServer(indexOnlyFS{http.Dir(cfg.Dir)}),
		log:   logging.GetLogger("svc.staticsvc.http_transport"),
		cfg:   cfg,
	}
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// ServeHTTP implements http.Handler by delegating to the file server.
// Missing files and directories without an index.html yield 404.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ht.log.DebugContext(r.Context(), "serve static file", "dir", ht.cfg.Dir, "path", r.URL.Path)
	ht.files.ServeHTTP(w, r)
}

// indexOnlyFS hides directories that have no index.html, so the file server
// never renders a directory listing.
type indexOnlyFS struct {
	fs http.FileSystem
}

func (fsys indexOnlyFS) Open(name string) (http.File, error) {
	f, err := fsys.fs.Open(name)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()

		return nil, err //nolint:wrapcheck
	}

	if !info.IsDir() {
		return f, nil
	}

	index, err := fsys.fs.Open(path.Join(name, "index.html"))
	if err != nil {
		f.Close()

		return nil, os.ErrNotExist
	}

	index.Close()

	return f, nil
}
