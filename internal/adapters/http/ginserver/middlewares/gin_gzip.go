package middlewares

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vshulcz/Perfwatch/internal/misc"
)

var (
	gzipReaders = misc.NewPool(func() *gzip.Reader { return new(gzip.Reader) }, nil, nil)
	gzipWriters = misc.NewPool(func() *gzip.Writer { return gzip.NewWriter(io.Discard) }, nil, nil)
)

func acceptsGzip(header string) bool {
	return strings.Contains(strings.ToLower(header), "gzip")
}

// compressible lists the bodies perfwatch produces: reports, warnings and plain-text errors.
func compressible(contentType string) bool {
	for _, p := range []string{"application/json", "text/plain", "text/html"} {
		if strings.HasPrefix(contentType, p) {
			return true
		}
	}
	return false
}

// pooledReader hands its gzip.Reader back to the pool on Close.
type pooledReader struct {
	gz  *gzip.Reader
	raw io.Closer
}

func (r *pooledReader) Read(p []byte) (int, error) {
	if r.gz == nil {
		return 0, io.ErrClosedPipe
	}
	return r.gz.Read(p)
}

func (r *pooledReader) Close() error {
	if r.gz != nil {
		err := r.gz.Close()
		gzipReaders.Put(r.gz)
		r.gz = nil
		if err != nil {
			return err
		}
	}
	if r.raw != nil {
		return r.raw.Close()
	}
	return nil
}

// GzipRequest decompresses request bodies sent with Content-Encoding: gzip.
// A body that is not valid gzip is rejected with 400.
func GzipRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !acceptsGzip(c.GetHeader("Content-Encoding")) {
			c.Next()
			return
		}
		gz := gzipReaders.Get()
		if err := gz.Reset(c.Request.Body); err != nil {
			gzipReaders.Put(gz)
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}
		pr := &pooledReader{gz: gz, raw: c.Request.Body}
		c.Request.Body = pr
		c.Request.Header.Del("Content-Encoding")
		c.Request.Header.Del("Content-Length")
		c.Request.ContentLength = -1
		defer pr.Close()
		c.Next()
	}
}

// gzipWriter decides on the first write whether the response is worth compressing.
type gzipWriter struct {
	gin.ResponseWriter
	gz      *gzip.Writer
	decided bool
}

func (w *gzipWriter) start() {
	if w.decided {
		return
	}
	w.decided = true
	if status := w.Status(); status == http.StatusNoContent || status < http.StatusOK {
		return
	}
	if !compressible(w.Header().Get("Content-Type")) {
		return
	}
	w.Header().Del("Content-Length")
	w.Header().Set("Content-Encoding", "gzip")
	w.gz = gzipWriters.Get()
	w.gz.Reset(w.ResponseWriter)
}

func (w *gzipWriter) Write(p []byte) (int, error) {
	w.start()
	if w.gz != nil {
		return w.gz.Write(p)
	}
	return w.ResponseWriter.Write(p)
}

func (w *gzipWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func (w *gzipWriter) finish() error {
	if w.gz == nil {
		return nil
	}
	err := w.gz.Close()
	w.gz.Reset(io.Discard)
	gzipWriters.Put(w.gz)
	w.gz = nil
	return err
}

// GzipResponse compresses JSON and text responses for clients that accept gzip.
func GzipResponse() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Vary", "Accept-Encoding")
		if !acceptsGzip(c.GetHeader("Accept-Encoding")) {
			c.Next()
			return
		}
		gw := &gzipWriter{ResponseWriter: c.Writer}
		c.Writer = gw
		c.Next()
		if err := gw.finish(); err != nil {
			_ = c.Error(err)
		}
		c.Writer = gw.ResponseWriter
	}
}
