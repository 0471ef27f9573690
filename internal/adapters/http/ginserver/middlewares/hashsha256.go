package middlewares

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vshulcz/Perfwatch/internal/adapters/transport/gzjson"
	"github.com/vshulcz/Perfwatch/internal/misc"
)

var bodyPool = misc.NewBufferPool(0)

// signedWriter holds the response back until the handler is done so it can be signed.
type signedWriter struct {
	gin.ResponseWriter
	body   *bytes.Buffer
	status int
}

func (w *signedWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(p)
}

func (w *signedWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func (w *signedWriter) WriteHeader(code int) {
	w.status = code
}

// HashSHA256 rejects request bodies whose HashSHA256 header does not match and signs
// every non-empty response. With an empty key it is a pass-through.
func HashSHA256(key string) gin.HandlerFunc {
	key = strings.TrimSpace(key)
	if key == "" {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		sw := &signedWriter{ResponseWriter: c.Writer, body: bodyPool.Get()}
		defer bodyPool.Put(sw.body)
		c.Writer = sw

		if sig := c.GetHeader(gzjson.HashHeader); strings.TrimSpace(sig) != "" {
			verifyBody(c, key, sig)
		}
		if !c.IsAborted() {
			c.Next()
		}

		if sw.body.Len() > 0 {
			c.Header(gzjson.HashHeader, misc.SumSHA256(sw.body.Bytes(), key))
		}
		status := sw.status
		if status == 0 {
			status = http.StatusOK
		}
		c.Writer = sw.ResponseWriter
		c.Writer.WriteHeader(status)
		if _, err := c.Writer.Write(sw.body.Bytes()); err != nil {
			_ = c.Error(err)
		}
	}
}

// verifyBody buffers the request body, restores it for the handler and aborts with 400
// when the signature does not match. An empty body is not checked.
func verifyBody(c *gin.Context, key, sig string) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "read body failed"})
		return
	}
	if err := c.Request.Body.Close(); err != nil {
		_ = c.Error(err)
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	if len(body) > 0 && !misc.VerifySHA256(body, key, sig) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid hash"})
	}
}
