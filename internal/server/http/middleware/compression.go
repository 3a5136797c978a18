package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// gzipBody swaps the request body for its inflated form while keeping
// the underlying stream around so both get closed.
type gzipBody struct {
	*gzip.Reader
	raw io.Closer
}

func (b gzipBody) Close() error {
	if err := b.Reader.Close(); err != nil {
		_ = b.raw.Close()
		return err
	}
	return b.raw.Close()
}

// DecompressRequest inflates gzip-encoded request bodies so handlers
// always see plain JSON. Webhook senders and SDK clients routinely
// compress payloads.
func DecompressRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		encoding := c.GetHeader("Content-Encoding")
		if !strings.Contains(encoding, "gzip") {
			c.Next()
			return
		}

		reader, err := gzip.NewReader(c.Request.Body)
		if err != nil {
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}

		c.Request.Body = gzipBody{Reader: reader, raw: c.Request.Body}
		c.Request.Header.Del("Content-Encoding")
		c.Request.ContentLength = -1
		c.Next()
	}
}
