package server

import (
	"bytes"
	"compress/gzip"
	stdErrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"taskmanager/internal/domain/errors"

	"github.com/gin-gonic/gin"
)

var compressibleTypes = []string{
	"application/json",
	"application/xml",
	"application/javascript",
	"text/",
}

func hasGzip(header string) bool {
	return strings.Contains(strings.ToLower(header), "gzip")
}

// gzipBody closes both the gzip reader and the original request body.
type gzipBody struct {
	*gzip.Reader
	body io.Closer
}

func (b gzipBody) Close() error {
	return stdErrors.Join(b.Reader.Close(), b.body.Close())
}

// GzipRequestDecompress transparently inflates gzip-encoded request bodies.
func GzipRequestDecompress() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !hasGzip(ctx.GetHeader("Content-Encoding")) {
			ctx.Next()
			return
		}

		zr, err := gzip.NewReader(ctx.Request.Body)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": errors.ErrInvalidGzipRequest.Error()})
			return
		}

		ctx.Request.Body = gzipBody{Reader: zr, body: ctx.Request.Body}
		ctx.Request.Header.Del("Content-Encoding")
		ctx.Request.Header.Del("Content-Length")
		ctx.Request.ContentLength = -1
		ctx.Next()
	}
}

// gzipWriter holds back the first minSize bytes of a response, then commits
// to gzip or plain output depending on the status and content type.
type gzipWriter struct {
	gin.ResponseWriter
	minSize int
	pending bytes.Buffer
	zw      *gzip.Writer
	plain   bool
}

func (w *gzipWriter) Write(data []byte) (int, error) {
	switch {
	case w.zw != nil:
		n, err := w.zw.Write(data)
		if err != nil {
			return n, fmt.Errorf("%w: %v", errors.ErrGzipCompressionFailed, err)
		}
		return n, nil
	case w.plain:
		return w.ResponseWriter.Write(data)
	}

	w.pending.Write(data)
	if w.pending.Len() >= w.minSize {
		if err := w.commit(); err != nil {
			return 0, err
		}
	}
	return len(data), nil
}

func (w *gzipWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func (w *gzipWriter) Flush() {
	if w.zw == nil && !w.plain && w.pending.Len() > 0 {
		_ = w.commit()
	}
	if w.zw != nil {
		_ = w.zw.Flush()
	}
	w.ResponseWriter.Flush()
}

// commit chooses the output mode and releases the buffered bytes.
func (w *gzipWriter) commit() error {
	defer w.pending.Reset()

	if !w.compressible() {
		w.plain = true
		_, err := w.ResponseWriter.Write(w.pending.Bytes())
		return err
	}

	w.Header().Del("Content-Length")
	w.Header().Set("Content-Encoding", "gzip")
	w.zw = gzip.NewWriter(w.ResponseWriter)
	if _, err := w.zw.Write(w.pending.Bytes()); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrGzipCompressionFailed, err)
	}
	return nil
}

func (w *gzipWriter) compressible() bool {
	status := w.Status()
	if status == http.StatusNoContent || status == http.StatusPartialContent ||
		(status >= http.StatusMultipleChoices && status < http.StatusBadRequest) {
		return false
	}
	if w.Header().Get("Content-Encoding") != "" {
		return false
	}
	return isCompressibleContentType(w.Header().Get("Content-Type"))
}

// close finishes the gzip stream, or writes out a body that never reached
// minSize.
func (w *gzipWriter) close() error {
	if w.zw != nil {
		return w.zw.Close()
	}
	if w.pending.Len() > 0 {
		_, err := w.ResponseWriter.Write(w.pending.Bytes())
		w.pending.Reset()
		return err
	}
	return nil
}

// GzipResponseCompress compresses responses for clients that accept gzip once
// at least minSize bytes have been written.
func GzipResponseCompress(minSize int) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method == http.MethodHead || !hasGzip(ctx.GetHeader("Accept-Encoding")) {
			ctx.Next()
			return
		}

		header := ctx.Writer.Header()
		if vary := header.Get("Vary"); vary == "" {
			header.Set("Vary", "Accept-Encoding")
		} else if !strings.Contains(vary, "Accept-Encoding") {
			header.Set("Vary", vary+", Accept-Encoding")
		}

		gw := &gzipWriter{ResponseWriter: ctx.Writer, minSize: minSize}
		ctx.Writer = gw
		defer func() { ctx.Writer = gw.ResponseWriter }()

		ctx.Next()

		if err := gw.close(); err != nil {
			_ = ctx.Error(err)
		}
	}
}

func isCompressibleContentType(ct string) bool {
	ct = strings.ToLower(ct)
	if ct == "" || strings.HasPrefix(ct, "text/event-stream") {
		return false
	}
	for _, prefix := range compressibleTypes {
		if strings.HasPrefix(ct, prefix) {
			return true
		}
	}
	return false
}
