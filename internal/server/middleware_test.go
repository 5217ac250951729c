package server

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"taskmanager/internal/domain/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func gunzip(t *testing.T, data []byte) string {
	t.Helper()
	gr, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer gr.Close()
	out, err := io.ReadAll(gr)
	require.NoError(t, err)
	return string(out)
}

func TestGzipRequestDecompress(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(GzipRequestDecompress())
	router.POST("/test", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"body": string(body)})
	})

	tests := []struct {
		name            string
		content         string
		compress        bool
		contentEncoding string
		want            struct {
			statusCode int
			body       string
		}
	}{
		{
			name:    "uncompressed request",
			content: "Hello, World!",
			want: struct {
				statusCode int
				body       string
			}{
				statusCode: http.StatusOK,
				body:       "Hello, World!",
			},
		},
		{
			name:            "gzip compressed request",
			content:         "Hello, World!",
			compress:        true,
			contentEncoding: "gzip",
			want: struct {
				statusCode int
				body       string
			}{
				statusCode: http.StatusOK,
				body:       "Hello, World!",
			},
		},
		{
			name:            "invalid gzip request",
			content:         "Invalid gzip data",
			contentEncoding: "gzip",
			want: struct {
				statusCode int
				body       string
			}{
				statusCode: http.StatusBadRequest,
				body:       errors.ErrInvalidGzipRequest.Error(),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.compress {
				var buf bytes.Buffer
				gz := gzip.NewWriter(&buf)
				_, _ = gz.Write([]byte(tt.content))
				gz.Close()
				body = &buf
			} else {
				body = strings.NewReader(tt.content)
			}

			req, _ := http.NewRequest("POST", "/test", body)
			if tt.contentEncoding != "" {
				req.Header.Set("Content-Encoding", tt.contentEncoding)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want.statusCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.want.body)
		})
	}
}

func TestGzipResponseCompress(t *testing.T) {
	payload := strings.Repeat("ID,Task Name\n", 20)

	tests := []struct {
		name           string
		minSize        int
		acceptEncoding string
		want           struct {
			contentEncoding string
			vary            string
		}
	}{
		{
			name:           "client accepts gzip",
			acceptEncoding: "gzip",
			want: struct {
				contentEncoding string
				vary            string
			}{
				contentEncoding: "gzip",
				vary:            "Accept-Encoding",
			},
		},
		{
			name: "client does not accept gzip",
		},
		{
			name:           "client accepts other encoding",
			acceptEncoding: "deflate",
		},
		{
			name:           "body below threshold",
			minSize:        len(payload) + 1,
			acceptEncoding: "gzip",
			want: struct {
				contentEncoding string
				vary            string
			}{
				vary: "Accept-Encoding",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			router := gin.New()
			router.Use(GzipResponseCompress(tt.minSize))
			router.GET("/test", func(c *gin.Context) {
				c.Data(http.StatusOK, "text/csv", []byte(payload))
			})

			req, _ := http.NewRequest("GET", "/test", nil)
			if tt.acceptEncoding != "" {
				req.Header.Set("Accept-Encoding", tt.acceptEncoding)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want.contentEncoding, w.Header().Get("Content-Encoding"))
			assert.Equal(t, tt.want.vary, w.Header().Get("Vary"))
			if tt.want.contentEncoding == "gzip" {
				assert.Equal(t, payload, gunzip(t, w.Body.Bytes()))
			} else {
				assert.Equal(t, payload, w.Body.String())
			}
		})
	}
}

func TestGzipResponseSkipsIncompressible(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		handler gin.HandlerFunc
	}{
		{
			name:   "binary content type",
			method: http.MethodGet,
			handler: func(c *gin.Context) {
				c.Data(http.StatusOK, "application/octet-stream", []byte("raw bytes"))
			},
		},
		{
			name:   "event stream",
			method: http.MethodGet,
			handler: func(c *gin.Context) {
				c.Data(http.StatusOK, "text/event-stream", []byte("data: x\n\n"))
			},
		},
		{
			name:   "partial content",
			method: http.MethodGet,
			handler: func(c *gin.Context) {
				c.Data(http.StatusPartialContent, "text/plain", []byte("part"))
			},
		},
		{
			name:   "already encoded",
			method: http.MethodGet,
			handler: func(c *gin.Context) {
				c.Header("Content-Encoding", "br")
				c.Data(http.StatusOK, "text/plain", []byte("brotli"))
			},
		},
		{
			name:   "head request",
			method: http.MethodHead,
			handler: func(c *gin.Context) {
				c.Data(http.StatusOK, "text/plain", []byte("hello"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			router := gin.New()
			router.Use(GzipResponseCompress(0))
			router.Handle(tt.method, "/test", tt.handler)

			req, _ := http.NewRequest(tt.method, "/test", nil)
			req.Header.Set("Accept-Encoding", "gzip")

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.NotEqual(t, "gzip", w.Header().Get("Content-Encoding"))
		})
	}
}

func TestGzipResponseWriterPaths(t *testing.T) {
	tests := []struct {
		name    string
		minSize int
		handler gin.HandlerFunc
		want    struct {
			contentEncoding string
			body            string
		}
	}{
		{
			name: "string render",
			handler: func(c *gin.Context) {
				c.String(http.StatusOK, "plain text body")
			},
			want: struct {
				contentEncoding string
				body            string
			}{contentEncoding: "gzip", body: "plain text body"},
		},
		{
			name:    "flush commits buffered bytes",
			minSize: 1 << 20,
			handler: func(c *gin.Context) {
				c.Header("Content-Type", "text/csv")
				_, _ = c.Writer.Write([]byte("a,b\n"))
				c.Writer.Flush()
				_, _ = c.Writer.Write([]byte("c,d\n"))
			},
			want: struct {
				contentEncoding string
				body            string
			}{contentEncoding: "gzip", body: "a,b\nc,d\n"},
		},
		{
			name:    "incompressible body past threshold",
			minSize: 4,
			handler: func(c *gin.Context) {
				c.Header("Content-Type", "image/png")
				_, _ = c.Writer.Write([]byte("0123"))
				_, _ = c.Writer.Write([]byte("4567"))
			},
			want: struct {
				contentEncoding string
				body            string
			}{body: "01234567"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			router := gin.New()
			router.Use(GzipResponseCompress(tt.minSize))
			router.GET("/test", tt.handler)

			req, _ := http.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set("Accept-Encoding", "gzip")

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want.contentEncoding, w.Header().Get("Content-Encoding"))
			if tt.want.contentEncoding == "gzip" {
				assert.Equal(t, tt.want.body, gunzip(t, w.Body.Bytes()))
			} else {
				assert.Equal(t, tt.want.body, w.Body.String())
			}
		})
	}
}

func TestGzipMiddlewareRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(GzipRequestDecompress())
	router.Use(GzipResponseCompress(0))
	router.POST("/echo", func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.JSON(http.StatusOK, gin.H{"echo": string(body)})
	})

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, _ = gz.Write([]byte("compressed both ways"))
	require.NoError(t, gz.Close())

	req, _ := http.NewRequest(http.MethodPost, "/echo", &buf)
	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set("Accept-Encoding", "gzip, deflate")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	assert.JSONEq(t, `{"echo":"compressed both ways"}`, gunzip(t, w.Body.Bytes()))
}

func TestExportIsCompressedForGzipClients(t *testing.T) {
	csv := []byte("ID,Task Name,Description,Status,Priority,Due Date,Created Date,Updated Date\n")

	authSvc := &MockAuthService{}
	authenticated(authSvc)
	taskSvc := &MockTaskService{}
	taskSvc.On("ExportCSV", mock.Anything, testUser.ID).Return(csv, nil)
	api := newTestAPI(authSvc, taskSvc)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/export", nil)
	req.Header.Set("Authorization", "Bearer "+generateTestToken(testUser.ID))
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	api.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	assert.Equal(t, "attachment; filename=tasks.csv", w.Header().Get("Content-Disposition"))
	assert.Equal(t, string(csv), gunzip(t, w.Body.Bytes()))
}

func TestIsCompressibleContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{contentType: "application/json; charset=utf-8", want: true},
		{contentType: "text/plain; charset=utf-8", want: true},
		{contentType: "text/csv", want: true},
		{contentType: "TEXT/HTML", want: true},
		{contentType: "text/event-stream", want: false},
		{contentType: "image/png", want: false},
		{contentType: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.want, isCompressibleContentType(tt.contentType))
		})
	}
}
