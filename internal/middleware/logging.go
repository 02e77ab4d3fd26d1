// Package middleware holds the gin middlewares.
package middleware

import (
	"bytes"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"pdf-chat-go/pkg/log"
)

// maxLoggedBody caps how much of a request or response body is logged.
const maxLoggedBody = 2048

// bodyLogWriter captures the response body while writing it through.
type bodyLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyLogWriter) Write(b []byte) (int, error) {
	if room := maxLoggedBody - w.body.Len(); room > 0 {
		if len(b) < room {
			room = len(b)
		}
		w.body.Write(b[:room])
	}
	return w.ResponseWriter.Write(b)
}

// RequestLogger logs every request with status, latency, client address and
// bodies. Multipart bodies (uploaded PDFs) are not read or logged.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		var requestBody []byte
		multipart := strings.HasPrefix(c.ContentType(), "multipart/")
		if c.Request.Body != nil && !multipart {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		blw := &bodyLogWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		logged := string(requestBody)
		if len(logged) > maxLoggedBody {
			logged = logged[:maxLoggedBody]
		}
		if multipart {
			logged = "<multipart omitted>"
		}

		log.Infow("HTTP Request Log",
			"statusCode", c.Writer.Status(),
			"latency", time.Since(startTime).String(),
			"clientIP", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"requestBody", logged,
			"responseBody", blw.body.String(),
		)
	}
}
