package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"userapi/iternal/config"
)

const requestIDHeader = "X-Request-ID"

// RequestID tags every request with an id, reusing the caller's one when sent.
func (s Server) RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s Server) AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		const op = "gates.server.accessLog"
		start := time.Now()
		c.Next()
		s.log.Info(op,
			"request_id", c.GetString(requestIDKey),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

// CORS builds the cross-origin policy. A "*" origin echoes the caller's
// origin back so credentialed requests still work in browsers.
func CORS(cfg config.CORS) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders:     cfg.AllowHeaders,
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           cfg.MaxAge,
	}
	for _, origin := range cfg.AllowOrigins {
		if origin == "*" {
			corsCfg.AllowOriginFunc = func(string) bool { return true }
			break
		}
		corsCfg.AllowOrigins = append(corsCfg.AllowOrigins, origin)
	}
	switch {
	case corsCfg.AllowOriginFunc != nil:
		corsCfg.AllowOrigins = nil
	case len(corsCfg.AllowOrigins) == 0:
		// nothing configured: refuse every cross-origin caller
		corsCfg.AllowOriginFunc = func(string) bool { return false }
	}
	return cors.New(corsCfg)
}
