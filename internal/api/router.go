// Licensed to LinDB under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. LinDB licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

// Package api is the admin HTTP surface over a running process's
// pools and process-wide timer/wait/I/O services: read-only state
// routes plus the one mutating route (pool max-threads), fronted by
// bearer-token authentication (spec.md §9 "administration").
package api

import (
	"net/http"
	"time"

	"github.com/felixge/fgprof"
	"github.com/gin-contrib/cors"
	ginpprof "github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/go-http-utils/headers"
	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/gzhttp"
	"github.com/munnerz/goautoneg"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/lindb/common/pkg/logger"

	"github.com/lindb/threadpool/config"
	_ "github.com/lindb/threadpool/docs"
	"github.com/lindb/threadpool/internal/monitoring"
	"github.com/lindb/threadpool/pkg/http/middleware"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// NewRouter builds the admin server's gin engine: CORS, content
// negotiation, pprof/fgprof profiling, swagger docs, bearer-token auth
// on every /api/v1 route, and the pool/object/system state handlers.
func NewRouter(user config.User, stats *monitoring.SystemStatistics) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(), negotiateJSON())
	engine.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete},
		AllowHeaders:    []string{headers.Origin, headers.ContentType, headers.Accept, headers.Authorization},
		MaxAge:          12 * time.Hour,
	}))

	ginpprof.Register(engine)
	engine.GET("/debug/fgprof", gin.WrapH(fgprof.Handler()))
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	engine.GET("/health-check", func(c *gin.Context) { c.Status(http.StatusOK) })

	authenticated := engine.Group("/api/v1")
	authenticated.Use(ginAuth(middleware.NewAuthentication(user)))

	NewPoolAPI().Register(authenticated)
	NewObjectAPI().Register(authenticated)
	NewSystemAPI(stats).Register(authenticated)

	return engine
}

// NewGzipHandler wraps engine with transparent gzip compression for
// clients that advertise it, used by cmd/tpctl's run subcommand instead
// of serving the engine directly.
func NewGzipHandler(engine *gin.Engine) http.Handler {
	wrap, err := gzhttp.NewWrapper(gzhttp.MinSize(1024))
	if err != nil {
		return engine
	}
	return wrap(engine)
}

// negotiateJSON rejects requests whose Accept header excludes JSON, the
// only representation this API serves.
func negotiateJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		accept := c.GetHeader(headers.Accept)
		if accept == "" || accept == "*/*" {
			c.Next()
			return
		}
		best := goautoneg.Negotiate(accept, []string{"application/json"})
		if best == "" {
			c.AbortWithStatus(http.StatusNotAcceptable)
			return
		}
		c.Next()
	}
}

// ginAuth adapts the standard net/http Authentication middleware to a
// gin.HandlerFunc by delegating request handling and short-circuiting
// if the wrapped handler never reaches the final "next" step.
func ginAuth(auth *middleware.Authentication) gin.HandlerFunc {
	return func(c *gin.Context) {
		reached := false
		handler := auth.Validate(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
			reached = true
		}))
		handler.ServeHTTP(c.Writer, c.Request)
		if !reached {
			c.Abort()
			return
		}
		c.Next()
	}
}

// requestLogger logs every request at debug level, in the same
// component/name grouping convention used throughout internal/concurrent.
func requestLogger() gin.HandlerFunc {
	log := logger.GetLogger("API", "Router")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("handled request",
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", c.Writer.Status()),
			logger.String("duration", time.Since(start).String()),
		)
	}
}
