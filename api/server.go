package api

import (
	"context"
	"net/http"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/uber-go/tally/v4"

	"github.com/ltss/ltss-api/external/predictor"
	"github.com/ltss/ltss-api/logmodule"
	"github.com/ltss/ltss-api/risk"
	"github.com/ltss/ltss-api/schema"
	"github.com/ltss/ltss-api/store"
	"github.com/ltss/ltss-api/vectorise"
)

const (
	defaultPredictorTimeout = 5 * time.Second
	auditTimeout            = 10 * time.Second
)

var log *logrus.Entry

func init() {
	log = logrus.WithField("prefix", "gin")
}

// Server to run a http server instance
type Server struct {
	// Server instance
	server *http.Server

	// Stores, nil when mongo is not configured
	mongoStore    store.MongoStore
	bundleVersion int64

	// Risk engine
	vectoriser  *vectorise.Vectoriser
	model       *risk.Model
	description *schema.DataDescription

	// Records served to the frontend, keyed by row index
	records []schema.RawRecord

	// External point predictor, nil when not configured
	losPredictor predictor.LoSPredictor

	metrics tally.Scope
}

// NewServer new instance of server
func NewServer(
	mongoStore store.MongoStore,
	bundleVersion int64,
	vectoriser *vectorise.Vectoriser,
	model *risk.Model,
	description *schema.DataDescription,
	records []schema.RawRecord,
	losPredictor predictor.LoSPredictor,
	metrics tally.Scope) *Server {
	if metrics == nil {
		metrics = tally.NoopScope
	}

	return &Server{
		mongoStore:    mongoStore,
		bundleVersion: bundleVersion,
		vectoriser:    vectoriser,
		model:         model,
		description:   description,
		records:       records,
		losPredictor:  losPredictor,
		metrics:       metrics,
	}
}

// Run to run the server
func (s *Server) Run(addr string) error {
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.setupRouter(),
	}

	return s.server.ListenAndServe()
}

func (s *Server) setupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         10 * time.Second,
	}))

	apiRoute := r.Group("/api")
	apiRoute.Use(logmodule.Ginrus("API"))
	apiRoute.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		AllowAllOrigins:  true,
		MaxAge:           12 * time.Hour,
	}))
	apiRoute.GET("/information", s.information)

	recordRoute := apiRoute.Group("/records")
	{
		recordRoute.GET("", s.listRecords)
	}
	apiRoute.GET("/record/:id", s.getRecord)
	apiRoute.GET("/record/:id/prediction", s.predictRecord)

	apiRoute.POST("/vectorise", s.vectorise)
	apiRoute.POST("/predict", s.predict)
	apiRoute.POST("/forecast", s.forecast)

	r.GET("/healthz", s.healthz)

	return r
}

// Shutdown to shutdown the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// shouldInterupt sends error message and determine if it should interupt the current flow
func shouldInterupt(err error, c *gin.Context) bool {
	if err == nil {
		return false
	}

	log.Error(err)
	abortWithEncoding(c, http.StatusInternalServerError, errorInternalServer)
	return true
}

func (s *Server) healthz(c *gin.Context) {
	// Ping db
	if s.mongoStore != nil {
		err := s.mongoStore.Ping()
		if shouldInterupt(err, c) {
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "OK",
		"version": viper.GetString("server.version"),
	})
}

func (s *Server) information(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"information": map[string]interface{}{
			"server": map[string]interface{}{
				"version": viper.GetString("server.version"),
			},
			"model": map[string]interface{}{
				"selectors":      s.model.Selectors(),
				"bundle_version": s.bundleVersion,
				"cumulative":     s.model.Cumulative(),
				"predictor":      s.losPredictor != nil,
			},
			"system_version": "LTSS 0.1",
		},
	})
}

func (s *Server) predictorTimeout() time.Duration {
	if d := viper.GetDuration("predictor.timeout"); d > 0 {
		return d
	}
	return defaultPredictorTimeout
}

func responseWithEncoding(c *gin.Context, code int, obj ErrorResponse) {
	acceptEncoding := c.GetHeader("Accept-Encoding")
	switch acceptEncoding {
	default:
		c.JSON(code, obj)
	}
}

func abortWithEncoding(c *gin.Context, code int, obj ErrorResponse, errors ...error) {
	for _, err := range errors {
		c.Error(err)
	}
	responseWithEncoding(c, code, obj)
	c.Abort()
}
