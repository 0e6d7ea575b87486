package bootstrap

import (
	httpapi "github.com/GoSim-25-26J-441/migration-gate/internal/api/http"
	"github.com/GoSim-25-26J-441/migration-gate/internal/api/http/middleware"
	govhttp "github.com/GoSim-25-26J-441/migration-gate/internal/governance/http"
	"github.com/GoSim-25-26J-441/migration-gate/internal/platform/logger"
	"github.com/GoSim-25-26J-441/migration-gate/internal/storage"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	Backend        string
	Store          storage.Gateway
	Governance     *govhttp.Handler
	Logger         *logger.Logger
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware(dep.Logger))

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, middleware.RequestIDHeader)
	corsCfg.ExposeHeaders = []string{middleware.RequestIDHeader}
	if len(dep.CORSOrigins) == 0 || (len(dep.CORSOrigins) == 1 && dep.CORSOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = dep.CORSOrigins
	}
	r.Use(cors.New(corsCfg))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Backend, dep.Store)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api")
	api.Use(middleware.RateLimit(dep.RateLimitRPS, dep.RateLimitBurst))
	dep.Governance.Register(api)

	return r
}
