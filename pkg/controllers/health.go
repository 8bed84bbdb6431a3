package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/anemonelabs/anemone-cloud/pkg/models"
)

type healthCheckRoute struct {
	info models.APIServiceInfo
}

func NewHealthCheckRoute(info models.APIServiceInfo) *healthCheckRoute {
	return &healthCheckRoute{
		info: info,
	}
}

func (r *healthCheckRoute) HealthCheck(ctx *gin.Context) {
	ctx.JSON(200, gin.H{
		"health":     true,
		"version":    r.info.Version,
		"build":      r.info.BuildSHA,
		"build_time": r.info.BuildTime,
	})
}
