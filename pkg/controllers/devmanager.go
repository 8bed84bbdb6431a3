package controllers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/anemonelabs/anemone-cloud/pkg/errs"
	"github.com/anemonelabs/anemone-cloud/pkg/resources"
	"github.com/anemonelabs/anemone-cloud/pkg/services"
)

type devManagerHttpRoutes struct {
	svc services.DeviceManagerService
}

func NewDeviceManagerHttpRoutes(svc services.DeviceManagerService) *devManagerHttpRoutes {
	return &devManagerHttpRoutes{
		svc: svc,
	}
}

func (r *devManagerHttpRoutes) GetStats(ctx *gin.Context) {
	stats, err := r.svc.GetDevicesStats(ctx.Request.Context(), services.GetDevicesStatsInput{})
	if err != nil {
		ctx.JSON(500, gin.H{"err": err.Error()})
		return
	}

	ctx.JSON(200, stats)
}

func (r *devManagerHttpRoutes) GetAllDevices(ctx *gin.Context) {
	devices, err := r.svc.GetDevices(ctx.Request.Context(), services.GetDevicesInput{})
	if err != nil {
		ctx.JSON(500, gin.H{"err": err.Error()})
		return
	}

	ctx.JSON(200, resources.GetDevicesResponse{
		List: devices,
	})
}

func (r *devManagerHttpRoutes) CreateDevice(ctx *gin.Context) {
	var requestBody resources.CreateDeviceBody
	if err := ctx.BindJSON(&requestBody); err != nil {
		ctx.JSON(400, gin.H{"err": err.Error()})
		return
	}

	device, err := r.svc.CreateDevice(ctx.Request.Context(), services.CreateDeviceInput{
		Name:            requestBody.Name,
		SerialNumber:    requestBody.SerialNumber,
		FirmwareVersion: requestBody.FirmwareVersion,
		Metadata:        requestBody.Metadata,
	})
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrValidateBadRequest):
			ctx.JSON(400, gin.H{"err": err.Error()})
		case errors.Is(err, errs.ErrProductNotFound):
			ctx.JSON(404, gin.H{"err": err.Error()})
		case errors.Is(err, errs.ErrDeviceAlreadyExists):
			ctx.JSON(409, gin.H{"err": err.Error()})
		default:
			ctx.JSON(500, gin.H{"err": err.Error()})
		}
		return
	}

	ctx.JSON(201, device)
}

func (r *devManagerHttpRoutes) GetDeviceByID(ctx *gin.Context) {
	type uriParams struct {
		ID string `uri:"id" binding:"required"`
	}

	var params uriParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		ctx.JSON(400, gin.H{"err": err.Error()})
		return
	}

	device, err := r.svc.GetDeviceByID(ctx.Request.Context(), services.GetDeviceByIDInput{
		ID: params.ID,
	})
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrDeviceNotFound):
			ctx.JSON(404, gin.H{"err": err.Error()})
		case errors.Is(err, errs.ErrValidateBadRequest):
			ctx.JSON(400, gin.H{"err": err.Error()})
		default:
			ctx.JSON(500, gin.H{"err": err.Error()})
		}
		return
	}

	ctx.JSON(200, device)
}

func (r *devManagerHttpRoutes) ProvisionDevice(ctx *gin.Context) {
	type uriParams struct {
		ID string `uri:"id" binding:"required"`
	}

	var params uriParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		ctx.JSON(400, gin.H{"err": err.Error()})
		return
	}

	output, err := r.svc.ProvisionDevice(ctx.Request.Context(), services.ProvisionDeviceInput{
		DeviceID: params.ID,
	})
	if err != nil {
		var platformErr *errs.IdentityPlatformError
		var storageErr *errs.StorageError
		switch {
		case errors.Is(err, errs.ErrDeviceNotFound):
			ctx.JSON(404, gin.H{"err": err.Error()})
		case errors.Is(err, errs.ErrDeviceAlreadyProvisioned):
			ctx.JSON(409, gin.H{"err": err.Error()})
		case errors.As(err, &platformErr), errors.As(err, &storageErr):
			ctx.JSON(502, gin.H{"err": err.Error()})
		default:
			ctx.JSON(500, gin.H{"err": err.Error()})
		}
		return
	}

	ctx.JSON(200, output)
}

func (r *devManagerHttpRoutes) RegisterDevice(ctx *gin.Context) {
	type uriParams struct {
		ID string `uri:"id" binding:"required"`
	}

	var params uriParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		ctx.JSON(400, gin.H{"err": err.Error()})
		return
	}

	var requestBody resources.RegisterDeviceBody
	if err := ctx.BindJSON(&requestBody); err != nil {
		ctx.JSON(400, gin.H{"err": err.Error()})
		return
	}

	device, err := r.svc.RegisterDevice(ctx.Request.Context(), services.RegisterDeviceInput{
		DeviceID: params.ID,
		UserID:   requestBody.UserID,
	})
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrDeviceNotFound):
			ctx.JSON(404, gin.H{"err": err.Error()})
		case errors.Is(err, errs.ErrDeviceNotProvisioned):
			ctx.JSON(409, gin.H{"err": err.Error()})
		case errors.Is(err, errs.ErrDeviceAlreadyRegistered):
			ctx.JSON(409, gin.H{"err": err.Error()})
		case errors.Is(err, errs.ErrDeviceNotResponding):
			ctx.JSON(412, gin.H{"err": err.Error()})
		case errors.Is(err, errs.ErrValidateBadRequest):
			ctx.JSON(400, gin.H{"err": err.Error()})
		default:
			ctx.JSON(500, gin.H{"err": err.Error()})
		}
		return
	}

	ctx.JSON(200, device)
}

func (r *devManagerHttpRoutes) UpdateFirmwareVersion(ctx *gin.Context) {
	type uriParams struct {
		ID string `uri:"id" binding:"required"`
	}

	var params uriParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		ctx.JSON(400, gin.H{"err": err.Error()})
		return
	}

	var requestBody resources.UpdateFirmwareVersionBody
	if err := ctx.BindJSON(&requestBody); err != nil {
		ctx.JSON(400, gin.H{"err": err.Error()})
		return
	}

	device, err := r.svc.UpdateFirmwareVersion(ctx.Request.Context(), services.UpdateFirmwareVersionInput{
		DeviceID:        params.ID,
		FirmwareVersion: requestBody.FirmwareVersion,
	})
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrDeviceNotFound):
			ctx.JSON(404, gin.H{"err": err.Error()})
		case errors.Is(err, errs.ErrValidateBadRequest):
			ctx.JSON(400, gin.H{"err": err.Error()})
		default:
			ctx.JSON(500, gin.H{"err": err.Error()})
		}
		return
	}

	ctx.JSON(200, device)
}

func (r *devManagerHttpRoutes) DecommissionDevice(ctx *gin.Context) {
	type uriParams struct {
		ID string `uri:"id" binding:"required"`
	}

	var params uriParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		ctx.JSON(400, gin.H{"err": err.Error()})
		return
	}

	device, err := r.svc.DecommissionDevice(ctx.Request.Context(), services.DecommissionDeviceInput{
		DeviceID: params.ID,
	})
	if err != nil {
		var platformErr *errs.IdentityPlatformError
		switch {
		case errors.Is(err, errs.ErrDeviceNotFound):
			ctx.JSON(404, gin.H{"err": err.Error()})
		case errors.As(err, &platformErr):
			ctx.JSON(502, gin.H{"err": err.Error()})
		default:
			ctx.JSON(500, gin.H{"err": err.Error()})
		}
		return
	}

	ctx.JSON(200, device)
}
