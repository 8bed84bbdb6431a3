package controllers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/anemonelabs/anemone-cloud/pkg/errs"
	"github.com/anemonelabs/anemone-cloud/pkg/helpers"
	"github.com/anemonelabs/anemone-cloud/pkg/resources"
	"github.com/anemonelabs/anemone-cloud/pkg/services"
)

type deviceIotHttpRoutes struct {
	svc services.DeviceIotService
}

func NewDeviceIotHttpRoutes(svc services.DeviceIotService) *deviceIotHttpRoutes {
	return &deviceIotHttpRoutes{
		svc: svc,
	}
}

// authenticatedDeviceID returns the device id placed in the gin context by
// the device auth middleware.
func authenticatedDeviceID(ctx *gin.Context) (string, bool) {
	deviceID := ctx.GetString(helpers.CtxDeviceID)
	if deviceID == "" {
		ctx.JSON(401, gin.H{"err": "missing device identity"})
		return "", false
	}

	return deviceID, true
}

func (r *deviceIotHttpRoutes) Heartbeat(ctx *gin.Context) {
	deviceID, ok := authenticatedDeviceID(ctx)
	if !ok {
		return
	}

	var requestBody resources.HeartbeatBody
	if err := ctx.BindJSON(&requestBody); err != nil {
		ctx.JSON(400, gin.H{"err": err.Error()})
		return
	}

	output, err := r.svc.Heartbeat(ctx.Request.Context(), services.HeartbeatInput{
		DeviceID:        deviceID,
		FirmwareVersion: requestBody.FirmwareVersion,
		Readings:        requestBody.Readings,
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

	ctx.JSON(200, resources.HeartbeatResponse{
		ConnectionStatus: output.Device.ConnectionStatus,
		PendingCommand:   output.PendingCommand,
	})
}

func (r *deviceIotHttpRoutes) SyncCartridges(ctx *gin.Context) {
	deviceID, ok := authenticatedDeviceID(ctx)
	if !ok {
		return
	}

	var requestBody resources.SyncCartridgesBody
	if err := ctx.BindJSON(&requestBody); err != nil {
		ctx.JSON(400, gin.H{"err": err.Error()})
		return
	}

	cartridges, err := r.svc.SyncCartridges(ctx.Request.Context(), services.SyncCartridgesInput{
		DeviceID: deviceID,
		Readings: requestBody.Readings,
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

	ctx.JSON(200, resources.GetCartridgesResponse{
		List: cartridges,
	})
}

func (r *deviceIotHttpRoutes) ReplaceCartridges(ctx *gin.Context) {
	deviceID, ok := authenticatedDeviceID(ctx)
	if !ok {
		return
	}

	var requestBody resources.ReplaceCartridgesBody
	if err := ctx.BindJSON(&requestBody); err != nil {
		ctx.JSON(400, gin.H{"err": err.Error()})
		return
	}

	cartridges, err := r.svc.ReplaceCartridges(ctx.Request.Context(), services.ReplaceCartridgesInput{
		DeviceID: deviceID,
		Readings: requestBody.Readings,
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

	ctx.JSON(200, resources.GetCartridgesResponse{
		List: cartridges,
	})
}

func (r *deviceIotHttpRoutes) NextCommand(ctx *gin.Context) {
	deviceID, ok := authenticatedDeviceID(ctx)
	if !ok {
		return
	}

	command, err := r.svc.NextCommand(ctx.Request.Context(), services.NextCommandInput{
		DeviceID: deviceID,
	})
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrDeviceNotFound):
			ctx.JSON(404, gin.H{"err": err.Error()})
		default:
			ctx.JSON(500, gin.H{"err": err.Error()})
		}
		return
	}

	if command == nil {
		ctx.Status(204)
		return
	}

	ctx.JSON(200, command)
}

func (r *deviceIotHttpRoutes) AckCommand(ctx *gin.Context) {
	if _, ok := authenticatedDeviceID(ctx); !ok {
		return
	}

	type uriParams struct {
		CommandID string `uri:"cmdId" binding:"required"`
	}

	var params uriParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		ctx.JSON(400, gin.H{"err": err.Error()})
		return
	}

	command, err := r.svc.MarkCommandExecuted(ctx.Request.Context(), services.MarkCommandExecutedInput{
		CommandID: params.CommandID,
	})
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrCommandNotFound):
			ctx.JSON(404, gin.H{"err": err.Error()})
		default:
			ctx.JSON(500, gin.H{"err": err.Error()})
		}
		return
	}

	ctx.JSON(200, command)
}

// EnqueueCommand is the operator-facing producer endpoint.
func (r *deviceIotHttpRoutes) EnqueueCommand(ctx *gin.Context) {
	type uriParams struct {
		ID string `uri:"id" binding:"required"`
	}

	var params uriParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		ctx.JSON(400, gin.H{"err": err.Error()})
		return
	}

	var requestBody resources.EnqueueCommandBody
	if err := ctx.BindJSON(&requestBody); err != nil {
		ctx.JSON(400, gin.H{"err": err.Error()})
		return
	}

	command, err := r.svc.EnqueueCommand(ctx.Request.Context(), services.EnqueueCommandInput{
		DeviceID: params.ID,
		Payload:  requestBody.Payload,
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

	ctx.JSON(201, command)
}

// GetDeviceCartridges is the operator-facing roster view.
func (r *deviceIotHttpRoutes) GetDeviceCartridges(ctx *gin.Context) {
	type uriParams struct {
		ID string `uri:"id" binding:"required"`
	}

	var params uriParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		ctx.JSON(400, gin.H{"err": err.Error()})
		return
	}

	cartridges, err := r.svc.GetCartridges(ctx.Request.Context(), services.GetCartridgesInput{
		DeviceID: params.ID,
	})
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrDeviceNotFound):
			ctx.JSON(404, gin.H{"err": err.Error()})
		default:
			ctx.JSON(500, gin.H{"err": err.Error()})
		}
		return
	}

	ctx.JSON(200, resources.GetCartridgesResponse{
		List: cartridges,
	})
}
