package controllers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/anemonelabs/anemone-cloud/pkg/errs"
	"github.com/anemonelabs/anemone-cloud/pkg/resources"
	"github.com/anemonelabs/anemone-cloud/pkg/services"
)

type certificatesHttpRoutes struct {
	svc services.CertificatesService
}

func NewCertificatesHttpRoutes(svc services.CertificatesService) *certificatesHttpRoutes {
	return &certificatesHttpRoutes{
		svc: svc,
	}
}

func (r *certificatesHttpRoutes) GetDeviceCertificates(ctx *gin.Context) {
	type uriParams struct {
		ID string `uri:"id" binding:"required"`
	}

	var params uriParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		ctx.JSON(400, gin.H{"err": err.Error()})
		return
	}

	certificates, err := r.svc.GetDeviceCertificates(ctx.Request.Context(), services.GetDeviceCertificatesInput{
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

	ctx.JSON(200, resources.GetCertificatesResponse{
		List: certificates,
	})
}

func (r *certificatesHttpRoutes) RotateCertificate(ctx *gin.Context) {
	type uriParams struct {
		ID string `uri:"id" binding:"required"`
	}

	var params uriParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		ctx.JSON(400, gin.H{"err": err.Error()})
		return
	}

	output, err := r.svc.RotateCertificate(ctx.Request.Context(), services.RotateCertificateInput{
		DeviceID: params.ID,
	})
	if err != nil {
		var platformErr *errs.IdentityPlatformError
		var storageErr *errs.StorageError
		switch {
		case errors.Is(err, errs.ErrDeviceNotFound), errors.Is(err, errs.ErrCertificateNotFound):
			ctx.JSON(404, gin.H{"err": err.Error()})
		case errors.As(err, &platformErr), errors.As(err, &storageErr):
			ctx.JSON(502, gin.H{"err": err.Error()})
		default:
			ctx.JSON(500, gin.H{"err": err.Error()})
		}
		return
	}

	ctx.JSON(200, output)
}

func (r *certificatesHttpRoutes) ActivateCertificate(ctx *gin.Context) {
	type uriParams struct {
		CertificateID string `uri:"certId" binding:"required"`
	}

	var params uriParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		ctx.JSON(400, gin.H{"err": err.Error()})
		return
	}

	certificate, err := r.svc.ActivateCertificate(ctx.Request.Context(), services.ActivateCertificateInput{
		CertificateID: params.CertificateID,
	})
	if err != nil {
		var platformErr *errs.IdentityPlatformError
		switch {
		case errors.Is(err, errs.ErrCertificateNotFound):
			ctx.JSON(404, gin.H{"err": err.Error()})
		case errors.Is(err, errs.ErrCertificateStatusTransition):
			ctx.JSON(409, gin.H{"err": err.Error()})
		case errors.As(err, &platformErr):
			ctx.JSON(502, gin.H{"err": err.Error()})
		default:
			ctx.JSON(500, gin.H{"err": err.Error()})
		}
		return
	}

	ctx.JSON(200, certificate)
}

func (r *certificatesHttpRoutes) RevokeCertificate(ctx *gin.Context) {
	type uriParams struct {
		CertificateID string `uri:"certId" binding:"required"`
	}

	var params uriParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		ctx.JSON(400, gin.H{"err": err.Error()})
		return
	}

	certificate, err := r.svc.RevokeCertificate(ctx.Request.Context(), services.RevokeCertificateInput{
		CertificateID: params.CertificateID,
	})
	if err != nil {
		var platformErr *errs.IdentityPlatformError
		switch {
		case errors.Is(err, errs.ErrCertificateNotFound):
			ctx.JSON(404, gin.H{"err": err.Error()})
		case errors.As(err, &platformErr):
			ctx.JSON(502, gin.H{"err": err.Error()})
		default:
			ctx.JSON(500, gin.H{"err": err.Error()})
		}
		return
	}

	ctx.JSON(200, certificate)
}

func (r *certificatesHttpRoutes) ValidateCertificate(ctx *gin.Context) {
	type uriParams struct {
		CertificateID string `uri:"certId" binding:"required"`
	}

	var params uriParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		ctx.JSON(400, gin.H{"err": err.Error()})
		return
	}

	output, err := r.svc.ValidateCertificate(ctx.Request.Context(), services.ValidateCertificateInput{
		CertificateID: params.CertificateID,
	})
	if err != nil {
		var platformErr *errs.IdentityPlatformError
		switch {
		case errors.Is(err, errs.ErrCertificateNotFound):
			ctx.JSON(404, gin.H{"err": err.Error()})
		case errors.As(err, &platformErr):
			ctx.JSON(502, gin.H{"err": err.Error()})
		default:
			ctx.JSON(500, gin.H{"err": err.Error()})
		}
		return
	}

	ctx.JSON(200, output)
}
