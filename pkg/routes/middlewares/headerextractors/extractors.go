package headerextractors

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/anemonelabs/anemone-cloud/pkg/helpers"
)

const HttpSourceHeader = "x-request-source"

func updateContextWithRequestID(ctx *gin.Context, headers http.Header) {
	reqID := headers.Get("x-request-id")
	if reqID != "" {
		ctx.Set(helpers.CtxRequestID, reqID)
		ctx.Request = ctx.Request.WithContext(context.WithValue(ctx.Request.Context(), helpers.CtxRequestID, reqID))
	}
}

func updateContextWithSource(ctx *gin.Context, headers http.Header) {
	sourceHeader := headers.Get(HttpSourceHeader)
	if sourceHeader != "" {
		ctx.Set(helpers.CtxSource, sourceHeader)
		ctx.Request = ctx.Request.WithContext(context.WithValue(ctx.Request.Context(), helpers.CtxSource, sourceHeader))
	}
}

func RequestMetadataToContextMiddleware(logger *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		updateContextWithRequestID(c, c.Request.Header)
		updateContextWithSource(c, c.Request.Header)
		c.Next()
	}
}
