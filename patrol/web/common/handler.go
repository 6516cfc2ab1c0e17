package common

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	web "guardpatrol.com/patrol/web/common"
	"guardpatrol.com/patrol/web/middlewares"
)

type Handler struct {
	Log *zap.Logger
}

func (h *Handler) logger() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}

// ParamID reads a positive integer path parameter. It answers 400 and
// returns false when the value is missing or malformed.
func (h *Handler) ParamID(c *gin.Context, name string) (int32, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 32)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse("Invalid "+name))
		return 0, false
	}
	return int32(id), true
}

// GuardID reads the guardId query parameter, defaulting to the caller's
// own id when absent.
func (h *Handler) GuardID(c *gin.Context) (int32, bool) {
	raw := c.Query("guardId")
	if raw == "" {
		if claims := middlewares.Claims(c); claims != nil && claims.UserID > 0 {
			return claims.UserID, true
		}
		c.JSON(http.StatusBadRequest, web.NewErrorResponse("guardId is required"))
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse("Invalid guardId"))
		return 0, false
	}
	return int32(id), true
}

// Fail logs err and answers 500 with message. Internal details stay in the
// log.
func (h *Handler) Fail(c *gin.Context, message string, err error) {
	h.logger().Error(message,
		zap.String("request_id", c.GetString("request_id")),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, web.NewErrorResponse(message))
}

func (h *Handler) Info(c *gin.Context, message string, fields ...zap.Field) {
	h.logger().Info(message, append(fields, zap.String("request_id", c.GetString("request_id")))...)
}
