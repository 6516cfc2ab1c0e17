package round

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	patrol "guardpatrol.com/patrol/patrol/core"
	"guardpatrol.com/patrol/security"
	web "guardpatrol.com/patrol/web/common"
	"guardpatrol.com/patrol/web/middlewares"
)

// CheckpointRef accepts the scanned QR payload as either a JSON string or
// a number.
type CheckpointRef string

func (r *CheckpointRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = CheckpointRef(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*r = CheckpointRef(n.String())
	return nil
}

type MarkDTO struct {
	RoundID      int32         `json:"roundId" binding:"required,min=1"`
	CheckpointID CheckpointRef `json:"checkpointId" binding:"required"`
	Latitude     *float64      `json:"latitude" binding:"omitempty,latitude"`
	Longitude    *float64      `json:"longitude" binding:"omitempty,longitude"`
}

func (ep *Endpoint) SubmitMark(c *gin.Context) {
	var dto MarkDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse(web.FormatBindingError(err)))
		return
	}
	if (dto.Latitude == nil) != (dto.Longitude == nil) {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse("latitude and longitude must be sent together"))
		return
	}

	req := patrol.MarkRequest{
		RoundID:       dto.RoundID,
		CheckpointRef: string(dto.CheckpointID),
		GuardID:       assignedGuard(c),
	}
	if dto.Latitude != nil {
		req.Coordinate = &patrol.Coordinate{Latitude: *dto.Latitude, Longitude: *dto.Longitude}
	}

	res, err := ep.engine.SubmitMark(c.Request.Context(), req)
	if err != nil {
		status, body := markErrorResponse(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusCreated, web.NewSuccessResponse(res))
}

// assignedGuard is the caller's id when a guard is calling; guards may only
// change their own rounds. Other roles get 0, which skips the check.
func assignedGuard(c *gin.Context) int32 {
	claims := middlewares.Claims(c)
	if claims == nil || claims.Role != security.RoleGuard {
		return 0
	}
	return claims.UserID
}

// markErrorResponse maps engine rejections onto HTTP statuses. The
// response code is the rejection kind.
func markErrorResponse(err error) (int, *web.ErrorResponse) {
	var me *patrol.MarkError
	if !errors.As(err, &me) {
		return http.StatusInternalServerError, web.NewErrorResponse("Internal error")
	}
	code := me.Kind.String()
	switch me.Kind {
	case patrol.KindNotFound:
		return http.StatusNotFound, web.NewCodedErrorResponse(code, me.Error(), gin.H{"entity": me.Entity})
	case patrol.KindOutOfRange:
		return http.StatusBadRequest, web.NewCodedErrorResponse(code, me.Error(), gin.H{"distance": me.RoundedDistance()})
	case patrol.KindNotAssigned:
		return http.StatusForbidden, web.NewCodedErrorResponse(code, me.Error(), nil)
	case patrol.KindStoreFailure:
		return http.StatusInternalServerError, web.NewCodedErrorResponse(code, "Failed to record mark", nil)
	}
	return http.StatusBadRequest, web.NewCodedErrorResponse(code, me.Error(), nil)
}
