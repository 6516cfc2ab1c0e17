package round

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	patrol "guardpatrol.com/patrol/patrol/core"
	"guardpatrol.com/patrol/patrol/model"
	"guardpatrol.com/patrol/patrol/store"
	web "guardpatrol.com/patrol/web/common"
)

type RoundQuery struct {
	GuardID int32        `form:"guardId" binding:"omitempty,min=1"`
	PostID  int32        `form:"postId" binding:"omitempty,min=1"`
	Date    web.DateOnly `form:"date"`
}

func (ep *Endpoint) List(c *gin.Context) {
	var q RoundQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse(web.FormatBindingError(err)))
		return
	}

	rounds, err := ep.store.ListRounds(c.Request.Context(), store.RoundFilter{
		GuardID: q.GuardID,
		PostID:  q.PostID,
		Date:    q.Date.String(),
	})
	if err != nil {
		ep.base.Fail(c, "Failed to list rounds", err)
		return
	}
	if rounds == nil {
		rounds = []store.RoundListing{}
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(rounds))
}

type RoundStatusDTO struct {
	Status model.RoundStatus `json:"status" binding:"required"`
}

func (ep *Endpoint) UpdateStatus(c *gin.Context) {
	id, ok := ep.base.ParamID(c, "id")
	if !ok {
		return
	}

	var dto RoundStatusDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse(web.FormatBindingError(err)))
		return
	}

	status, err := ep.engine.SetStatus(c.Request.Context(), id, assignedGuard(c), dto.Status)
	if errors.Is(err, model.ErrInvalidTransition) {
		c.JSON(http.StatusBadRequest, web.NewCodedErrorResponse("INVALID_TRANSITION", err.Error(), gin.H{"status": status}))
		return
	}
	if err != nil {
		code, body := markErrorResponse(err)
		c.JSON(code, body)
		return
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(gin.H{"id": id, "status": status}))
}

// loadRound answers 404 and returns nil when the round does not exist.
func (ep *Endpoint) loadRound(c *gin.Context) *model.Round {
	id, ok := ep.base.ParamID(c, "id")
	if !ok {
		return nil
	}
	round, err := ep.store.GetRound(c.Request.Context(), id)
	if err != nil {
		ep.base.Fail(c, "Failed to load round", err)
		return nil
	}
	if round == nil {
		c.JSON(http.StatusNotFound, web.NewCodedErrorResponse(patrol.KindNotFound.String(), "round not found", gin.H{"entity": patrol.EntityRound}))
		return nil
	}
	return round
}

func (ep *Endpoint) Points(c *gin.Context) {
	round := ep.loadRound(c)
	if round == nil {
		return
	}

	points, err := ep.store.RoundPoints(c.Request.Context(), round)
	if err != nil {
		ep.base.Fail(c, "Failed to load round points", err)
		return
	}
	if points == nil {
		points = []patrol.RoundPoint{}
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(points))
}

func (ep *Endpoint) Progress(c *gin.Context) {
	id, ok := ep.base.ParamID(c, "id")
	if !ok {
		return
	}

	progress, err := ep.engine.ComputeProgress(c.Request.Context(), id)
	if err != nil {
		code, body := markErrorResponse(err)
		c.JSON(code, body)
		return
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(progress))
}

// Map answers a bare GeoJSON FeatureCollection so map widgets can load it
// directly.
func (ep *Endpoint) Map(c *gin.Context) {
	round := ep.loadRound(c)
	if round == nil {
		return
	}

	points, err := ep.store.RoundPoints(c.Request.Context(), round)
	if err != nil {
		ep.base.Fail(c, "Failed to load round points", err)
		return
	}

	data, err := patrol.RoundMap(*round, points).MarshalJSON()
	if err != nil {
		ep.base.Fail(c, "Failed to render round map", err)
		return
	}

	c.Data(http.StatusOK, "application/geo+json", data)
}
