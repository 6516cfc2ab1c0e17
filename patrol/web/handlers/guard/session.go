package guard

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"guardpatrol.com/patrol/patrol/model"
	"guardpatrol.com/patrol/security"
	"guardpatrol.com/patrol/utils"
	web "guardpatrol.com/patrol/web/common"
)

type LoginDTO struct {
	Rut      string `json:"rut" binding:"required,rut"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token         string       `json:"token"`
	Guard         *model.Guard `json:"guard"`
	ActiveShift   *model.Shift `json:"activeShift,omitempty"`
	SuggestedPost *model.Post  `json:"suggestedPost,omitempty"`
}

// Login returns the guard's open shift when they are on duty, otherwise the
// post of their first round today as a suggestion.
func (ep *Endpoint) Login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse(web.FormatBindingError(err)))
		return
	}

	ctx := c.Request.Context()
	guard, err := ep.Store.FindGuardByRut(ctx, web.NormalizeRut(dto.Rut))
	if err != nil {
		ep.Base.Fail(c, "Failed to log in", err)
		return
	}
	if guard == nil || !security.CheckPassword(guard.PasswordHash, dto.Password) {
		c.JSON(http.StatusUnauthorized, web.NewErrorResponse("Invalid credentials"))
		return
	}

	token, err := ep.Auth.Issue(&security.PatrolIdentity{
		ID:   guard.ID,
		Rut:  guard.Rut,
		Name: guard.FullName(),
		Role: security.RoleGuard,
	})
	if err != nil {
		ep.Base.Fail(c, "Failed to issue token", err)
		return
	}

	res := LoginResponse{Token: token, Guard: guard}
	if guard.Active {
		res.ActiveShift, err = ep.Store.OpenShift(ctx, guard.ID)
	} else {
		res.SuggestedPost, err = ep.Store.SuggestedPost(ctx, guard.ID, utils.Today(ep.Now()))
	}
	if err != nil {
		ep.Base.Info(c, "login without shift context", zap.Int32("guard_id", guard.ID), zap.Error(err))
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(res))
}

func (ep *Endpoint) ListPosts(c *gin.Context) {
	posts, err := ep.Store.ListPosts(c.Request.Context())
	if err != nil {
		ep.Base.Fail(c, "Failed to list posts", err)
		return
	}
	if posts == nil {
		posts = []model.Post{}
	}
	c.JSON(http.StatusOK, web.NewSuccessResponse(posts))
}

type StatusQuery struct {
	Rut string `form:"rut" binding:"required,rut"`
}

func (ep *Endpoint) Status(c *gin.Context) {
	var q StatusQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse(web.FormatBindingError(err)))
		return
	}

	ctx := c.Request.Context()
	guard, err := ep.Store.FindGuardByRut(ctx, web.NormalizeRut(q.Rut))
	if err != nil {
		ep.Base.Fail(c, "Failed to load guard status", err)
		return
	}
	if guard == nil {
		c.JSON(http.StatusNotFound, web.NewErrorResponse("Guard not found"))
		return
	}

	var shiftID *int32
	if guard.Active {
		shift, err := ep.Store.OpenShift(ctx, guard.ID)
		if err != nil {
			ep.Base.Fail(c, "Failed to load open shift", err)
			return
		}
		if shift != nil {
			shiftID = &shift.ID
		}
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(gin.H{"active": guard.Active, "shiftId": shiftID}))
}

type ActiveDTO struct {
	Rut    string `json:"rut" binding:"required,rut"`
	Active *bool  `json:"active" binding:"required"`
}

func (ep *Endpoint) SetActive(c *gin.Context) {
	var dto ActiveDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse(web.FormatBindingError(err)))
		return
	}

	found, err := ep.Store.SetGuardActive(c.Request.Context(), web.NormalizeRut(dto.Rut), *dto.Active)
	if err != nil {
		ep.Base.Fail(c, "Failed to update guard", err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, web.NewErrorResponse("Guard not found"))
		return
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(gin.H{"active": *dto.Active}))
}

type ShiftDTO struct {
	GuardID int32 `json:"guardId" binding:"required,min=1"`
	PostID  int32 `json:"postId" binding:"required,min=1"`
}

func (ep *Endpoint) StartShift(c *gin.Context) {
	var dto ShiftDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse(web.FormatBindingError(err)))
		return
	}

	shift, err := ep.Store.StartShift(c.Request.Context(), dto.GuardID, dto.PostID, ep.Now())
	if err != nil {
		ep.Base.Fail(c, "Failed to start shift", err)
		return
	}

	ep.Base.Info(c, "shift started", zap.Int32("guard_id", dto.GuardID), zap.Int32("shift_id", shift.ID))
	c.JSON(http.StatusCreated, web.NewSuccessResponse(shift))
}

func (ep *Endpoint) EndShift(c *gin.Context) {
	id, ok := ep.Base.ParamID(c, "id")
	if !ok {
		return
	}

	closed, err := ep.Store.EndShift(c.Request.Context(), id, ep.Now())
	if err != nil {
		ep.Base.Fail(c, "Failed to end shift", err)
		return
	}
	if !closed {
		c.JSON(http.StatusNotFound, web.NewErrorResponse("Open shift not found"))
		return
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(gin.H{"id": id}))
}
