package guard

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"guardpatrol.com/patrol/patrol/model"
	"guardpatrol.com/patrol/utils"
	web "guardpatrol.com/patrol/web/common"
)

const notificationLimit = 50

type CheckDTO struct {
	GuardID   int32    `json:"guardId" binding:"required,min=1"`
	PostID    int32    `json:"postId" binding:"required,min=1"`
	Latitude  *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" binding:"omitempty,longitude"`
}

// Check records a presence check. Location is optional.
func (ep *Endpoint) Check(c *gin.Context) {
	var dto CheckDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse(web.FormatBindingError(err)))
		return
	}

	check := model.PresenceCheck{
		GuardID:   dto.GuardID,
		PostID:    dto.PostID,
		Latitude:  dto.Latitude,
		Longitude: dto.Longitude,
		CheckedAt: ep.Now(),
	}
	if err := ep.Store.CreatePresenceCheck(c.Request.Context(), &check); err != nil {
		ep.Base.Fail(c, "Failed to record presence check", err)
		return
	}

	c.JSON(http.StatusCreated, web.NewSuccessResponse(check))
}

func (ep *Endpoint) ListNotifications(c *gin.Context) {
	guardID, ok := ep.Base.GuardID(c)
	if !ok {
		return
	}

	notifications, err := ep.Store.ListNotifications(c.Request.Context(), guardID, notificationLimit)
	if err != nil {
		ep.Base.Fail(c, "Failed to list notifications", err)
		return
	}
	if notifications == nil {
		notifications = []model.Notification{}
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(notifications))
}

func (ep *Endpoint) ReadNotification(c *gin.Context) {
	id, ok := ep.Base.ParamID(c, "id")
	if !ok {
		return
	}

	found, err := ep.Store.MarkNotificationRead(c.Request.Context(), id)
	if err != nil {
		ep.Base.Fail(c, "Failed to update notification", err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, web.NewErrorResponse("Notification not found"))
		return
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(gin.H{"id": id, "read": true}))
}

type PanicDTO struct {
	GuardID   int32    `json:"guardId" binding:"required,min=1"`
	PostID    *int32   `json:"postId"`
	Latitude  *float64 `json:"latitude" binding:"required,latitude"`
	Longitude *float64 `json:"longitude" binding:"required,longitude"`
}

// Panic stores the alert first; a failed notification does not fail the
// request.
func (ep *Endpoint) Panic(c *gin.Context) {
	var dto PanicDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse(web.FormatBindingError(err)))
		return
	}

	ctx := c.Request.Context()
	alert := model.PanicAlert{
		GuardID:   dto.GuardID,
		PostID:    dto.PostID,
		Latitude:  *dto.Latitude,
		Longitude: *dto.Longitude,
		RaisedAt:  ep.Now(),
	}
	if err := ep.Store.CreatePanicAlert(ctx, &alert); err != nil {
		ep.Base.Fail(c, "Failed to record panic alert", err)
		return
	}

	name := fmt.Sprintf("guard %d", dto.GuardID)
	if guard, err := ep.Store.FindGuardByID(ctx, dto.GuardID); err == nil && guard != nil {
		name = fmt.Sprintf("%s (%s)", guard.FullName(), guard.Rut)
	}
	post := utils.Format(dto.PostID)
	if post == "" {
		post = "N/A"
	}
	message := fmt.Sprintf("Panic alert from %s at post %s: https://www.google.com/maps?q=%f,%f",
		name, post, alert.Latitude, alert.Longitude)

	notified := true
	if err := ep.Notifier.Alert(ctx, message); err != nil {
		notified = false
		ep.Base.Info(c, "panic alert notification failed", zap.Int32("alert_id", alert.ID), zap.Error(err))
	}

	c.JSON(http.StatusCreated, web.NewSuccessResponse(gin.H{"id": alert.ID, "notified": notified}))
}
