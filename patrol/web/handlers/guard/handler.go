package guard

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"guardpatrol.com/patrol/infrastructure/communication"
	"guardpatrol.com/patrol/infrastructure/filesystem"
	"guardpatrol.com/patrol/patrol/model"
	common "guardpatrol.com/patrol/patrol/web/common"
	"guardpatrol.com/patrol/utils"
)

type Store interface {
	FindGuardByRut(ctx context.Context, rut string) (*model.Guard, error)
	FindGuardByID(ctx context.Context, id int32) (*model.Guard, error)
	SetGuardActive(ctx context.Context, rut string, active bool) (bool, error)

	OpenShift(ctx context.Context, guardID int32) (*model.Shift, error)
	StartShift(ctx context.Context, guardID, postID int32, at time.Time) (*model.Shift, error)
	EndShift(ctx context.Context, shiftID int32, at time.Time) (bool, error)
	SuggestedPost(ctx context.Context, guardID int32, date string) (*model.Post, error)
	ListPosts(ctx context.Context) ([]model.Post, error)

	CreatePresenceCheck(ctx context.Context, c *model.PresenceCheck) error
	CreateLogbookEntry(ctx context.Context, e *model.LogbookEntry) error
	FindLogbookEntry(ctx context.Context, id int32) (*model.LogbookEntry, error)
	ListLogbook(ctx context.Context, guardID int32, limit, offset int) ([]model.LogbookEntry, int64, error)
	ListNotifications(ctx context.Context, guardID int32, limit int) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id int32) (bool, error)
	CreatePanicAlert(ctx context.Context, a *model.PanicAlert) error
}

type Deps struct {
	Base     common.Handler
	Store    Store
	Photos   filesystem.Storage
	Notifier communication.Notifier
	Auth     common.Auth
	// Now defaults to utils.SantiagoNow.
	Now func() time.Time
}

type Endpoint struct {
	Deps
}

// Register mounts login on public and everything else on protected.
func Register(public, protected *gin.RouterGroup, deps Deps) {
	endpoint := &Endpoint{Deps: deps}
	if endpoint.Now == nil {
		endpoint.Now = utils.SantiagoNow
	}

	public.POST("/login", endpoint.Login)

	protected.GET("/posts", endpoint.ListPosts)
	protected.GET("/guards/status", endpoint.Status)
	protected.PATCH("/guards/active", endpoint.SetActive)
	protected.POST("/shifts", endpoint.StartShift)
	protected.PATCH("/shifts/:id", endpoint.EndShift)
	protected.POST("/checks", endpoint.Check)

	protected.GET("/logbook", endpoint.ListLogbook)
	protected.POST("/logbook", endpoint.CreateLogbookEntry)
	protected.GET("/logbook/:id/photo", endpoint.LogbookPhoto)
	protected.POST("/uploads", endpoint.Upload)

	protected.GET("/notifications", endpoint.ListNotifications)
	protected.PATCH("/notifications/:id", endpoint.ReadNotification)
	protected.POST("/panic", endpoint.Panic)
}
