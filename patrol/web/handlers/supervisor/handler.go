package supervisor

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	patrol "guardpatrol.com/patrol/patrol/core"
	"guardpatrol.com/patrol/patrol/model"
	"guardpatrol.com/patrol/patrol/store"
	common "guardpatrol.com/patrol/patrol/web/common"
	"guardpatrol.com/patrol/utils"
)

type Store interface {
	FindSupervisorByRut(ctx context.Context, rut string) (*model.Supervisor, error)
	FindGuardByID(ctx context.Context, id int32) (*model.Guard, error)
	RecentPresence(ctx context.Context, guardID int32, limit int) ([]model.PresenceCheck, error)
	CreateNotification(ctx context.Context, n *model.Notification) error
	ListRounds(ctx context.Context, f store.RoundFilter) ([]store.RoundListing, error)
}

type Deps struct {
	Base      common.Handler
	Store     Store
	Dashboard *patrol.Dashboard
	Auth      common.Auth
	Now       func() time.Time
}

type Endpoint struct {
	Deps
}

// Register expects both groups to be mounted under /supervisor.
func Register(public, protected *gin.RouterGroup, deps Deps) {
	endpoint := &Endpoint{Deps: deps}
	if endpoint.Now == nil {
		endpoint.Now = utils.SantiagoNow
	}

	public.POST("/login", endpoint.Login)

	protected.GET("/guards", endpoint.Guards)
	protected.GET("/guards/:id", endpoint.GuardProfile)
	protected.POST("/notifications", endpoint.Notify)
	protected.GET("/rounds/export", endpoint.ExportRounds)
}
