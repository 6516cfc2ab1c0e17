package round

import (
	"context"

	"github.com/gin-gonic/gin"

	patrol "guardpatrol.com/patrol/patrol/core"
	"guardpatrol.com/patrol/patrol/model"
	"guardpatrol.com/patrol/patrol/store"
	common "guardpatrol.com/patrol/patrol/web/common"
)

type Store interface {
	GetRound(ctx context.Context, roundID int32) (*model.Round, error)
	ListRounds(ctx context.Context, f store.RoundFilter) ([]store.RoundListing, error)
	RoundPoints(ctx context.Context, round *model.Round) ([]patrol.RoundPoint, error)
}

type Endpoint struct {
	base   common.Handler
	engine *patrol.Engine
	store  Store
}

func Register(r *gin.RouterGroup, base common.Handler, engine *patrol.Engine, s Store) {
	endpoint := &Endpoint{base: base, engine: engine, store: s}
	r.POST("/marks", endpoint.SubmitMark)

	r.GET("/rounds", endpoint.List)
	r.PATCH("/rounds/:id", endpoint.UpdateStatus)
	r.GET("/rounds/:id/points", endpoint.Points)
	r.GET("/rounds/:id/progress", endpoint.Progress)
	r.GET("/rounds/:id/map", endpoint.Map)
}
