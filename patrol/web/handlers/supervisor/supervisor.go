package supervisor

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"guardpatrol.com/patrol/patrol/model"
	"guardpatrol.com/patrol/patrol/report"
	"guardpatrol.com/patrol/patrol/store"
	"guardpatrol.com/patrol/security"
	"guardpatrol.com/patrol/utils"
	web "guardpatrol.com/patrol/web/common"
)

const (
	profileChecks = 20
	xlsxMime      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type LoginDTO struct {
	Rut      string `json:"rut" binding:"required,rut"`
	Password string `json:"password" binding:"required"`
}

func (ep *Endpoint) Login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse(web.FormatBindingError(err)))
		return
	}

	sup, err := ep.Store.FindSupervisorByRut(c.Request.Context(), web.NormalizeRut(dto.Rut))
	if err != nil {
		ep.Base.Fail(c, "Failed to log in", err)
		return
	}
	if sup == nil || !security.CheckPassword(sup.PasswordHash, dto.Password) {
		c.JSON(http.StatusUnauthorized, web.NewErrorResponse("Invalid credentials"))
		return
	}

	token, err := ep.Auth.Issue(&security.PatrolIdentity{
		ID:   sup.ID,
		Rut:  sup.Rut,
		Name: sup.Name,
		Role: security.RoleSupervisor,
	})
	if err != nil {
		ep.Base.Fail(c, "Failed to issue token", err)
		return
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(gin.H{"token": token, "supervisor": sup}))
}

// Guards is the dashboard: every guard with post, last location and round
// progress.
func (ep *Endpoint) Guards(c *gin.Context) {
	guards, err := ep.Dashboard.Guards(c.Request.Context())
	if err != nil {
		ep.Base.Fail(c, "Failed to load dashboard", err)
		return
	}
	c.JSON(http.StatusOK, web.NewSuccessResponse(guards))
}

type GuardProfile struct {
	Guard  *model.Guard          `json:"guard"`
	Checks []model.PresenceCheck `json:"checks"`
}

func (ep *Endpoint) GuardProfile(c *gin.Context) {
	id, ok := ep.Base.ParamID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	guard, err := ep.Store.FindGuardByID(ctx, id)
	if err != nil {
		ep.Base.Fail(c, "Failed to load guard", err)
		return
	}
	if guard == nil {
		c.JSON(http.StatusNotFound, web.NewErrorResponse("Guard not found"))
		return
	}

	checks, err := ep.Store.RecentPresence(ctx, id, profileChecks)
	if err != nil {
		ep.Base.Fail(c, "Failed to load presence checks", err)
		return
	}
	if checks == nil {
		checks = []model.PresenceCheck{}
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(GuardProfile{Guard: guard, Checks: checks}))
}

type NotificationDTO struct {
	GuardID int32  `json:"guardId" binding:"required,min=1"`
	Message string `json:"message" binding:"required,max=1000"`
}

func (ep *Endpoint) Notify(c *gin.Context) {
	var dto NotificationDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse(web.FormatBindingError(err)))
		return
	}

	ctx := c.Request.Context()
	guard, err := ep.Store.FindGuardByID(ctx, dto.GuardID)
	if err != nil {
		ep.Base.Fail(c, "Failed to load guard", err)
		return
	}
	if guard == nil {
		c.JSON(http.StatusNotFound, web.NewErrorResponse("Guard not found"))
		return
	}

	n := model.Notification{GuardID: dto.GuardID, Message: dto.Message, SentAt: ep.Now()}
	if err := ep.Store.CreateNotification(ctx, &n); err != nil {
		ep.Base.Fail(c, "Failed to send notification", err)
		return
	}

	ep.Base.Info(c, "notification sent", zap.Int32("guard_id", dto.GuardID), zap.Int32("notification_id", n.ID))
	c.JSON(http.StatusCreated, web.NewSuccessResponse(n))
}

type ExportQuery struct {
	Date web.DateOnly `form:"date"`
}

// ExportRounds downloads the day's rounds as XLSX. Date defaults to today.
func (ep *Endpoint) ExportRounds(c *gin.Context) {
	var q ExportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse(web.FormatBindingError(err)))
		return
	}
	date := q.Date.String()
	if date == "" {
		date = utils.Today(ep.Now())
	}

	rounds, err := ep.Store.ListRounds(c.Request.Context(), store.RoundFilter{Date: date})
	if err != nil {
		ep.Base.Fail(c, "Failed to list rounds", err)
		return
	}

	data, err := report.RoundReport(rounds)
	if err != nil {
		ep.Base.Fail(c, "Failed to build report", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="rounds-%s.xlsx"`, date))
	c.Data(http.StatusOK, xlsxMime, data)
}
