package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alnoor-edu/school-ops-service/internal/config"
	"github.com/alnoor-edu/school-ops-service/internal/models"
	"github.com/alnoor-edu/school-ops-service/internal/repositories"
	"github.com/alnoor-edu/school-ops-service/internal/services"
	"github.com/alnoor-edu/school-ops-service/internal/utils"
	"github.com/alnoor-edu/school-ops-service/internal/validator"
)

type HandlerManager struct {
	staffHandler      *StaffHandler
	ticketHandler     *TicketHandler
	scheduleHandler   *ScheduleHandler
	leaveHandler      *LeaveHandler
	complianceHandler *ComplianceHandler
	dashboardHandler  *DashboardHandler
	authMiddleware    *CasdoorAuthMiddleware
	repoManager       repositories.RepositoryManager
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
	repoManager repositories.RepositoryManager,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo)

	return &HandlerManager{
		staffHandler:      NewStaffHandler(serviceManager.Staff(), validator, logger),
		ticketHandler:     NewTicketHandler(serviceManager.Ticket(), validator, logger),
		scheduleHandler:   NewScheduleHandler(serviceManager.Schedule(), validator, logger),
		leaveHandler:      NewLeaveHandler(serviceManager.Leave(), validator, logger),
		complianceHandler: NewComplianceHandler(serviceManager.Compliance(), logger),
		dashboardHandler:  NewDashboardHandler(serviceManager.Dashboard(), logger),
		authMiddleware:    authMiddleware,
		repoManager:       repoManager,
	}
}

// SetupRoutes wires all API routes onto the router.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.healthCheck)

	// Registration precedes authentication: the signup call is what creates
	// the directory record the token will later resolve to.
	router.POST("/api/v1/staff/register", hm.staffHandler.Register)

	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Own profile stays reachable while the account is pending.
		v1.GET("/staff/me", hm.staffHandler.GetMe)
	}

	approved := router.Group("/api/v1")
	approved.Use(hm.authMiddleware.AuthMiddleware())
	approved.Use(hm.authMiddleware.RequireApprovedMiddleware())
	{
		// Staff directory
		staff := approved.Group("/staff")
		{
			staff.GET("", hm.staffHandler.ListStaff)
			staff.GET("/:id", hm.staffHandler.GetStaff)
			staff.PUT("/:id", hm.staffHandler.UpdateStaff)

			// Management actions - HR and Admins only
			staff.POST("/:id/approve", hm.authMiddleware.RequireRoleMiddleware(models.RoleHR), hm.staffHandler.ApproveStaff)
			staff.POST("/:id/block", hm.authMiddleware.RequireRoleMiddleware(models.RoleHR), hm.staffHandler.BlockStaff)
			staff.PUT("/:id/role", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.staffHandler.ChangeRole)
		}

		// Maintenance tickets - any approved user can raise and view
		tickets := approved.Group("/tickets")
		{
			tickets.POST("", hm.ticketHandler.CreateTicket)
			tickets.GET("", hm.ticketHandler.ListTickets)
			tickets.GET("/:id", hm.ticketHandler.GetTicket)
			tickets.PUT("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleMaintenance), hm.ticketHandler.UpdateTicket)
			tickets.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.ticketHandler.DeleteTicket)
			tickets.PUT("/:id/status", hm.authMiddleware.RequireRoleMiddleware(models.RoleMaintenance), hm.ticketHandler.UpdateTicketStatus)

			// Escalation - maintenance leads and admins
			tickets.POST("/:id/escalate", hm.authMiddleware.RequireRoleMiddleware(models.RoleMaintenance), hm.ticketHandler.EscalateTicket)
			tickets.POST("/:id/deescalate", hm.authMiddleware.RequireRoleMiddleware(models.RoleMaintenance), hm.ticketHandler.DeescalateTicket)
		}

		// Recurring schedules - maintenance and admins
		schedules := approved.Group("/schedules")
		schedules.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleMaintenance))
		{
			schedules.POST("", hm.scheduleHandler.CreateSchedule)
			schedules.GET("", hm.scheduleHandler.ListSchedules)
			schedules.GET("/:id", hm.scheduleHandler.GetSchedule)
			schedules.PUT("/:id", hm.scheduleHandler.UpdateSchedule)
			schedules.DELETE("/:id", hm.scheduleHandler.DeleteSchedule)
			schedules.POST("/generate", hm.scheduleHandler.GenerateTickets)
		}

		// Leave
		leave := approved.Group("/leave")
		{
			leave.POST("", hm.leaveHandler.SubmitLeave)
			leave.GET("", hm.leaveHandler.ListLeave)
			leave.GET("/:id", hm.leaveHandler.GetLeave)
			leave.GET("/balance/:id", hm.leaveHandler.GetBalance)

			// Decisions and balance edits - HR and Admins only
			leave.PUT("/balance/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleHR), hm.leaveHandler.SetBalance)
			leave.POST("/:id/approve", hm.authMiddleware.RequireRoleMiddleware(models.RoleHR), hm.leaveHandler.ApproveLeave)
			leave.POST("/:id/reject", hm.authMiddleware.RequireRoleMiddleware(models.RoleHR), hm.leaveHandler.RejectLeave)
		}

		// Compliance - HR and Admins only
		compliance := approved.Group("/compliance")
		compliance.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleHR))
		{
			compliance.GET("/alerts", hm.complianceHandler.GetAlerts)
			compliance.GET("/badge", hm.complianceHandler.GetBadge)
			compliance.GET("/export", hm.complianceHandler.ExportReport)
		}

		// Dashboard - HR and Admins only
		approved.GET("/dashboard", hm.authMiddleware.RequireRoleMiddleware(models.RoleHR), hm.dashboardHandler.GetOverview)
	}
}

// healthCheck reports service liveness and backing-store health.
func (hm *HandlerManager) healthCheck(c *gin.Context) {
	if err := hm.repoManager.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "degraded",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
