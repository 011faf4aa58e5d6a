package http

import (
	"github.com/gin-gonic/gin"

	"github.com/lemonhall/oa-mvp/internal/config"
	"github.com/lemonhall/oa-mvp/internal/log"
	"github.com/lemonhall/oa-mvp/pkg/auth"
	"github.com/lemonhall/oa-mvp/pkg/service"
	"github.com/lemonhall/oa-mvp/pkg/storage"
)

// Server bundles the services behind the REST API.
type Server struct {
	auth          *service.AuthService
	directory     *service.DirectoryService
	workflows     *service.WorkflowService
	processes     *service.ProcessService
	requests      *service.RequestService
	announcements *service.AnnouncementService
}

func NewServer(store storage.Store, settings config.Settings) *Server {
	logger := log.GetLogger()
	tokens := auth.NewTokenIssuer(settings.SecretKey, settings.AccessTokenTTL)
	return &Server{
		auth:          service.NewAuthService(store, tokens, logger),
		directory:     service.NewDirectoryService(store, logger),
		workflows:     service.NewWorkflowService(store, logger),
		processes:     service.NewProcessService(store, logger),
		requests:      service.NewRequestService(store, logger),
		announcements: service.NewAnnouncementService(store, logger),
	}
}

// Router wires every endpoint. Admin-only surfaces sit behind RequireAdmin;
// everything else only needs an authenticated user.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	api := r.Group("/api")
	api.POST("/auth/login", s.login)

	authed := api.Group("", RequireAuth(s.auth))
	authed.GET("/auth/me", s.me)

	authed.GET("/announcements", s.listAnnouncements)
	authed.POST("/announcements", RequireAdmin(), s.createAnnouncement)

	authed.GET("/process-types", s.listProcessTypes)
	authed.GET("/process-types/all", RequireAdmin(), s.listAllProcessTypes)
	authed.POST("/process-types", RequireAdmin(), s.createProcessType)
	authed.PATCH("/process-types/:id", RequireAdmin(), s.updateProcessType)

	authed.GET("/users", RequireAdmin(), s.listUsers)
	authed.POST("/users", RequireAdmin(), s.createUser)
	authed.PATCH("/users/:id", RequireAdmin(), s.updateUser)
	authed.PUT("/users/:id/password", RequireAdmin(), s.setUserPassword)

	authed.GET("/depts", RequireAdmin(), s.listDepartments)
	authed.POST("/depts", RequireAdmin(), s.createDepartment)

	authed.GET("/positions", RequireAdmin(), s.listPositions)
	authed.POST("/positions", RequireAdmin(), s.createPosition)

	authed.GET("/workflows", RequireAdmin(), s.listWorkflows)
	authed.POST("/workflows", RequireAdmin(), s.createWorkflow)
	authed.GET("/workflows/:id", RequireAdmin(), s.getWorkflow)
	authed.PATCH("/workflows/:id", RequireAdmin(), s.updateWorkflow)
	authed.POST("/workflows/:id/nodes", RequireAdmin(), s.addWorkflowNode)
	authed.DELETE("/workflows/:id/nodes/:node_id", RequireAdmin(), s.removeWorkflowNode)

	authed.POST("/requests", s.createRequest)
	authed.GET("/requests", s.listRequests)
	authed.GET("/requests/mine", s.listMyRequests)
	authed.GET("/requests/:id", s.getRequest)
	authed.GET("/requests/:id/detail", s.getRequestDetail)

	authed.GET("/approvals/pending", s.listPendingApprovals)
	authed.POST("/approvals/:id/decide", s.decide)

	return r
}

// StartServer runs the REST API on the given port until the process exits.
func StartServer(port string, store storage.Store, settings config.Settings) error {
	srv := NewServer(store, settings)
	log.GetLogger().Infof("Starting OA server on :%s", port)
	return srv.Router().Run(":" + port)
}
