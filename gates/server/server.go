package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"userapi/domain"
	"userapi/iternal/config"
)

const requestIDKey = "request_id"

type Server struct {
	log *slog.Logger
	srv *domain.UserService
	cfg *config.Config
}

func NewServer(db domain.UserStore, cfg *config.Config, log *slog.Logger, r *gin.Engine) *Server {
	server := &Server{
		log: log,
		srv: domain.NewUserService(db, log, cfg),
		cfg: cfg,
	}

	r.Use(gin.Recovery(), server.RequestID(), server.AccessLog(), CORS(cfg.CORS))

	r.GET("/healthz", server.healthHandler)

	users := r.Group("/user")
	{
		users.POST("", server.createHandler)
		users.GET("", server.listHandler)
		users.GET("/:user_id", server.getHandler)
		users.PUT("/:user_id", server.updateHandler)
		users.DELETE("/:user_id", server.deleteHandler)
	}
	server.log.Info("router configured")
	return server
}

func detail(msg string) gin.H {
	return gin.H{"detail": msg}
}

// userID extracts the path id; on failure the response is already written.
func (s Server) userID(c *gin.Context, op string) (domain.UserID, bool) {
	idParamStr := c.Param("user_id")
	idParam, err := strconv.ParseInt(idParamStr, 10, 64)
	if err != nil {
		s.log.Debug(op+": failed to parse user id", "user_id", idParamStr)
		c.JSON(http.StatusUnprocessableEntity, detail("user_id must be an integer"))
		return 0, false
	}
	return domain.UserID(idParam), true
}

// fail maps a service error onto the response.
func (s Server) fail(c *gin.Context, op string, err error) {
	if errors.Is(err, domain.ErrUserNotFound) {
		s.log.Debug(op+": user not found", "request_id", c.GetString(requestIDKey))
		c.JSON(http.StatusNotFound, detail("User not found"))
		return
	}
	s.log.Error(op+": request failed", "request_id", c.GetString(requestIDKey), "error", err)
	c.JSON(http.StatusInternalServerError, detail("internal server error"))
}

func (s Server) bindUser(c *gin.Context, op string) (domain.User, bool) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.log.Debug(op+": failed to decode request body", "error", err)
		c.JSON(http.StatusUnprocessableEntity, detail(err.Error()))
		return domain.User{}, false
	}
	return req.toDomain(), true
}

func (s Server) createHandler(c *gin.Context) {
	const op = "gates.server.createHandler"
	duser, ok := s.bindUser(c, op)
	if !ok {
		return
	}
	created, err := s.srv.CreateUser(c.Request.Context(), duser)
	if err != nil {
		s.fail(c, op, err)
		return
	}
	s.log.Info(op+": created user", "id", created.ID)
	c.JSON(http.StatusOK, fromDomain(created))
}

func (s Server) listHandler(c *gin.Context) {
	const op = "gates.server.listHandler"
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.log.Debug(op+": failed to parse query", "error", err)
		c.JSON(http.StatusUnprocessableEntity, detail("skip and limit must be integers"))
		return
	}
	skip, limit := 0, s.cfg.Pagination.DefaultLimit
	if q.Skip != nil {
		skip = *q.Skip
	}
	if q.Limit != nil {
		limit = *q.Limit
	}
	if skip < 0 || limit < 0 {
		c.JSON(http.StatusUnprocessableEntity, detail("skip and limit must not be negative"))
		return
	}
	users, err := s.srv.ListUsers(c.Request.Context(), skip, limit)
	if err != nil {
		s.fail(c, op, err)
		return
	}
	resp := make([]user, 0, len(users))
	for _, duser := range users {
		resp = append(resp, fromDomain(duser))
	}
	c.JSON(http.StatusOK, resp)
}

func (s Server) getHandler(c *gin.Context) {
	const op = "gates.server.getHandler"
	id, ok := s.userID(c, op)
	if !ok {
		return
	}
	duser, err := s.srv.GetUser(c.Request.Context(), id)
	if err != nil {
		s.fail(c, op, err)
		return
	}
	c.JSON(http.StatusOK, fromDomain(duser))
}

func (s Server) updateHandler(c *gin.Context) {
	const op = "gates.server.updateHandler"
	id, ok := s.userID(c, op)
	if !ok {
		return
	}
	duser, ok := s.bindUser(c, op)
	if !ok {
		return
	}
	updated, err := s.srv.UpdateUser(c.Request.Context(), id, duser)
	if err != nil {
		s.fail(c, op, err)
		return
	}
	s.log.Info(op+": updated user", "id", id)
	c.JSON(http.StatusOK, fromDomain(updated))
}

func (s Server) deleteHandler(c *gin.Context) {
	const op = "gates.server.deleteHandler"
	id, ok := s.userID(c, op)
	if !ok {
		return
	}
	deleted, err := s.srv.DeleteUser(c.Request.Context(), id)
	if err != nil {
		s.fail(c, op, err)
		return
	}
	s.log.Info(op+": deleted user", "id", id)
	c.JSON(http.StatusOK, fromDomain(deleted))
}

func (s Server) healthHandler(c *gin.Context) {
	const op = "gates.server.healthHandler"
	if err := s.srv.Health(c.Request.Context()); err != nil {
		s.log.Error(op+": database unreachable", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
