package server

import (
	"net/http"
	"time"

	"github.com/berfenger/garagedoor2mqtt/internal/core/domain"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type doorStateView struct {
	Id    string           `json:"id"`
	State domain.DoorState `json:"state"`
}

type commandResultView struct {
	Id       string             `json:"id"`
	Command  domain.DoorCommand `json:"command"`
	Accepted bool               `json:"accepted"`
	State    domain.DoorState   `json:"state"`
}

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)
	e.GET("/doors", s.ListDoorsHandler)
	e.GET("/doors/:door", s.DoorSnapshotHandler)
	e.POST("/doors/:door/:command", s.DoorCommandHandler)

	return e
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	if response, ok := res.(domain.ActorHealthResponse); ok && response.Healthy {
		return c.String(http.StatusOK, "health_check: OK")
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}

func (s *Server) ListDoorsHandler(c echo.Context) error {
	views := make([]doorStateView, 0, len(s.doors))
	for _, door := range s.doors {
		view := doorStateView{Id: door.Id(), State: domain.DoorStateUnavailable}
		res, err := s.rootContext.RequestFuture(s.masterActor, domain.GetDoorStateRequest{
			DoorId: door.Id(),
		}, 5*time.Second).Result()
		if err == nil {
			if response, ok := res.(domain.GetDoorStateResponse); ok && !response.HasResponseError() {
				view.State = response.State
			}
		}
		views = append(views, view)
	}
	return c.JSON(http.StatusOK, views)
}

func (s *Server) DoorSnapshotHandler(c echo.Context) error {
	doorId := c.Param("door")
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.GetDoorSnapshotRequest{
		DoorId: doorId,
	}, 5*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "door snapshot unavailable")
	}
	response, ok := res.(domain.GetDoorSnapshotResponse)
	if !ok {
		return c.String(http.StatusInternalServerError, "unexpected response")
	}
	if response.HasResponseError() {
		return c.String(http.StatusNotFound, "unknown door")
	}
	return c.JSON(http.StatusOK, response.Snapshot)
}

func (s *Server) DoorCommandHandler(c echo.Context) error {
	doorId := c.Param("door")
	var command domain.DoorCommand
	switch c.Param("command") {
	case "open":
		command = domain.DoorCommandOpen
	case "close":
		command = domain.DoorCommandClose
	case "stop":
		command = domain.DoorCommandStop
	default:
		return c.String(http.StatusBadRequest, "unknown command")
	}

	res, err := s.rootContext.RequestFuture(s.masterActor, domain.DoorCommandRequest{
		DoorId:  doorId,
		Command: command,
	}, 10*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "command dispatch failed")
	}
	response, ok := res.(domain.DoorCommandResponse)
	if !ok {
		return c.String(http.StatusInternalServerError, "unexpected response")
	}
	view := commandResultView{
		Id:       doorId,
		Command:  command,
		Accepted: response.Accepted,
		State:    response.State,
	}
	if !response.Accepted {
		// the door cannot honor this command in its current state
		return c.JSON(http.StatusConflict, view)
	}
	return c.JSON(http.StatusOK, view)
}
