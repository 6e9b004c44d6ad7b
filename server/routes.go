package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rlch/moviekg/query"
)

type askRequest struct {
	Question string `json:"question" query:"q" validate:"required"`
}

// attributeResponse is the body of GET /movies/:title/:intent.
type attributeResponse struct {
	Title   string        `json:"title"`
	Intent  query.Intent  `json:"intent"`
	Outcome query.Outcome `json:"outcome"`
	Text    string        `json:"text"`
}

func (s *Server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getAsk(c echo.Context) error {
	req := askRequest{Question: strings.TrimSpace(c.QueryParam("q"))}

	return s.ask(c, req)
}

func (s *Server) postAsk(c echo.Context) error {
	req := new(askRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	req.Question = strings.TrimSpace(req.Question)

	return s.ask(c, *req)
}

func (s *Server) ask(c echo.Context, req askRequest) error {
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "question is required"})
	}

	ans := s.answerer.Answer(c.Request().Context(), req.Question)

	return c.JSON(http.StatusOK, ans)
}

func (s *Server) getMovieAttribute(c echo.Context) error {
	type params struct {
		Title  string `param:"title" validate:"required"`
		Intent string `param:"intent" validate:"required"`
	}

	p := new(params)
	if err := c.Bind(p); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(p); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	intent, err := query.ParseIntent(p.Intent)
	if err != nil || intent == query.Unknown {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown intent " + p.Intent})
	}

	title := strings.TrimSpace(p.Title)
	outcome := s.querier.Query(c.Request().Context(), title, intent)

	status := http.StatusOK
	switch outcome.Kind {
	case query.NotFound:
		status = http.StatusNotFound
	case query.QueryError:
		status = http.StatusBadGateway
	}

	return c.JSON(status, attributeResponse{
		Title:   title,
		Intent:  intent,
		Outcome: outcome,
		Text:    query.Format(intent, title, outcome),
	})
}
