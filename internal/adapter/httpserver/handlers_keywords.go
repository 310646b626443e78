package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/pscheid92/hashpulse/internal/domain"
	apperrors "github.com/pscheid92/hashpulse/internal/platform/errors"
)

func (s *Server) registerKeywordRoutes(g *echo.Group) {
	g.GET("/keyword", s.listKeywords(s.svc.Keywords.Popular, false))
	g.GET("/keyword/filter", s.listKeywords(s.svc.Keywords.Popular, true))
	g.GET("/keyword/least", s.listKeywords(s.svc.Keywords.LeastPopular, false))
	g.GET("/keyword/least/filter", s.listKeywords(s.svc.Keywords.LeastPopular, true))
	g.GET("/keyword/all", s.handleAllKeywords)
	g.GET("/keyword/statistics", s.handleStatistics)
}

type keywordLister func(ctx context.Context, contains string, page domain.Page) ([]domain.KeywordAggregate, error)

func (s *Server) listKeywords(list keywordLister, filtered bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		page, err := bindPage(c)
		if err != nil {
			return err
		}

		var contains string
		if filtered {
			contains = strings.TrimSpace(c.QueryParam("filter"))
		}

		kws, err := list(c.Request().Context(), contains, page)
		if err != nil {
			return err
		}
		return writeJSON(c, nonNil(kws))
	}
}

func (s *Server) handleAllKeywords(c echo.Context) error {
	kws, err := s.svc.Keywords.All(c.Request().Context())
	if err != nil {
		return err
	}
	return writeJSON(c, nonNil(kws))
}

func (s *Server) handleStatistics(c echo.Context) error {
	hashtag := strings.TrimSpace(c.QueryParam("hashTag"))
	if hashtag == "" {
		return apperrors.ValidationError("hashTag is required")
	}

	result, err := s.svc.Statistics.Stats(c.Request().Context(), hashtag)
	if err != nil {
		return err
	}
	return writeJSON(c, result)
}

func writeJSON(c echo.Context, v any) error {
	if err := c.JSON(http.StatusOK, v); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
