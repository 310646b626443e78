package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/pscheid92/hashpulse/internal/app"
	apperrors "github.com/pscheid92/hashpulse/internal/platform/errors"
)

func (s *Server) registerPostRoutes(g *echo.Group) {
	g.POST("/tweets", s.handleSearchPosts)
	g.POST("/tweets/filter", s.handleSearchPosts)
	g.GET("/tweets/user", s.handleUploaderPosts)
}

// postFacetsRequest is the JSON body of a post search. An empty body means no facets.
type postFacetsRequest struct {
	Hashtag   string `json:"hashTag"`
	Sentiment string `json:"sentiment"`
}

func (s *Server) handleSearchPosts(c echo.Context) error {
	page, err := bindPage(c)
	if err != nil {
		return err
	}

	var body postFacetsRequest
	if err := (&echo.DefaultBinder{}).BindBody(c, &body); err != nil {
		return apperrors.ValidationError("invalid search body").Wrap(err)
	}

	result, err := s.svc.Posts.Search(c.Request().Context(), app.PostFacets{
		Search:    c.QueryParam("filter"),
		Hashtag:   body.Hashtag,
		Sentiment: body.Sentiment,
	}, page)
	if err != nil {
		return err
	}
	return writeJSON(c, result)
}

func (s *Server) handleUploaderPosts(c echo.Context) error {
	uploader, err := uploaderIdentity(c)
	if err != nil {
		return err
	}
	page, err := bindPage(c)
	if err != nil {
		return err
	}

	result, err := s.svc.Posts.ByUploader(c.Request().Context(), uploader, page)
	if err != nil {
		return err
	}
	return writeJSON(c, result)
}
