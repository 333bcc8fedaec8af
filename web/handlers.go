package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/modelcontextprotocol/go-sdk/jsonschema"
	"go.opentelemetry.io/otel"

	"nutrisyn"
	"nutrisyn/dataset"
	"nutrisyn/recommend"
	"nutrisyn/slack"
	"nutrisyn/tools"
)

var errMissingSelection = errors.New("region, condition and age_group are required")

type pageData struct {
	Regions    []string
	Conditions []string
	AgeGroups  []string
	Selected   dataset.Query
	Result     *resultView
	Error      string
	Disclaimer string
}

type resultView struct {
	HasMatches     bool
	NoMatchMessage string
	Crops          []string
	Enrichment     []recommend.CropNutrients
	Text           string
	Failed         bool
	Model          string
}

type recommendationResponse struct {
	Query          dataset.Query             `json:"query"`
	Matches        []dataset.Row             `json:"matches"`
	Crops          []string                  `json:"crops"`
	Message        string                    `json:"message,omitempty"`
	Enrichment     []recommend.CropNutrients `json:"enrichment,omitempty"`
	Recommendation string                    `json:"recommendation"`
	Error          bool                      `json:"error"`
	Model          string                    `json:"model"`
	Disclaimer     string                    `json:"disclaimer"`
}

func newRecommendationResponse(rec recommend.Recommendation) recommendationResponse {
	resp := recommendationResponse{
		Query:          rec.Query,
		Matches:        rec.Matches,
		Crops:          rec.Crops,
		Enrichment:     rec.Enrichment,
		Recommendation: rec.Text(),
		Error:          rec.Result.IsErr(),
		Model:          rec.Model,
		Disclaimer:     recommend.Disclaimer,
	}
	if !rec.HasMatches() {
		resp.Message = recommend.NoMatchMessage
	}
	return resp
}

type optionsResponse struct {
	Regions    []string `json:"regions"`
	Conditions []string `json:"conditions"`
	AgeGroups  []string `json:"age_groups"`
}

type toolInfo struct {
	Name         string             `json:"name"`
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	InputSchema  *jsonschema.Schema `json:"input_schema"`
	OutputSchema *jsonschema.Schema `json:"output_schema"`
}

type shareRequest struct {
	dataset.Query
	Channel string `json:"channel"`
}

func (s *Server) indexHandler(c echo.Context) error {
	data, err := s.newPageData(c)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "index.html", data)
}

func (s *Server) recommendFormHandler(c echo.Context) error {
	data, err := s.newPageData(c)
	if err != nil {
		return err
	}

	q, err := bindQuery(c)
	data.Selected = q
	if err != nil {
		data.Error = err.Error()
		return c.Render(http.StatusBadRequest, "index.html", data)
	}

	rec, err := s.recommend(c, q)
	if err != nil {
		return err
	}

	data.Result = &resultView{
		HasMatches:     rec.HasMatches(),
		NoMatchMessage: recommend.NoMatchMessage,
		Crops:          rec.Crops,
		Enrichment:     rec.Enrichment,
		Text:           rec.Text(),
		Failed:         rec.Result.IsErr(),
		Model:          rec.Model,
	}
	return c.Render(http.StatusOK, "index.html", data)
}

func (s *Server) recommendAPIHandler(c echo.Context) error {
	q, err := bindQuery(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	rec, err := s.recommend(c, q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newRecommendationResponse(rec))
}

func (s *Server) optionsHandler(c echo.Context) error {
	table, err := s.table(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, optionsResponse{
		Regions:    table.Regions(),
		Conditions: table.Conditions(),
		AgeGroups:  table.AgeGroups(),
	})
}

func (s *Server) listToolsHandler(c echo.Context) error {
	list := make([]toolInfo, 0)
	for _, t := range s.tools.GetTools() {
		list = append(list, toolInfo{
			Name:         t.Name(),
			Title:        t.Title(),
			Description:  t.Description(),
			InputSchema:  t.InputSchema(),
			OutputSchema: t.OutputSchema(),
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"tools": list})
}

func (s *Server) runToolHandler(c echo.Context) error {
	name := c.Param("name")
	if _, err := s.tools.GetTool(name); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}

	input := map[string]any{}
	if err := (&echo.DefaultBinder{}).BindBody(c, &input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "tool input must be a JSON object")
	}

	out, err := s.tools.Run(c.Request().Context(), tools.Call{Name: name, Input: input})
	if errors.Is(err, tools.ErrInvalidInput) {
		slog.Warn("WEB: Tool input rejected", "tool", name, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		slog.Error("WEB: Tool failed", "tool", name, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "tool failed").SetInternal(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) shareHandler(c echo.Context) error {
	if s.slack == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "sharing is not configured")
	}

	var req shareRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid share request")
	}
	q, err := validateQuery(req.Query)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	rec, err := s.recommend(c, q)
	if err != nil {
		return err
	}

	channel := req.Channel
	if channel == "" {
		channel = s.slackChannel
	}
	if err := s.slack.PostMessage(c.Request().Context(), channel, slack.FormatRecommendation(rec)); err != nil {
		slog.Error("WEB: Share failed", "channel", channel, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "failed to share recommendation")
	}

	return c.JSON(http.StatusOK, map[string]any{"shared": true, "channel": channel})
}

func (s *Server) healthHandler(c echo.Context) error {
	table, err := s.provider.Table(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "ok", "rows": table.Len()})
}

func (s *Server) recommend(c echo.Context, q dataset.Query) (recommend.Recommendation, error) {
	ctx, span := otel.Tracer(nutrisyn.TracerNameWeb).Start(c.Request().Context(), "web.recommend")
	defer span.End()

	rec, err := s.advisor.Recommend(ctx, q)
	if err != nil {
		slog.Error("WEB: Recommend failed", "error", err)
		return rec, echo.NewHTTPError(http.StatusInternalServerError, "dataset unavailable").SetInternal(err)
	}
	return rec, nil
}

func (s *Server) table(c echo.Context) (*dataset.Table, error) {
	table, err := s.provider.Table(c.Request().Context())
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "dataset unavailable").SetInternal(err)
	}
	return table, nil
}

func (s *Server) newPageData(c echo.Context) (pageData, error) {
	table, err := s.table(c)
	if err != nil {
		return pageData{}, err
	}
	return pageData{
		Regions:    table.Regions(),
		Conditions: table.Conditions(),
		AgeGroups:  table.AgeGroups(),
		Disclaimer: recommend.Disclaimer,
	}, nil
}

func bindQuery(c echo.Context) (dataset.Query, error) {
	var q dataset.Query
	if err := c.Bind(&q); err != nil {
		return q, errMissingSelection
	}
	return validateQuery(q)
}

func validateQuery(q dataset.Query) (dataset.Query, error) {
	if strings.TrimSpace(q.Region) == "" || strings.TrimSpace(q.Condition) == "" || strings.TrimSpace(q.AgeGroup) == "" {
		return q, errMissingSelection
	}
	return q, nil
}
