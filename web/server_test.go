package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutrisyn/dataset"
	"nutrisyn/inference"
	"nutrisyn/nutrients"
	"nutrisyn/recommend"
	"nutrisyn/tools"
)

var testRows = []dataset.Row{
	{Region: "South Asia", Condition: "Diabetes", AgeGroup: "Adults", Crop: "Lentils", NutrientSummary: "Protein, Fiber", Benefits: "Low glycemic index"},
	{Region: "South Asia", Condition: "Anemia", AgeGroup: "Children", Crop: "Spinach"},
	{Region: "Latin America", Condition: "Diabetes", AgeGroup: "Elderly", Crop: "Beans"},
}

type fakeGenerator struct {
	result inference.Result
	calls  int
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) inference.Result {
	g.calls++
	return g.result
}

func (g *fakeGenerator) Model() string { return "fake-model" }

type stubLookup map[string]nutrients.Profile

func (s stubLookup) Lookup(ctx context.Context, crop string) (nutrients.Profile, bool) {
	p, ok := s[crop]
	return p, ok
}

type fakeSlack struct {
	channel string
	message string
	err     error
}

func (f *fakeSlack) PostMessage(ctx context.Context, channel string, message string) error {
	f.channel = channel
	f.message = message
	return f.err
}

type testServer struct {
	*Server
	gen   *fakeGenerator
	slack *fakeSlack
}

func newTestServer(t *testing.T, load dataset.Loader) testServer {
	t.Helper()
	if load == nil {
		load = func(ctx context.Context) (*dataset.Table, error) { return dataset.NewTable(testRows) }
	}
	provider := dataset.NewProvider(load)
	lookup := stubLookup{"Lentils": {
		Food:      "Lentils, raw",
		Nutrients: map[string]float64{"Protein": 24.6},
		Units:     map[string]string{"Protein": "G"},
	}}
	gen := &fakeGenerator{result: inference.OK("1. Lentils: steady blood sugar")}

	advisor, err := recommend.NewAdvisor(recommend.AdvisorOpts{Provider: provider, Generator: gen, Nutrients: lookup})
	require.NoError(t, err)

	fs := &fakeSlack{}
	s, err := NewServer(Opts{
		Provider:     provider,
		Advisor:      advisor,
		Tools:        tools.NewRegistry(provider, lookup),
		Slack:        fs,
		SlackChannel: "#nutrition",
	})
	require.NoError(t, err)
	return testServer{Server: s, gen: gen, slack: fs}
}

func (ts testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func formRequest(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/recommend", strings.NewReader(values.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

func TestNewServer_RequiresDependencies(t *testing.T) {
	_, err := NewServer(Opts{})
	assert.Error(t, err)
}

func TestIndex(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `<option value="Latin America">Latin America</option>`)
	assert.Contains(t, body, `<option value="Anemia">Anemia</option>`)
	assert.Contains(t, body, `<option value="Elderly">Elderly</option>`)
	assert.Contains(t, body, recommend.Disclaimer)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestRecommendForm(t *testing.T) {
	tests := []struct {
		name         string
		values       url.Values
		wantStatus   int
		wantContains []string
		wantMissing  []string
	}{
		{
			name:       "match",
			values:     url.Values{"region": {"South Asia"}, "condition": {"Diabetes"}, "age_group": {"Adults"}},
			wantStatus: http.StatusOK,
			wantContains: []string{
				"<li>Lentils</li>",
				"Protein 24.6 g",
				"1. Lentils: steady blood sugar",
				`<option value="Adults" selected>Adults</option>`,
			},
			wantMissing: []string{recommend.NoMatchMessage},
		},
		{
			name:         "no match",
			values:       url.Values{"region": {"South Asia"}, "condition": {"Diabetes"}, "age_group": {"Children"}},
			wantStatus:   http.StatusOK,
			wantContains: []string{recommend.NoMatchMessage, "1. Lentils: steady blood sugar"},
			wantMissing:  []string{"Nutrient Data"},
		},
		{
			name:         "missing field",
			values:       url.Values{"region": {"South Asia"}},
			wantStatus:   http.StatusBadRequest,
			wantContains: []string{"region, condition and age_group are required"},
			wantMissing:  []string{"AI Agent Recommendation"},
		},
		{
			name:         "blank field",
			values:       url.Values{"region": {"South Asia"}, "condition": {"  "}, "age_group": {"Adults"}},
			wantStatus:   http.StatusBadRequest,
			wantContains: []string{"region, condition and age_group are required"},
		},
		{
			name:         "selection values are matched exactly",
			values:       url.Values{"region": {"South Asia"}, "condition": {"Diabetes"}, "age_group": {"Adults "}},
			wantStatus:   http.StatusOK,
			wantContains: []string{recommend.NoMatchMessage},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, nil)

			rec := ts.do(formRequest(tt.values))
			require.Equal(t, tt.wantStatus, rec.Code)
			for _, s := range tt.wantContains {
				assert.Contains(t, rec.Body.String(), s)
			}
			for _, s := range tt.wantMissing {
				assert.NotContains(t, rec.Body.String(), s)
			}
		})
	}
}

func TestRecommendForm_GenerationErrorIsDisplayed(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.gen.result = inference.Failed(&inference.StatusError{StatusCode: 500, Body: "internal"})

	rec := ts.do(formRequest(url.Values{"region": {"South Asia"}, "condition": {"Diabetes"}, "age_group": {"Adults"}}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Error: 500 - internal")
}

func TestRecommendAPI(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(jsonRequest(http.MethodPost, "/api/recommend", `{"region":"South Asia","condition":"Diabetes","age_group":"Children"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	var got recommendationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Empty(t, got.Matches)
	assert.Equal(t, recommend.NoMatchMessage, got.Message)
	assert.Equal(t, "1. Lentils: steady blood sugar", got.Recommendation)
	assert.False(t, got.Error)
	assert.Equal(t, "fake-model", got.Model)
	assert.Equal(t, 1, ts.gen.calls)

	rec = ts.do(jsonRequest(http.MethodPost, "/api/recommend", `{"region":"South Asia"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecommendAPI_DatasetFailure(t *testing.T) {
	ts := newTestServer(t, func(ctx context.Context) (*dataset.Table, error) {
		return nil, errors.New("open data.csv: no such file or directory")
	})

	rec := ts.do(jsonRequest(http.MethodPost, "/api/recommend", `{"region":"a","condition":"b","age_group":"c"}`))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "data.csv")

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestOptions(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/options", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got optionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, optionsResponse{
		Regions:    []string{"Latin America", "South Asia"},
		Conditions: []string{"Anemia", "Diabetes"},
		AgeGroups:  []string{"Adults", "Children", "Elderly"},
	}, got)
}

func TestTools(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/tools", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Tools, 2)
	assert.Equal(t, "crop_lookup", listed.Tools[0].Name)

	rec = ts.do(jsonRequest(http.MethodPost, "/api/tools/crop_lookup", `{"condition":"Diabetes"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, []any{"Lentils", "Beans"}, out["crops"])

	rec = ts.do(jsonRequest(http.MethodPost, "/api/tools/nutrient_lookup", `{"crop":"Lentils"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"found":true`)

	rec = ts.do(jsonRequest(http.MethodPost, "/api/tools/nutrient_lookup", `{}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(jsonRequest(http.MethodPost, "/api/tools/weather_lookup", `{}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTools_DatasetFailure(t *testing.T) {
	ts := newTestServer(t, func(ctx context.Context) (*dataset.Table, error) {
		return nil, errors.New("open data.csv: no such file or directory")
	})

	rec := ts.do(jsonRequest(http.MethodPost, "/api/tools/crop_lookup", `{"region":"South Asia"}`))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "data.csv")

	rec = ts.do(jsonRequest(http.MethodPost, "/api/tools/crop_lookup", `{"region":42}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShare(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(jsonRequest(http.MethodPost, "/api/share", `{"region":"South Asia","condition":"Diabetes","age_group":"Adults"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "#nutrition", ts.slack.channel)
	assert.Contains(t, ts.slack.message, "1. Lentils: steady blood sugar")

	rec = ts.do(jsonRequest(http.MethodPost, "/api/share", `{"region":"South Asia","condition":"Diabetes","age_group":"Adults","channel":"#field-team"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "#field-team", ts.slack.channel)

	ts.slack.err = errors.New("failed to post message: 404 Not Found")
	rec = ts.do(jsonRequest(http.MethodPost, "/api/share", `{"region":"South Asia","condition":"Diabetes","age_group":"Adults"}`))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestShare_NotConfigured(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.Server.slack = nil

	rec := ts.do(jsonRequest(http.MethodPost, "/api/share", `{"region":"South Asia","condition":"Diabetes","age_group":"Adults"}`))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","rows":3}`, rec.Body.String())
}
