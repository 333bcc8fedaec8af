package nutrients

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockHTTPClient struct {
	response *http.Response
	err      error
	request  *http.Request
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.request = req
	return m.response, m.err
}

func createMockResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

const lentilsBody = `{
	"totalHits": 1,
	"foods": [
		{
			"fdcId": 172420,
			"description": "Lentils, raw",
			"foodNutrients": [
				{"nutrientName": "Protein", "value": 24.6, "unitName": "G"},
				{"nutrientName": "Energy", "value": 352, "unitName": "KCAL"},
				{"nutrientName": "Energy", "value": 1470, "unitName": "kJ"},
				{"nutrientName": "Iron, Fe", "value": 6.51, "unitName": "MG"},
				{"nutrientName": "", "value": 1}
			]
		}
	]
}`

func newTestClient(t *testing.T, m *mockHTTPClient) *Client {
	t.Helper()
	c, err := NewClient(ClientOpts{
		Endpoint:   "https://api.nal.usda.gov/fdc/v1/foods/search",
		APIKey:     "DEMO_KEY",
		HTTPClient: m,
	})
	require.NoError(t, err)
	return c
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(ClientOpts{})
	assert.Error(t, err)

	c, err := NewClient(ClientOpts{Endpoint: "https://example.com/search"})
	require.NoError(t, err)
	assert.Equal(t, DefaultDataTypes, c.dataTypes)
	assert.NotNil(t, c.httpClient)
}

func TestClient_Lookup(t *testing.T) {
	tests := []struct {
		name     string
		response *http.Response
		err      error
		wantOK   bool
	}{
		{name: "found", response: createMockResponse(200, lentilsBody), wantOK: true},
		{name: "empty foods", response: createMockResponse(200, `{"foods": []}`)},
		{name: "food without nutrients", response: createMockResponse(200, `{"foods": [{"description": "x", "foodNutrients": []}]}`)},
		{name: "non-200", response: createMockResponse(403, `{"error": {"code": "API_KEY_INVALID"}}`)},
		{name: "malformed body", response: createMockResponse(200, `{"foods": [`)},
		{name: "network error", err: errors.New("dial tcp: timeout")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, &mockHTTPClient{response: tt.response, err: tt.err})

			p, ok := c.Lookup(context.Background(), "Lentils")
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Empty(t, p.Nutrients)
			}
		})
	}
}

func TestClient_Lookup_Profile(t *testing.T) {
	m := &mockHTTPClient{response: createMockResponse(200, lentilsBody)}
	p, ok := newTestClient(t, m).Lookup(context.Background(), "Lentils")
	require.True(t, ok)

	assert.Equal(t, "Lentils, raw", p.Food)
	assert.Equal(t, 172420, p.FDCID)
	assert.Equal(t, map[string]float64{"Protein": 24.6, "Energy": 352, "Iron, Fe": 6.51}, p.Nutrients)
	assert.Equal(t, "KCAL", p.Units["Energy"])

	req := m.request
	require.NotNil(t, req)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/fdc/v1/foods/search", req.URL.Path)
	q := req.URL.Query()
	assert.Equal(t, "Lentils", q.Get("query"))
	assert.Equal(t, "1", q.Get("pageSize"))
	assert.Equal(t, []string{"Foundation", "SR Legacy"}, q["dataType"])
	assert.Equal(t, "DEMO_KEY", q.Get("api_key"))
}

func TestHighlights(t *testing.T) {
	p := Profile{
		Nutrients: map[string]float64{"Iron, Fe": 6.51, "Protein": 24.6, "Water": 8},
		Units:     map[string]string{"Iron, Fe": "MG", "Protein": "G"},
	}
	assert.Equal(t, []Nutrient{
		{Name: "Protein", Value: 24.6, Unit: "G"},
		{Name: "Iron, Fe", Value: 6.51, Unit: "MG"},
	}, Highlights(p))
	assert.Empty(t, Highlights(Profile{}))
}
