package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"nutrisyn/dataset"
	"nutrisyn/inference"
	"nutrisyn/recommend"
)

type fakeRecommender struct {
	rec recommend.Recommendation
	err error
	got dataset.Query
}

func (f *fakeRecommender) Recommend(ctx context.Context, q dataset.Query) (recommend.Recommendation, error) {
	f.got = q
	f.rec.Query = q
	return f.rec, f.err
}

func TestHandler_Handle(t *testing.T) {
	fr := &fakeRecommender{rec: recommend.Recommendation{
		Matches: []dataset.Row{},
		Crops:   []string{},
		Result:  inference.OK("1. Okra: fiber"),
		Model:   "mock",
	}}
	h := &handler{advisor: fr, tracer: noop.NewTracerProvider().Tracer("test")}

	res, err := h.handle(context.Background(), Params{Region: "South Asia", Condition: "Diabetes", AgeGroup: "Children"})
	require.NoError(t, err)

	assert.Equal(t, dataset.Query{Region: "South Asia", Condition: "Diabetes", AgeGroup: "Children"}, fr.got)
	assert.Equal(t, recommend.NoMatchMessage, res.Message)
	assert.Equal(t, "1. Okra: fiber", res.Recommendation)
	assert.False(t, res.Error)
	assert.Equal(t, recommend.Disclaimer, res.Disclaimer)
}

func TestHandler_Handle_Errors(t *testing.T) {
	h := &handler{advisor: &fakeRecommender{}, tracer: noop.NewTracerProvider().Tracer("test")}
	_, err := h.handle(context.Background(), Params{Region: "South Asia"})
	assert.Error(t, err)

	h.advisor = &fakeRecommender{err: errors.New("load dataset: not found")}
	_, err = h.handle(context.Background(), Params{Region: "a", Condition: "b", AgeGroup: "c"})
	assert.ErrorContains(t, err, "not found")
}
