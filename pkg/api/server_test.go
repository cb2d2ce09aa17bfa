package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mitheta/moneyclub/pkg/core/gateway"
	"github.com/mitheta/moneyclub/pkg/core/levels"
	"github.com/mitheta/moneyclub/pkg/core/model"
	"github.com/mitheta/moneyclub/pkg/core/search"
	"github.com/mitheta/moneyclub/pkg/core/services"
	"github.com/mitheta/moneyclub/pkg/metrics"
)

type fakeLoader struct {
	membersErr error
	noAux      bool
}

func (f *fakeLoader) GetMembers(ctx context.Context) (*gateway.Result[[]model.Member], error) {
	if f.membersErr != nil {
		return nil, f.membersErr
	}
	return &gateway.Result[[]model.Member]{Data: []model.Member{
		{FirstName: "Ann", LastName: "Lee", FullName: "Ann Lee", RollFull: "214-0007", RollShort: "7", TotalDonations: 1500, IsCurrentYearDonor: true},
		{FirstName: "Bob", LastName: "Ray", FullName: "Bob Ray", RollFull: "214-0120", RollShort: "120", TotalDonations: 60000},
		{FirstName: "Cy", LastName: "Dunn", FullName: "Cy Dunn", RollFull: "214-0300", RollShort: "300", TotalDonations: 150},
	}}, nil
}

func (f *fakeLoader) aux() error {
	if f.noAux {
		return &gateway.Error{Kind: gateway.KindConfiguration, Err: gateway.ErrNotConfigured}
	}
	return nil
}

func (f *fakeLoader) GetFundProgress(ctx context.Context) (*gateway.Result[model.FundProgress], error) {
	if err := f.aux(); err != nil {
		return nil, err
	}
	return &gateway.Result[model.FundProgress]{Data: model.FundProgress{
		AsOfDate: "March 1, 2026",
		Funds:    []model.Fund{{Key: "bms", Name: "BMS", Total: 50, Goal: 200}},
	}}, nil
}

func (f *fakeLoader) GetScholarships(ctx context.Context) (*gateway.Result[[]model.Scholarship], error) {
	if err := f.aux(); err != nil {
		return nil, err
	}
	return &gateway.Result[[]model.Scholarship]{Data: []model.Scholarship{{Key: "merit", Name: "Merit"}, {Key: "legacy", Name: "Legacy"}}}, nil
}

func (f *fakeLoader) GetDecades(ctx context.Context) (*gateway.Result[[]model.DecadeTotal], error) {
	if err := f.aux(); err != nil {
		return nil, err
	}
	return &gateway.Result[[]model.DecadeTotal]{Data: []model.DecadeTotal{
		{Label: "1990s", Total: 100, Donors: 2},
		{Label: "Friends of SigEp", Total: 900, Donors: 9},
	}}, nil
}

func (f *fakeLoader) GetMonthlyDonors(ctx context.Context) (*gateway.Result[[]model.MonthlyDonor], error) {
	if err := f.aux(); err != nil {
		return nil, err
	}
	return &gateway.Result[[]model.MonthlyDonor]{Data: []model.MonthlyDonor{{Name: "Cal", Streak: 40}}}, nil
}

func newTestServer(t *testing.T, loader *fakeLoader) (*Server, http.Handler) {
	t.Helper()

	var holder services.Holder
	logger := zap.NewNop()
	reg := prometheus.NewRegistry()
	opts := search.DefaultOptions()
	opts.Metrics = metrics.New(reg)

	reload := func(ctx context.Context) error {
		_, err := holder.Reload(ctx, loader, opts, logger)
		return err
	}

	s := New(&holder, reload, levels.Default, []string{"Friends of SigEp"}, reg, logger)
	return s, s.Router()
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestServer_NotLoaded(t *testing.T) {
	_, h := newTestServer(t, &fakeLoader{})

	rec := get(t, h, "/api/search?q=ann")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = get(t, h, "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)
	var status statusResponse
	decode(t, rec, &status)
	assert.False(t, status.Ready)
}

func TestServer_LoadFailureReportsRemediation(t *testing.T) {
	loader := &fakeLoader{membersErr: &gateway.Error{
		Kind:    gateway.KindAccess,
		Dataset: gateway.DatasetMembers,
		Err:     errors.Join(gateway.ErrAccessDenied, errors.New("403")),
	}}
	s, h := newTestServer(t, loader)

	require.Error(t, s.Reload(context.Background()))

	rec := get(t, h, "/api/levels")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body errorResponse
	decode(t, rec, &body)
	assert.Equal(t, "access", body.Kind)
	assert.Contains(t, body.Error, "anyone with the link")
}

func TestServer_Endpoints(t *testing.T) {
	s, h := newTestServer(t, &fakeLoader{})
	require.NoError(t, s.Reload(context.Background()))

	t.Run("status", func(t *testing.T) {
		rec := get(t, h, "/api/status")
		require.Equal(t, http.StatusOK, rec.Code)

		var status statusResponse
		decode(t, rec, &status)
		assert.True(t, status.Ready)
		assert.Equal(t, 3, status.Members)
		assert.NotEmpty(t, status.LoadID)
		assert.True(t, status.Datasets[gateway.DatasetMonthly])
	})

	t.Run("search", func(t *testing.T) {
		rec := get(t, h, "/api/search?q=120")
		require.Equal(t, http.StatusOK, rec.Code)

		var results []search.Result
		decode(t, rec, &results)
		require.NotEmpty(t, results)
		assert.Equal(t, "Bob Ray", results[0].Member.FullName)
	})

	t.Run("levels include the unbounded top tier", func(t *testing.T) {
		rec := get(t, h, "/api/levels")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"max":null`)

		var summaries []services.LevelSummary
		decode(t, rec, &summaries)
		require.Len(t, summaries, len(levels.Default))

		top := summaries[0]
		assert.Equal(t, "chairmans-senate", top.Level.Slug)
		assert.True(t, top.Level.IsTop())
		assert.Equal(t, 1, top.Count)
	})

	t.Run("top tier member", func(t *testing.T) {
		rec := get(t, h, "/api/members/120")
		require.Equal(t, http.StatusOK, rec.Code)

		var p services.MemberProfile
		decode(t, rec, &p)
		require.NotNil(t, p.Progress.Current)
		assert.True(t, p.Progress.Current.IsTop())
		assert.True(t, p.Progress.TopReached)
	})

	t.Run("level members", func(t *testing.T) {
		index := -1
		for i, l := range levels.Default {
			if l.Slug == "alpha-beta-club" {
				index = i
			}
		}
		require.GreaterOrEqual(t, index, 0)

		rec := get(t, h, "/api/levels/"+strconv.Itoa(index)+"/members")
		require.Equal(t, http.StatusOK, rec.Code)

		var body levelMembersResponse
		decode(t, rec, &body)
		require.Len(t, body.Members, 1)
		assert.Equal(t, "Cy Dunn", body.Members[0].FullName)

		assert.Equal(t, http.StatusNotFound, get(t, h, "/api/levels/99/members").Code)
		assert.Equal(t, http.StatusNotFound, get(t, h, "/api/levels/abc/members").Code)
	})

	t.Run("member", func(t *testing.T) {
		rec := get(t, h, "/api/members/7")
		require.Equal(t, http.StatusOK, rec.Code)

		var p services.MemberProfile
		decode(t, rec, &p)
		assert.Equal(t, "Ann Lee", p.Member.FullName)
		assert.Equal(t, services.DonorStatusCurrent, p.Status)

		assert.Equal(t, http.StatusNotFound, get(t, h, "/api/members/999").Code)
	})

	t.Run("top donors", func(t *testing.T) {
		rec := get(t, h, "/api/leaderboards/top?n=2")
		require.Equal(t, http.StatusOK, rec.Code)

		var ranked []services.RankedDonor
		decode(t, rec, &ranked)
		require.Len(t, ranked, 2)
		assert.Equal(t, "Bob Ray", ranked[0].Member.FullName)
		require.NotNil(t, ranked[0].Level)
		assert.True(t, ranked[0].Level.IsTop())

		assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/leaderboards/top?n=x").Code)
	})

	t.Run("decades exclude configured labels", func(t *testing.T) {
		rec := get(t, h, "/api/leaderboards/decades")
		require.Equal(t, http.StatusOK, rec.Code)

		var board services.DecadeBoard
		decode(t, rec, &board)
		require.Len(t, board.Standings, 1)
		assert.Equal(t, "1990s", board.Standings[0].Label)
	})

	t.Run("monthly", func(t *testing.T) {
		rec := get(t, h, "/api/leaderboards/monthly")
		require.Equal(t, http.StatusOK, rec.Code)

		var standings []services.MonthlyStanding
		decode(t, rec, &standings)
		require.Len(t, standings, 1)
		require.NotNil(t, standings[0].Tier)
		assert.Equal(t, "3yr+", standings[0].Tier.Label)
	})

	t.Run("funds", func(t *testing.T) {
		rec := get(t, h, "/api/funds")
		require.Equal(t, http.StatusOK, rec.Code)

		var body fundsResponse
		decode(t, rec, &body)
		assert.Equal(t, "March 1, 2026", body.AsOfDate)
		require.Len(t, body.Funds, 1)
		assert.Equal(t, 25.0, body.Funds[0].Percent)
	})

	t.Run("scholarships", func(t *testing.T) {
		rec := get(t, h, "/api/scholarships?key=LEGACY")
		require.Equal(t, http.StatusOK, rec.Code)

		var sch model.Scholarship
		decode(t, rec, &sch)
		assert.Equal(t, "Legacy", sch.Name)

		assert.Equal(t, http.StatusNotFound, get(t, h, "/api/scholarships?key=none").Code)
	})

	t.Run("metrics", func(t *testing.T) {
		rec := get(t, h, "/metrics")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "moneyclub_search_queries_total")
	})
}

func TestServer_AuxiliaryUnavailable(t *testing.T) {
	s, h := newTestServer(t, &fakeLoader{noAux: true})
	require.NoError(t, s.Reload(context.Background()))

	for _, path := range []string{"/api/funds", "/api/scholarships", "/api/leaderboards/decades", "/api/leaderboards/monthly"} {
		t.Run(path, func(t *testing.T) {
			rec := get(t, h, path)
			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

			var body errorResponse
			decode(t, rec, &body)
			assert.Equal(t, errUnableToLoad, body.Error)
		})
	}

	// Members endpoints are unaffected
	assert.Equal(t, http.StatusOK, get(t, h, "/api/levels").Code)
}

func TestServer_ReloadEndpoint(t *testing.T) {
	loader := &fakeLoader{}
	_, h := newTestServer(t, loader)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reload", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var status statusResponse
	decode(t, rec, &status)
	assert.True(t, status.Ready)

	loader.membersErr = &gateway.Error{Kind: gateway.KindTransient, Err: errors.New("timeout")}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reload", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// Previous state keeps serving
	assert.Equal(t, http.StatusOK, get(t, h, "/api/levels").Code)
}

func TestServer_ConfigurationFailureAfterLoad(t *testing.T) {
	loader := &fakeLoader{}
	s, h := newTestServer(t, loader)
	require.NoError(t, s.Reload(context.Background()))

	loader.membersErr = &gateway.Error{Kind: gateway.KindConfiguration, Dataset: gateway.DatasetMembers, Err: gateway.ErrAPIKeyMissing}
	require.Error(t, s.Reload(context.Background()))

	rec := get(t, h, "/api/levels")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body errorResponse
	decode(t, rec, &body)
	assert.Equal(t, "configuration", body.Kind)
	assert.Contains(t, body.Error, "API key")

	rec = get(t, h, "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)
	var status statusResponse
	decode(t, rec, &status)
	assert.True(t, status.Ready)
	assert.Equal(t, "configuration", status.ErrorKind)

	// A later successful reload serves again
	loader.membersErr = nil
	require.NoError(t, s.Reload(context.Background()))
	assert.Equal(t, http.StatusOK, get(t, h, "/api/levels").Code)
}
