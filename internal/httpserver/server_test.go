package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	eligibilityservice "github.com/Black-And-White-Club/tier-bot/app/modules/eligibility/application"
	eligibilitydomain "github.com/Black-And-White-Club/tier-bot/app/modules/eligibility/domain"
	tierdomain "github.com/Black-And-White-Club/tier-bot/app/modules/tier/domain"
	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
	"github.com/Black-And-White-Club/tier-bot/internal/results"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type FakeEligibilityService struct {
	tiers            []tierdomain.Tier
	EvaluateFunc     func(ctx context.Context, memberID sharedtypes.DiscordID, tierID sharedtypes.TierID) (eligibilityservice.VerdictResult, error)
	GrantHistoryFunc func(ctx context.Context, memberID sharedtypes.DiscordID, limit int) (eligibilityservice.GrantHistoryResult, error)
}

func (f *FakeEligibilityService) Evaluate(ctx context.Context, memberID sharedtypes.DiscordID, tierID sharedtypes.TierID) (eligibilityservice.VerdictResult, error) {
	if f.EvaluateFunc != nil {
		return f.EvaluateFunc(ctx, memberID, tierID)
	}
	return eligibilityservice.VerdictResult{}, nil
}

func (f *FakeEligibilityService) AttemptGrant(context.Context, eligibilityservice.GrantRequest) (eligibilityservice.GrantOpResult, error) {
	return eligibilityservice.GrantOpResult{}, errors.New("not used over http")
}

func (f *FakeEligibilityService) GrantHistory(ctx context.Context, memberID sharedtypes.DiscordID, limit int) (eligibilityservice.GrantHistoryResult, error) {
	if f.GrantHistoryFunc != nil {
		return f.GrantHistoryFunc(ctx, memberID, limit)
	}
	return results.SuccessResult[[]eligibilityservice.GrantRecord, error](nil), nil
}

func (f *FakeEligibilityService) Tiers() []tierdomain.Tier { return f.tiers }

func testTiers() []tierdomain.Tier {
	return []tierdomain.Tier{{
		ID:       "tier-navigator",
		Name:     tierdomain.TierNavigator,
		RoleMode: tierdomain.RoleModeAllGroups,
		Groups: []tierdomain.RequirementGroup{{
			ID:   "contribution",
			Mode: tierdomain.GroupModeAll,
			Requirements: []tierdomain.Requirement{
				tierdomain.BadgeCount{ID: "core-badges", Category: "core", MinCount: 3},
			},
		}},
	}}
}

func serve(t *testing.T, svc *FakeEligibilityService, cfg Config, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	handler := NewRouter(cfg, svc, prometheus.NewRegistry(), slog.Default())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	rec := serve(t, &FakeEligibilityService{}, Config{}, http.MethodGet, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetrics(t *testing.T) {
	rec := serve(t, &FakeEligibilityService{}, Config{}, http.MethodGet, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListTiers(t *testing.T) {
	rec := serve(t, &FakeEligibilityService{tiers: testTiers()}, Config{}, http.MethodGet, "/tiers")

	require.Equal(t, http.StatusOK, rec.Code)
	var got []tierView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, tierdomain.TierNavigator, got[0].Name)
	assert.Equal(t, 2, got[0].Rank)
	require.Len(t, got[0].Groups, 1)
	assert.Equal(t, tierdomain.KindBadgeCount, got[0].Groups[0].Requirements[0].Kind)
}

func TestGetTier_ByNameIgnoresCase(t *testing.T) {
	svc := &FakeEligibilityService{tiers: testTiers()}

	rec := serve(t, svc, Config{}, http.MethodGet, "/tiers/navigator")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, svc, Config{}, http.MethodGet, "/tiers/captain")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetVerdict(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		evaluate   func(context.Context, sharedtypes.DiscordID, sharedtypes.TierID) (eligibilityservice.VerdictResult, error)
		wantStatus int
	}{
		{
			name:   "verdict",
			target: "/tiers/Navigator/members/222/verdict",
			evaluate: func(_ context.Context, memberID sharedtypes.DiscordID, tierID sharedtypes.TierID) (eligibilityservice.VerdictResult, error) {
				assert.Equal(t, sharedtypes.TierID("tier-navigator"), tierID)
				return results.SuccessResult[eligibilitydomain.Verdict, error](eligibilitydomain.Verdict{MemberID: memberID, TierID: tierID}), nil
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown tier",
			target:     "/tiers/captain/members/222/verdict",
			wantStatus: http.StatusNotFound,
		},
		{
			name:   "unknown member",
			target: "/tiers/tier-navigator/members/999/verdict",
			evaluate: func(context.Context, sharedtypes.DiscordID, sharedtypes.TierID) (eligibilityservice.VerdictResult, error) {
				return results.FailureResult[eligibilitydomain.Verdict, error](sharedtypes.ErrMemberNotFound), nil
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:   "service error",
			target: "/tiers/tier-navigator/members/222/verdict",
			evaluate: func(context.Context, sharedtypes.DiscordID, sharedtypes.TierID) (eligibilityservice.VerdictResult, error) {
				return eligibilityservice.VerdictResult{}, errors.New("db down")
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &FakeEligibilityService{tiers: testTiers(), EvaluateFunc: tt.evaluate}

			rec := serve(t, svc, Config{}, http.MethodGet, tt.target)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestListGrants(t *testing.T) {
	var gotLimit int
	svc := &FakeEligibilityService{
		GrantHistoryFunc: func(_ context.Context, _ sharedtypes.DiscordID, limit int) (eligibilityservice.GrantHistoryResult, error) {
			gotLimit = limit
			return results.SuccessResult[[]eligibilityservice.GrantRecord, error]([]eligibilityservice.GrantRecord{{
				MemberID:    "222",
				Outcome:     eligibilityservice.OutcomeGranted,
				AttemptedAt: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
			}}), nil
		},
	}

	rec := serve(t, svc, Config{}, http.MethodGet, "/members/222/grants?limit=5000")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, maxGrantHistory, gotLimit)
	var got []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "granted", got[0]["outcome"])

	rec = serve(t, svc, Config{}, http.MethodGet, "/members/222/grants?limit=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimit(t *testing.T) {
	handler := NewRouter(Config{RequestsPerSecond: 0.001, Burst: 2}, &FakeEligibilityService{tiers: testTiers()}, nil, slog.Default())

	codes := make([]int, 0, 3)
	for range 3 {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/tiers", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "health checks are not rate limited")
}

func TestRateLimit_VerdictBudget(t *testing.T) {
	svc := &FakeEligibilityService{
		tiers: testTiers(),
		EvaluateFunc: func(_ context.Context, memberID sharedtypes.DiscordID, tierID sharedtypes.TierID) (eligibilityservice.VerdictResult, error) {
			return results.SuccessResult[eligibilitydomain.Verdict, error](eligibilitydomain.Verdict{MemberID: memberID, TierID: tierID}), nil
		},
	}
	handler := NewRouter(Config{RequestsPerSecond: 100, Burst: 100, VerdictRequestsPerSecond: 0.5, VerdictBurst: 2}, svc, nil, slog.Default())

	get := func(target, addr string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.RemoteAddr = addr
		handler.ServeHTTP(rec, req)
		return rec
	}

	const verdict = "/tiers/Navigator/members/222/verdict"
	assert.Equal(t, http.StatusOK, get(verdict, "10.0.0.1:5555").Code)
	assert.Equal(t, http.StatusOK, get(verdict, "10.0.0.1:5556").Code)

	rejected := get(verdict, "10.0.0.1:5557")
	assert.Equal(t, http.StatusTooManyRequests, rejected.Code)
	assert.Equal(t, "2", rejected.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, get("/tiers", "10.0.0.1:5555").Code, "other API routes keep their own budget")
	assert.Equal(t, http.StatusOK, get(verdict, "10.0.0.2:5555").Code, "budgets are per client")
}

func TestClientLimiter_SweepsIdleBuckets(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	l := NewClientLimiter()
	l.now = func() time.Time { return now }
	b := Budget{Name: "api", Limit: rate.Limit(1), Burst: 1}

	for i := range sweepEvery - 1 {
		l.Allow(b, fmt.Sprintf("10.0.%d.%d", i/256, i%256))
	}
	require.Equal(t, sweepEvery-1, l.size())

	now = now.Add(bucketIdleTTL + time.Minute)
	assert.True(t, l.Allow(b, "192.168.1.1"))

	assert.Equal(t, 1, l.size())
}

func TestClientLimiter_BudgetsAreIndependent(t *testing.T) {
	l := NewClientLimiter()
	api := Budget{Name: "api", Limit: rate.Limit(0.001), Burst: 1}
	verdict := Budget{Name: "verdict", Limit: rate.Limit(0.001), Burst: 1}

	assert.True(t, l.Allow(api, "10.0.0.1"))
	assert.False(t, l.Allow(api, "10.0.0.1"))
	assert.True(t, l.Allow(verdict, "10.0.0.1"))
	assert.True(t, l.Allow(api, "10.0.0.2"))
}

func TestMetricsServer(t *testing.T) {
	reg := prometheus.NewRegistry()
	srv := NewMetricsServer(":0", reg, nil)

	rec := httptest.NewRecorder()
	srv.srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tiers", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
