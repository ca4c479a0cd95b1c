package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"clearpath/internal/discharge"
	"clearpath/internal/discharge/handler/mocks"
	"clearpath/internal/domain"
	"clearpath/internal/escalation"
	"clearpath/internal/state"
	"clearpath/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite

	ctrl    *gomock.Controller
	service *mocks.MockService
	states  *mocks.MockStateReader
	router  chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.states = mocks.NewMockStateReader(s.ctrl)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = chi.NewRouter()
	New(s.service, s.states, logger).Register(s.router)
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func holdRunResult() *discharge.RunResult {
	timestamp := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	return &discharge.RunResult{
		Decision: domain.Decision{
			PatientID: "P00231",
			Outcome:   domain.OutcomeHold,
			Approved:  false,
			ClearedBy: []string{"Insurance", "Pharmacy"},
			BlockedBy: []string{"Lab"},
			Issues: []domain.Issue{
				{Code: "LAB_CRITICAL_VALUE", Severity: domain.SeverityCritical, SourceCheck: "Lab"},
				{Code: "LAB_PENDING", Severity: domain.SeverityHigh, SourceCheck: "Lab"},
				{Code: "PHARM_PAYMENT_PENDING", Severity: domain.SeverityMedium, SourceCheck: "Pharmacy"},
			},
			SuggestedResolutions: []domain.Resolution{
				{Action: "Collect 184.50 from patient/family before discharge"},
			},
			Summary:   domain.Summary{PlainText: "on hold", ClinicalText: "HOLD"},
			Timestamp: timestamp,
		},
		Bundle: &escalation.Bundle{
			Departments: []escalation.DepartmentBatch{
				{Department: escalation.DeptLab, TotalAlerts: 2},
				{Department: escalation.DeptPharmacy, TotalAlerts: 1},
			},
		},
	}
}

func (s *HandlerSuite) TestVerifyHold() {
	s.service.EXPECT().Run(gomock.Any(), "P00231").Return(holdRunResult(), nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/discharge/verify", VerifyRequest{PatientID: "P00231"})
	req = testutil.WithRequestID(testutil.WithSubject(req, "nurse.jordan"), "req-123")
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[VerifyResponse](s.T(), rr)
	s.Equal("P00231", resp.PatientID)
	s.Equal("HOLD", resp.Status)
	s.False(resp.Approved)
	s.Equal(3, resp.AlertsCount.Total)
	s.Equal(1, resp.AlertsCount.Critical)
	s.Equal(1, resp.AlertsCount.High)
	s.Equal(1, resp.AlertsCount.Medium)
	s.Equal(0, resp.AlertsCount.Low)
	s.Equal(2, resp.Escalations.Lab)
	s.Equal(1, resp.Escalations.Pharmacy)
	s.Equal(0, resp.Escalations.General)
	s.Equal([]string{"Insurance", "Pharmacy"}, resp.Details.ApprovedBy)
	s.Equal([]string{"Lab"}, resp.Details.BlockedBy)
	s.Len(resp.Details.SuggestedAutoResolutions, 1)
}

func (s *HandlerSuite) TestVerifyRejectsMissingPatientID() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/discharge/verify", VerifyRequest{PatientID: "  "})
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusAndDetail(s.T(), rr, http.StatusBadRequest, "patientId is required")
}

func (s *HandlerSuite) TestVerifyRejectsMalformedBody() {
	req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/discharge/verify", "{not json")
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
}

func (s *HandlerSuite) TestVerifyMapsRunFailuresTo500() {
	s.service.EXPECT().Run(gomock.Any(), "P00231").
		Return(nil, &state.PersistenceError{Op: "save state", Err: errors.New("disk full")})

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/discharge/verify", VerifyRequest{PatientID: "P00231"})
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusInternalServerError)
	errResp := testutil.UnmarshalErrorResponse(s.T(), rr)
	s.Contains(errResp["detail"], "verification failed")
}

func (s *HandlerSuite) TestStateReturnsRecordWithExpiryFlag() {
	expiresAt := time.Date(2026, 1, 15, 18, 0, 0, 0, time.UTC)
	s.states.EXPECT().Load(gomock.Any(), "P00231").Return(&state.PersistedState{
		PatientID: "P00231",
		Status:    state.StatusApproved,
		ExpiresAt: &expiresAt,
	}, nil)
	s.states.EXPECT().IsExpired(gomock.Any(), "P00231").Return(true)

	req := testutil.NewRequest(s.T(), http.MethodGet, "/discharge/P00231/state")
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[StateResponse](s.T(), rr)
	s.Equal("P00231", resp.PatientID)
	s.True(resp.Expired)
	s.Equal(state.StatusApproved, resp.State.Status)
}

func (s *HandlerSuite) TestStateNotFound() {
	s.states.EXPECT().Load(gomock.Any(), "P99999").Return(nil, state.ErrNotFound)

	req := testutil.NewRequest(s.T(), http.MethodGet, "/discharge/P99999/state")
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
}

func (s *HandlerSuite) TestStateLookupFailure() {
	s.states.EXPECT().Load(gomock.Any(), "P00231").Return(nil, errors.New("backend down"))

	req := testutil.NewRequest(s.T(), http.MethodGet, "/discharge/P00231/state")
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusAndDetail(s.T(), rr, http.StatusInternalServerError, "state lookup failed")
}
