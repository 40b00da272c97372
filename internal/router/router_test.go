package router_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"dutycalc/internal/domain"
	"dutycalc/internal/handler"
	"dutycalc/internal/middleware"
	"dutycalc/internal/router"
	"dutycalc/internal/service"
	"dutycalc/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	engine    *gin.Engine
	calc      *mocks.MockCalculationService
	commodity *mocks.MockCommodityService
	store     *mocks.MockStoreHealth
	verifier  *mocks.MockTokenVerifier
}

func newFixture(opts router.Options, withAuth bool) *fixture {
	f := &fixture{
		calc:      new(mocks.MockCalculationService),
		commodity: new(mocks.MockCommodityService),
		store:     new(mocks.MockStoreHealth),
		verifier:  new(mocks.MockTokenVerifier),
	}
	if withAuth {
		opts.Verifier = f.verifier
	}
	f.engine = router.Setup(zap.NewNop(), opts,
		handler.NewDutyHandler(f.calc, 100),
		handler.NewCommodityHandler(f.commodity),
		handler.NewHealthHandler(f.store))
	return f
}

func (f *fixture) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	f.engine.ServeHTTP(w, req)
	return w
}

func TestRouter_HealthIsPublic(t *testing.T) {
	f := newFixture(router.Options{}, true)
	f.store.On("Ping", mock.Anything).Return(nil)

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/readyz", "", nil).Code)
	f.verifier.AssertNotCalled(t, "Verify")
}

func TestRouter_APIRequiresTokenWhenAuthEnabled(t *testing.T) {
	f := newFixture(router.Options{}, true)

	w := f.do(http.MethodGet, "/api/v1/commodities/8471", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	f.commodity.AssertNotCalled(t, "Lookup")
}

func TestRouter_CalculateRoute(t *testing.T) {
	f := newFixture(router.Options{}, true)
	f.verifier.On("Verify", "tok").Return(&service.Claims{}, nil)
	f.calc.On("Calculate", mock.Anything, mock.Anything).
		Return(nil, domain.NewValidationError("hs_code", "must contain between 2 and 10 digits"))

	w := f.do(http.MethodPost, "/api/v1/duty/calculate", `{"hs_code":"1"}`,
		map[string]string{"Authorization": "Bearer tok", "X-Request-ID": "abc"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))
}

func TestRouter_AuthDisabled(t *testing.T) {
	f := newFixture(router.Options{}, false)
	f.commodity.On("Lookup", mock.Anything, "8471").Return(&service.CommodityDetail{
		RequestedCode: "8471",
		Commodity:     domain.CommodityCode{Code: "8471", Level: 4},
		Ancestors:     []domain.CommodityCode{},
	}, nil)

	w := f.do(http.MethodGet, "/api/v1/commodities/8471", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_RateLimited(t *testing.T) {
	f := newFixture(router.Options{RateLimiter: middleware.NewRateLimiter(0.5, 1)}, false)
	f.commodity.On("Search", mock.Anything, "steel", 0).Return([]domain.CommodityCode{}, nil)

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/v1/commodities?q=steel", "", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, f.do(http.MethodGet, "/api/v1/commodities?q=steel", "", nil).Code)
	// Health checks are outside the limited group.
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/healthz", "", nil).Code)
}
