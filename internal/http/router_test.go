package httpapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peopleapi/internal/person"
	"peopleapi/internal/person/handler"
	"peopleapi/internal/person/store"
	"peopleapi/internal/platform/metrics"
	"peopleapi/internal/platform/middleware"
	"peopleapi/pkg/testutil"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type fakeCache struct{ err error }

func (c fakeCache) Health(context.Context) error { return c.err }

func newTestRouter(t *testing.T, ready Pinger) http.Handler {
	t.Helper()
	return newTestRouterWithCache(t, ready, nil)
}

func newTestRouterWithCache(t *testing.T, ready Pinger, cache HealthChecker) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	mod := person.New(store.NewInMemory(), logger, m)
	return NewRouter(Config{Logger: logger, Metrics: m, Gatherer: reg, Ready: ready, Cache: cache}, mod.Handler)
}

func create(t *testing.T, h http.Handler, first, last string) handler.PersonResponse {
	t.Helper()
	rr := testutil.DoRequest(h, testutil.NewJSONRequest(t, http.MethodPost, "/api/persons",
		map[string]string{"firstName": first, "lastName": last}))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return *testutil.UnmarshalResponse[handler.PersonResponse](t, rr)
}

func search(t *testing.T, h http.Handler, query string) []handler.PersonResponse {
	t.Helper()
	rr := testutil.DoRequest(h, testutil.NewRequest(t, http.MethodGet, "/api/persons"+query))
	require.Equal(t, http.StatusOK, rr.Code)
	return *testutil.UnmarshalResponse[[]handler.PersonResponse](t, rr)
}

func firstNames(persons []handler.PersonResponse) []string {
	out := make([]string, 0, len(persons))
	for _, p := range persons {
		out = append(out, p.FirstName)
	}
	return out
}

func TestCreateThenRead(t *testing.T) {
	h := newTestRouter(t, nil)

	testutil.Given(t, "an empty store", func(t *testing.T) {
		created := create(t, h, "John", "Doe")

		testutil.Then(t, "the response carries a server assigned id", func(t *testing.T) {
			assert.Len(t, created.ID, 36)
			assert.Equal(t, "John", created.FirstName)
			assert.Equal(t, "Doe", created.LastName)
		})

		testutil.When(t, "the person is fetched by id", func(t *testing.T) {
			rr := testutil.DoRequest(h, testutil.NewRequest(t, http.MethodGet, "/api/persons/"+created.ID))
			testutil.AssertStatusOK(t, rr)
			got := testutil.UnmarshalResponse[handler.PersonResponse](t, rr)
			assert.Equal(t, created, *got)
		})
	})
}

func TestValidationRejection(t *testing.T) {
	h := newTestRouter(t, nil)

	testutil.When(t, "both names are blank", func(t *testing.T) {
		rr := testutil.DoRequest(h, testutil.NewRequestWithBody(t, http.MethodPost, "/api/persons",
			`{"firstName":"","lastName":"   "}`))

		testutil.Then(t, "the request is rejected naming both fields", func(t *testing.T) {
			testutil.AssertStatus(t, rr, http.StatusBadRequest)
			body := testutil.UnmarshalErrorResponse(t, rr)
			assert.Equal(t, "validation_error", body["error"])
			assert.Contains(t, body["error_description"], "firstName")
			assert.Contains(t, body["error_description"], "lastName")
		})

		testutil.Then(t, "nothing was stored", func(t *testing.T) {
			assert.Empty(t, search(t, h, ""))
		})
	})
}

func TestFilteredSearch(t *testing.T) {
	h := newTestRouter(t, nil)
	create(t, h, "John", "Doe")
	create(t, h, "Jane", "Doe")
	create(t, h, "Johnny", "Smith")

	testutil.When(t, "filtering on both names", func(t *testing.T) {
		got := search(t, h, "?firstName=jo&lastName=DO")
		assert.Equal(t, []string{"John"}, firstNames(got))
	})

	testutil.When(t, "filtering on the first name only", func(t *testing.T) {
		got := search(t, h, "?firstName=JOHN")
		assert.ElementsMatch(t, []string{"John", "Johnny"}, firstNames(got))
	})

	testutil.When(t, "no filter is given", func(t *testing.T) {
		assert.Len(t, search(t, h, ""), 3)
	})

	testutil.When(t, "empty filter values are given", func(t *testing.T) {
		assert.Len(t, search(t, h, "?firstName=&lastName="), 3)
	})

	testutil.When(t, "the filter matches nothing", func(t *testing.T) {
		rr := testutil.DoRequest(h, testutil.NewRequest(t, http.MethodGet, "/api/persons?lastName=zzz"))
		testutil.AssertStatusOK(t, rr)
		assert.JSONEq(t, `[]`, rr.Body.String())
	})
}

func TestSubstringAnywhere(t *testing.T) {
	h := newTestRouter(t, nil)
	create(t, h, "Maria", "Anderson")

	for _, q := range []string{"?lastName=son", "?lastName=ERS", "?lastName=and", "?firstName=ari"} {
		t.Run(q, func(t *testing.T) {
			assert.Equal(t, []string{"Maria"}, firstNames(search(t, h, q)))
		})
	}

	t.Run("like wildcards are literal", func(t *testing.T) {
		assert.Empty(t, search(t, h, "?lastName=%25"))
		assert.Empty(t, search(t, h, "?lastName=_"))
	})
}

func TestUpdateExistingAndMissing(t *testing.T) {
	h := newTestRouter(t, nil)
	created := create(t, h, "John", "Doe")

	testutil.When(t, "updating an existing person", func(t *testing.T) {
		rr := testutil.DoRequest(h, testutil.NewJSONRequest(t, http.MethodPut, "/api/persons/"+created.ID,
			map[string]string{"id": "11111111-1111-1111-1111-111111111111", "firstName": "Jane", "lastName": "Roe"}))

		testutil.AssertStatusOK(t, rr)
		got := testutil.UnmarshalResponse[handler.PersonResponse](t, rr)
		assert.Equal(t, handler.PersonResponse{ID: created.ID, FirstName: "Jane", LastName: "Roe"}, *got)

		fetched := testutil.DoRequest(h, testutil.NewRequest(t, http.MethodGet, "/api/persons/"+created.ID))
		assert.Equal(t, *got, *testutil.UnmarshalResponse[handler.PersonResponse](t, fetched))
	})

	testutil.When(t, "updating a person that does not exist", func(t *testing.T) {
		rr := testutil.DoRequest(h, testutil.NewJSONRequest(t, http.MethodPut, "/api/persons/00000000-0000-0000-0000-000000000000",
			map[string]string{"firstName": "Jane", "lastName": "Roe"}))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
		assert.Len(t, search(t, h, ""), 1)
	})
}

func TestDeleteExistingThenMissing(t *testing.T) {
	h := newTestRouter(t, nil)
	created := create(t, h, "John", "Doe")
	path := "/api/persons/" + created.ID

	rr := testutil.DoRequest(h, testutil.NewRequest(t, http.MethodDelete, path))
	testutil.AssertStatus(t, rr, http.StatusNoContent)

	rr = testutil.DoRequest(h, testutil.NewRequest(t, http.MethodDelete, path))
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")

	rr = testutil.DoRequest(h, testutil.NewRequest(t, http.MethodGet, path))
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
}

func TestBadIdentifier(t *testing.T) {
	h := newTestRouter(t, nil)
	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rr := testutil.DoRequest(h, testutil.NewRequest(t, method, "/api/persons/123"))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	}
}

func TestOperationalEndpoints(t *testing.T) {
	t.Run("healthz", func(t *testing.T) {
		rr := testutil.DoRequest(newTestRouter(t, nil), testutil.NewRequest(t, http.MethodGet, "/healthz"))
		testutil.AssertStatusOK(t, rr)
	})

	t.Run("readyz when store answers", func(t *testing.T) {
		rr := testutil.DoRequest(newTestRouter(t, fakePinger{}), testutil.NewRequest(t, http.MethodGet, "/readyz"))
		testutil.AssertStatusOK(t, rr)
	})

	t.Run("readyz when store is down", func(t *testing.T) {
		rr := testutil.DoRequest(newTestRouter(t, fakePinger{err: errors.New("down")}), testutil.NewRequest(t, http.MethodGet, "/readyz"))
		testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
	})

	t.Run("readyz reports a healthy cache", func(t *testing.T) {
		rr := testutil.DoRequest(newTestRouterWithCache(t, fakePinger{}, fakeCache{}), testutil.NewRequest(t, http.MethodGet, "/readyz"))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "status", "ready")
		testutil.AssertJSONContains(t, rr, "cache", "ok")
	})

	t.Run("readyz stays ready with a degraded cache", func(t *testing.T) {
		rr := testutil.DoRequest(newTestRouterWithCache(t, fakePinger{}, fakeCache{err: errors.New("refused")}), testutil.NewRequest(t, http.MethodGet, "/readyz"))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "status", "ready")
		testutil.AssertJSONContains(t, rr, "cache", "degraded")
	})

	t.Run("metrics exposes request latency", func(t *testing.T) {
		h := newTestRouter(t, nil)
		create(t, h, "John", "Doe")

		rr := testutil.DoRequest(h, testutil.NewRequest(t, http.MethodGet, "/metrics"))
		testutil.AssertStatusOK(t, rr)
		body := rr.Body.String()
		assert.Contains(t, body, "people_persons_created_total 1")
		assert.True(t, strings.Contains(body, `route="/api/persons/"`) || strings.Contains(body, `route="/api/persons"`))
	})

	t.Run("request id is echoed", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/healthz")
		req.Header.Set(middleware.RequestIDHeader, "abc-123")
		rr := testutil.DoRequest(newTestRouter(t, nil), req)
		assert.Equal(t, "abc-123", rr.Header().Get(middleware.RequestIDHeader))
	})

	t.Run("unknown route is a json 404", func(t *testing.T) {
		rr := testutil.DoRequest(newTestRouter(t, nil), testutil.NewRequest(t, http.MethodGet, "/nope"))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})

	t.Run("wrong method is a 405", func(t *testing.T) {
		rr := testutil.DoRequest(newTestRouter(t, nil), httptest.NewRequest(http.MethodPatch, "/api/persons", nil))
		testutil.AssertStatus(t, rr, http.StatusMethodNotAllowed)
	})
}
