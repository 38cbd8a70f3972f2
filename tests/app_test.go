package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	appproviders "github.com/km-arc/go-ioc/app/providers"
	"github.com/km-arc/go-ioc/app/storage"
	"github.com/km-arc/go-ioc/framework/app"
	"github.com/km-arc/go-ioc/framework/container"
	gohttp "github.com/km-arc/go-ioc/framework/http"
)

// dsnSeq gives every test its own named in-memory database, so records never
// leak between tests while the shared cache keeps one database per pool.
var dsnSeq atomic.Int64

// AppTestSuite boots the full application, demo providers included, and
// drives it over real HTTP.
type AppTestSuite struct {
	suite.Suite
	context.Context

	Cancel context.CancelFunc

	app *app.Application
	srv *httptest.Server
}

func (s *AppTestSuite) SetupTest() {
	s.Context, s.Cancel = context.WithCancel(context.TODO())

	s.T().Setenv("APP_ENV", "testing")
	s.T().Setenv("LOG_LEVEL", "error")
	s.T().Setenv("DB_DSN", fmt.Sprintf("file:it%d?mode=memory&cache=shared", dsnSeq.Add(1)))

	s.app = app.New()
	s.Require().NoError(s.app.Register(&appproviders.DatabaseServiceProvider{}))
	s.Require().NoError(s.app.Register(&appproviders.AppServiceProvider{}))
	s.Require().NoError(s.app.Boot(s.Context))

	router := s.app.Router()

	// Probe route: reports which unit of work served the request.
	router.Get("/scope-id", gohttp.Handle(s.app.Container,
		func(uow *storage.UnitOfWork, res *gohttp.Response, req *gohttp.Request) {
			res.Success(uow.ID)
		}))

	s.srv = httptest.NewServer(router)
}

func (s *AppTestSuite) TearDownTest() {
	s.srv.Close()
	s.Require().NoError(s.app.DisposeAllSingletons(context.WithoutCancel(s.Context)))
	s.Cancel()
}

func TestApp(t *testing.T) {
	suite.Run(t, new(AppTestSuite))
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (s *AppTestSuite) do(method, path string, body any) *http.Response {
	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		s.Require().NoError(err)
		payload = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(s.Context, method, s.srv.URL+path, payload)
	s.Require().NoError(err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.srv.Client().Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *AppTestSuite) decodeData(resp *http.Response) map[string]any {
	defer resp.Body.Close()
	var m map[string]any
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&m))
	data, ok := m["data"].(map[string]any)
	s.Require().True(ok, "expected a data envelope, got %v", m)
	return data
}

// ── tests ────────────────────────────────────────────────────────────────────

func (s *AppTestSuite) TestUserLifecycle() {
	// create
	resp := s.do(http.MethodPost, "/api/v1/users", map[string]string{
		"name":  "Alice",
		"email": "alice@example.com",
	})
	s.Equal(http.StatusCreated, resp.StatusCode)
	created := s.decodeData(resp)
	s.Equal("Alice", created["name"])
	id := int(created["ID"].(float64))
	s.NotZero(id)

	// list
	resp = s.do(http.MethodGet, "/api/v1/users", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var listBody struct {
		Data []map[string]any `json:"data"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&listBody))
	resp.Body.Close()
	s.Len(listBody.Data, 1)

	// show
	resp = s.do(http.MethodGet, fmt.Sprintf("/api/v1/users/%d", id), nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("alice@example.com", s.decodeData(resp)["email"])

	// update
	resp = s.do(http.MethodPut, fmt.Sprintf("/api/v1/users/%d", id), map[string]string{
		"name":  "Alice Cooper",
		"email": "alice@example.com",
	})
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("Alice Cooper", s.decodeData(resp)["name"])

	// destroy
	resp = s.do(http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", id), nil)
	s.Equal(http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	// gone
	resp = s.do(http.MethodGet, fmt.Sprintf("/api/v1/users/%d", id), nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func (s *AppTestSuite) TestInvalidPayloadIs422() {
	resp := s.do(http.MethodPost, "/api/v1/users", map[string]string{
		"name":  "A",
		"email": "not-an-email",
	})
	s.Equal(http.StatusUnprocessableEntity, resp.StatusCode)

	var body struct {
		Errors map[string][]string `json:"errors"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	s.Contains(body.Errors, "name")
	s.Contains(body.Errors, "email")
}

func (s *AppTestSuite) TestUnknownUserIs404() {
	resp := s.do(http.MethodGet, "/api/v1/users/99999", nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func (s *AppTestSuite) TestEachRequestGetsItsOwnScope() {
	const n = 8

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ids  = make(map[string]int)
		errs []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := s.srv.Client().Get(s.srv.URL + "/scope-id")
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return
			}
			defer resp.Body.Close()
			var m map[string]any
			if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return
			}
			id, _ := m["data"].(string)
			mu.Lock()
			ids[id]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	s.Require().Empty(errs)
	s.Len(ids, n, "every request should get its own unit of work")
	s.NotContains(ids, "")
}

func (s *AppTestSuite) TestBootTwiceIsNoOp() {
	// A second boot must not re-run providers; re-mounting the routes would
	// make chi reject the duplicates.
	s.Require().NoError(s.app.Boot(s.Context))
	s.True(s.app.Providers.Booted())
}

func (s *AppTestSuite) TestShutdownReleasesTheStore() {
	resp := s.do(http.MethodGet, "/api/v1/users", nil)
	resp.Body.Close()
	s.True(container.Resolved[*storage.Store](s.app.Container))

	s.Require().NoError(s.app.DisposeAllSingletons(s.Context))
	s.False(container.Resolved[*storage.Store](s.app.Container))
}
