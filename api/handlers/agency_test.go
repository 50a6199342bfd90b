package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"github.com/neuradyne/omnivision-api/api"
	"github.com/neuradyne/omnivision-api/api/handlers"
	"github.com/neuradyne/omnivision-api/databases"
	"github.com/neuradyne/omnivision-api/databases/mocks"
	"github.com/neuradyne/omnivision-api/models"
	"github.com/neuradyne/omnivision-api/throttle"
)

func newAgencyHandler(conn *mocks.CollectionHelper) handlers.Agency {
	db := &mocks.DatabaseHelper{}
	db.On("Collection", "agencies").Return(conn)
	return handlers.Agency{
		DB:      databases.NewAgencyDatabase(db),
		Limiter: throttle.NewLimiter(throttle.NewMemoryStore()),
	}
}

func TestAgency_LoginHandlerInvalidCredentials(t *testing.T) {
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}
	singleResultHelper.On("Decode", mock.Anything).Return(errors.New("mongo: no documents in result"))
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)

	u := newAgencyHandler(conn)

	body := `{"mobileNumber":"9876543210","password":"wrong"}`
	req, _ := http.NewRequest("POST", "/backend/agency/login", strings.NewReader(body))

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.LoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), throttle.MsgInvalid)
}

func TestAgency_LoginHandlerWarningProgression(t *testing.T) {
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}
	singleResultHelper.On("Decode", mock.Anything).Return(errors.New("mongo: no documents in result"))
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)

	u := newAgencyHandler(conn)

	body := `{"mobileNumber":"9876543210","password":"wrong"}`
	attempt := func() *httptest.ResponseRecorder {
		req, _ := http.NewRequest("POST", "/backend/agency/login", strings.NewReader(body))
		rr := httptest.NewRecorder()
		http.HandlerFunc(u.LoginHandler).ServeHTTP(rr, req)
		return rr
	}

	rr := attempt()
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), throttle.MsgInvalid)

	rr = attempt()
	assert.Contains(t, rr.Body.String(), throttle.MsgInvalid)

	rr = attempt()
	assert.Contains(t, rr.Body.String(), "Last 2 chances left")

	rr = attempt()
	assert.Contains(t, rr.Body.String(), "Last chance left")

	rr = attempt()
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Contains(t, rr.Body.String(), "blocked for 24 hours")

	// the sixth attempt is rejected before credentials are checked
	rr = attempt()
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Contains(t, rr.Body.String(), throttle.MsgBlocked)
}

func TestAgency_LoginHandlerIssuesUsableToken(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.DefaultCost)

	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}
	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Agency)
		(*arg).AgencyID = "agency-1"
		(*arg).AgencyName = "Water Works"
		(*arg).MobileNumber = "9876543210"
		(*arg).Password = string(hash)
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)

	db := &mocks.DatabaseHelper{}
	db.On("Collection", "agencies").Return(conn)
	agencyDB := databases.NewAgencyDatabase(db)
	api.MiddlewareDB{DB: agencyDB}.SetupGoGuardian()

	u := handlers.Agency{
		DB:      agencyDB,
		Limiter: throttle.NewLimiter(throttle.NewMemoryStore()),
	}

	req, _ := http.NewRequest("POST", "/backend/agency/login",
		strings.NewReader(`{"mobileNumber":"9876543210","password":"hunter22"}`))
	rr := httptest.NewRecorder()
	http.HandlerFunc(u.LoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp models.AgencyLoginResponse
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "agency-1", resp.Agency.AgencyID)
	assert.Equal(t, "Water Works", resp.Agency.AgencyName)
	assert.NotContains(t, rr.Body.String(), string(hash))

	// the freshly minted bearer token must open a protected route
	protected := api.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	}))

	preq, _ := http.NewRequest("GET", "/backend/agencies", nil)
	preq.Header.Set("Authorization", "Bearer "+resp.Token)
	prr := httptest.NewRecorder()
	protected.ServeHTTP(prr, preq)

	assert.Equal(t, http.StatusOK, prr.Code)
	assert.Contains(t, prr.Body.String(), `"ok":true`)
}

func TestAgency_LoginHandlerBlockedEvenWithCorrectPassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.DefaultCost)

	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}
	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Agency)
		(*arg).AgencyID = "agency-1"
		(*arg).MobileNumber = "9876543210"
		(*arg).Password = string(hash)
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)

	u := newAgencyHandler(conn)

	for i := 0; i < throttle.MaxAttempts; i++ {
		req, _ := http.NewRequest("POST", "/backend/agency/login",
			strings.NewReader(`{"mobileNumber":"9876543210","password":"wrong"}`))
		rr := httptest.NewRecorder()
		http.HandlerFunc(u.LoginHandler).ServeHTTP(rr, req)
	}

	req, _ := http.NewRequest("POST", "/backend/agency/login",
		strings.NewReader(`{"mobileNumber":"9876543210","password":"hunter22"}`))
	rr := httptest.NewRecorder()
	http.HandlerFunc(u.LoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Contains(t, rr.Body.String(), throttle.MsgBlocked)
}

func TestAgency_LoginHandlerMissingFields(t *testing.T) {
	u := newAgencyHandler(&mocks.CollectionHelper{})

	req, _ := http.NewRequest("POST", "/backend/agency/login", strings.NewReader(`{"mobileNumber":"9876543210"}`))
	rr := httptest.NewRecorder()
	http.HandlerFunc(u.LoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAgency_CreateAgencyHandlerInvalidMobile(t *testing.T) {
	u := newAgencyHandler(&mocks.CollectionHelper{})

	body := `{"AgencyName":"Water Works","mobileNumber":"12345","password":"pw","lat":12.9,"lng":77.5}`
	req, _ := http.NewRequest("POST", "/backend/agency", strings.NewReader(body))
	rr := httptest.NewRecorder()
	http.HandlerFunc(u.CreateAgencyHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "10 digits")
}

func TestAgency_CreateAgencyHandlerNoCatchment(t *testing.T) {
	u := newAgencyHandler(&mocks.CollectionHelper{})

	body := `{"AgencyName":"Water Works","mobileNumber":"9876543210","password":"pw"}`
	req, _ := http.NewRequest("POST", "/backend/agency", strings.NewReader(body))
	rr := httptest.NewRecorder()
	http.HandlerFunc(u.CreateAgencyHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "jurisdiction polygon is required")
}

func TestAgency_CreateAgencyHandlerDuplicateMobile(t *testing.T) {
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}
	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Agency)
		(*arg).AgencyID = "agency-existing"
		(*arg).MobileNumber = "9876543210"
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)

	u := newAgencyHandler(conn)

	body := `{"AgencyName":"Water Works","mobileNumber":"9876543210","password":"pw","lat":12.9,"lng":77.5}`
	req, _ := http.NewRequest("POST", "/backend/agency", strings.NewReader(body))
	rr := httptest.NewRecorder()
	http.HandlerFunc(u.CreateAgencyHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "already exists")
}

func TestAgency_CreateAgencyHandlerWithPolygon(t *testing.T) {
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}
	singleResultHelper.On("Decode", mock.Anything).Return(errors.New("mongo: no documents in result"))
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	conn.On("InsertOne", mock.Anything, mock.Anything).Return(&mocks.InsertOneResultHelper{})

	u := newAgencyHandler(conn)

	body := `{"AgencyName":"Water Works","mobileNumber":"9876543210","password":"pw",
		"jurisdiction":[[12.90,77.50],[12.92,77.50],[12.92,77.52]]}`
	req, _ := http.NewRequest("POST", "/backend/agency", strings.NewReader(body))
	rr := httptest.NewRecorder()
	http.HandlerFunc(u.CreateAgencyHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	inserted := conn.Calls[len(conn.Calls)-1].Arguments.Get(1).(models.Agency)
	assert.NotNil(t, inserted.Jurisdiction)
	// ring closes back onto its first vertex
	coords := inserted.Jurisdiction.Coordinates
	assert.Equal(t, coords[0], coords[len(coords)-1])
	assert.NotEmpty(t, inserted.Password)
	assert.NotEqual(t, "pw", inserted.Password)
}

func TestAgency_AgenciesHandlerEmpty(t *testing.T) {
	conn := &mocks.CollectionHelper{}
	cursorHelper := &mocks.CursorHelper{}
	cursorHelper.On("Decode", mock.Anything).Return(nil)
	conn.On("Find", mock.Anything, mock.Anything).Return(cursorHelper)

	u := newAgencyHandler(conn)

	req, _ := http.NewRequest("GET", "/backend/agencies", nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(u.AgenciesHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp models.AgencyListResponse
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Data)
	assert.Len(t, resp.Data, 0)
}

func TestAgency_UpdateAgencyHandlerNotFound(t *testing.T) {
	conn := &mocks.CollectionHelper{}
	conn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)

	u := newAgencyHandler(conn)

	req, _ := http.NewRequest("PUT", "/backend/agencies/agency-missing", strings.NewReader(`{"AgencyName":"Renamed"}`))
	req = mux.SetURLVars(req, map[string]string{"agencyId": "agency-missing"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UpdateAgencyHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAgency_DeleteAgencyHandler(t *testing.T) {
	conn := &mocks.CollectionHelper{}
	conn.On("DeleteOne", mock.Anything, mock.Anything).Return(nil)

	u := newAgencyHandler(conn)

	req, _ := http.NewRequest("DELETE", "/backend/agencies/agency-1", nil)
	req = mux.SetURLVars(req, map[string]string{"agencyId": "agency-1"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(u.DeleteAgencyHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"success":true`)
}
