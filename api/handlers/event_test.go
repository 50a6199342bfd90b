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
	"go.mongodb.org/mongo-driver/bson"

	"github.com/neuradyne/omnivision-api/api/handlers"
	"github.com/neuradyne/omnivision-api/databases"
	"github.com/neuradyne/omnivision-api/databases/mocks"
	"github.com/neuradyne/omnivision-api/models"
)

func newEventHandler(events, agencies *mocks.CollectionHelper) handlers.Event {
	db := &mocks.DatabaseHelper{}
	db.On("Collection", "events").Return(events)
	db.On("Collection", "agencies").Return(agencies)
	return handlers.Event{
		DB:  databases.NewEventDatabase(db),
		ADB: databases.NewAgencyDatabase(db),
	}
}

func eventResult(ev models.Event) *mocks.SingleResultHelper {
	singleResultHelper := &mocks.SingleResultHelper{}
	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Event)
		**arg = ev
	})
	return singleResultHelper
}

func statusUpdateRequest(eventID, body string) *http.Request {
	req, _ := http.NewRequest("PUT", "/backend/events/status/"+eventID, strings.NewReader(body))
	return mux.SetURLVars(req, map[string]string{"event_id": eventID})
}

func TestEvent_UpdateEventStatusHandlerUnknownStatus(t *testing.T) {
	u := newEventHandler(&mocks.CollectionHelper{}, &mocks.CollectionHelper{})

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UpdateEventStatusHandler).ServeHTTP(rr, statusUpdateRequest("evt-1", `{"status":"Escalated"}`))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "unknown status")
}

func TestEvent_UpdateEventStatusHandlerTerminalEvent(t *testing.T) {
	events := &mocks.CollectionHelper{}
	events.On("FindOne", mock.Anything, mock.Anything).Return(eventResult(models.Event{
		EventID: "evt-1",
		Status:  models.StatusClosed,
	}))

	u := newEventHandler(events, &mocks.CollectionHelper{})

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UpdateEventStatusHandler).ServeHTTP(rr, statusUpdateRequest("evt-1", `{"status":"Assigned","groundStaffName":"Ravi"}`))

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "cannot move event")
}

func TestEvent_UpdateEventStatusHandlerSkipAcceptedAllowed(t *testing.T) {
	events := &mocks.CollectionHelper{}
	events.On("FindOne", mock.Anything, mock.Anything).Return(eventResult(models.Event{
		EventID: "evt-1",
		Status:  models.StatusOpen,
	}))
	events.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)

	u := newEventHandler(events, &mocks.CollectionHelper{})

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UpdateEventStatusHandler).ServeHTTP(rr, statusUpdateRequest("evt-1", `{"status":"Assigned","groundStaffName":"Ravi"}`))

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestEvent_UpdateEventStatusHandlerAcceptRecordsAgency(t *testing.T) {
	events := &mocks.CollectionHelper{}
	events.On("FindOne", mock.Anything, mock.Anything).Return(eventResult(models.Event{
		EventID: "evt-1",
		Status:  models.StatusOpen,
	}))
	var capturedUpdate interface{}
	events.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil).Run(func(args mock.Arguments) {
		capturedUpdate = args.Get(2)
	})

	u := newEventHandler(events, &mocks.CollectionHelper{})

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UpdateEventStatusHandler).ServeHTTP(rr, statusUpdateRequest("evt-1", `{"status":"Accepted","agencyId":"agency-121"}`))

	assert.Equal(t, http.StatusOK, rr.Code)

	update, ok := capturedUpdate.(bson.M)
	assert.True(t, ok, "expected a bson.M update document")
	set, ok := update["$set"].(bson.M)
	assert.True(t, ok, "expected a $set stage in the update")
	assert.Equal(t, "agency-121", set["AgencyId"])
	assert.Equal(t, models.StatusAccepted, set["status"])
}

func TestEvent_UpdateEventStatusHandlerAcceptRequiresAgency(t *testing.T) {
	events := &mocks.CollectionHelper{}
	events.On("FindOne", mock.Anything, mock.Anything).Return(eventResult(models.Event{
		EventID: "evt-1",
		Status:  models.StatusOpen,
	}))

	u := newEventHandler(events, &mocks.CollectionHelper{})

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UpdateEventStatusHandler).ServeHTTP(rr, statusUpdateRequest("evt-1", `{"status":"Accepted"}`))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "agencyId is required")
}

func TestEvent_UpdateEventStatusHandlerSameStatusApprove(t *testing.T) {
	events := &mocks.CollectionHelper{}
	events.On("FindOne", mock.Anything, mock.Anything).Return(eventResult(models.Event{
		EventID: "evt-1",
		Status:  models.StatusOpen,
	}))
	var capturedUpdate interface{}
	events.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil).Run(func(args mock.Arguments) {
		capturedUpdate = args.Get(2)
	})

	u := newEventHandler(events, &mocks.CollectionHelper{})

	// the dashboard approve button keeps the event open and supplies the
	// routed agency
	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UpdateEventStatusHandler).ServeHTTP(rr, statusUpdateRequest("evt-1", `{"status":"open","agencyId":"agency-121"}`))

	assert.Equal(t, http.StatusOK, rr.Code)

	update, ok := capturedUpdate.(bson.M)
	assert.True(t, ok, "expected a bson.M update document")
	set, ok := update["$set"].(bson.M)
	assert.True(t, ok, "expected a $set stage in the update")
	assert.Equal(t, "agency-121", set["AgencyId"])
}

func TestEvent_UpdateEventStatusHandlerAssignRequiresStaff(t *testing.T) {
	events := &mocks.CollectionHelper{}
	events.On("FindOne", mock.Anything, mock.Anything).Return(eventResult(models.Event{
		EventID: "evt-1",
		Status:  models.StatusAccepted,
	}))

	u := newEventHandler(events, &mocks.CollectionHelper{})

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UpdateEventStatusHandler).ServeHTTP(rr, statusUpdateRequest("evt-1", `{"status":"Assigned"}`))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "groundStaffName is required")
}

func TestEvent_UpdateEventStatusHandlerConcurrentLoser(t *testing.T) {
	events := &mocks.CollectionHelper{}
	events.On("FindOne", mock.Anything, mock.Anything).Return(eventResult(models.Event{
		EventID: "evt-1",
		Status:  models.StatusOpen,
	}))
	// modified count zero means another dashboard won the race
	events.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)

	u := newEventHandler(events, &mocks.CollectionHelper{})

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UpdateEventStatusHandler).ServeHTTP(rr, statusUpdateRequest("evt-1", `{"status":"Accepted","agencyId":"agency-121"}`))

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "changed concurrently")
}

func TestEvent_UpdateEventStatusHandlerUnassignClearsStaff(t *testing.T) {
	events := &mocks.CollectionHelper{}
	events.On("FindOne", mock.Anything, mock.Anything).Return(eventResult(models.Event{
		EventID:     "evt-1",
		Status:      models.StatusAssigned,
		GroundStaff: "Ravi",
	}))
	var capturedUpdate interface{}
	events.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil).Run(func(args mock.Arguments) {
		capturedUpdate = args.Get(2)
	})

	u := newEventHandler(events, &mocks.CollectionHelper{})

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UpdateEventStatusHandler).ServeHTTP(rr, statusUpdateRequest("evt-1", `{"status":"Unassigned","groundStaffName":null,"assignment_time":null}`))

	assert.Equal(t, http.StatusOK, rr.Code)

	update, ok := capturedUpdate.(bson.M)
	assert.True(t, ok, "expected a bson.M update document")
	unset, ok := update["$unset"].(bson.M)
	assert.True(t, ok, "expected an $unset stage in the update")
	assert.Contains(t, unset, "groundStaffName")
	assert.Contains(t, unset, "assignment_time")
}

func TestEvent_EventByIDHandlerNotFound(t *testing.T) {
	events := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}
	singleResultHelper.On("Decode", mock.Anything).Return(errors.New("mongo: no documents in result"))
	events.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)

	u := newEventHandler(events, &mocks.CollectionHelper{})

	req, _ := http.NewRequest("GET", "/backend/event-report/evt-missing", nil)
	req = mux.SetURLVars(req, map[string]string{"event_id": "evt-missing"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(u.EventByIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestEvent_EventByIDHandlerNormalizesImageURL(t *testing.T) {
	events := &mocks.CollectionHelper{}
	events.On("FindOne", mock.Anything, mock.Anything).Return(eventResult(models.Event{
		EventID:  "evt-1",
		Status:   models.StatusOpen,
		ImageURL: "http://192.168.192.177:9000/billion-eyes-images/evt-1.jpg",
	}))

	u := newEventHandler(events, &mocks.CollectionHelper{})

	req, _ := http.NewRequest("GET", "/backend/event-report/evt-1", nil)
	req = mux.SetURLVars(req, map[string]string{"event_id": "evt-1"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(u.EventByIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var got models.Event
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "https://assets.omnivision.neuradyne.in/billion-eyes-images/evt-1.jpg", got.ImageURL)
}

func TestEvent_DashboardHandler(t *testing.T) {
	agencies := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}
	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Agency)
		(*arg).AgencyID = "agency-1"
		(*arg).AgencyName = "Water Works"
		(*arg).EventResponsibleFor = []string{"Water Leakage"}
	})
	agencies.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)

	events := &mocks.CollectionHelper{}
	cursorHelper := &mocks.CursorHelper{}
	cursorHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*[]models.Event)
		*arg = []models.Event{
			{EventID: "evt-1", Status: models.StatusOpen, Description: "Water Leakage"},
			{EventID: "evt-2", Status: models.StatusAssigned, AgencyID: "agency-1"},
		}
	})
	events.On("Find", mock.Anything, mock.Anything).Return(cursorHelper)

	u := newEventHandler(events, agencies)

	req, _ := http.NewRequest("GET", "/backend/agency-dashboard/agency-1", nil)
	req = mux.SetURLVars(req, map[string]string{"agencyId": "agency-1"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(u.DashboardHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp models.DashboardResponse
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Water Works", resp.AgencyName)
	assert.Len(t, resp.AssignedEvents, 2)
}

func TestEvent_DashboardHandlerAgencyNotFound(t *testing.T) {
	agencies := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}
	singleResultHelper.On("Decode", mock.Anything).Return(errors.New("mongo: no documents in result"))
	agencies.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)

	u := newEventHandler(&mocks.CollectionHelper{}, agencies)

	req, _ := http.NewRequest("GET", "/backend/agency-dashboard/nope", nil)
	req = mux.SetURLVars(req, map[string]string{"agencyId": "nope"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(u.DashboardHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
