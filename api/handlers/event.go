package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/neuradyne/omnivision-api/api"
	"github.com/neuradyne/omnivision-api/config"
	"github.com/neuradyne/omnivision-api/databases"
	"github.com/neuradyne/omnivision-api/imagestore"
	"github.com/neuradyne/omnivision-api/live"
	"github.com/neuradyne/omnivision-api/models"
)

// Event exported for testing purposes
type Event struct {
	DB  databases.EventDatabase
	ADB databases.AgencyDatabase
	Hub *live.Hub
}

// DashboardHandler returns the agency name plus every event the agency can
// act on: events already routed to it, and open reports whose category falls
// under its responsibility. Bucketing into tabs is the dashboard's job.
func (e Event) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	agencyID := mux.Vars(r)["agencyId"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	agency, err := e.ADB.FindOne(ctx, bson.M{"AgencyId": agencyID})
	if err != nil {
		config.ErrorStatus("agency not found", http.StatusNotFound, w, err)
		return
	}

	filter := bson.M{"AgencyId": agencyID}
	if len(agency.EventResponsibleFor) > 0 {
		filter = bson.M{"$or": []bson.M{
			{"AgencyId": agencyID},
			{"status": models.StatusOpen, "description": bson.M{"$in": agency.EventResponsibleFor}},
		}}
	}

	events, err := e.DB.Find(ctx, filter)
	if err != nil {
		config.ErrorStatus("failed to get events", http.StatusNotFound, w, err)
		return
	}
	if len(events) == 0 {
		events = []models.Event{}
	}
	for i := range events {
		events[i].ImageURL = imagestore.NormalizeURL(events[i].ImageURL)
	}

	b, err := json.Marshal(models.DashboardResponse{
		AgencyName:     agency.AgencyName,
		AssignedEvents: events,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// EventByIDHandler returns a single event for the report detail view.
func (e Event) EventByIDHandler(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["event_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	event, err := e.DB.FindOne(ctx, bson.M{"event_id": eventID})
	if err != nil {
		config.ErrorStatus("event not found", http.StatusNotFound, w, err)
		return
	}
	event.ImageURL = imagestore.NormalizeURL(event.ImageURL)

	b, err := json.Marshal(event)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateEventStatusHandler moves an event through the status machine. The
// write is a compare-and-set on the status the caller saw, so two dashboards
// racing on the same event cannot both win.
func (e Event) UpdateEventStatusHandler(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["event_id"]

	var req models.StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if !models.KnownStatus(req.Status) {
		config.ErrorStatus(fmt.Sprintf("unknown status %q", req.Status), http.StatusBadRequest, w, nil)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	event, err := e.DB.FindOne(ctx, bson.M{"event_id": eventID})
	if err != nil {
		config.ErrorStatus("event not found", http.StatusNotFound, w, err)
		return
	}

	// a same-status request is the dashboard approve action re-routing an
	// event; it re-applies idempotently instead of failing the transition
	// check
	if req.Status != event.Status && !models.CanTransition(event.Status, req.Status) {
		config.ErrorStatus(
			fmt.Sprintf("cannot move event from %q to %q", event.Status, req.Status),
			http.StatusConflict, w, nil)
		return
	}

	set := bson.M{"status": req.Status, "updatedAt": time.Now().UTC()}
	var unset bson.M

	if req.AgencyID != "" {
		set["AgencyId"] = req.AgencyID
	}

	switch req.Status {
	case models.StatusAccepted:
		if req.AgencyID == "" {
			config.ErrorStatus("agencyId is required when accepting", http.StatusBadRequest, w, nil)
			return
		}
	case models.StatusAssigned:
		if req.GroundStaff == nil || strings.TrimSpace(*req.GroundStaff) == "" {
			config.ErrorStatus("groundStaffName is required when assigning", http.StatusBadRequest, w, nil)
			return
		}
		set["groundStaffName"] = strings.TrimSpace(*req.GroundStaff)
		// the dashboard sends its own locale-formatted assignment_time;
		// keep it verbatim when present
		if req.AssignmentTime != nil && *req.AssignmentTime != "" {
			set["assignment_time"] = *req.AssignmentTime
		} else {
			set["assignment_time"] = time.Now().UTC().Format(time.RFC3339)
		}
	case models.StatusUnassigned:
		unset = bson.M{"groundStaffName": "", "assignment_time": ""}
	}

	update := bson.M{"$set": set}
	if unset != nil {
		update["$unset"] = unset
	}

	modified, err := e.DB.UpdateOne(ctx, bson.M{"event_id": eventID, "status": event.Status}, update)
	if err != nil {
		config.ErrorStatus("failed to update event", http.StatusInternalServerError, w, err)
		return
	}
	if modified == 0 {
		// somebody else moved the event between our read and our write
		config.ErrorStatus("event status changed concurrently", http.StatusConflict, w, nil)
		return
	}

	updated, err := e.DB.FindOne(ctx, bson.M{"event_id": eventID})
	if err != nil {
		config.ErrorStatus("failed to reload event", http.StatusInternalServerError, w, err)
		return
	}
	updated.ImageURL = imagestore.NormalizeURL(updated.ImageURL)

	if e.Hub != nil {
		e.Hub.Broadcast(map[string]interface{}{
			"type":  "event.status",
			"event": updated,
		})
	}

	b, err := json.Marshal(updated)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
