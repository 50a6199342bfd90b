package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/neuradyne/omnivision-api/api"
	"github.com/neuradyne/omnivision-api/config"
	"github.com/neuradyne/omnivision-api/databases"
	"github.com/neuradyne/omnivision-api/models"
)

// GroundStaff exported for testing purposes
type GroundStaff struct {
	DB databases.GroundStaffDatabase
}

// GroundStaffByAgencyHandler lists an agency's field staff. An agency with
// nobody onboarded still gets a success envelope with an empty data array.
func (g GroundStaff) GroundStaffByAgencyHandler(w http.ResponseWriter, r *http.Request) {
	agencyID := mux.Vars(r)["agencyId"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	staff, err := g.DB.Find(ctx, bson.M{"agencyId": agencyID})
	if err != nil {
		config.ErrorStatus("failed to get ground staff", http.StatusNotFound, w, err)
		return
	}
	if len(staff) == 0 {
		staff = []models.GroundStaff{}
	}

	b, err := json.Marshal(models.GroundStaffListResponse{Success: true, Data: staff})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// AddGroundStaffHandler onboards one field staff member under an agency.
func (g GroundStaff) AddGroundStaffHandler(w http.ResponseWriter, r *http.Request) {
	var req models.GroundStaffAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		config.ErrorStatus("name is required", http.StatusBadRequest, w, nil)
		return
	}
	if !models.ValidGroundStaffPhone(req.Number) {
		config.ErrorStatus("number must be a 10 digit mobile number starting with 6-9", http.StatusBadRequest, w, nil)
		return
	}
	if strings.TrimSpace(req.AgencyID) == "" {
		config.ErrorStatus("agencyId is required", http.StatusBadRequest, w, nil)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	staff := models.GroundStaff{
		Name:      strings.TrimSpace(req.Name),
		Number:    req.Number,
		Address:   strings.TrimSpace(req.Address),
		AgencyID:  req.AgencyID,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := g.DB.InsertOne(ctx, staff); err != nil {
		config.ErrorStatus("failed to add ground staff", http.StatusInternalServerError, w, err)
		return
	}

	b, _ := json.Marshal(models.SuccessResponse{Success: true, Message: "ground staff added"})
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}
