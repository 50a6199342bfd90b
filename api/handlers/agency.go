package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"

	"github.com/neuradyne/omnivision-api/api"
	"github.com/neuradyne/omnivision-api/config"
	"github.com/neuradyne/omnivision-api/databases"
	"github.com/neuradyne/omnivision-api/geo"
	"github.com/neuradyne/omnivision-api/models"
	"github.com/neuradyne/omnivision-api/throttle"
)

// Agency exported for testing purposes
type Agency struct {
	DB      databases.AgencyDatabase
	Limiter *throttle.Limiter
}

// LoginHandler authenticates an agency by mobile number and password and
// returns a bearer token. Failures feed the lockout policy; a locked number
// is rejected before the credentials are even looked at.
func (a Agency) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req models.AgencyLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	mobile := strings.TrimSpace(req.MobileNumber)
	if mobile == "" || req.Password == "" {
		config.ErrorStatus("mobile number and password are required", http.StatusBadRequest, w, nil)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := a.Limiter.Check(ctx, mobile); err != nil {
		if errors.Is(err, throttle.ErrBlocked) {
			config.ErrorStatus(throttle.MsgBlocked, http.StatusTooManyRequests, w, nil)
			return
		}
		config.ErrorStatus("failed to check login throttle", http.StatusInternalServerError, w, err)
		return
	}

	agency, err := a.DB.FindOne(ctx, bson.M{"mobileNumber": mobile})
	if err != nil || bcrypt.CompareHashAndPassword([]byte(agency.Password), []byte(req.Password)) != nil {
		msg, blocked, ferr := a.Limiter.Fail(ctx, mobile)
		if ferr != nil {
			config.ErrorStatus("failed to record login attempt", http.StatusInternalServerError, w, ferr)
			return
		}
		code := http.StatusUnauthorized
		if blocked {
			code = http.StatusTooManyRequests
		}
		config.ErrorStatus(msg, code, w, nil)
		return
	}

	if err := a.Limiter.Reset(ctx, mobile); err != nil {
		config.ErrorStatus("failed to reset login attempts", http.StatusInternalServerError, w, err)
		return
	}

	token := api.IssueToken(r, mobile, agency.AgencyID)

	b, err := json.Marshal(models.AgencyLoginResponse{Token: token, Agency: *agency})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CreateAgencyHandler registers a new agency, used by both the public
// registration form and the admin manager.
func (a Agency) CreateAgencyHandler(w http.ResponseWriter, r *http.Request) {
	var req models.AgencyCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if strings.TrimSpace(req.AgencyName) == "" {
		config.ErrorStatus("agency name is required", http.StatusBadRequest, w, nil)
		return
	}
	if !models.ValidAgencyMobile(req.MobileNumber) {
		config.ErrorStatus("mobile number must be exactly 10 digits", http.StatusBadRequest, w, nil)
		return
	}
	if req.Password == "" {
		config.ErrorStatus("password is required", http.StatusBadRequest, w, nil)
		return
	}

	location, jurisdiction, err := resolveGeofence(req.Lat, req.Lng, req.JurisdictionPoints, req.Import)
	if err != nil {
		config.ErrorStatus("invalid catchment definition", http.StatusBadRequest, w, err)
		return
	}
	if location == nil && jurisdiction == nil {
		config.ErrorStatus("a location point or jurisdiction polygon is required", http.StatusBadRequest, w, nil)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if existing, err := a.DB.FindOne(ctx, bson.M{"mobileNumber": req.MobileNumber}); err == nil && existing != nil {
		config.ErrorStatus("an agency with this mobile number already exists", http.StatusConflict, w, nil)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}

	agency := models.Agency{
		AgencyID:            "agency-" + uuid.New().String(),
		AgencyName:          strings.TrimSpace(req.AgencyName),
		MobileNumber:        req.MobileNumber,
		Password:            string(hash),
		Email:               strings.TrimSpace(req.Email),
		EventResponsibleFor: req.EventResponsibleFor,
		Location:            location,
		Jurisdiction:        jurisdiction,
		CreatedAt:           time.Now().UTC(),
	}

	if _, err := a.DB.InsertOne(ctx, agency); err != nil {
		config.ErrorStatus("failed to create agency", http.StatusInternalServerError, w, err)
		return
	}

	b, _ := json.Marshal(models.SuccessResponse{Success: true})
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// AgenciesHandler returns all agencies for the admin manager. Password
// hashes never serialize; the old client's password-reveal view is not
// reproduced.
func (a Agency) AgenciesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := a.DB.Find(ctx, bson.M{})
	if err != nil {
		config.ErrorStatus("failed to get agencies", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Agency{}
	}

	b, err := json.Marshal(models.AgencyListResponse{Success: true, Data: dbResp})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateAgencyHandler applies a partial update to an agency; absent fields
// are left untouched.
func (a Agency) UpdateAgencyHandler(w http.ResponseWriter, r *http.Request) {
	agencyID := mux.Vars(r)["agencyId"]

	var req models.AgencyUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	set := bson.M{}
	if req.AgencyName != nil {
		if strings.TrimSpace(*req.AgencyName) == "" {
			config.ErrorStatus("agency name cannot be empty", http.StatusBadRequest, w, nil)
			return
		}
		set["AgencyName"] = strings.TrimSpace(*req.AgencyName)
	}
	if req.MobileNumber != nil {
		if !models.ValidAgencyMobile(*req.MobileNumber) {
			config.ErrorStatus("mobile number must be exactly 10 digits", http.StatusBadRequest, w, nil)
			return
		}
		set["mobileNumber"] = *req.MobileNumber
	}
	if req.Password != nil && *req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
			return
		}
		set["password"] = string(hash)
	}
	if req.EventResponsibleFor != nil {
		set["eventResponsibleFor"] = *req.EventResponsibleFor
	}

	if req.Lat != nil || req.Lng != nil || len(req.JurisdictionPoints) > 0 || req.Import != "" {
		location, jurisdiction, err := resolveGeofence(req.Lat, req.Lng, req.JurisdictionPoints, req.Import)
		if err != nil {
			config.ErrorStatus("invalid catchment definition", http.StatusBadRequest, w, err)
			return
		}
		if location != nil {
			set["location"] = location
		}
		if jurisdiction != nil {
			set["jurisdiction"] = jurisdiction
		}
	}

	if len(set) == 0 {
		config.ErrorStatus("no fields to update", http.StatusBadRequest, w, nil)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	modified, err := a.DB.UpdateOne(ctx, bson.M{"AgencyId": agencyID}, bson.M{"$set": set})
	if err != nil {
		config.ErrorStatus("failed to update agency", http.StatusInternalServerError, w, err)
		return
	}
	if modified == 0 {
		config.ErrorStatus("agency not found", http.StatusNotFound, w, fmt.Errorf("no agency with id %s", agencyID))
		return
	}

	b, _ := json.Marshal(models.SuccessResponse{Success: true})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeleteAgencyHandler removes an agency. The confirmation prompt lives in
// the admin client; the server deletes unconditionally.
func (a Agency) DeleteAgencyHandler(w http.ResponseWriter, r *http.Request) {
	agencyID := mux.Vars(r)["agencyId"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := a.DB.DeleteOne(ctx, bson.M{"AgencyId": agencyID}); err != nil {
		config.ErrorStatus("failed to delete agency", http.StatusInternalServerError, w, err)
		return
	}

	b, _ := json.Marshal(models.SuccessResponse{Success: true})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// resolveGeofence turns the request's catchment fields into a location point
// and/or a closed jurisdiction polygon. The import shortcut takes precedence,
// then explicit polygon points, then a bare lat/lng pair.
func resolveGeofence(lat, lng *float64, points [][]float64, imported string) (*geo.Point, *models.Jurisdiction, error) {
	if imported != "" {
		fence, err := geo.ParseImport([]byte(imported))
		if err != nil {
			return nil, nil, err
		}
		if fence.Point != nil {
			return fence.Point, nil, nil
		}
		return ringLocation(fence.Ring)
	}

	if len(points) > 0 {
		ring, err := geo.RingFromLatLngPairs(points)
		if err != nil {
			return nil, nil, err
		}
		if err := geo.ValidateRing(ring); err != nil {
			return nil, nil, err
		}
		return ringLocation(geo.CloseRing(ring))
	}

	if lat != nil && lng != nil {
		p := geo.Point{Lat: *lat, Lng: *lng}
		if !p.Valid() {
			return nil, nil, fmt.Errorf("latitude/longitude out of range")
		}
		return &p, nil, nil
	}

	return nil, nil, nil
}

// ringLocation packages a closed ring as a jurisdiction plus its centroid,
// the same derived location point the admin client computes.
func ringLocation(ring []geo.Point) (*geo.Point, *models.Jurisdiction, error) {
	centroid, err := geo.Centroid(ring)
	if err != nil {
		return nil, nil, err
	}
	j := &models.Jurisdiction{Type: "Polygon", Coordinates: geo.LatLngPairs(ring)}
	return &centroid, j, nil
}
