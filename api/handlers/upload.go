package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/neuradyne/omnivision-api/api"
	"github.com/neuradyne/omnivision-api/config"
	"github.com/neuradyne/omnivision-api/databases"
	"github.com/neuradyne/omnivision-api/geo"
	"github.com/neuradyne/omnivision-api/imagestore"
	"github.com/neuradyne/omnivision-api/live"
	"github.com/neuradyne/omnivision-api/models"
)

// defaultDescription labels captures that arrive without a category; the
// dashboard routes them by agency responsibility, so unlabelled reports need
// a recognizable bucket.
const defaultDescription = "Unclassified Report"

// Upload exported for testing purposes
type Upload struct {
	DB       databases.EventDatabase
	Uploader imagestore.Uploader
	Hub      *live.Hub
}

// UploadImageHandler ingests a citizen capture: validates the payload,
// stores the photo, then records the event as open. Validation runs before
// any side effect so a bad request leaves no trace.
func (u Upload) UploadImageHandler(w http.ResponseWriter, r *http.Request) {
	var req models.UploadImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if req.Base64String == "" {
		config.ErrorStatus("base64String is required", http.StatusBadRequest, w, nil)
		return
	}
	if _, err := base64.StdEncoding.DecodeString(req.Base64String); err != nil {
		config.ErrorStatus("base64String is not valid base64", http.StatusBadRequest, w, err)
		return
	}
	if req.Location == nil {
		config.ErrorStatus("location is required", http.StatusBadRequest, w, nil)
		return
	}
	point, err := geo.FromGeoJSON(req.Location.Coordinates)
	if err != nil {
		config.ErrorStatus("invalid location coordinates", http.StatusBadRequest, w, err)
		return
	}

	if u.Uploader == nil {
		config.ErrorStatus("image storage is not configured", http.StatusServiceUnavailable, w, nil)
		return
	}

	eventID := uuid.New().String()

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	imageURL, err := u.Uploader.UploadBase64(ctx, req.Base64String, eventID)
	if err != nil {
		config.ErrorStatus("failed to store image", http.StatusBadGateway, w, err)
		return
	}

	description := req.Description
	if description == "" {
		description = defaultDescription
	}
	timestamp := req.Timestamp
	if timestamp == "" {
		timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	event := models.Event{
		EventID:     eventID,
		Description: description,
		Status:      models.StatusOpen,
		Latitude:    point.Lat,
		Longitude:   point.Lng,
		Location:    &models.GeoJSONPoint{Type: "Point", Coordinates: point.ToGeoJSON()},
		ImageURL:    imageURL,
		UserID:      req.UserID,
		Timestamp:   timestamp,
		CreatedAt:   time.Now().UTC(),
	}

	if _, err := u.DB.InsertOne(ctx, event); err != nil {
		config.ErrorStatus("failed to record event", http.StatusInternalServerError, w, err)
		return
	}

	if u.Hub != nil {
		u.Hub.Broadcast(map[string]interface{}{
			"type":  "event.reported",
			"event": event,
		})
	}

	b, err := json.Marshal(models.UploadImageResponse{ImageID: eventID})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}
