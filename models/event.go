package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event status values as the dashboard observes them. Casing is part of the
// wire contract and intentionally mixed.
const (
	StatusOpen       = "open"
	StatusAccepted   = "Accepted"
	StatusAssigned   = "Assigned"
	StatusClosed     = "closed"
	StatusRejected   = "Rejected"
	StatusUnassigned = "Unassigned"
)

// Dashboard buckets. An event whose status maps to no bucket is hidden from
// all three tabs; that edge is deliberate.
const (
	BucketRecent   = "RecentReports"
	BucketAssigned = "AssignedEvents"
	BucketResolved = "ResolvedEvents"
)

// transitions is the authoritative status machine. It is the union of the
// two client flows (dashboard approve and event-report direct assign), so
// both keep working against this server.
var transitions = map[string][]string{
	StatusOpen:       {StatusAccepted, StatusAssigned, StatusRejected},
	StatusAccepted:   {StatusAssigned, StatusRejected},
	StatusAssigned:   {StatusClosed, StatusRejected, StatusUnassigned},
	StatusUnassigned: {StatusAssigned, StatusRejected},
	StatusClosed:     {},
	StatusRejected:   {},
}

// KnownStatus reports whether s is one of the six recognized status values.
func KnownStatus(s string) bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether an event may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TerminalStatus reports whether no further transitions exist from s.
func TerminalStatus(s string) bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// BucketForStatus maps a status onto a dashboard tab. Accepted and Unassigned
// events, and anything unknown, return "" and appear in no tab.
func BucketForStatus(s string) string {
	switch s {
	case StatusOpen:
		return BucketRecent
	case StatusAssigned:
		return BucketAssigned
	case StatusClosed, StatusRejected:
		return BucketResolved
	default:
		return ""
	}
}

// GeoJSONPoint is the wire/location shape for an event, coordinates ordered
// [lng, lat].
type GeoJSONPoint struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
}

// Event holds the structure for the events collection in mongo
type Event struct {
	ID             primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	EventID        string             `json:"event_id" bson:"event_id"`
	Description    string             `json:"description" bson:"description"`
	Status         string             `json:"status" bson:"status"`
	Latitude       float64            `json:"latitude" bson:"latitude"`
	Longitude      float64            `json:"longitude" bson:"longitude"`
	Location       *GeoJSONPoint      `json:"location,omitempty" bson:"location,omitempty"`
	ImageURL       string             `json:"image_url" bson:"image_url"`
	AgencyID       string             `json:"AgencyId,omitempty" bson:"AgencyId,omitempty"`
	GroundStaff    string             `json:"groundStaffName,omitempty" bson:"groundStaffName,omitempty"`
	AssignmentTime string             `json:"assignment_time,omitempty" bson:"assignment_time,omitempty"`
	UserID         string             `json:"userId,omitempty" bson:"userId,omitempty"`
	Timestamp      string             `json:"timestamp,omitempty" bson:"timestamp,omitempty"`
	CreatedAt      interface{}        `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
	UpdatedAt      interface{}        `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// StatusUpdateRequest is the body of PUT /backend/events/status/{event_id}.
// GroundStaffName and AssignmentTime use pointers so that explicit nulls
// (the unassign flow) are distinguishable from omitted fields.
type StatusUpdateRequest struct {
	Status         string  `json:"status"`
	GroundStaff    *string `json:"groundStaffName"`
	AssignmentTime *string `json:"assignment_time"`
	AgencyID       string  `json:"agencyId,omitempty"`
}

// DashboardResponse is the body of GET /backend/agency-dashboard/{agencyId}.
type DashboardResponse struct {
	AgencyName     string  `json:"AgencyName"`
	AssignedEvents []Event `json:"assignedEvents"`
}

// UploadImageRequest is the citizen capture payload.
type UploadImageRequest struct {
	UserID       string        `json:"userId"`
	Location     *GeoJSONPoint `json:"location"`
	Timestamp    string        `json:"timestamp"`
	Base64String string        `json:"base64String"`
	Description  string        `json:"description,omitempty"`
}

// UploadImageResponse acknowledges a stored capture.
type UploadImageResponse struct {
	ImageID string `json:"imageId"`
}
