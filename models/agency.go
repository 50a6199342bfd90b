package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/neuradyne/omnivision-api/geo"
)

// Jurisdiction is a closed polygon catchment. Coordinates are stored as
// [lat, lng] pairs, first pair duplicated as the last, exactly as the admin
// client sends them.
type Jurisdiction struct {
	Type        string      `json:"type" bson:"type"`
	Coordinates [][]float64 `json:"coordinates" bson:"coordinates"`
}

// Agency holds the structure for the agencies collection in mongo. The
// password hash is bson-only; it must never appear in a response body.
type Agency struct {
	ID                  primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	AgencyID            string             `json:"AgencyId" bson:"AgencyId"`
	AgencyName          string             `json:"AgencyName" bson:"AgencyName"`
	MobileNumber        string             `json:"mobileNumber" bson:"mobileNumber"`
	Password            string             `json:"-" bson:"password"`
	Email               string             `json:"email,omitempty" bson:"email,omitempty"`
	EventResponsibleFor []string           `json:"eventResponsibleFor" bson:"eventResponsibleFor"`
	Location            *geo.Point         `json:"location,omitempty" bson:"location,omitempty"`
	Jurisdiction        *Jurisdiction      `json:"jurisdiction,omitempty" bson:"jurisdiction,omitempty"`
	CreatedAt           interface{}        `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
}

// AgencyLoginRequest is the body of POST /backend/agency/login.
type AgencyLoginRequest struct {
	MobileNumber string `json:"mobileNumber"`
	Password     string `json:"password"`
}

// AgencyLoginResponse carries the bearer token and the agency the dashboard
// redirects to.
type AgencyLoginResponse struct {
	Token  string `json:"token"`
	Agency Agency `json:"agency"`
}

// AgencyCreateRequest is the body of POST /backend/agency, shared by the
// public registration form and the admin manager. Lat/Lng describe a point
// catchment; JurisdictionPoints a polygon as [lat, lng] pairs; Import
// carries a raw import-shortcut payload (GeoJSON, ad-hoc JSON or CSV).
type AgencyCreateRequest struct {
	AgencyName          string      `json:"AgencyName"`
	MobileNumber        string      `json:"mobileNumber"`
	Password            string      `json:"password"`
	Email               string      `json:"email,omitempty"`
	EventResponsibleFor []string    `json:"eventResponsibleFor,omitempty"`
	Lat                 *float64    `json:"lat,omitempty"`
	Lng                 *float64    `json:"lng,omitempty"`
	JurisdictionPoints  [][]float64 `json:"jurisdiction,omitempty"`
	Import              string      `json:"import,omitempty"`
}

// AgencyUpdateRequest is the PUT /backend/agencies/{agencyId} body; nil
// fields are left untouched.
type AgencyUpdateRequest struct {
	AgencyName          *string     `json:"AgencyName,omitempty"`
	MobileNumber        *string     `json:"mobileNumber,omitempty"`
	Password            *string     `json:"password,omitempty"`
	EventResponsibleFor *[]string   `json:"eventResponsibleFor,omitempty"`
	Lat                 *float64    `json:"lat,omitempty"`
	Lng                 *float64    `json:"lng,omitempty"`
	JurisdictionPoints  [][]float64 `json:"jurisdiction,omitempty"`
	Import              string      `json:"import,omitempty"`
}

// AgencyListResponse is the admin list envelope.
type AgencyListResponse struct {
	Success bool     `json:"success"`
	Data    []Agency `json:"data"`
}

// SuccessResponse is the generic mutation acknowledgement envelope.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
