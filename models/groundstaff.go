package models

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// groundStaffPhone matches a 10-digit Indian mobile number starting 6-9,
// the same pattern the onboarding form enforces keystroke by keystroke.
var groundStaffPhone = regexp.MustCompile(`^[6-9][0-9]{9}$`)

// ValidGroundStaffPhone reports whether number is an acceptable ground staff
// mobile number.
func ValidGroundStaffPhone(number string) bool {
	return groundStaffPhone.MatchString(number)
}

// agencyMobile is the looser agency credential rule: exactly 10 digits.
var agencyMobile = regexp.MustCompile(`^[0-9]{10}$`)

// ValidAgencyMobile reports whether number is exactly 10 digits.
func ValidAgencyMobile(number string) bool {
	return agencyMobile.MatchString(number)
}

// GroundStaff holds the structure for the groundstaff collection in mongo
type GroundStaff struct {
	ID        primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	Number    string             `json:"number" bson:"number"`
	Address   string             `json:"address" bson:"address"`
	AgencyID  string             `json:"agencyId" bson:"agencyId"`
	CreatedAt interface{}        `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
}

// GroundStaffAddRequest is the body of POST /backend/agency/addgroundstaff.
type GroundStaffAddRequest struct {
	Name     string `json:"name"`
	Number   string `json:"number"`
	Address  string `json:"address"`
	AgencyID string `json:"agencyId"`
}

// GroundStaffListResponse is the ground staff list envelope.
type GroundStaffListResponse struct {
	Success bool          `json:"success"`
	Data    []GroundStaff `json:"data"`
}
