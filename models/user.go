package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// FullName is the nested name object the registration form sends.
type FullName struct {
	FirstName string `json:"firstname" bson:"firstname"`
	LastName  string `json:"lastname" bson:"lastname"`
}

// User holds the structure for the users collection in mongo. Citizens
// register to submit captures; the password hash never serializes.
type User struct {
	ID        primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	FullName  FullName           `json:"fullname" bson:"fullname"`
	Email     string             `json:"email" bson:"email"`
	Password  string             `json:"-" bson:"password"`
	CreatedAt interface{}        `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
}

// UserRegisterRequest is the body of POST /backend/user/register.
type UserRegisterRequest struct {
	FullName FullName `json:"fullname"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
}

// UserLoginRequest is the body of POST /backend/user/login.
type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserLoginResponse carries the token the capture flow stores.
type UserLoginResponse struct {
	Token string `json:"token"`
}
