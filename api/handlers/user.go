package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"

	"github.com/neuradyne/omnivision-api/api"
	"github.com/neuradyne/omnivision-api/config"
	"github.com/neuradyne/omnivision-api/databases"
	"github.com/neuradyne/omnivision-api/models"
)

// User exported for testing purposes
type User struct {
	DB databases.UserDatabase
}

// RegisterHandler creates a citizen account from the registration form.
func (u User) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req models.UserRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if strings.TrimSpace(req.FullName.FirstName) == "" {
		config.ErrorStatus("first name is required", http.StatusBadRequest, w, nil)
		return
	}
	if email == "" || !strings.Contains(email, "@") {
		config.ErrorStatus("a valid email is required", http.StatusBadRequest, w, nil)
		return
	}
	if req.Password == "" {
		config.ErrorStatus("password is required", http.StatusBadRequest, w, nil)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if existing, err := u.DB.FindOne(ctx, bson.M{"email": email}); err == nil && existing != nil {
		config.ErrorStatus("email already exists", http.StatusConflict, w, nil)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}

	user := models.User{
		FullName: models.FullName{
			FirstName: strings.TrimSpace(req.FullName.FirstName),
			LastName:  strings.TrimSpace(req.FullName.LastName),
		},
		Email:     email,
		Password:  string(hash),
		CreatedAt: time.Now().UTC(),
	}

	if _, err := u.DB.InsertOne(ctx, user); err != nil {
		config.ErrorStatus("failed to insert user", http.StatusInternalServerError, w, err)
		return
	}

	b, _ := json.Marshal(models.SuccessResponse{Success: true, Message: "registration successful"})
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// LoginHandler authenticates a citizen and returns the token the capture
// flow stores.
func (u User) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req models.UserLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		config.ErrorStatus("email and password are required", http.StatusBadRequest, w, nil)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := u.DB.FindOne(ctx, bson.M{"email": email})
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		config.ErrorStatus("invalid email or password", http.StatusUnauthorized, w, nil)
		return
	}

	jwtSecret := []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		config.ErrorStatus("server misconfigured", http.StatusInternalServerError, w, nil)
		return
	}

	claims := jwt.MapClaims{
		"sub":   user.ID.Hex(),
		"email": user.Email,
		"scope": "citizen",
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(jwtSecret)
	if err != nil {
		config.ErrorStatus("token generation failed", http.StatusInternalServerError, w, err)
		return
	}

	b, _ := json.Marshal(models.UserLoginResponse{Token: signed})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
