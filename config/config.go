package config

import (
	"encoding/json"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/neuradyne/omnivision-api/models"
)

// Config holds the project config values
type Config struct {
	URL          string
	DatabaseName string
	BaseURL      string
	Port         string
	HTTPPort     string
	RedisAddr    string
	CertFile     string
	KeyFile      string
	StaticDir    string
}

// New sets up all config related services
func New() *Config {

	//setup zap logger and replace default logger
	logger := zap.NewExample()
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		URL:          os.Getenv("DB_URI"),
		DatabaseName: os.Getenv("DB_NAME"),
		BaseURL:      os.Getenv("BASE_URL"),
		Port:         os.Getenv("PORT"),
		HTTPPort:     os.Getenv("HTTP_PORT"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		CertFile:     os.Getenv("CERT_FILE"),
		KeyFile:      os.Getenv("KEY_FILE"),
		StaticDir:    os.Getenv("STATIC_DIR"),
	}

}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	b, _ := json.Marshal(models.ErrorMessageResponse{Response: models.MessageError{Message: message, Error: errMsg}})
	w.WriteHeader(httpStatusCode)
	w.Write(b)
}
