package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/neuradyne/omnivision-api/api"
	"github.com/neuradyne/omnivision-api/api/scheduler"
	"github.com/neuradyne/omnivision-api/config"
	"github.com/neuradyne/omnivision-api/databases"
	"github.com/neuradyne/omnivision-api/imagestore"
	"github.com/neuradyne/omnivision-api/live"
	"github.com/neuradyne/omnivision-api/models"
	"github.com/neuradyne/omnivision-api/throttle"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router   *mux.Router
	DB       databases.CollectionHelper
	Config   config.Config
	Hub      *live.Hub
	Limiter  *throttle.Limiter
	Uploader imagestore.Uploader
	Sched    *scheduler.Scheduler
	dbHelper databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewAgencyDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	r := mux.NewRouter()

	agencyDB := databases.NewAgencyDatabase(a.dbHelper)
	eventDB := databases.NewEventDatabase(a.dbHelper)
	staffDB := databases.NewGroundStaffDatabase(a.dbHelper)
	userDB := databases.NewUserDatabase(a.dbHelper)

	ag := Agency{DB: agencyDB, Limiter: a.Limiter}
	us := User{DB: userDB}
	ev := Event{DB: eventDB, ADB: agencyDB, Hub: a.Hub}
	gs := GroundStaff{DB: staffDB}
	up := Upload{DB: eventDB, Uploader: a.Uploader, Hub: a.Hub}
	lv := Live{Hub: a.Hub}
	ad := Admin{ADB: databases.NewAdminDatabase(a.dbHelper)}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	// the websocket route bypasses the timeout middleware: a feed connection
	// is supposed to outlive any request deadline
	r.Handle("/backend/live", api.Middleware(http.HandlerFunc(lv.ServeWS))).Methods("GET")

	backend := r.PathPrefix("/backend").Subrouter()
	backend.Use(api.TimeoutMiddleware(30 * time.Second))

	backend.Handle("/agency/login", http.HandlerFunc(ag.LoginHandler)).Methods("POST")
	backend.Handle("/agency/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("POST")
	backend.Handle("/agency/addgroundstaff", api.Middleware(http.HandlerFunc(gs.AddGroundStaffHandler))).Methods("POST")
	backend.Handle("/agency", http.HandlerFunc(ag.CreateAgencyHandler)).Methods("POST")
	backend.Handle("/agencies", api.Middleware(http.HandlerFunc(ag.AgenciesHandler))).Methods("GET")
	backend.Handle("/agencies/{agencyId}", api.Middleware(http.HandlerFunc(ag.UpdateAgencyHandler))).Methods("PUT")
	backend.Handle("/agencies/{agencyId}", api.Middleware(http.HandlerFunc(ag.DeleteAgencyHandler))).Methods("DELETE")

	backend.Handle("/admin/login", http.HandlerFunc(ad.AdminLoginHandler)).Methods("POST")

	backend.Handle("/agency-dashboard/{agencyId}", api.Middleware(http.HandlerFunc(ev.DashboardHandler))).Methods("GET")
	backend.Handle("/event-report/{event_id}", api.Middleware(http.HandlerFunc(ev.EventByIDHandler))).Methods("GET")
	backend.Handle("/events/status/{event_id}", api.Middleware(http.HandlerFunc(ev.UpdateEventStatusHandler))).Methods("PUT")

	backend.Handle("/user/register", http.HandlerFunc(us.RegisterHandler)).Methods("POST")
	backend.Handle("/user/login", http.HandlerFunc(us.LoginHandler)).Methods("POST")
	backend.Handle("/user/upload-image", http.HandlerFunc(up.UploadImageHandler)).Methods("POST")

	// wildcard route, must stay below every fixed /backend path
	backend.Handle("/{agencyId}/groundstaff", api.Middleware(http.HandlerFunc(gs.GroundStaffByAgencyHandler))).Methods("GET")

	// prebuilt SPA hosted under /billioneye with index.html fallback
	if a.Config.StaticDir != "" {
		r.PathPrefix("/billioneye").Handler(api.SPAHandler{StaticDir: a.Config.StaticDir, Prefix: "/billioneye"})
	}
	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("omnivision-api has connected to the database")

	// login throttling: redis when configured, in-process otherwise
	if a.Config.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: a.Config.RedisAddr})
		a.Limiter = throttle.NewLimiter(throttle.NewRedisStore(rdb))
		zap.S().Infow("login throttle backed by redis", "addr", a.Config.RedisAddr)
	} else {
		a.Limiter = throttle.NewLimiter(throttle.NewMemoryStore())
		zap.S().Warn("REDIS_ADDR not set, login lockouts will not survive a restart")
	}

	// image storage; uploads answer 503 until this is configured
	uploader, err := imagestore.NewCloudinary()
	if err != nil {
		zap.S().Warnw("cloudinary not configured, image uploads disabled", "error", err)
	} else {
		a.Uploader = uploader
	}

	a.Hub = live.NewHub()
	go a.Hub.Run()

	a.Sched = scheduler.NewScheduler(
		databases.NewEventDatabase(a.dbHelper),
		databases.NewAgencyDatabase(a.dbHelper),
	)

	// initialize api router
	a.initializeRoutes()
	return nil

}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
