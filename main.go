package main

import (
	"fmt"
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/neuradyne/omnivision-api/api/handlers"
	"github.com/neuradyne/omnivision-api/config"
)

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	if err := a.Initialize(); err != nil {
		log.Fatal(err)
	}

	a.Sched.Start()
	defer a.Sched.Stop()

	zap.S().Infow("omnivision-api is up and running",
		"port", a.Config.Port,
		"url", a.Config.BaseURL,
	)

	// with a certificate configured we serve TLS and keep a plain listener
	// up only to bounce clients over
	if a.Config.CertFile != "" && a.Config.KeyFile != "" {
		if a.Config.HTTPPort != "" {
			go func() {
				redirect := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					target := "https://" + r.Host + r.URL.RequestURI()
					http.Redirect(w, r, target, http.StatusMovedPermanently)
				})
				log.Fatal(http.ListenAndServe(fmt.Sprintf(":%v", a.Config.HTTPPort), redirect))
			}()
		}
		log.Fatal(http.ListenAndServeTLS(fmt.Sprintf(":%v", a.Config.Port), a.Config.CertFile, a.Config.KeyFile, a.Router))
	}

	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%v", a.Config.Port), a.Router))
}
