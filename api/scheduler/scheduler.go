package scheduler

import (
	"context"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/neuradyne/omnivision-api/databases"
	"github.com/neuradyne/omnivision-api/models"
	templates "github.com/neuradyne/omnivision-api/templates/html"
)

// staleAfter is how long a report may sit open before its responsible
// agencies get nudged.
const staleAfter = 48 * time.Hour

// Scheduler runs periodic background jobs.
type Scheduler struct {
	cron *cron.Cron
	EDB  databases.EventDatabase
	ADB  databases.AgencyDatabase
	now  func() time.Time
}

// NewScheduler creates a new scheduler instance
func NewScheduler(eDB databases.EventDatabase, aDB databases.AgencyDatabase) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLocation(time.UTC)),
		EDB:  eDB,
		ADB:  aDB,
		now:  time.Now,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Nudge agencies about untouched open reports daily at 3 AM UTC
	_, err := s.cron.AddFunc("0 3 * * *", s.processStaleEvents)
	if err != nil {
		zap.S().Errorw("failed to register stale event job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("stale event scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("stale event scheduler stopped")
}

// processStaleEvents finds reports still open past the stale cutoff and
// emails each agency a digest of the ones in its remit.
func (s *Scheduler) processStaleEvents() {
	if os.Getenv("SENDGRID_API_KEY") == "" {
		zap.S().Debug("SENDGRID_API_KEY not set, skipping stale event digest")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cutoff := s.now().UTC().Add(-staleAfter)

	events, err := s.EDB.Find(ctx, bson.M{
		"status":    models.StatusOpen,
		"createdAt": bson.M{"$lt": cutoff},
	})
	if err != nil {
		zap.S().Errorw("failed to find stale events", "error", err)
		return
	}
	if len(events) == 0 {
		return
	}

	agencies, err := s.ADB.Find(ctx, bson.M{"email": bson.M{"$nin": bson.A{"", nil}}})
	if err != nil {
		zap.S().Errorw("failed to find agencies for digest", "error", err)
		return
	}

	for _, agency := range agencies {
		lines := digestFor(agency, events)
		if len(lines) == 0 {
			continue
		}
		subject, htmlContent, plainText := templates.RenderStaleEventDigest(agency.AgencyName, lines)
		if err := s.sendEmail(agency.Email, agency.AgencyName, subject, htmlContent, plainText); err != nil {
			zap.S().Errorw("failed to send stale event digest", "agency", agency.AgencyID, "error", err)
			continue
		}
		zap.S().Infow("sent stale event digest", "agency", agency.AgencyID, "events", len(lines))
	}
}

// digestFor picks the stale events an agency is responsible for, by
// category match.
func digestFor(agency models.Agency, events []models.Event) []templates.StaleEventLine {
	responsible := make(map[string]bool, len(agency.EventResponsibleFor))
	for _, cat := range agency.EventResponsibleFor {
		responsible[cat] = true
	}

	var lines []templates.StaleEventLine
	for _, ev := range events {
		if !responsible[ev.Description] && ev.AgencyID != agency.AgencyID {
			continue
		}
		lines = append(lines, templates.StaleEventLine{
			EventID:     ev.EventID,
			Description: ev.Description,
			ReportedAt:  ev.Timestamp,
		})
	}
	return lines
}

func (s *Scheduler) sendEmail(toEmail, toName, subject, htmlContent, plainText string) error {
	from := mail.NewEmail("OmniVision", "no-reply@omnivision.neuradyne.in")
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
	client := sendgrid.NewSendClient(os.Getenv("SENDGRID_API_KEY"))
	response, err := client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
	}
	return nil
}
