package cron

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rfpdesk/rfp-backend/internal/email"
	"github.com/rfpdesk/rfp-backend/internal/notification"
	"github.com/rfpdesk/rfp-backend/internal/repository"
	"github.com/rfpdesk/rfp-backend/internal/service"
	"github.com/rfpdesk/rfp-backend/internal/types"
)

// Scheduler handles scheduled tasks
type Scheduler struct {
	cron             *cron.Cron
	services         *service.Services
	notifSvc         *notification.Service
	emailSvc         *email.Service
	rfpRepo          repository.RfpRepository
	registrationRepo repository.RegistrationRepository
	invitationRepo   repository.InvitationRepository
	userRepo         repository.UserRepository
	frontendURL      string
}

// NewScheduler creates a new scheduler
func NewScheduler(
	services *service.Services,
	notifSvc *notification.Service,
	emailSvc *email.Service,
	rfpRepo repository.RfpRepository,
	registrationRepo repository.RegistrationRepository,
	invitationRepo repository.InvitationRepository,
	userRepo repository.UserRepository,
	frontendURL string,
) *Scheduler {
	return &Scheduler{
		cron:             cron.New(),
		services:         services,
		notifSvc:         notifSvc,
		emailSvc:         emailSvc,
		rfpRepo:          rfpRepo,
		registrationRepo: registrationRepo,
		invitationRepo:   invitationRepo,
		userRepo:         userRepo,
		frontendURL:      frontendURL,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	// Run every 15 minutes - reconcile the stored status of expired RFPs
	s.cron.AddFunc("*/15 * * * *", func() {
		log.Println("[Cron] Running RFP status reconciliation...")
		s.reconcileExpiredRfps()
	})

	// Run every hour - expire stale invitations
	s.cron.AddFunc("0 * * * *", func() {
		log.Println("[Cron] Running invitation expiry...")
		s.expireInvitations()
	})

	// Run every day at 9 AM - closing soon reminders
	s.cron.AddFunc("0 9 * * *", func() {
		log.Println("[Cron] Running closing soon reminder check...")
		s.sendClosingSoonReminders()
	})

	// Clean up old notifications - Run every Sunday at midnight
	s.cron.AddFunc("0 0 * * 0", func() {
		log.Println("[Cron] Running notification cleanup...")
		s.cleanupOldNotifications()
	})

	s.cron.Start()
	log.Println("[Cron] Scheduler started")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[Cron] Scheduler stopped")
}

// reconcileExpiredRfps flips stored status to closed for RFPs whose closing
// date has passed. Read paths never depend on this; it keeps listings and
// reports honest.
func (s *Scheduler) reconcileExpiredRfps() {
	ctx := context.Background()

	closed, err := s.services.Rfp.ReconcileExpired(ctx, time.Now())
	if err != nil {
		log.Printf("[Cron] Error reconciling expired RFPs: %v", err)
		return
	}
	if closed > 0 {
		log.Printf("[Cron] Closed %d expired RFP(s)", closed)
	}
}

func (s *Scheduler) expireInvitations() {
	ctx := context.Background()

	expired, err := s.invitationRepo.ExpirePending(ctx, time.Now())
	if err != nil {
		log.Printf("[Cron] Error expiring invitations: %v", err)
		return
	}
	if expired > 0 {
		log.Printf("[Cron] Expired %d invitation(s)", expired)
	}
}

// sendClosingSoonReminders notifies registrants of RFPs closing within 24
// hours, in-app and by email.
func (s *Scheduler) sendClosingSoonReminders() {
	ctx := context.Background()
	now := time.Now()

	rfps, err := s.rfpRepo.FindClosingBetween(ctx, now, now.Add(24*time.Hour))
	if err != nil {
		log.Printf("[Cron] Error finding closing RFPs: %v", err)
		return
	}

	for _, rfp := range rfps {
		registrations, err := s.registrationRepo.FindByRfpID(ctx, rfp.ID)
		if err != nil {
			log.Printf("[Cron] Error loading registrations for RFP %s: %v", rfp.ID, err)
			continue
		}

		hoursLeft := 24
		if rfp.ClosingDate != nil {
			hoursLeft = int(time.Until(*rfp.ClosingDate).Hours())
		}

		for _, reg := range registrations {
			if reg.Status == types.RegistrationRejected {
				continue
			}
			if s.notifSvc != nil {
				s.notifSvc.SendRfpClosingSoon(ctx, reg.RegistrantID, rfp.Title, rfp.ID, hoursLeft)
			}
			if s.emailSvc != nil && rfp.ClosingDate != nil {
				registrant, err := s.userRepo.FindByID(ctx, reg.RegistrantID)
				if err != nil || registrant == nil {
					continue
				}
				if err := s.emailSvc.SendClosingSoonReminder(registrant.Email, email.ClosingSoonEmailData{
					RfpTitle:    rfp.Title,
					ClosingDate: *rfp.ClosingDate,
					RfpURL:      fmt.Sprintf("%s/rfps/%s", strings.TrimRight(s.frontendURL, "/"), rfp.ID),
				}); err != nil {
					log.Printf("[Cron] Error emailing closing reminder to %s: %v", registrant.Email, err)
				}
			}
		}
	}
}

func (s *Scheduler) cleanupOldNotifications() {
	ctx := context.Background()

	deleted, err := s.services.Notification.Cleanup(ctx, time.Now().AddDate(0, 0, -30))
	if err != nil {
		log.Printf("[Cron] Error cleaning up notifications: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("[Cron] Deleted %d old notification(s)", deleted)
	}
}
