package service

import (
	"errors"

	"github.com/rfpdesk/rfp-backend/internal/access"
	"github.com/rfpdesk/rfp-backend/internal/config"
	"github.com/rfpdesk/rfp-backend/internal/db"
	"github.com/rfpdesk/rfp-backend/internal/email"
	"github.com/rfpdesk/rfp-backend/internal/notification"
	"github.com/rfpdesk/rfp-backend/internal/repository"
	"github.com/rfpdesk/rfp-backend/internal/socket"
	"github.com/rfpdesk/rfp-backend/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidToken       = errors.New("invalid token")
	ErrNotFound           = errors.New("resource not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("resource already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrLastAdmin          = errors.New("cannot remove the company's last admin")
	ErrRfpClosed          = errors.New("rfp is closed")
	ErrNoCompany          = errors.New("user has no primary company")
	ErrAccessDenied       = errors.New("access denied")
)

// ============================================
// Services Container
// ============================================

type Services struct {
	Auth         AuthService
	Identity     IdentityService
	Company      CompanyService
	Membership   MembershipService
	Rfp          RfpService
	Document     DocumentService
	Nda          NdaService
	Registration RegistrationService
	Invitation   InvitationService
	Notification NotificationService
	Question     QuestionService
	Proposal     ProposalService
	Audit        AuditService
	Broadcaster  *socket.Broadcaster
}

// ServiceDeps contains all dependencies needed to create services
type ServiceDeps struct {
	Config      *config.Config
	Repos       *repository.Repositories
	NotifSvc    *notification.Service
	EmailSvc    *email.Service
	Broadcaster *socket.Broadcaster
	Storage     *storage.Client // nil when object storage is not configured
	Redis       *db.RedisDB     // nil when redis is not configured
}

func NewServices(deps *ServiceDeps) *Services {
	evaluator := access.NewEvaluator(
		deps.Repos.NdaRepo,
		deps.Repos.RegistrationRepo,
		deps.Repos.AccessGrantRepo,
	)

	identity := NewIdentityService(deps.Repos.UserRepo, deps.Repos.AffiliationRepo, deps.Redis)

	membership := NewMembershipService(
		deps.Repos.UserRepo,
		deps.Repos.CompanyRepo,
		deps.Repos.AffiliationRepo,
		deps.Repos.AuditRepo,
		identity,
		deps.NotifSvc,
		deps.Broadcaster,
	)

	rfp := NewRfpService(deps.Repos.RfpRepo, deps.Repos.AccessGrantRepo, deps.Repos.AuditRepo, deps.Broadcaster)

	return &Services{
		Auth:       NewAuthService(deps.Config, deps.Repos.UserRepo, membership),
		Identity:   identity,
		Company:    NewCompanyService(deps.Repos.CompanyRepo, deps.Repos.UserRepo, deps.Repos.AuditRepo),
		Membership: membership,
		Rfp:        rfp,
		Document: NewDocumentService(
			deps.Repos.DocumentRepo,
			deps.Repos.RfpRepo,
			evaluator,
			deps.Storage,
			deps.Broadcaster,
		),
		Nda: NewNdaService(
			deps.Repos.NdaRepo,
			deps.Repos.RfpRepo,
			deps.Repos.UserRepo,
			deps.Repos.AuditRepo,
			deps.NotifSvc,
			deps.Broadcaster,
		),
		Registration: NewRegistrationService(
			deps.Repos.RegistrationRepo,
			deps.Repos.RfpRepo,
			deps.Repos.UserRepo,
			deps.Repos.AuditRepo,
			deps.NotifSvc,
			deps.Broadcaster,
		),
		Invitation: NewInvitationService(
			deps.Repos.InvitationRepo,
			deps.Repos.CompanyRepo,
			deps.Repos.RfpRepo,
			deps.Repos.UserRepo,
			deps.Repos.AccessGrantRepo,
			membership,
			deps.EmailSvc,
			deps.Config.FrontendURL,
		),
		Notification: NewNotificationService(deps.Repos.NotificationRepo),
		Question: NewQuestionService(
			deps.Repos.QuestionRepo,
			deps.Repos.RfpRepo,
			deps.Repos.AccessGrantRepo,
			deps.NotifSvc,
			deps.Broadcaster,
		),
		Proposal: NewProposalService(
			deps.Repos.ProposalRepo,
			deps.Repos.RfpRepo,
			deps.Repos.CompanyRepo,
			deps.Repos.AccessGrantRepo,
			deps.NotifSvc,
			deps.Broadcaster,
		),
		Audit:       NewAuditService(deps.Repos.AuditRepo, deps.Repos.UserRepo),
		Broadcaster: deps.Broadcaster,
	}
}
