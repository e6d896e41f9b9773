package repository

import "github.com/jackc/pgx/v5/pgxpool"

// ============================================
// Repositories Container
// ============================================

type Repositories struct {
	UserRepo         UserRepository
	CompanyRepo      CompanyRepository
	AffiliationRepo  AffiliationRepository
	RfpRepo          RfpRepository
	DocumentRepo     DocumentRepository
	NdaRepo          NdaRepository
	RegistrationRepo RegistrationRepository
	AccessGrantRepo  AccessGrantRepository
	InvitationRepo   InvitationRepository
	NotificationRepo NotificationRepository
	AuditRepo        AuditRepository
	QuestionRepo     QuestionRepository
	ProposalRepo     ProposalRepository
}

// NewPgRepositories creates PostgreSQL-backed repositories.
func NewPgRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepo:         NewUserRepository(pool),
		CompanyRepo:      NewCompanyRepository(pool),
		AffiliationRepo:  NewAffiliationRepository(pool),
		RfpRepo:          NewRfpRepository(pool),
		DocumentRepo:     NewDocumentRepository(pool),
		NdaRepo:          NewNdaRepository(pool),
		RegistrationRepo: NewRegistrationRepository(pool),
		AccessGrantRepo:  NewAccessGrantRepository(pool),
		InvitationRepo:   NewInvitationRepository(pool),
		NotificationRepo: NewNotificationRepository(pool),
		AuditRepo:        NewAuditRepository(pool),
		QuestionRepo:     NewQuestionRepository(pool),
		ProposalRepo:     NewProposalRepository(pool),
	}
}

// NewMemoryRepositories creates in-memory repositories (for tests and the
// dev fallback when no database is configured).
func NewMemoryRepositories() *Repositories {
	return &Repositories{
		UserRepo:         newMemUserRepository(),
		CompanyRepo:      newMemCompanyRepository(),
		AffiliationRepo:  newMemAffiliationRepository(),
		RfpRepo:          newMemRfpRepository(),
		DocumentRepo:     newMemDocumentRepository(),
		NdaRepo:          newMemNdaRepository(),
		RegistrationRepo: newMemRegistrationRepository(),
		AccessGrantRepo:  newMemAccessGrantRepository(),
		InvitationRepo:   newMemInvitationRepository(),
		NotificationRepo: newMemNotificationRepository(),
		AuditRepo:        newMemAuditRepository(),
		QuestionRepo:     newMemQuestionRepository(),
		ProposalRepo:     newMemProposalRepository(),
	}
}
