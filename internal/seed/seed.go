package seed

import (
	"context"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/rfpdesk/rfp-backend/internal/repository"
	"github.com/rfpdesk/rfp-backend/internal/types"
)

// SeedData creates a small development dataset: an admin, a reviewer, two
// bidder companies with domain auto-join, and a pair of RFPs exercising the
// NDA and approval gates.
func SeedData(repos *repository.Repositories) {
	ctx := context.Background()

	if existing, _ := repos.UserRepo.FindByEmail(ctx, "admin@rfpdesk.io"); existing != nil {
		log.Println("[Seed] Data already exists, skipping...")
		return
	}

	log.Println("[Seed] 🌱 Creating development data...")

	password, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)

	admin := &repository.User{
		Email:    "admin@rfpdesk.io",
		Password: string(password),
		Name:     "Platform Admin",
		Role:     types.RoleAdmin,
	}
	repos.UserRepo.Create(ctx, admin)

	reviewer := &repository.User{
		Email:    "reviewer@rfpdesk.io",
		Password: string(password),
		Name:     "Riley Chan",
		Role:     types.RoleClientReviewer,
	}
	repos.UserRepo.Create(ctx, reviewer)

	dana := &repository.User{
		Email:    "dana@acme.example",
		Password: string(password),
		Name:     "Dana Whitfield",
		Role:     types.RoleBidder,
	}
	repos.UserRepo.Create(ctx, dana)

	omar := &repository.User{
		Email:    "omar@borealis.example",
		Password: string(password),
		Name:     "Omar Haddad",
		Role:     types.RoleBidder,
	}
	repos.UserRepo.Create(ctx, omar)

	log.Println("✅ Created 4 users: admin, reviewer, and 2 bidders")

	// ============================================
	// Companies
	// ============================================
	acmeDomain := "acme.example"
	acme := &repository.Company{
		Name:               "Acme Construction",
		Description:        stringPtr("General contractor, commercial builds"),
		VerificationStatus: "verified",
		AutoJoinEnabled:    true,
		VerifiedDomain:     &acmeDomain,
		CreatedBy:          dana.ID,
	}
	repos.CompanyRepo.Create(ctx, acme)

	borealis := &repository.Company{
		Name:               "Borealis Systems",
		Description:        stringPtr("IT infrastructure and networking"),
		VerificationStatus: "verified",
		CreatedBy:          omar.ID,
	}
	repos.CompanyRepo.Create(ctx, borealis)

	adminRole := types.CompanyRoleAdmin
	for _, pair := range []struct {
		user    *repository.User
		company *repository.Company
	}{{dana, acme}, {omar, borealis}} {
		repos.AffiliationRepo.Create(ctx, &repository.Affiliation{
			UserID:     pair.user.ID,
			CompanyID:  pair.company.ID,
			Kind:       types.AffiliationPrimary,
			Role:       adminRole,
			Status:     types.MembershipActive,
			JoinMethod: types.JoinMethodFounder,
		})
		repos.UserRepo.SetPrimaryCompany(ctx, pair.user.ID, &pair.company.ID, &adminRole)
	}

	log.Println("✅ Created 2 companies with founding admins")

	// ============================================
	// RFPs
	// ============================================
	now := time.Now()
	closing := now.AddDate(0, 1, 0)
	budget := decimal.NewNullDecimal(decimal.NewFromInt(250000))

	publicRfp := &repository.Rfp{
		Title:       "Regional Office Fit-Out",
		Description: stringPtr("Interior construction for the new regional office."),
		Visibility:  types.VisibilityPublic,
		Status:      types.RfpActive,
		ClosingDate: &closing,
		Categories:  []string{"construction", "interiors"},
		Budget:      budget,
		CreatedBy:   reviewer.ID,
		PublishedAt: &now,
	}
	repos.RfpRepo.Create(ctx, publicRfp)

	repos.DocumentRepo.Create(ctx, &repository.Document{
		RfpID:   publicRfp.ID,
		Name:    "Project Overview.pdf",
		FileKey: "seed/overview.pdf",
	})
	repos.DocumentRepo.Create(ctx, &repository.Document{
		RfpID:       publicRfp.ID,
		Name:        "Floor Plans.pdf",
		FileKey:     "seed/floorplans.pdf",
		RequiresNda: true,
	})
	repos.DocumentRepo.Create(ctx, &repository.Document{
		RfpID:            publicRfp.ID,
		Name:             "Bid Package.zip",
		FileKey:          "seed/bidpackage.zip",
		RequiresNda:      true,
		RequiresApproval: true,
	})

	confidentialRfp := &repository.Rfp{
		Title:       "Data Center Security Upgrade",
		Description: stringPtr("Invitation-only security infrastructure program."),
		Visibility:  types.VisibilityConfidential,
		Status:      types.RfpActive,
		ClosingDate: &closing,
		Categories:  []string{"security", "infrastructure"},
		CreatedBy:   reviewer.ID,
		PublishedAt: &now,
	}
	repos.RfpRepo.Create(ctx, confidentialRfp)

	log.Println("✅ Created 2 RFPs (one public with gated documents, one confidential)")
	log.Println("[Seed] 🌱 Development data ready")
}

func stringPtr(s string) *string {
	return &s
}
