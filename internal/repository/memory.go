package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// In-memory repository implementations backing the test suite. All reads
// return copies so callers never share mutable state with the store.

// ============================================
// Users
// ============================================

type memUserRepository struct {
	mu     sync.RWMutex
	users  map[string]User
	tokens map[string]RefreshToken
}

func newMemUserRepository() UserRepository {
	return &memUserRepository{
		users:  make(map[string]User),
		tokens: make(map[string]RefreshToken),
	}
}

func copyUser(u User) *User {
	c := u
	if u.CompanyID != nil {
		v := *u.CompanyID
		c.CompanyID = &v
	}
	if u.CompanyRole != nil {
		v := *u.CompanyRole
		c.CompanyRole = &v
	}
	return &c
}

func (r *memUserRepository) Create(ctx context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = uuid.New().String()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *copyUser(*user)
	return nil
}

func (r *memUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.users[id]; ok {
		return copyUser(u), nil
	}
	return nil, nil
}

func (r *memUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (r *memUserRepository) FindAll(ctx context.Context) ([]*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var users []*User
	for _, u := range r.users {
		users = append(users, copyUser(u))
	}
	return users, nil
}

func (r *memUserRepository) Update(ctx context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[user.ID]
	if !ok {
		return nil
	}
	existing.Email = user.Email
	existing.Name = user.Name
	existing.Role = user.Role
	existing.UpdatedAt = time.Now()
	r.users[user.ID] = existing
	user.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r *memUserRepository) SetPrimaryCompany(ctx context.Context, userID string, companyID, companyRole *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[userID]
	if !ok {
		return nil
	}
	existing.CompanyID = nil
	existing.CompanyRole = nil
	if companyID != nil {
		v := *companyID
		existing.CompanyID = &v
	}
	if companyRole != nil {
		v := *companyRole
		existing.CompanyRole = &v
	}
	existing.UpdatedAt = time.Now()
	r.users[userID] = existing
	return nil
}

func (r *memUserRepository) FindByPrimaryCompany(ctx context.Context, companyID string) ([]*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var users []*User
	for _, u := range r.users {
		if u.CompanyID != nil && *u.CompanyID == companyID {
			users = append(users, copyUser(u))
		}
	}
	return users, nil
}

func (r *memUserRepository) FindCompanyAdmins(ctx context.Context, companyID string) ([]*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var users []*User
	for _, u := range r.users {
		if u.CompanyID != nil && *u.CompanyID == companyID &&
			u.CompanyRole != nil && *u.CompanyRole == "admin" {
			users = append(users, copyUser(u))
		}
	}
	return users, nil
}

func (r *memUserRepository) CountCompanyAdmins(ctx context.Context, companyID string) (int, error) {
	admins, _ := r.FindCompanyAdmins(ctx, companyID)
	return len(admins), nil
}

func (r *memUserRepository) SaveRefreshToken(ctx context.Context, token *RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token.ID = uuid.New().String()
	token.CreatedAt = time.Now()
	r.tokens[token.Token] = *token
	return nil
}

func (r *memUserRepository) FindRefreshToken(ctx context.Context, token string) (*RefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.tokens[token]; ok {
		c := t
		return &c, nil
	}
	return nil, nil
}

func (r *memUserRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, token)
	return nil
}

func (r *memUserRepository) DeleteUserRefreshTokens(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, k)
		}
	}
	return nil
}

// ============================================
// Companies
// ============================================

type memCompanyRepository struct {
	mu        sync.RWMutex
	companies map[string]Company
}

func newMemCompanyRepository() CompanyRepository {
	return &memCompanyRepository{companies: make(map[string]Company)}
}

func copyCompany(c Company) *Company {
	cp := c
	if c.Description != nil {
		v := *c.Description
		cp.Description = &v
	}
	if c.Website != nil {
		v := *c.Website
		cp.Website = &v
	}
	if c.VerifiedDomain != nil {
		v := *c.VerifiedDomain
		cp.VerifiedDomain = &v
	}
	cp.BlockedDomains = append([]string(nil), c.BlockedDomains...)
	return &cp
}

func (r *memCompanyRepository) Create(ctx context.Context, company *Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	company.ID = uuid.New().String()
	now := time.Now()
	company.CreatedAt = now
	company.UpdatedAt = now
	if company.VerificationStatus == "" {
		company.VerificationStatus = "unverified"
	}
	r.companies[company.ID] = *copyCompany(*company)
	return nil
}

func (r *memCompanyRepository) FindByID(ctx context.Context, id string) (*Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.companies[id]; ok {
		return copyCompany(c), nil
	}
	return nil, nil
}

func (r *memCompanyRepository) FindByName(ctx context.Context, name string) (*Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.companies {
		if strings.EqualFold(c.Name, name) {
			return copyCompany(c), nil
		}
	}
	return nil, nil
}

func (r *memCompanyRepository) FindAll(ctx context.Context) ([]*Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var companies []*Company
	for _, c := range r.companies {
		companies = append(companies, copyCompany(c))
	}
	return companies, nil
}

func (r *memCompanyRepository) FindAutoJoinByDomain(ctx context.Context, domain string) ([]*Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var companies []*Company
	for _, c := range r.companies {
		if c.AutoJoinEnabled && c.VerifiedDomain != nil && strings.EqualFold(*c.VerifiedDomain, domain) {
			companies = append(companies, copyCompany(c))
		}
	}
	return companies, nil
}

func (r *memCompanyRepository) Update(ctx context.Context, company *Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.companies[company.ID]; !ok {
		return nil
	}
	company.UpdatedAt = time.Now()
	r.companies[company.ID] = *copyCompany(*company)
	return nil
}

func (r *memCompanyRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.companies, id)
	return nil
}

// ============================================
// Affiliations
// ============================================

type memAffiliationRepository struct {
	mu   sync.RWMutex
	affs map[string]Affiliation
}

func newMemAffiliationRepository() AffiliationRepository {
	return &memAffiliationRepository{affs: make(map[string]Affiliation)}
}

func copyAffiliation(a Affiliation) *Affiliation {
	c := a
	c.User = nil
	if a.Message != nil {
		v := *a.Message
		c.Message = &v
	}
	if a.DecidedBy != nil {
		v := *a.DecidedBy
		c.DecidedBy = &v
	}
	if a.DecidedAt != nil {
		v := *a.DecidedAt
		c.DecidedAt = &v
	}
	if a.RejectReason != nil {
		v := *a.RejectReason
		c.RejectReason = &v
	}
	return &c
}

func (r *memAffiliationRepository) Create(ctx context.Context, aff *Affiliation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	aff.ID = uuid.New().String()
	now := time.Now()
	aff.CreatedAt = now
	aff.UpdatedAt = now
	r.affs[aff.ID] = *copyAffiliation(*aff)
	return nil
}

func (r *memAffiliationRepository) FindByID(ctx context.Context, id string) (*Affiliation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if a, ok := r.affs[id]; ok {
		return copyAffiliation(a), nil
	}
	return nil, nil
}

func (r *memAffiliationRepository) FindByUserAndCompany(ctx context.Context, userID, companyID string) ([]*Affiliation, error) {
	return r.filter(func(a Affiliation) bool {
		return a.UserID == userID && a.CompanyID == companyID
	}), nil
}

func (r *memAffiliationRepository) FindPendingByUser(ctx context.Context, userID, companyID string) (*Affiliation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.affs {
		if a.UserID == userID && a.CompanyID == companyID && a.Kind == "pending" {
			return copyAffiliation(a), nil
		}
	}
	return nil, nil
}

func (r *memAffiliationRepository) FindPendingByCompany(ctx context.Context, companyID string) ([]*Affiliation, error) {
	return r.filter(func(a Affiliation) bool {
		return a.CompanyID == companyID && a.Kind == "pending"
	}), nil
}

func (r *memAffiliationRepository) FindActiveSecondaries(ctx context.Context, userID string) ([]*Affiliation, error) {
	return r.filter(func(a Affiliation) bool {
		return a.UserID == userID && a.Kind == "secondary" && a.Status == "active"
	}), nil
}

func (r *memAffiliationRepository) FindByUserID(ctx context.Context, userID string) ([]*Affiliation, error) {
	return r.filter(func(a Affiliation) bool { return a.UserID == userID }), nil
}

func (r *memAffiliationRepository) FindByCompanyID(ctx context.Context, companyID string) ([]*Affiliation, error) {
	return r.filter(func(a Affiliation) bool { return a.CompanyID == companyID }), nil
}

func (r *memAffiliationRepository) Update(ctx context.Context, aff *Affiliation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.affs[aff.ID]; !ok {
		return nil
	}
	aff.UpdatedAt = time.Now()
	r.affs[aff.ID] = *copyAffiliation(*aff)
	return nil
}

func (r *memAffiliationRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.affs, id)
	return nil
}

func (r *memAffiliationRepository) filter(pred func(Affiliation) bool) []*Affiliation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Affiliation
	for _, a := range r.affs {
		if pred(a) {
			out = append(out, copyAffiliation(a))
		}
	}
	return out
}

// ============================================
// RFPs
// ============================================

type memRfpRepository struct {
	mu   sync.RWMutex
	rfps map[string]Rfp
}

func newMemRfpRepository() RfpRepository {
	return &memRfpRepository{rfps: make(map[string]Rfp)}
}

func copyRfp(rfp Rfp) *Rfp {
	c := rfp
	if rfp.Description != nil {
		v := *rfp.Description
		c.Description = &v
	}
	if rfp.ClosingDate != nil {
		v := *rfp.ClosingDate
		c.ClosingDate = &v
	}
	if rfp.PublishedAt != nil {
		v := *rfp.PublishedAt
		c.PublishedAt = &v
	}
	c.Categories = append([]string(nil), rfp.Categories...)
	return &c
}

func (r *memRfpRepository) Create(ctx context.Context, rfp *Rfp) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rfp.ID = uuid.New().String()
	now := time.Now()
	rfp.CreatedAt = now
	rfp.UpdatedAt = now
	r.rfps[rfp.ID] = *copyRfp(*rfp)
	return nil
}

func (r *memRfpRepository) FindByID(ctx context.Context, id string) (*Rfp, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if rfp, ok := r.rfps[id]; ok {
		return copyRfp(rfp), nil
	}
	return nil, nil
}

func (r *memRfpRepository) FindAll(ctx context.Context) ([]*Rfp, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var rfps []*Rfp
	for _, rfp := range r.rfps {
		rfps = append(rfps, copyRfp(rfp))
	}
	return rfps, nil
}

func (r *memRfpRepository) Update(ctx context.Context, rfp *Rfp) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rfps[rfp.ID]; !ok {
		return nil
	}
	rfp.UpdatedAt = time.Now()
	r.rfps[rfp.ID] = *copyRfp(*rfp)
	return nil
}

func (r *memRfpRepository) UpdateStatus(ctx context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rfp, ok := r.rfps[id]; ok {
		rfp.Status = status
		rfp.UpdatedAt = time.Now()
		r.rfps[id] = rfp
	}
	return nil
}

func (r *memRfpRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rfps, id)
	return nil
}

func (r *memRfpRepository) FindExpiredOpen(ctx context.Context, now time.Time) ([]*Rfp, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var rfps []*Rfp
	for _, rfp := range r.rfps {
		if rfp.Status != "closed" && rfp.ClosingDate != nil && rfp.ClosingDate.Before(now) {
			rfps = append(rfps, copyRfp(rfp))
		}
	}
	return rfps, nil
}

func (r *memRfpRepository) FindClosingBetween(ctx context.Context, from, to time.Time) ([]*Rfp, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var rfps []*Rfp
	for _, rfp := range r.rfps {
		if rfp.Status == "active" && rfp.ClosingDate != nil &&
			!rfp.ClosingDate.Before(from) && rfp.ClosingDate.Before(to) {
			rfps = append(rfps, copyRfp(rfp))
		}
	}
	return rfps, nil
}

// ============================================
// Documents
// ============================================

type memDocumentRepository struct {
	mu   sync.RWMutex
	docs map[string]Document
}

func newMemDocumentRepository() DocumentRepository {
	return &memDocumentRepository{docs: make(map[string]Document)}
}

func copyDocument(d Document) *Document {
	c := d
	if d.ContentType != nil {
		v := *d.ContentType
		c.ContentType = &v
	}
	if d.Size != nil {
		v := *d.Size
		c.Size = &v
	}
	return &c
}

func (r *memDocumentRepository) Create(ctx context.Context, doc *Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc.ID = uuid.New().String()
	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	r.docs[doc.ID] = *copyDocument(*doc)
	return nil
}

func (r *memDocumentRepository) FindByID(ctx context.Context, id string) (*Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if d, ok := r.docs[id]; ok {
		return copyDocument(d), nil
	}
	return nil, nil
}

func (r *memDocumentRepository) FindByRfpID(ctx context.Context, rfpID string) ([]*Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var docs []*Document
	for _, d := range r.docs {
		if d.RfpID == rfpID {
			docs = append(docs, copyDocument(d))
		}
	}
	return docs, nil
}

func (r *memDocumentRepository) Update(ctx context.Context, doc *Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[doc.ID]; !ok {
		return nil
	}
	doc.UpdatedAt = time.Now()
	r.docs[doc.ID] = *copyDocument(*doc)
	return nil
}

func (r *memDocumentRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, id)
	return nil
}

// ============================================
// NDAs
// ============================================

type memNdaRepository struct {
	mu          sync.RWMutex
	individuals map[string]NdaRecord // keyed by rfpID + "/" + userID
	companies   map[string]CompanyNda
	trail       []NdaTrailEntry
}

func newMemNdaRepository() NdaRepository {
	return &memNdaRepository{
		individuals: make(map[string]NdaRecord),
		companies:   make(map[string]CompanyNda),
	}
}

func ndaKey(a, b string) string { return a + "/" + b }

func (r *memNdaRepository) UpsertIndividual(ctx context.Context, nda *NdaRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := ndaKey(nda.RfpID, nda.UserID)
	now := time.Now()
	if existing, ok := r.individuals[key]; ok {
		nda.ID = existing.ID
		nda.CreatedAt = existing.CreatedAt
	} else {
		nda.ID = uuid.New().String()
		nda.CreatedAt = now
	}
	nda.Status = "signed"
	nda.CountersignedBy = nil
	nda.CountersignerName = nil
	nda.Countersignature = nil
	nda.CountersignedAt = nil
	nda.RejectReason = nil
	nda.UpdatedAt = now
	r.individuals[key] = *nda
	return nil
}

func (r *memNdaRepository) FindIndividual(ctx context.Context, rfpID, userID string) (*NdaRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if nda, ok := r.individuals[ndaKey(rfpID, userID)]; ok {
		c := nda
		return &c, nil
	}
	return nil, nil
}

func (r *memNdaRepository) FindIndividualByID(ctx context.Context, id string) (*NdaRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, nda := range r.individuals {
		if nda.ID == id {
			c := nda
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memNdaRepository) FindIndividualsByRfp(ctx context.Context, rfpID string) ([]*NdaRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ndas []*NdaRecord
	for _, nda := range r.individuals {
		if nda.RfpID == rfpID {
			c := nda
			ndas = append(ndas, &c)
		}
	}
	return ndas, nil
}

func (r *memNdaRepository) UpdateIndividual(ctx context.Context, nda *NdaRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := ndaKey(nda.RfpID, nda.UserID)
	if _, ok := r.individuals[key]; !ok {
		return nil
	}
	nda.UpdatedAt = time.Now()
	r.individuals[key] = *nda
	return nil
}

func (r *memNdaRepository) UpsertCompany(ctx context.Context, nda *CompanyNda) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := ndaKey(nda.RfpID, nda.CompanyID)
	now := time.Now()
	if existing, ok := r.companies[key]; ok {
		nda.ID = existing.ID
		nda.CreatedAt = existing.CreatedAt
	} else {
		nda.ID = uuid.New().String()
		nda.CreatedAt = now
	}
	nda.Status = "signed"
	nda.CountersignedBy = nil
	nda.CountersignerName = nil
	nda.Countersignature = nil
	nda.CountersignedAt = nil
	nda.RejectReason = nil
	nda.UpdatedAt = now
	r.companies[key] = *nda
	return nil
}

func (r *memNdaRepository) FindCompany(ctx context.Context, rfpID, companyID string) (*CompanyNda, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if nda, ok := r.companies[ndaKey(rfpID, companyID)]; ok {
		c := nda
		return &c, nil
	}
	return nil, nil
}

func (r *memNdaRepository) FindCompanyByID(ctx context.Context, id string) (*CompanyNda, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, nda := range r.companies {
		if nda.ID == id {
			c := nda
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memNdaRepository) FindCompaniesByRfp(ctx context.Context, rfpID string) ([]*CompanyNda, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ndas []*CompanyNda
	for _, nda := range r.companies {
		if nda.RfpID == rfpID {
			c := nda
			ndas = append(ndas, &c)
		}
	}
	return ndas, nil
}

func (r *memNdaRepository) UpdateCompany(ctx context.Context, nda *CompanyNda) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := ndaKey(nda.RfpID, nda.CompanyID)
	if _, ok := r.companies[key]; !ok {
		return nil
	}
	nda.UpdatedAt = time.Now()
	r.companies[key] = *nda
	return nil
}

func (r *memNdaRepository) AppendTrail(ctx context.Context, entry *NdaTrailEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = uuid.New().String()
	entry.CreatedAt = time.Now()
	r.trail = append(r.trail, *entry)
	return nil
}

func (r *memNdaRepository) FindTrail(ctx context.Context, ndaKind, ndaID string) ([]*NdaTrailEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var entries []*NdaTrailEntry
	for i := range r.trail {
		if r.trail[i].NdaKind == ndaKind && r.trail[i].NdaID == ndaID {
			c := r.trail[i]
			entries = append(entries, &c)
		}
	}
	return entries, nil
}

// ============================================
// Interest registrations
// ============================================

type memRegistrationRepository struct {
	mu   sync.RWMutex
	regs map[string]InterestRegistration // keyed by rfpID + "/" + companyID
}

func newMemRegistrationRepository() RegistrationRepository {
	return &memRegistrationRepository{regs: make(map[string]InterestRegistration)}
}

func (r *memRegistrationRepository) Create(ctx context.Context, reg *InterestRegistration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg.ID = uuid.New().String()
	reg.Status = "pending"
	now := time.Now()
	reg.CreatedAt = now
	reg.UpdatedAt = now
	r.regs[ndaKey(reg.RfpID, reg.CompanyID)] = *reg
	return nil
}

func (r *memRegistrationRepository) FindByID(ctx context.Context, id string) (*InterestRegistration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, reg := range r.regs {
		if reg.ID == id {
			c := reg
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memRegistrationRepository) Find(ctx context.Context, rfpID, companyID string) (*InterestRegistration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if reg, ok := r.regs[ndaKey(rfpID, companyID)]; ok {
		c := reg
		return &c, nil
	}
	return nil, nil
}

func (r *memRegistrationRepository) FindByRfpID(ctx context.Context, rfpID string) ([]*InterestRegistration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var regs []*InterestRegistration
	for _, reg := range r.regs {
		if reg.RfpID == rfpID {
			c := reg
			regs = append(regs, &c)
		}
	}
	return regs, nil
}

func (r *memRegistrationRepository) FindByCompanyID(ctx context.Context, companyID string) ([]*InterestRegistration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var regs []*InterestRegistration
	for _, reg := range r.regs {
		if reg.CompanyID == companyID {
			c := reg
			regs = append(regs, &c)
		}
	}
	return regs, nil
}

func (r *memRegistrationRepository) Update(ctx context.Context, reg *InterestRegistration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := ndaKey(reg.RfpID, reg.CompanyID)
	if _, ok := r.regs[key]; !ok {
		return nil
	}
	reg.UpdatedAt = time.Now()
	r.regs[key] = *reg
	return nil
}

// ============================================
// Access grants
// ============================================

type memAccessGrantRepository struct {
	mu     sync.RWMutex
	grants map[string]AccessGrant // keyed by rfpID + "/" + userID
}

func newMemAccessGrantRepository() AccessGrantRepository {
	return &memAccessGrantRepository{grants: make(map[string]AccessGrant)}
}

func (r *memAccessGrantRepository) Create(ctx context.Context, grant *AccessGrant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := ndaKey(grant.RfpID, grant.UserID)
	if existing, ok := r.grants[key]; ok {
		grant.ID = existing.ID
		grant.CreatedAt = existing.CreatedAt
	} else {
		grant.ID = uuid.New().String()
		grant.CreatedAt = time.Now()
	}
	if grant.Status == "" {
		grant.Status = "approved"
	}
	r.grants[key] = *grant
	return nil
}

func (r *memAccessGrantRepository) Find(ctx context.Context, rfpID, userID string) (*AccessGrant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if g, ok := r.grants[ndaKey(rfpID, userID)]; ok {
		c := g
		return &c, nil
	}
	return nil, nil
}

func (r *memAccessGrantRepository) FindByRfpID(ctx context.Context, rfpID string) ([]*AccessGrant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var grants []*AccessGrant
	for _, g := range r.grants {
		if g.RfpID == rfpID {
			c := g
			grants = append(grants, &c)
		}
	}
	return grants, nil
}

func (r *memAccessGrantRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, g := range r.grants {
		if g.ID == id {
			delete(r.grants, k)
		}
	}
	return nil
}

// ============================================
// Invitations
// ============================================

type memInvitationRepository struct {
	mu   sync.RWMutex
	invs map[string]Invitation
}

func newMemInvitationRepository() InvitationRepository {
	return &memInvitationRepository{invs: make(map[string]Invitation)}
}

func (r *memInvitationRepository) Create(ctx context.Context, inv *Invitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv.ID = uuid.New().String()
	inv.Email = strings.ToLower(inv.Email)
	if inv.Status == "" {
		inv.Status = "pending"
	}
	now := time.Now()
	inv.CreatedAt = now
	inv.UpdatedAt = now
	r.invs[inv.ID] = *inv
	return nil
}

func (r *memInvitationRepository) FindByID(ctx context.Context, id string) (*Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if inv, ok := r.invs[id]; ok {
		c := inv
		return &c, nil
	}
	return nil, nil
}

func (r *memInvitationRepository) FindByToken(ctx context.Context, token string) (*Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, inv := range r.invs {
		if inv.Token == token {
			c := inv
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memInvitationRepository) FindPendingByEmail(ctx context.Context, email string) ([]*Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var invs []*Invitation
	for _, inv := range r.invs {
		if strings.EqualFold(inv.Email, email) && inv.Status == "pending" {
			c := inv
			invs = append(invs, &c)
		}
	}
	return invs, nil
}

func (r *memInvitationRepository) FindByCompanyID(ctx context.Context, companyID string) ([]*Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var invs []*Invitation
	for _, inv := range r.invs {
		if inv.CompanyID != nil && *inv.CompanyID == companyID {
			c := inv
			invs = append(invs, &c)
		}
	}
	return invs, nil
}

func (r *memInvitationRepository) FindByRfpID(ctx context.Context, rfpID string) ([]*Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var invs []*Invitation
	for _, inv := range r.invs {
		if inv.RfpID != nil && *inv.RfpID == rfpID {
			c := inv
			invs = append(invs, &c)
		}
	}
	return invs, nil
}

func (r *memInvitationRepository) Update(ctx context.Context, inv *Invitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.invs[inv.ID]; !ok {
		return nil
	}
	inv.UpdatedAt = time.Now()
	r.invs[inv.ID] = *inv
	return nil
}

func (r *memInvitationRepository) ExpirePending(ctx context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for id, inv := range r.invs {
		if inv.Status == "pending" && inv.ExpiresAt.Before(now) {
			inv.Status = "expired"
			inv.UpdatedAt = now
			r.invs[id] = inv
			count++
		}
	}
	return count, nil
}

// ============================================
// Notifications
// ============================================

type memNotificationRepository struct {
	mu            sync.RWMutex
	notifications map[string]Notification
}

func newMemNotificationRepository() NotificationRepository {
	return &memNotificationRepository{notifications: make(map[string]Notification)}
}

func (r *memNotificationRepository) Create(ctx context.Context, notification *Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	notification.ID = uuid.New().String()
	notification.CreatedAt = time.Now()
	r.notifications[notification.ID] = *notification
	return nil
}

func (r *memNotificationRepository) FindByID(ctx context.Context, id string) (*Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if n, ok := r.notifications[id]; ok {
		c := n
		return &c, nil
	}
	return nil, nil
}

func (r *memNotificationRepository) FindByUserID(ctx context.Context, userID string, unreadOnly bool) ([]*Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var notifications []*Notification
	for _, n := range r.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		c := n
		notifications = append(notifications, &c)
	}
	return notifications, nil
}

func (r *memNotificationRepository) CountByUserID(ctx context.Context, userID string) (int, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total, unread := 0, 0
	for _, n := range r.notifications {
		if n.UserID != userID {
			continue
		}
		total++
		if !n.Read {
			unread++
		}
	}
	return total, unread, nil
}

func (r *memNotificationRepository) MarkAsRead(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.notifications[id]; ok {
		n.Read = true
		r.notifications[id] = n
	}
	return nil
}

func (r *memNotificationRepository) MarkAllAsRead(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, n := range r.notifications {
		if n.UserID == userID {
			n.Read = true
			r.notifications[id] = n
		}
	}
	return nil
}

func (r *memNotificationRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.notifications, id)
	return nil
}

func (r *memNotificationRepository) DeleteAll(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, n := range r.notifications {
		if n.UserID == userID {
			delete(r.notifications, id)
		}
	}
	return nil
}

func (r *memNotificationRepository) DeleteOlderThan(ctx context.Context, olderThan time.Time, readOnly bool) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for id, n := range r.notifications {
		if n.CreatedAt.Before(olderThan) && (!readOnly || n.Read) {
			delete(r.notifications, id)
			count++
		}
	}
	return count, nil
}

// ============================================
// Audit log
// ============================================

type memAuditRepository struct {
	mu      sync.RWMutex
	entries []AuditEntry
}

func newMemAuditRepository() AuditRepository {
	return &memAuditRepository{}
}

func (r *memAuditRepository) Append(ctx context.Context, entry *AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = uuid.New().String()
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *memAuditRepository) FindByEntity(ctx context.Context, entityType, entityID string) ([]*AuditEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var entries []*AuditEntry
	for i := range r.entries {
		if r.entries[i].EntityType == entityType && r.entries[i].EntityID == entityID {
			c := r.entries[i]
			entries = append(entries, &c)
		}
	}
	return entries, nil
}

func (r *memAuditRepository) FindRecent(ctx context.Context, limit int) ([]*AuditEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 || limit > len(r.entries) {
		limit = len(r.entries)
	}
	var entries []*AuditEntry
	for i := len(r.entries) - 1; i >= 0 && len(entries) < limit; i-- {
		c := r.entries[i]
		entries = append(entries, &c)
	}
	return entries, nil
}

// ============================================
// Questions
// ============================================

type memQuestionRepository struct {
	mu        sync.RWMutex
	questions map[string]Question
}

func newMemQuestionRepository() QuestionRepository {
	return &memQuestionRepository{questions: make(map[string]Question)}
}

func (r *memQuestionRepository) Create(ctx context.Context, q *Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q.ID = uuid.New().String()
	now := time.Now()
	q.CreatedAt = now
	q.UpdatedAt = now
	r.questions[q.ID] = *q
	return nil
}

func (r *memQuestionRepository) FindByID(ctx context.Context, id string) (*Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if q, ok := r.questions[id]; ok {
		c := q
		return &c, nil
	}
	return nil, nil
}

func (r *memQuestionRepository) FindByRfpID(ctx context.Context, rfpID string) ([]*Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var questions []*Question
	for _, q := range r.questions {
		if q.RfpID == rfpID {
			c := q
			questions = append(questions, &c)
		}
	}
	return questions, nil
}

func (r *memQuestionRepository) Update(ctx context.Context, q *Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.questions[q.ID]; !ok {
		return nil
	}
	q.UpdatedAt = time.Now()
	r.questions[q.ID] = *q
	return nil
}

// ============================================
// Proposals
// ============================================

type memProposalRepository struct {
	mu        sync.RWMutex
	proposals map[string]Proposal // keyed by rfpID + "/" + companyID
}

func newMemProposalRepository() ProposalRepository {
	return &memProposalRepository{proposals: make(map[string]Proposal)}
}

func (r *memProposalRepository) Upsert(ctx context.Context, p *Proposal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := ndaKey(p.RfpID, p.CompanyID)
	if existing, ok := r.proposals[key]; ok {
		p.ID = existing.ID
	} else {
		p.ID = uuid.New().String()
	}
	p.Status = "submitted"
	p.WithdrawnAt = nil
	p.UpdatedAt = time.Now()
	r.proposals[key] = *p
	return nil
}

func (r *memProposalRepository) FindByID(ctx context.Context, id string) (*Proposal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.proposals {
		if p.ID == id {
			c := p
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memProposalRepository) Find(ctx context.Context, rfpID, companyID string) (*Proposal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.proposals[ndaKey(rfpID, companyID)]; ok {
		c := p
		return &c, nil
	}
	return nil, nil
}

func (r *memProposalRepository) FindByRfpID(ctx context.Context, rfpID string) ([]*Proposal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var proposals []*Proposal
	for _, p := range r.proposals {
		if p.RfpID == rfpID {
			c := p
			proposals = append(proposals, &c)
		}
	}
	return proposals, nil
}

func (r *memProposalRepository) FindByCompanyID(ctx context.Context, companyID string) ([]*Proposal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var proposals []*Proposal
	for _, p := range r.proposals {
		if p.CompanyID == companyID {
			c := p
			proposals = append(proposals, &c)
		}
	}
	return proposals, nil
}

func (r *memProposalRepository) Update(ctx context.Context, p *Proposal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := ndaKey(p.RfpID, p.CompanyID)
	if _, ok := r.proposals[key]; !ok {
		return nil
	}
	p.UpdatedAt = time.Now()
	r.proposals[key] = *p
	return nil
}
