package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/finere-dem/MaliTrans/internal/driver-service/core/domain/dto"
	"github.com/finere-dem/MaliTrans/internal/driver-service/core/domain/model"
	"github.com/finere-dem/MaliTrans/internal/driver-service/core/myerrors"
	"github.com/finere-dem/MaliTrans/internal/driver-service/core/ports"
	"github.com/finere-dem/MaliTrans/internal/mylogger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDriversRepo keeps drivers and guarantors in memory and mirrors the
// storage-boundary behavior of the real repository: stored statuses may be
// legacy, reads normalize, conditional updates match the expanded set.
type fakeDriversRepo struct {
	mu          sync.Mutex
	nextGId     int64
	nextNId     int64
	drivers     map[int64]model.Driver
	rawStatuses map[int64]model.DriverStatus
	guarantors  map[int64][]model.Guarantor
	notes       map[int64][]model.Note
}

func newFakeDriversRepo() *fakeDriversRepo {
	return &fakeDriversRepo{
		nextGId:     1,
		nextNId:     1,
		drivers:     make(map[int64]model.Driver),
		rawStatuses: make(map[int64]model.DriverStatus),
		guarantors:  make(map[int64][]model.Guarantor),
		notes:       make(map[int64][]model.Note),
	}
}

func (f *fakeDriversRepo) put(d model.Driver) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rawStatuses[d.ID] = d.Status
	f.drivers[d.ID] = d
}

func (f *fakeDriversRepo) FindById(_ context.Context, driverId int64) (model.Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.drivers[driverId]
	if !ok {
		return model.Driver{}, myerrors.ErrDriverNotFound
	}
	d.Status = model.Normalize(f.rawStatuses[driverId])
	return d, nil
}

func (f *fakeDriversRepo) CompanyOf(_ context.Context, userId int64) (*int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.drivers[userId]
	if !ok {
		return nil, myerrors.ErrDriverNotFound
	}
	return d.CompanyID, nil
}

func (f *fakeDriversRepo) ListByCompany(_ context.Context, companyId int64, filter ports.DriverFilter) ([]model.Driver, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []model.Driver
	for id, d := range f.drivers {
		if d.Role != model.RoleDriver || d.CompanyID == nil || *d.CompanyID != companyId {
			continue
		}
		d.Status = model.Normalize(f.rawStatuses[id])
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		matched = append(matched, d)
	}
	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Limit
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (f *fakeDriversRepo) ListPendingAdmin(_ context.Context) ([]model.Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Driver
	for id, d := range f.drivers {
		raw := f.rawStatuses[id]
		if d.Role == model.RoleDriver && model.Normalize(raw) == model.StatusPendingAdminApproval {
			d.Status = model.Normalize(raw)
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDriversRepo) ApplyCompanyVerification(_ context.Context, driverId int64, guarantors []model.Guarantor, matricule string) (model.Driver, bool, error) {
	f.mu.Lock()
	d, ok := f.drivers[driverId]
	if !ok || f.rawStatuses[driverId] != model.StatusPendingCompanyVerification {
		f.mu.Unlock()
		return model.Driver{}, false, nil
	}
	f.rawStatuses[driverId] = model.StatusPendingAdminApproval
	if d.Matricule == "" {
		d.Matricule = matricule
	}
	f.drivers[driverId] = d
	set := make([]model.Guarantor, 0, len(guarantors))
	for _, g := range guarantors {
		g.ID = f.nextGId
		f.nextGId++
		set = append(set, g)
	}
	f.guarantors[driverId] = set
	f.mu.Unlock()

	updated, err := f.FindById(context.Background(), driverId)
	return updated, true, err
}

func (f *fakeDriversRepo) UpdateStatus(_ context.Context, driverId int64, from []model.DriverStatus, to model.DriverStatus, reason *string) (model.Driver, bool, error) {
	f.mu.Lock()
	d, ok := f.drivers[driverId]
	raw := f.rawStatuses[driverId]
	matched := false
	for _, s := range from {
		if raw == s || model.Normalize(raw) == s {
			matched = true
			break
		}
	}
	if !ok || d.Role != model.RoleDriver || !matched {
		f.mu.Unlock()
		return model.Driver{}, false, nil
	}
	f.rawStatuses[driverId] = to
	if reason != nil {
		d.RejectionReason = *reason
	}
	f.drivers[driverId] = d
	f.mu.Unlock()

	updated, err := f.FindById(context.Background(), driverId)
	return updated, true, err
}

func (f *fakeDriversRepo) ListGuarantors(_ context.Context, driverId int64) ([]model.Guarantor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Guarantor(nil), f.guarantors[driverId]...), nil
}

func (f *fakeDriversRepo) AddGuarantor(_ context.Context, g model.Guarantor) (model.Guarantor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g.ID = f.nextGId
	f.nextGId++
	f.guarantors[g.DriverID] = append(f.guarantors[g.DriverID], g)
	return g, nil
}

func (f *fakeDriversRepo) UpdateIdentityDocument(_ context.Context, driverId int64, url string) (model.Driver, error) {
	f.mu.Lock()
	d, ok := f.drivers[driverId]
	if !ok || d.Role != model.RoleDriver {
		f.mu.Unlock()
		return model.Driver{}, myerrors.ErrDriverNotFound
	}
	d.IdentityDocumentURL = url
	f.drivers[driverId] = d
	f.mu.Unlock()

	return f.FindById(context.Background(), driverId)
}

func (f *fakeDriversRepo) AddNote(_ context.Context, n model.Note) (model.Note, error) {
	f.mu.Lock()
	n.ID = f.nextNId
	n.CreatedAt = time.Now()
	f.nextNId++
	f.notes[n.DriverID] = append(f.notes[n.DriverID], n)

	sum := 0
	for _, stored := range f.notes[n.DriverID] {
		sum += stored.Value
	}
	d := f.drivers[n.DriverID]
	d.Rating = float64(sum) / float64(len(f.notes[n.DriverID]))
	f.drivers[n.DriverID] = d
	f.mu.Unlock()

	return n, nil
}

func (f *fakeDriversRepo) ListNotes(_ context.Context, driverId int64) ([]model.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Note(nil), f.notes[driverId]...), nil
}

// ---- fixture -------------------------------------------------------------

const companyId = int64(10)

var (
	manager    = ports.Caller{UserId: 1, Role: model.RoleCompanyManager}
	admin      = ports.Caller{UserId: 2, Role: model.RoleAdmin}
	driverUser = ports.Caller{UserId: 7, Role: model.RoleDriver}
)

func newOnboardingFixture(t *testing.T) (*fakeDriversRepo, ports.IOnboardingService) {
	t.Helper()
	log, err := mylogger.New(mylogger.LevelError)
	require.NoError(t, err)

	repo := newFakeDriversRepo()
	cid := companyId
	repo.put(model.Driver{
		ID:        manager.UserId,
		Username:  "manager",
		Role:      model.RoleCompanyManager,
		CompanyID: &cid,
	})
	repo.put(model.Driver{
		ID:                  driverUser.UserId,
		Username:            "amadou",
		FirstName:           "Amadou",
		LastName:            "Traore",
		Role:                model.RoleDriver,
		CompanyID:           &cid,
		CompanyName:         "Global Express",
		Status:              model.StatusPendingCompanyVerification,
		IdentityDocumentURL: "docs/id.pdf",
	})
	return repo, NewOnboardingService(context.Background(), log, repo)
}

func guarantorDtos() []dto.GuarantorDto {
	name1, name2 := "Aminata", "Moussa"
	phone1, phone2 := "+22370000001", "+22370000002"
	doc1, doc2 := "docs/g1.pdf", "docs/g2.pdf"
	return []dto.GuarantorDto{
		{Name: &name1, Phone: &phone1, IdentityDocumentURL: &doc1},
		{Name: &name2, Phone: &phone2, IdentityDocumentURL: &doc2},
	}
}

// ---- company verification ------------------------------------------------

func TestCompanyVerifyHappyPath(t *testing.T) {
	repo, svc := newOnboardingFixture(t)

	res, err := svc.CompanyVerify(manager, driverUser.UserId, guarantorDtos())
	require.NoError(t, err)

	assert.Equal(t, string(model.StatusPendingAdminApproval), res.Driver.Status)
	assert.NotEmpty(t, res.Driver.Matricule)
	assert.Contains(t, res.Driver.Matricule, "GLO-")
	assert.Len(t, res.Guarantors, 2)

	stored, _ := repo.ListGuarantors(context.Background(), driverUser.UserId)
	assert.Len(t, stored, 2)
}

func TestCompanyVerifyReplacesGuarantorsWholesale(t *testing.T) {
	repo, svc := newOnboardingFixture(t)

	_, err := repo.AddGuarantor(context.Background(), model.Guarantor{
		DriverID: driverUser.UserId, Name: "Old", Phone: "+22300000000", IdentityDocumentURL: "docs/old.pdf",
	})
	require.NoError(t, err)

	res, err := svc.CompanyVerify(manager, driverUser.UserId, guarantorDtos())
	require.NoError(t, err)

	require.Len(t, res.Guarantors, 2)
	for _, g := range res.Guarantors {
		assert.NotEqual(t, "Old", g.Name)
	}
}

func TestCompanyVerifyIncompleteDossierLeavesStateAlone(t *testing.T) {
	repo, svc := newOnboardingFixture(t)

	_, err := svc.CompanyVerify(manager, driverUser.UserId, guarantorDtos()[:1])
	var missing *model.MissingRequirementError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, model.ReqGuarantors, missing.Code)

	d, err := repo.FindById(context.Background(), driverUser.UserId)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingCompanyVerification, d.Status)
	assert.Empty(t, d.Matricule)

	stored, _ := repo.ListGuarantors(context.Background(), driverUser.UserId)
	assert.Empty(t, stored, "a failed gate must not touch the stored set")
}

func TestCompanyVerifyWrongState(t *testing.T) {
	repo, svc := newOnboardingFixture(t)

	d, _ := repo.FindById(context.Background(), driverUser.UserId)
	d.Status = model.StatusActive
	repo.put(d)

	_, err := svc.CompanyVerify(manager, driverUser.UserId, guarantorDtos())
	var wrongState *model.WrongStateError
	require.ErrorAs(t, err, &wrongState)
	assert.Equal(t, model.StatusActive, wrongState.Current)
}

func TestCompanyVerifyCrossCompanyDenied(t *testing.T) {
	repo, svc := newOnboardingFixture(t)

	otherCompany := int64(99)
	repo.put(model.Driver{
		ID:        50,
		Username:  "othermanager",
		Role:      model.RoleCompanyManager,
		CompanyID: &otherCompany,
	})

	outsider := ports.Caller{UserId: 50, Role: model.RoleCompanyManager}
	_, err := svc.CompanyVerify(outsider, driverUser.UserId, guarantorDtos())
	assert.ErrorIs(t, err, myerrors.ErrAccessDenied)
}

func TestCompanyVerifyKeepsExistingMatricule(t *testing.T) {
	repo, svc := newOnboardingFixture(t)

	d, _ := repo.FindById(context.Background(), driverUser.UserId)
	d.Matricule = "GLO-2024-0007"
	repo.put(d)

	res, err := svc.CompanyVerify(manager, driverUser.UserId, guarantorDtos())
	require.NoError(t, err)
	assert.Equal(t, "GLO-2024-0007", res.Driver.Matricule)
}

// ---- admin ---------------------------------------------------------------

func TestAdminActivate(t *testing.T) {
	_, svc := newOnboardingFixture(t)

	_, err := svc.CompanyVerify(manager, driverUser.UserId, guarantorDtos())
	require.NoError(t, err)

	res, err := svc.AdminActivate(admin, driverUser.UserId)
	require.NoError(t, err)
	assert.Equal(t, string(model.StatusActive), res.Status)
}

func TestAdminActivateFromLegacyStatus(t *testing.T) {
	repo, svc := newOnboardingFixture(t)

	// old rows still carry the pre-pipeline tag
	repo.mu.Lock()
	repo.rawStatuses[driverUser.UserId] = model.StatusPendingValidation
	repo.mu.Unlock()

	res, err := svc.AdminActivate(admin, driverUser.UserId)
	require.NoError(t, err)
	assert.Equal(t, string(model.StatusActive), res.Status)
}

func TestAdminActivateWrongState(t *testing.T) {
	_, svc := newOnboardingFixture(t)

	_, err := svc.AdminActivate(admin, driverUser.UserId)
	var wrongState *model.WrongStateError
	require.ErrorAs(t, err, &wrongState)
	assert.Equal(t, model.StatusPendingCompanyVerification, wrongState.Current)
}

func TestAdminRejectStoresReason(t *testing.T) {
	_, svc := newOnboardingFixture(t)

	res, err := svc.AdminReject(admin, driverUser.UserId, "documents unreadable")
	require.NoError(t, err)
	assert.Equal(t, string(model.StatusRejected), res.Status)
	assert.Equal(t, "documents unreadable", res.RejectionReason)
}

func TestAdminSuspendCycle(t *testing.T) {
	_, svc := newOnboardingFixture(t)

	_, err := svc.CompanyVerify(manager, driverUser.UserId, guarantorDtos())
	require.NoError(t, err)
	_, err = svc.AdminActivate(admin, driverUser.UserId)
	require.NoError(t, err)

	res, err := svc.AdminSuspend(admin, driverUser.UserId)
	require.NoError(t, err)
	assert.Equal(t, string(model.StatusSuspended), res.Status)

	// suspending twice is a guard failure
	_, err = svc.AdminSuspend(admin, driverUser.UserId)
	var wrongState *model.WrongStateError
	require.ErrorAs(t, err, &wrongState)

	res, err = svc.AdminUnsuspend(admin, driverUser.UserId)
	require.NoError(t, err)
	assert.Equal(t, string(model.StatusActive), res.Status)
}

// ---- driver self-service -------------------------------------------------

func TestAddGuarantorLimit(t *testing.T) {
	_, svc := newOnboardingFixture(t)

	gs := guarantorDtos()
	_, err := svc.AddGuarantor(driverUser, gs[0])
	require.NoError(t, err)
	_, err = svc.AddGuarantor(driverUser, gs[1])
	require.NoError(t, err)

	third := gs[0]
	_, err = svc.AddGuarantor(driverUser, third)
	assert.ErrorIs(t, err, myerrors.ErrTooManyGuarantors)
}

func TestAddGuarantorValidation(t *testing.T) {
	_, svc := newOnboardingFixture(t)

	g := guarantorDtos()[0]
	g.Phone = nil
	_, err := svc.AddGuarantor(driverUser, g)
	assert.ErrorIs(t, err, myerrors.ErrFieldIsEmpty)
}

func TestRequestActivationGated(t *testing.T) {
	_, svc := newOnboardingFixture(t)

	_, err := svc.RequestActivation(driverUser)
	var missing *model.MissingRequirementError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, model.ReqGuarantors, missing.Code)

	for _, g := range guarantorDtos() {
		_, err := svc.AddGuarantor(driverUser, g)
		require.NoError(t, err)
	}

	res, err := svc.RequestActivation(driverUser)
	require.NoError(t, err)
	assert.Equal(t, string(model.StatusPendingAdminApproval), res.Status)
}

func TestRequestActivationNeedsDriverDocument(t *testing.T) {
	repo, svc := newOnboardingFixture(t)

	d, _ := repo.FindById(context.Background(), driverUser.UserId)
	d.IdentityDocumentURL = ""
	repo.put(d)

	for _, g := range guarantorDtos() {
		_, err := svc.AddGuarantor(driverUser, g)
		require.NoError(t, err)
	}

	_, err := svc.RequestActivation(driverUser)
	var missing *model.MissingRequirementError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, model.ReqDriverIdDoc, missing.Code)
}

func TestMeReturnsDossier(t *testing.T) {
	_, svc := newOnboardingFixture(t)

	for _, g := range guarantorDtos() {
		_, err := svc.AddGuarantor(driverUser, g)
		require.NoError(t, err)
	}

	res, err := svc.Me(driverUser)
	require.NoError(t, err)
	assert.Equal(t, "Amadou Traore", res.Driver.FullName)
	assert.Len(t, res.Guarantors, 2)
}

func TestMeRejectsNonDrivers(t *testing.T) {
	_, svc := newOnboardingFixture(t)

	_, err := svc.Me(manager)
	assert.ErrorIs(t, err, myerrors.ErrNotADriver)
}

// ---- listings ------------------------------------------------------------

func TestCompanyDriversFilterAndPaging(t *testing.T) {
	repo, svc := newOnboardingFixture(t)

	cid := companyId
	for i := int64(20); i < 25; i++ {
		repo.put(model.Driver{
			ID:        i,
			Username:  "driver",
			Role:      model.RoleDriver,
			CompanyID: &cid,
			Status:    model.StatusActive,
		})
	}

	res, err := svc.CompanyDrivers(manager, ports.DriverFilterDto{Status: "active", Page: 1, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.Meta.Total)
	assert.Equal(t, 2, res.Meta.TotalPages)
	assert.Len(t, res.Drivers, 3)

	res, err = svc.CompanyDrivers(manager, ports.DriverFilterDto{})
	require.NoError(t, err)
	assert.Equal(t, int64(6), res.Meta.Total, "unfiltered listing covers the pending driver too")
}

func TestCompanyPending(t *testing.T) {
	_, svc := newOnboardingFixture(t)

	res, err := svc.CompanyPending(manager)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, driverUser.UserId, res[0].Id)
}

func TestAdminPendingSeesLegacyRows(t *testing.T) {
	repo, svc := newOnboardingFixture(t)

	repo.mu.Lock()
	repo.rawStatuses[driverUser.UserId] = model.StatusPendingValidation
	repo.mu.Unlock()

	res, err := svc.AdminPending(admin)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, string(model.StatusPendingAdminApproval), res[0].Status)
}

// ---- ratings -------------------------------------------------------------

func noteReq(value int) dto.NoteRequestDto {
	return dto.NoteRequestDto{Value: &value}
}

func TestRateDriverUpdatesAverage(t *testing.T) {
	repo, svc := newOnboardingFixture(t)

	client := ports.Caller{UserId: 30, Role: model.RoleClient}

	_, err := svc.RateDriver(client, driverUser.UserId, noteReq(5))
	require.NoError(t, err)
	_, err = svc.RateDriver(client, driverUser.UserId, noteReq(4))
	require.NoError(t, err)

	d, err := repo.FindById(context.Background(), driverUser.UserId)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, d.Rating, 0.001)

	notes, err := svc.DriverNotes(admin, driverUser.UserId)
	require.NoError(t, err)
	assert.Len(t, notes, 2)
}

func TestRateDriverRejectsOutOfRangeValue(t *testing.T) {
	_, svc := newOnboardingFixture(t)

	client := ports.Caller{UserId: 30, Role: model.RoleClient}

	_, err := svc.RateDriver(client, driverUser.UserId, noteReq(0))
	assert.ErrorIs(t, err, myerrors.ErrInvalidNoteValue)
	_, err = svc.RateDriver(client, driverUser.UserId, noteReq(6))
	assert.ErrorIs(t, err, myerrors.ErrInvalidNoteValue)
	_, err = svc.RateDriver(client, driverUser.UserId, dto.NoteRequestDto{})
	assert.ErrorIs(t, err, myerrors.ErrInvalidNoteValue)
}

func TestRateDriverSelfDenied(t *testing.T) {
	_, svc := newOnboardingFixture(t)

	_, err := svc.RateDriver(driverUser, driverUser.UserId, noteReq(5))
	assert.ErrorIs(t, err, myerrors.ErrAccessDenied)
}

func TestRateDriverOnlyTargetsDrivers(t *testing.T) {
	_, svc := newOnboardingFixture(t)

	client := ports.Caller{UserId: 30, Role: model.RoleClient}

	_, err := svc.RateDriver(client, manager.UserId, noteReq(5))
	assert.ErrorIs(t, err, myerrors.ErrNotADriver)
}

func TestDriverNotesAccess(t *testing.T) {
	repo, svc := newOnboardingFixture(t)

	client := ports.Caller{UserId: 30, Role: model.RoleClient}
	_, err := svc.RateDriver(client, driverUser.UserId, noteReq(3))
	require.NoError(t, err)

	// the driver sees their own notes
	notes, err := svc.DriverNotes(driverUser, driverUser.UserId)
	require.NoError(t, err)
	assert.Len(t, notes, 1)

	// the managing company does too
	notes, err = svc.DriverNotes(manager, driverUser.UserId)
	require.NoError(t, err)
	assert.Len(t, notes, 1)

	// a manager from another company does not
	otherCompany := int64(99)
	repo.put(model.Driver{
		ID:        50,
		Username:  "othermanager",
		Role:      model.RoleCompanyManager,
		CompanyID: &otherCompany,
	})
	outsider := ports.Caller{UserId: 50, Role: model.RoleCompanyManager}
	_, err = svc.DriverNotes(outsider, driverUser.UserId)
	assert.ErrorIs(t, err, myerrors.ErrAccessDenied)

	// another driver is refused as well
	otherDriver := ports.Caller{UserId: 60, Role: model.RoleDriver}
	_, err = svc.DriverNotes(otherDriver, driverUser.UserId)
	assert.ErrorIs(t, err, myerrors.ErrAccessDenied)
}
