package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/finere-dem/MaliTrans/internal/driver-service/core/domain/dto"
	"github.com/finere-dem/MaliTrans/internal/driver-service/core/domain/model"
	"github.com/finere-dem/MaliTrans/internal/driver-service/core/myerrors"
	"github.com/finere-dem/MaliTrans/internal/driver-service/core/ports"
	"github.com/finere-dem/MaliTrans/internal/mylogger"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100

	readTimeout  = time.Second * 5
	writeTimeout = time.Second * 15
)

type OnboardingService struct {
	ctx   context.Context
	mylog mylogger.Logger
	repo  ports.IDriversRepo
}

func NewOnboardingService(ctx context.Context, log mylogger.Logger, repo ports.IDriversRepo) ports.IOnboardingService {
	return &OnboardingService{
		ctx:   ctx,
		mylog: log,
		repo:  repo,
	}
}

// CompanyVerify replaces the driver's guarantor set, checks the dossier and
// moves the driver to PENDING_ADMIN_APPROVAL. The whole write happens in one
// transaction; a failed gate leaves the stored dossier untouched.
func (os *OnboardingService) CompanyVerify(caller ports.Caller, driverId int64, guarantors []dto.GuarantorDto) (dto.DossierDto, error) {
	log := os.mylog.Action("CompanyVerify")

	ctx, cancel := context.WithTimeout(os.ctx, writeTimeout)
	defer cancel()

	driver, err := os.companyDriver(ctx, caller, driverId)
	if err != nil {
		return dto.DossierDto{}, err
	}
	if driver.Status != model.StatusPendingCompanyVerification {
		return dto.DossierDto{}, &model.WrongStateError{
			Action:   "verify",
			Current:  driver.Status,
			Expected: []model.DriverStatus{model.StatusPendingCompanyVerification},
		}
	}

	set := make([]model.Guarantor, 0, len(guarantors))
	for _, g := range guarantors {
		m, err := guarantorFromDto(driverId, g)
		if err != nil {
			return dto.DossierDto{}, err
		}
		set = append(set, m)
	}

	// Replacement is wholesale, so the submitted set is the final set and
	// the gate can run before touching storage.
	if err := CheckDossier(driver, set); err != nil {
		return dto.DossierDto{}, err
	}

	matricule := driver.Matricule
	if matricule == "" {
		matricule = BuildMatricule(driver.CompanyName, driver.ID)
	}

	updated, ok, err := os.repo.ApplyCompanyVerification(ctx, driverId, set, matricule)
	if err != nil {
		log.Error("company verification failed", err)
		return dto.DossierDto{}, err
	}
	if !ok {
		// the driver moved on between our read and the write
		current, err := os.repo.FindById(ctx, driverId)
		if err != nil {
			return dto.DossierDto{}, err
		}
		return dto.DossierDto{}, &model.WrongStateError{
			Action:   "verify",
			Current:  current.Status,
			Expected: []model.DriverStatus{model.StatusPendingCompanyVerification},
		}
	}

	log.With("driver_id", driverId).With("matricule", updated.Matricule).Info("driver verified by company")
	return os.dossier(ctx, updated)
}

func (os *OnboardingService) CompanyDrivers(caller ports.Caller, filter ports.DriverFilterDto) (dto.PaginatedDriversDto, error) {
	ctx, cancel := context.WithTimeout(os.ctx, readTimeout)
	defer cancel()

	companyId, err := os.callerCompany(ctx, caller)
	if err != nil {
		return dto.PaginatedDriversDto{}, err
	}

	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	f := ports.DriverFilter{
		Search: strings.TrimSpace(filter.Search),
		Page:   page,
		Limit:  limit,
	}
	if filter.Status != "" {
		f.Status = model.Normalize(model.DriverStatus(strings.ToUpper(filter.Status)))
	}

	drivers, total, err := os.repo.ListByCompany(ctx, companyId, f)
	if err != nil {
		return dto.PaginatedDriversDto{}, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	out := dto.PaginatedDriversDto{
		Drivers: make([]dto.DriverResponseDto, 0, len(drivers)),
		Meta: dto.PageMetaDto{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}
	for _, d := range drivers {
		out.Drivers = append(out.Drivers, toDriverDto(d))
	}
	return out, nil
}

func (os *OnboardingService) CompanyPending(caller ports.Caller) ([]dto.DriverResponseDto, error) {
	ctx, cancel := context.WithTimeout(os.ctx, readTimeout)
	defer cancel()

	companyId, err := os.callerCompany(ctx, caller)
	if err != nil {
		return nil, err
	}

	drivers, _, err := os.repo.ListByCompany(ctx, companyId, ports.DriverFilter{
		Status: model.StatusPendingCompanyVerification,
		Page:   1,
		Limit:  maxListLimit,
	})
	if err != nil {
		return nil, err
	}

	out := make([]dto.DriverResponseDto, 0, len(drivers))
	for _, d := range drivers {
		out = append(out, toDriverDto(d))
	}
	return out, nil
}

func (os *OnboardingService) CompanyDossier(caller ports.Caller, driverId int64) (dto.DossierDto, error) {
	ctx, cancel := context.WithTimeout(os.ctx, readTimeout)
	defer cancel()

	driver, err := os.companyDriver(ctx, caller, driverId)
	if err != nil {
		return dto.DossierDto{}, err
	}
	return os.dossier(ctx, driver)
}

func (os *OnboardingService) AdminPending(_ ports.Caller) ([]dto.DriverResponseDto, error) {
	ctx, cancel := context.WithTimeout(os.ctx, readTimeout)
	defer cancel()

	drivers, err := os.repo.ListPendingAdmin(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.DriverResponseDto, 0, len(drivers))
	for _, d := range drivers {
		out = append(out, toDriverDto(d))
	}
	return out, nil
}

func (os *OnboardingService) AdminActivate(_ ports.Caller, driverId int64) (dto.DriverResponseDto, error) {
	ctx, cancel := context.WithTimeout(os.ctx, writeTimeout)
	defer cancel()

	return os.move(ctx, "activate", driverId,
		[]model.DriverStatus{model.StatusPendingAdminApproval},
		model.StatusActive, nil)
}

func (os *OnboardingService) AdminReject(_ ports.Caller, driverId int64, reason string) (dto.DriverResponseDto, error) {
	ctx, cancel := context.WithTimeout(os.ctx, writeTimeout)
	defer cancel()

	reason = strings.TrimSpace(reason)
	return os.move(ctx, "reject", driverId,
		[]model.DriverStatus{model.StatusPendingCompanyVerification, model.StatusPendingAdminApproval},
		model.StatusRejected, &reason)
}

func (os *OnboardingService) AdminSuspend(_ ports.Caller, driverId int64) (dto.DriverResponseDto, error) {
	ctx, cancel := context.WithTimeout(os.ctx, writeTimeout)
	defer cancel()

	return os.move(ctx, "suspend", driverId,
		[]model.DriverStatus{model.StatusActive},
		model.StatusSuspended, nil)
}

func (os *OnboardingService) AdminUnsuspend(_ ports.Caller, driverId int64) (dto.DriverResponseDto, error) {
	ctx, cancel := context.WithTimeout(os.ctx, writeTimeout)
	defer cancel()

	return os.move(ctx, "unsuspend", driverId,
		[]model.DriverStatus{model.StatusSuspended},
		model.StatusActive, nil)
}

func (os *OnboardingService) Me(caller ports.Caller) (dto.DossierDto, error) {
	ctx, cancel := context.WithTimeout(os.ctx, readTimeout)
	defer cancel()

	driver, err := os.self(ctx, caller)
	if err != nil {
		return dto.DossierDto{}, err
	}
	return os.dossier(ctx, driver)
}

func (os *OnboardingService) AddGuarantor(caller ports.Caller, g dto.GuarantorDto) (dto.GuarantorResponseDto, error) {
	ctx, cancel := context.WithTimeout(os.ctx, writeTimeout)
	defer cancel()

	driver, err := os.self(ctx, caller)
	if err != nil {
		return dto.GuarantorResponseDto{}, err
	}

	m, err := guarantorFromDto(driver.ID, g)
	if err != nil {
		return dto.GuarantorResponseDto{}, err
	}

	existing, err := os.repo.ListGuarantors(ctx, driver.ID)
	if err != nil {
		return dto.GuarantorResponseDto{}, err
	}
	if len(existing) >= RequiredGuarantors {
		return dto.GuarantorResponseDto{}, fmt.Errorf("a driver has at most %d guarantors: %w", RequiredGuarantors, myerrors.ErrTooManyGuarantors)
	}

	saved, err := os.repo.AddGuarantor(ctx, m)
	if err != nil {
		return dto.GuarantorResponseDto{}, err
	}
	return toGuarantorDto(saved), nil
}

func (os *OnboardingService) MyGuarantors(caller ports.Caller) ([]dto.GuarantorResponseDto, error) {
	ctx, cancel := context.WithTimeout(os.ctx, readTimeout)
	defer cancel()

	driver, err := os.self(ctx, caller)
	if err != nil {
		return nil, err
	}
	guarantors, err := os.repo.ListGuarantors(ctx, driver.ID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.GuarantorResponseDto, 0, len(guarantors))
	for _, g := range guarantors {
		out = append(out, toGuarantorDto(g))
	}
	return out, nil
}

func (os *OnboardingService) UpdateDocument(caller ports.Caller, url string) (dto.DriverResponseDto, error) {
	ctx, cancel := context.WithTimeout(os.ctx, writeTimeout)
	defer cancel()

	driver, err := os.self(ctx, caller)
	if err != nil {
		return dto.DriverResponseDto{}, err
	}
	if strings.TrimSpace(url) == "" {
		return dto.DriverResponseDto{}, fmt.Errorf("identity_document_url: %w", myerrors.ErrFieldIsEmpty)
	}

	updated, err := os.repo.UpdateIdentityDocument(ctx, driver.ID, strings.TrimSpace(url))
	if err != nil {
		return dto.DriverResponseDto{}, err
	}
	return toDriverDto(updated), nil
}

// RequestActivation is the self-service entry into admin review: the dossier
// must already be complete.
func (os *OnboardingService) RequestActivation(caller ports.Caller) (dto.DriverResponseDto, error) {
	log := os.mylog.Action("RequestActivation")

	ctx, cancel := context.WithTimeout(os.ctx, writeTimeout)
	defer cancel()

	driver, err := os.self(ctx, caller)
	if err != nil {
		return dto.DriverResponseDto{}, err
	}
	if driver.Status != model.StatusPendingCompanyVerification {
		return dto.DriverResponseDto{}, &model.WrongStateError{
			Action:   "request activation for",
			Current:  driver.Status,
			Expected: []model.DriverStatus{model.StatusPendingCompanyVerification},
		}
	}

	guarantors, err := os.repo.ListGuarantors(ctx, driver.ID)
	if err != nil {
		return dto.DriverResponseDto{}, err
	}
	if err := CheckDossier(driver, guarantors); err != nil {
		return dto.DriverResponseDto{}, err
	}

	res, err := os.move(ctx, "request activation for", driver.ID,
		[]model.DriverStatus{model.StatusPendingCompanyVerification},
		model.StatusPendingAdminApproval, nil)
	if err != nil {
		return dto.DriverResponseDto{}, err
	}
	log.With("driver_id", driver.ID).Info("driver requested activation")
	return res, nil
}

// RateDriver stores one note on a driver and refreshes the stored average.
// Drivers cannot rate themselves.
func (os *OnboardingService) RateDriver(caller ports.Caller, driverId int64, req dto.NoteRequestDto) (dto.NoteResponseDto, error) {
	log := os.mylog.Action("RateDriver")

	ctx, cancel := context.WithTimeout(os.ctx, writeTimeout)
	defer cancel()

	if req.Value == nil || *req.Value < model.MinNoteValue || *req.Value > model.MaxNoteValue {
		return dto.NoteResponseDto{}, myerrors.ErrInvalidNoteValue
	}
	if caller.UserId == driverId {
		return dto.NoteResponseDto{}, myerrors.ErrAccessDenied
	}

	driver, err := os.repo.FindById(ctx, driverId)
	if err != nil {
		return dto.NoteResponseDto{}, err
	}
	if driver.Role != model.RoleDriver {
		return dto.NoteResponseDto{}, myerrors.ErrNotADriver
	}

	note := model.Note{
		DriverID: driverId,
		AuthorID: caller.UserId,
		Value:    *req.Value,
	}
	if req.Comment != nil {
		note.Comment = strings.TrimSpace(*req.Comment)
	}

	saved, err := os.repo.AddNote(ctx, note)
	if err != nil {
		log.Error("failed to store note", err)
		return dto.NoteResponseDto{}, err
	}

	log.With("driver_id", driverId).With("value", saved.Value).Info("driver rated")
	return toNoteDto(saved), nil
}

// DriverNotes lists the notes on a driver. Admins see any driver, company
// staff see their own drivers, drivers see themselves.
func (os *OnboardingService) DriverNotes(caller ports.Caller, driverId int64) ([]dto.NoteResponseDto, error) {
	ctx, cancel := context.WithTimeout(os.ctx, readTimeout)
	defer cancel()

	driver, err := os.repo.FindById(ctx, driverId)
	if err != nil {
		return nil, err
	}
	if driver.Role != model.RoleDriver {
		return nil, myerrors.ErrNotADriver
	}

	switch caller.Role {
	case model.RoleAdmin:
	case model.RoleDriver:
		if caller.UserId != driverId {
			return nil, myerrors.ErrAccessDenied
		}
	case model.RoleCompanyManager, model.RoleSupplier:
		companyId, err := os.callerCompany(ctx, caller)
		if err != nil {
			return nil, err
		}
		if driver.CompanyID == nil || *driver.CompanyID != companyId {
			return nil, myerrors.ErrAccessDenied
		}
	default:
		return nil, myerrors.ErrAccessDenied
	}

	notes, err := os.repo.ListNotes(ctx, driverId)
	if err != nil {
		return nil, err
	}
	out := make([]dto.NoteResponseDto, 0, len(notes))
	for _, n := range notes {
		out = append(out, toNoteDto(n))
	}
	return out, nil
}

// move is the shared conditional status transition. ok=false from the repo is
// translated into a WrongStateError carrying the actual current status.
func (os *OnboardingService) move(ctx context.Context, action string, driverId int64, from []model.DriverStatus, to model.DriverStatus, reason *string) (dto.DriverResponseDto, error) {
	log := os.mylog.Action("move").With("driver_id", driverId)

	updated, ok, err := os.repo.UpdateStatus(ctx, driverId, from, to, reason)
	if err != nil {
		log.Error("status transition failed", err)
		return dto.DriverResponseDto{}, err
	}
	if !ok {
		current, err := os.repo.FindById(ctx, driverId)
		if err != nil {
			return dto.DriverResponseDto{}, err
		}
		return dto.DriverResponseDto{}, &model.WrongStateError{
			Action:   action,
			Current:  current.Status,
			Expected: from,
		}
	}

	log.With("status", string(to)).Info("driver status changed")
	return toDriverDto(updated), nil
}

// companyDriver loads a driver and checks the caller manages the same
// company. Cross-company access is denied, not hidden.
func (os *OnboardingService) companyDriver(ctx context.Context, caller ports.Caller, driverId int64) (model.Driver, error) {
	companyId, err := os.callerCompany(ctx, caller)
	if err != nil {
		return model.Driver{}, err
	}

	driver, err := os.repo.FindById(ctx, driverId)
	if err != nil {
		return model.Driver{}, err
	}
	if driver.Role != model.RoleDriver {
		return model.Driver{}, myerrors.ErrNotADriver
	}
	if driver.CompanyID == nil || *driver.CompanyID != companyId {
		return model.Driver{}, myerrors.ErrAccessDenied
	}
	return driver, nil
}

func (os *OnboardingService) callerCompany(ctx context.Context, caller ports.Caller) (int64, error) {
	companyId, err := os.repo.CompanyOf(ctx, caller.UserId)
	if err != nil {
		return 0, err
	}
	if companyId == nil {
		return 0, myerrors.ErrAccessDenied
	}
	return *companyId, nil
}

func (os *OnboardingService) self(ctx context.Context, caller ports.Caller) (model.Driver, error) {
	driver, err := os.repo.FindById(ctx, caller.UserId)
	if err != nil {
		return model.Driver{}, err
	}
	if driver.Role != model.RoleDriver {
		return model.Driver{}, myerrors.ErrNotADriver
	}
	return driver, nil
}

func (os *OnboardingService) dossier(ctx context.Context, driver model.Driver) (dto.DossierDto, error) {
	guarantors, err := os.repo.ListGuarantors(ctx, driver.ID)
	if err != nil {
		return dto.DossierDto{}, err
	}
	out := dto.DossierDto{
		Driver:     toDriverDto(driver),
		Guarantors: make([]dto.GuarantorResponseDto, 0, len(guarantors)),
	}
	for _, g := range guarantors {
		out.Guarantors = append(out.Guarantors, toGuarantorDto(g))
	}
	return out, nil
}

func guarantorFromDto(driverId int64, g dto.GuarantorDto) (model.Guarantor, error) {
	if g.Name == nil || strings.TrimSpace(*g.Name) == "" {
		return model.Guarantor{}, fmt.Errorf("guarantor name: %w", myerrors.ErrFieldIsEmpty)
	}
	if g.Phone == nil || strings.TrimSpace(*g.Phone) == "" {
		return model.Guarantor{}, fmt.Errorf("guarantor phone: %w", myerrors.ErrFieldIsEmpty)
	}
	m := model.Guarantor{
		DriverID: driverId,
		Name:     strings.TrimSpace(*g.Name),
		Phone:    strings.TrimSpace(*g.Phone),
	}
	if g.Address != nil {
		m.Address = strings.TrimSpace(*g.Address)
	}
	if g.Relation != nil {
		m.Relation = strings.TrimSpace(*g.Relation)
	}
	if g.IdentityDocumentURL != nil {
		m.IdentityDocumentURL = strings.TrimSpace(*g.IdentityDocumentURL)
	}
	return m, nil
}

func toDriverDto(d model.Driver) dto.DriverResponseDto {
	return dto.DriverResponseDto{
		Id:                  d.ID,
		Username:            d.Username,
		FullName:            d.FullName(),
		Phone:               d.Phone,
		Address:             d.Address,
		VehicleType:         d.VehicleType,
		CompanyId:           d.CompanyID,
		CompanyName:         d.CompanyName,
		Status:              string(d.Status),
		Matricule:           d.Matricule,
		IdentityDocumentURL: d.IdentityDocumentURL,
		RejectionReason:     d.RejectionReason,
		Rating:              d.Rating,
	}
}

func toGuarantorDto(g model.Guarantor) dto.GuarantorResponseDto {
	return dto.GuarantorResponseDto{
		Id:                  g.ID,
		Name:                g.Name,
		Phone:               g.Phone,
		Address:             g.Address,
		Relation:            g.Relation,
		IdentityDocumentURL: g.IdentityDocumentURL,
	}
}

func toNoteDto(n model.Note) dto.NoteResponseDto {
	return dto.NoteResponseDto{
		Id:        n.ID,
		DriverId:  n.DriverID,
		AuthorId:  n.AuthorID,
		Value:     n.Value,
		Comment:   n.Comment,
		CreatedAt: n.CreatedAt,
	}
}
