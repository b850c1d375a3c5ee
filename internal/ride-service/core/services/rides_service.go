package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/finere-dem/MaliTrans/internal/mylogger"
	"github.com/finere-dem/MaliTrans/internal/ride-service/core/domain/brokerdto"
	"github.com/finere-dem/MaliTrans/internal/ride-service/core/domain/dto"
	"github.com/finere-dem/MaliTrans/internal/ride-service/core/domain/model"
	"github.com/finere-dem/MaliTrans/internal/ride-service/core/myerrors"
	"github.com/finere-dem/MaliTrans/internal/ride-service/core/ports"

	"github.com/google/uuid"
)

const (
	RoleClient   = "CLIENT"
	RoleSupplier = "SUPPLIER"
	RoleDriver   = "DRIVER"

	// DriverStatusActive is the only onboarding status allowed to claim.
	DriverStatusActive = "ACTIVE"

	defaultHistoryLimit = 20
	maxListLimit        = 100
)

type RidesService struct {
	ctx       context.Context
	mylog     mylogger.Logger
	ridesRepo ports.IRidesRepo
	drivers   ports.IDriversRepo
	broker    ports.IRidesBroker
}

func NewRidesService(
	ctx context.Context,
	log mylogger.Logger,
	ridesRepo ports.IRidesRepo,
	drivers ports.IDriversRepo,
	broker ports.IRidesBroker,
) ports.IRidesService {
	return &RidesService{
		ctx:       ctx,
		mylog:     log,
		ridesRepo: ridesRepo,
		drivers:   drivers,
		broker:    broker,
	}
}

func (rs *RidesService) CreateRide(caller ports.Caller, req dto.RideCreateRequestDto) (dto.RideResponseDto, error) {
	log := rs.mylog.Action("CreateRide")

	if err := validateCreateRequest(req); err != nil {
		return dto.RideResponseDto{}, err
	}
	flow := model.FlowType(strings.ToUpper(*req.FlowType))

	m := model.RideRequest{
		Origin:          strings.TrimSpace(*req.Origin),
		Destination:     strings.TrimSpace(*req.Destination),
		FlowType:        flow,
		Price:           *req.Price,
		OtherPartyName:  req.OtherPartyName,
		OtherPartyPhone: req.OtherPartyPhone,
	}

	switch caller.Role {
	case RoleClient:
		m.ClientID = caller.UserId
	case RoleSupplier:
		if req.ClientId == nil {
			return dto.RideResponseDto{}, fmt.Errorf("client_id is required for a supplier-created ride: %w", myerrors.ErrFieldIsEmpty)
		}
		m.ClientID = *req.ClientId
		supplierId := caller.UserId
		m.SupplierID = &supplierId
	default:
		return dto.RideResponseDto{}, myerrors.ErrAccessDenied
	}

	switch flow {
	case model.FlowClientInitiated:
		// visible to drivers right away, both codes issued now
		m.Status = model.StatusReadyForPickup
		pickup, err := generateCode()
		if err != nil {
			return dto.RideResponseDto{}, err
		}
		delivery, err := generateCode()
		if err != nil {
			return dto.RideResponseDto{}, err
		}
		m.PickupCode = &pickup
		m.DeliveryCode = &delivery
	case model.FlowSupplierInitiated:
		// client has to validate first; pickup code is issued on validation
		m.Status = model.StatusWaitingClientValidation
		delivery, err := generateCode()
		if err != nil {
			return dto.RideResponseDto{}, err
		}
		m.DeliveryCode = &delivery
	}

	ctx, cancel := context.WithTimeout(rs.ctx, time.Second*15)
	defer cancel()

	saved, err := rs.ridesRepo.Create(ctx, m)
	if err != nil {
		log.Error("cannot create ride request", err)
		return dto.RideResponseDto{}, err
	}
	log.Info("ride request created", "ride_id", saved.ID, "flow", string(flow), "status", string(saved.Status))

	// notifications happen after the commit; their failure never fails the call
	switch saved.Status {
	case model.StatusReadyForPickup:
		rs.notifyReady(saved)
	case model.StatusWaitingClientValidation:
		rs.notifyValidation(saved, saved.ClientID)
	}

	return toRideDto(saved, caller), nil
}

func (rs *RidesService) GetRide(caller ports.Caller, rideId int64) (dto.RideResponseDto, error) {
	ctx, cancel := context.WithTimeout(rs.ctx, time.Second*5)
	defer cancel()

	ride, err := rs.ridesRepo.FindById(ctx, rideId)
	if err != nil {
		return dto.RideResponseDto{}, err
	}
	return toRideDto(ride, caller), nil
}

func (rs *RidesService) ListReady(caller ports.Caller) ([]dto.RideResponseDto, error) {
	ctx, cancel := context.WithTimeout(rs.ctx, time.Second*5)
	defer cancel()

	rides, err := rs.ridesRepo.ListByStatus(ctx, model.StatusReadyForPickup)
	if err != nil {
		return nil, err
	}
	out := make([]dto.RideResponseDto, 0, len(rides))
	for _, r := range rides {
		out = append(out, toRideDto(r, caller))
	}
	return out, nil
}

func (rs *RidesService) Validate(caller ports.Caller, rideId int64) (dto.RideResponseDto, error) {
	log := rs.mylog.Action("Validate")

	ctx, cancel := context.WithTimeout(rs.ctx, time.Second*15)
	defer cancel()

	ride, err := rs.ridesRepo.FindById(ctx, rideId)
	if err != nil {
		return dto.RideResponseDto{}, err
	}
	if !ride.OwnedBy(caller.UserId) {
		return dto.RideResponseDto{}, myerrors.ErrAccessDenied
	}
	if err := ride.CanValidate(); err != nil {
		return dto.RideResponseDto{}, err
	}

	// candidates for whichever code is still missing; existing codes are
	// kept by the repository, so a code is only ever generated once
	pickup, err := generateCode()
	if err != nil {
		return dto.RideResponseDto{}, err
	}
	delivery, err := generateCode()
	if err != nil {
		return dto.RideResponseDto{}, err
	}

	updated, ok, err := rs.ridesRepo.MarkValidated(ctx, rideId, pickup, delivery)
	if err != nil {
		log.Error("cannot validate ride request", err)
		return dto.RideResponseDto{}, err
	}
	if !ok {
		// a concurrent transition beat us between the read and the write
		current, ferr := rs.ridesRepo.FindById(ctx, rideId)
		if ferr != nil {
			return dto.RideResponseDto{}, ferr
		}
		return dto.RideResponseDto{}, &model.InvalidTransitionError{
			Event:    "validate",
			Current:  current.Status,
			Expected: []model.Status{model.StatusWaitingSupplierValidation, model.StatusWaitingClientValidation},
		}
	}

	log.Info("ride request validated", "ride_id", rideId)
	rs.notifyReady(updated)
	return toRideDto(updated, caller), nil
}

// Claim resolves the first-come-first-served race: exactly one of N
// concurrent claims wins, everyone else gets AlreadyTakenError.
func (rs *RidesService) Claim(caller ports.Caller, rideId int64) (dto.RideResponseDto, error) {
	log := rs.mylog.Action("Claim")

	ctx, cancel := context.WithTimeout(rs.ctx, time.Second*15)
	defer cancel()

	status, err := rs.drivers.GetDriverStatus(ctx, caller.UserId)
	if err != nil {
		return dto.RideResponseDto{}, err
	}
	if status != DriverStatusActive {
		return dto.RideResponseDto{}, &model.DriverNotEligibleError{DriverID: caller.UserId, Status: status}
	}

	updated, won, err := rs.ridesRepo.Claim(ctx, rideId, caller.UserId)
	if err != nil {
		log.Error("claim failed", err, "ride_id", rideId, "driver_id", caller.UserId)
		return dto.RideResponseDto{}, err
	}
	if !won {
		current, ferr := rs.ridesRepo.FindById(ctx, rideId)
		if ferr != nil {
			return dto.RideResponseDto{}, ferr
		}
		return dto.RideResponseDto{}, &model.AlreadyTakenError{RideID: rideId, Current: current.Status}
	}

	log.Info("ride claimed", "ride_id", rideId, "driver_id", caller.UserId)
	rs.notifyAssigned(updated)
	return toRideDto(updated, caller), nil
}

func (rs *RidesService) ConfirmPickup(caller ports.Caller, rideId int64, code string) (dto.RideResponseDto, error) {
	return rs.confirmLeg(caller, rideId, code, legPickup)
}

func (rs *RidesService) ConfirmDelivery(caller ports.Caller, rideId int64, code string) (dto.RideResponseDto, error) {
	return rs.confirmLeg(caller, rideId, code, legDelivery)
}

type leg int

const (
	legPickup leg = iota
	legDelivery
)

func (rs *RidesService) confirmLeg(caller ports.Caller, rideId int64, code string, l leg) (dto.RideResponseDto, error) {
	log := rs.mylog.Action("ConfirmLeg")

	ctx, cancel := context.WithTimeout(rs.ctx, time.Second*15)
	defer cancel()

	ride, err := rs.ridesRepo.FindById(ctx, rideId)
	if err != nil {
		return dto.RideResponseDto{}, err
	}
	if !ride.AssignedTo(caller.UserId) {
		return dto.RideResponseDto{}, myerrors.ErrAccessDenied
	}

	var (
		expected *string
		from, to model.Status
		event    string
	)
	switch l {
	case legPickup:
		if err := ride.CanConfirmPickup(); err != nil {
			return dto.RideResponseDto{}, err
		}
		expected, from, to, event = ride.PickupCode, model.StatusDriverAccepted, model.StatusInTransit, "confirmPickup"
	case legDelivery:
		if err := ride.CanConfirmDelivery(); err != nil {
			return dto.RideResponseDto{}, err
		}
		expected, from, to, event = ride.DeliveryCode, model.StatusInTransit, model.StatusCompleted, "confirmDelivery"
	}

	// exact string comparison, digits only, no normalization
	if expected == nil || *expected != code {
		return dto.RideResponseDto{}, myerrors.ErrInvalidCode
	}

	updated, ok, err := rs.ridesRepo.UpdateStatus(ctx, rideId, from, to)
	if err != nil {
		log.Error("cannot advance ride", err, "ride_id", rideId)
		return dto.RideResponseDto{}, err
	}
	if !ok {
		current, ferr := rs.ridesRepo.FindById(ctx, rideId)
		if ferr != nil {
			return dto.RideResponseDto{}, ferr
		}
		return dto.RideResponseDto{}, &model.InvalidTransitionError{Event: event, Current: current.Status, Expected: []model.Status{from}}
	}

	log.Info("ride advanced", "ride_id", rideId, "from", string(from), "to", string(to))
	return toRideDto(updated, caller), nil
}

func (rs *RidesService) Cancel(caller ports.Caller, rideId int64) (dto.RideResponseDto, error) {
	log := rs.mylog.Action("Cancel")

	ctx, cancel := context.WithTimeout(rs.ctx, time.Second*15)
	defer cancel()

	ride, err := rs.ridesRepo.FindById(ctx, rideId)
	if err != nil {
		return dto.RideResponseDto{}, err
	}
	if ride.ClientID != caller.UserId {
		return dto.RideResponseDto{}, myerrors.ErrAccessDenied
	}
	if err := ride.CanCancel(); err != nil {
		return dto.RideResponseDto{}, err
	}

	updated, ok, err := rs.ridesRepo.UpdateStatus(ctx, rideId, ride.Status, model.StatusCanceled)
	if err != nil {
		log.Error("cannot cancel ride", err, "ride_id", rideId)
		return dto.RideResponseDto{}, err
	}
	if !ok {
		current, ferr := rs.ridesRepo.FindById(ctx, rideId)
		if ferr != nil {
			return dto.RideResponseDto{}, ferr
		}
		return dto.RideResponseDto{}, &model.InvalidTransitionError{
			Event:    "cancel",
			Current:  current.Status,
			Expected: []model.Status{model.StatusReadyForPickup, model.StatusWaitingSupplierValidation, model.StatusWaitingClientValidation},
		}
	}

	log.Info("ride canceled", "ride_id", rideId)
	return toRideDto(updated, caller), nil
}

func (rs *RidesService) UpdatePrice(caller ports.Caller, rideId int64, price float64) (dto.RideResponseDto, error) {
	ctx, cancel := context.WithTimeout(rs.ctx, time.Second*15)
	defer cancel()

	if price <= 0 {
		return dto.RideResponseDto{}, myerrors.ErrInvalidPrice
	}

	ride, err := rs.ridesRepo.FindById(ctx, rideId)
	if err != nil {
		return dto.RideResponseDto{}, err
	}
	if ride.ClientID != caller.UserId {
		return dto.RideResponseDto{}, myerrors.ErrAccessDenied
	}
	if err := ride.CanCancel(); err != nil {
		// price is mutable exactly while cancelation is still possible
		return dto.RideResponseDto{}, &model.InvalidTransitionError{
			Event:    "updatePrice",
			Current:  ride.Status,
			Expected: []model.Status{model.StatusReadyForPickup, model.StatusWaitingSupplierValidation, model.StatusWaitingClientValidation},
		}
	}

	updated, ok, err := rs.ridesRepo.UpdatePrice(ctx, rideId, price)
	if err != nil {
		return dto.RideResponseDto{}, err
	}
	if !ok {
		current, ferr := rs.ridesRepo.FindById(ctx, rideId)
		if ferr != nil {
			return dto.RideResponseDto{}, ferr
		}
		return dto.RideResponseDto{}, &model.InvalidTransitionError{
			Event:    "updatePrice",
			Current:  current.Status,
			Expected: []model.Status{model.StatusReadyForPickup, model.StatusWaitingSupplierValidation, model.StatusWaitingClientValidation},
		}
	}
	return toRideDto(updated, caller), nil
}

func (rs *RidesService) History(caller ports.Caller, page, limit int) (dto.PaginatedRidesDto, error) {
	ctx, cancel := context.WithTimeout(rs.ctx, time.Second*5)
	defer cancel()

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultHistoryLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	if caller.Role == RoleDriver {
		rides, total, err := rs.ridesRepo.ListByDriver(ctx, caller.UserId,
			[]model.Status{model.StatusCompleted, model.StatusCanceled}, page, limit)
		if err != nil {
			return dto.PaginatedRidesDto{}, err
		}
		return paginate(rides, total, page, limit, caller), nil
	}

	// client/supplier history is small enough to return whole
	rides, err := rs.ridesRepo.ListByOwner(ctx, caller.UserId)
	if err != nil {
		return dto.PaginatedRidesDto{}, err
	}
	n := len(rides)
	if n == 0 {
		n = 1
	}
	return paginate(rides, int64(len(rides)), 1, n, caller), nil
}

func (rs *RidesService) ActiveForDriver(caller ports.Caller) ([]dto.RideResponseDto, error) {
	ctx, cancel := context.WithTimeout(rs.ctx, time.Second*5)
	defer cancel()

	rides, _, err := rs.ridesRepo.ListByDriver(ctx, caller.UserId,
		[]model.Status{model.StatusDriverAccepted, model.StatusInTransit}, 1, maxListLimit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.RideResponseDto, 0, len(rides))
	for _, r := range rides {
		out = append(out, toRideDto(r, caller))
	}
	return out, nil
}

// ---- notifications -------------------------------------------------------

// Notification publishing runs after the state change committed. A broker
// failure is logged and swallowed: it must never surface as a transition
// failure.

func (rs *RidesService) notifyReady(r model.RideRequest) {
	log := rs.mylog.Action("notifyReady")
	ctx, cancel := context.WithTimeout(rs.ctx, time.Second*5)
	defer cancel()

	err := rs.broker.PublishRideReady(ctx, brokerdto.RideReady{
		RideID:        r.ID,
		Origin:        r.Origin,
		Destination:   r.Destination,
		Price:         r.Price,
		CorrelationID: uuid.NewString(),
	})
	if err != nil {
		log.Warn("cannot publish ride_ready, drivers will rely on polling", "ride_id", r.ID, "reason", err.Error())
	}
}

func (rs *RidesService) notifyValidation(r model.RideRequest, userId int64) {
	log := rs.mylog.Action("notifyValidation")
	ctx, cancel := context.WithTimeout(rs.ctx, time.Second*5)
	defer cancel()

	err := rs.broker.PublishValidationRequested(ctx, brokerdto.ValidationRequested{
		RideID:        r.ID,
		UserID:        userId,
		FlowType:      string(r.FlowType),
		CorrelationID: uuid.NewString(),
	})
	if err != nil {
		log.Warn("cannot publish validation_requested", "ride_id", r.ID, "reason", err.Error())
	}
}

func (rs *RidesService) notifyAssigned(r model.RideRequest) {
	log := rs.mylog.Action("notifyAssigned")
	ctx, cancel := context.WithTimeout(rs.ctx, time.Second*5)
	defer cancel()

	if r.DriverID == nil {
		return
	}
	err := rs.broker.PublishRideAssigned(ctx, brokerdto.RideAssigned{
		RideID:        r.ID,
		DriverID:      *r.DriverID,
		Origin:        r.Origin,
		Destination:   r.Destination,
		CorrelationID: uuid.NewString(),
	})
	if err != nil {
		log.Warn("cannot publish ride_assigned", "ride_id", r.ID, "reason", err.Error())
	}
}

// ---- helpers -------------------------------------------------------------

func validateCreateRequest(req dto.RideCreateRequestDto) error {
	if req.Origin == nil || strings.TrimSpace(*req.Origin) == "" {
		return fmt.Errorf("origin: %w", myerrors.ErrFieldIsEmpty)
	}
	if req.Destination == nil || strings.TrimSpace(*req.Destination) == "" {
		return fmt.Errorf("destination: %w", myerrors.ErrFieldIsEmpty)
	}
	if req.FlowType == nil || *req.FlowType == "" {
		return fmt.Errorf("flow_type: %w", myerrors.ErrFieldIsEmpty)
	}
	if !model.FlowType(strings.ToUpper(*req.FlowType)).Valid() {
		return myerrors.ErrInvalidFlowType
	}
	if req.Price == nil {
		return fmt.Errorf("price: %w", myerrors.ErrFieldIsEmpty)
	}
	if *req.Price <= 0 {
		return myerrors.ErrInvalidPrice
	}
	return nil
}

func toRideDto(r model.RideRequest, caller ports.Caller) dto.RideResponseDto {
	d := dto.RideResponseDto{
		RideId:          r.ID,
		Origin:          r.Origin,
		Destination:     r.Destination,
		ClientId:        r.ClientID,
		SupplierId:      r.SupplierID,
		DriverId:        r.DriverID,
		FlowType:        string(r.FlowType),
		Status:          string(r.Status),
		Price:           r.Price,
		OtherPartyName:  r.OtherPartyName,
		OtherPartyPhone: r.OtherPartyPhone,
		CreatedAt:       r.CreatedAt,
	}
	// only the requesting parties ever see the codes; the driver has to be
	// handed them physically
	if r.OwnedBy(caller.UserId) {
		d.PickupCode = r.PickupCode
		d.DeliveryCode = r.DeliveryCode
	}
	return d
}

func paginate(rides []model.RideRequest, total int64, page, limit int, caller ports.Caller) dto.PaginatedRidesDto {
	data := make([]dto.RideResponseDto, 0, len(rides))
	for _, r := range rides {
		data = append(data, toRideDto(r, caller))
	}
	totalPages := int(total) / limit
	if int(total)%limit != 0 {
		totalPages++
	}
	return dto.PaginatedRidesDto{
		Data: data,
		Meta: dto.PageMetaDto{Total: total, Page: page, TotalPages: totalPages, Limit: limit},
	}
}
