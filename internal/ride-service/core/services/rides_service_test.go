package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/finere-dem/MaliTrans/internal/mylogger"
	"github.com/finere-dem/MaliTrans/internal/ride-service/core/domain/brokerdto"
	"github.com/finere-dem/MaliTrans/internal/ride-service/core/domain/dto"
	"github.com/finere-dem/MaliTrans/internal/ride-service/core/domain/model"
	"github.com/finere-dem/MaliTrans/internal/ride-service/core/myerrors"
	"github.com/finere-dem/MaliTrans/internal/ride-service/core/ports"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- in-memory fakes -----------------------------------------------------

// fakeRidesRepo reproduces the repository's conditional-update semantics in
// memory: every guard+write pair is atomic under one mutex, so claim races
// behave exactly like the single-statement SQL they stand in for.
type fakeRidesRepo struct {
	mu     sync.Mutex
	nextId int64
	rides  map[int64]model.RideRequest
}

func newFakeRidesRepo() *fakeRidesRepo {
	return &fakeRidesRepo{nextId: 1, rides: make(map[int64]model.RideRequest)}
}

func (f *fakeRidesRepo) Create(_ context.Context, r model.RideRequest) (model.RideRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.ID = f.nextId
	r.CreatedAt = time.Now()
	f.nextId++
	f.rides[r.ID] = r
	return r, nil
}

func (f *fakeRidesRepo) FindById(_ context.Context, rideId int64) (model.RideRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rides[rideId]
	if !ok {
		return model.RideRequest{}, myerrors.ErrRideNotFound
	}
	return r, nil
}

func (f *fakeRidesRepo) ListByStatus(_ context.Context, status model.Status) ([]model.RideRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.RideRequest
	for _, r := range f.rides {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRidesRepo) ListByOwner(_ context.Context, userId int64) ([]model.RideRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.RideRequest
	for _, r := range f.rides {
		if r.OwnedBy(userId) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRidesRepo) ListByDriver(_ context.Context, driverId int64, statuses []model.Status, page, limit int) ([]model.RideRequest, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []model.RideRequest
	for _, r := range f.rides {
		if !r.AssignedTo(driverId) {
			continue
		}
		for _, s := range statuses {
			if r.Status == s {
				matched = append(matched, r)
				break
			}
		}
	}
	total := int64(len(matched))
	start := (page - 1) * limit
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (f *fakeRidesRepo) MarkValidated(_ context.Context, rideId int64, pickupCode, deliveryCode string) (model.RideRequest, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rides[rideId]
	if !ok || !r.Status.Waiting() {
		return model.RideRequest{}, false, nil
	}
	r.Status = model.StatusReadyForPickup
	if r.PickupCode == nil {
		r.PickupCode = &pickupCode
	}
	if r.DeliveryCode == nil {
		r.DeliveryCode = &deliveryCode
	}
	f.rides[rideId] = r
	return r, true, nil
}

func (f *fakeRidesRepo) Claim(_ context.Context, rideId, driverId int64) (model.RideRequest, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rides[rideId]
	if !ok || r.Status != model.StatusReadyForPickup || r.DriverID != nil {
		return model.RideRequest{}, false, nil
	}
	r.DriverID = &driverId
	r.Status = model.StatusDriverAccepted
	f.rides[rideId] = r
	return r, true, nil
}

func (f *fakeRidesRepo) UpdateStatus(_ context.Context, rideId int64, from, to model.Status) (model.RideRequest, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rides[rideId]
	if !ok || r.Status != from {
		return model.RideRequest{}, false, nil
	}
	r.Status = to
	f.rides[rideId] = r
	return r, true, nil
}

func (f *fakeRidesRepo) UpdatePrice(_ context.Context, rideId int64, price float64) (model.RideRequest, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rides[rideId]
	if !ok || r.DriverID != nil || r.Status.Terminal() {
		return model.RideRequest{}, false, nil
	}
	r.Price = price
	f.rides[rideId] = r
	return r, true, nil
}

type fakeDriversRepo struct {
	statuses map[int64]string
}

func (f *fakeDriversRepo) GetDriverStatus(_ context.Context, driverId int64) (string, error) {
	s, ok := f.statuses[driverId]
	if !ok {
		return "", myerrors.ErrUserNotFound
	}
	return s, nil
}

type fakeBroker struct {
	mu         sync.Mutex
	fail       error
	ready      []brokerdto.RideReady
	validation []brokerdto.ValidationRequested
	assigned   []brokerdto.RideAssigned
}

func (f *fakeBroker) PublishRideReady(_ context.Context, msg brokerdto.RideReady) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.ready = append(f.ready, msg)
	return nil
}

func (f *fakeBroker) PublishValidationRequested(_ context.Context, msg brokerdto.ValidationRequested) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.validation = append(f.validation, msg)
	return nil
}

func (f *fakeBroker) PublishRideAssigned(_ context.Context, msg brokerdto.RideAssigned) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.assigned = append(f.assigned, msg)
	return nil
}

func (f *fakeBroker) Consume(_ context.Context, _ string) (<-chan amqp.Delivery, error) {
	ch := make(chan amqp.Delivery)
	close(ch)
	return ch, nil
}

func (f *fakeBroker) Close() error { return nil }

// ---- fixture -------------------------------------------------------------

type fixture struct {
	repo    *fakeRidesRepo
	drivers *fakeDriversRepo
	broker  *fakeBroker
	svc     ports.IRidesService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log, err := mylogger.New(mylogger.LevelError)
	require.NoError(t, err)

	repo := newFakeRidesRepo()
	drivers := &fakeDriversRepo{statuses: map[int64]string{
		300: DriverStatusActive,
		301: DriverStatusActive,
		399: "PENDING_ADMIN_APPROVAL",
	}}
	broker := &fakeBroker{}
	svc := NewRidesService(context.Background(), log, repo, drivers, broker)
	return &fixture{repo: repo, drivers: drivers, broker: broker, svc: svc}
}

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }
func i64Ptr(i int64) *int64     { return &i }

var (
	client   = ports.Caller{UserId: 100, Role: RoleClient}
	supplier = ports.Caller{UserId: 200, Role: RoleSupplier}
	driver   = ports.Caller{UserId: 300, Role: RoleDriver}
)

func createReq(flow string) dto.RideCreateRequestDto {
	return dto.RideCreateRequestDto{
		Origin:      strPtr("Bamako"),
		Destination: strPtr("Segou"),
		FlowType:    strPtr(flow),
		Price:       f64Ptr(5000),
	}
}

// ---- create --------------------------------------------------------------

func TestCreateRideClientInitiated(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.CreateRide(client, createReq("CLIENT_INITIATED"))
	require.NoError(t, err)

	assert.Equal(t, string(model.StatusReadyForPickup), res.Status)
	assert.Equal(t, client.UserId, res.ClientId)
	require.NotNil(t, res.PickupCode)
	require.NotNil(t, res.DeliveryCode)
	assert.Len(t, *res.PickupCode, 6)
	assert.Len(t, *res.DeliveryCode, 6)

	// drivers are told right away
	assert.Len(t, f.broker.ready, 1)
	assert.Empty(t, f.broker.validation)
}

func TestCreateRideSupplierInitiated(t *testing.T) {
	f := newFixture(t)

	req := createReq("SUPPLIER_INITIATED")
	req.ClientId = i64Ptr(client.UserId)

	res, err := f.svc.CreateRide(supplier, req)
	require.NoError(t, err)

	assert.Equal(t, string(model.StatusWaitingClientValidation), res.Status)
	require.NotNil(t, res.SupplierId)
	assert.Equal(t, supplier.UserId, *res.SupplierId)
	assert.Nil(t, res.PickupCode, "pickup code is issued at validation, not before")
	require.NotNil(t, res.DeliveryCode)

	// the client is asked to validate; drivers see nothing yet
	assert.Len(t, f.broker.validation, 1)
	assert.Empty(t, f.broker.ready)
}

func TestCreateRideSupplierNeedsClientId(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateRide(supplier, createReq("SUPPLIER_INITIATED"))
	assert.ErrorIs(t, err, myerrors.ErrFieldIsEmpty)
}

func TestCreateRideRejectsBadInput(t *testing.T) {
	f := newFixture(t)

	req := createReq("CLIENT_INITIATED")
	req.Origin = strPtr("  ")
	_, err := f.svc.CreateRide(client, req)
	assert.ErrorIs(t, err, myerrors.ErrFieldIsEmpty)

	req = createReq("SIDEWAYS")
	_, err = f.svc.CreateRide(client, req)
	assert.ErrorIs(t, err, myerrors.ErrInvalidFlowType)

	req = createReq("CLIENT_INITIATED")
	req.Price = f64Ptr(-1)
	_, err = f.svc.CreateRide(client, req)
	assert.ErrorIs(t, err, myerrors.ErrInvalidPrice)
}

// ---- validate ------------------------------------------------------------

func TestValidateMovesToReadyAndKeepsExistingCode(t *testing.T) {
	f := newFixture(t)

	req := createReq("SUPPLIER_INITIATED")
	req.ClientId = i64Ptr(client.UserId)
	created, err := f.svc.CreateRide(supplier, req)
	require.NoError(t, err)
	deliveryBefore := *created.DeliveryCode

	res, err := f.svc.Validate(client, created.RideId)
	require.NoError(t, err)

	assert.Equal(t, string(model.StatusReadyForPickup), res.Status)
	require.NotNil(t, res.PickupCode)
	require.NotNil(t, res.DeliveryCode)
	assert.Equal(t, deliveryBefore, *res.DeliveryCode, "validation must not regenerate the delivery code")
	assert.Len(t, f.broker.ready, 1)
}

func TestValidateDeniedForStrangers(t *testing.T) {
	f := newFixture(t)

	req := createReq("SUPPLIER_INITIATED")
	req.ClientId = i64Ptr(client.UserId)
	created, err := f.svc.CreateRide(supplier, req)
	require.NoError(t, err)

	stranger := ports.Caller{UserId: 777, Role: RoleClient}
	_, err = f.svc.Validate(stranger, created.RideId)
	assert.ErrorIs(t, err, myerrors.ErrAccessDenied)
}

func TestValidateOutsideWaitingState(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.CreateRide(client, createReq("CLIENT_INITIATED"))
	require.NoError(t, err)

	_, err = f.svc.Validate(client, created.RideId)
	var transition *model.InvalidTransitionError
	require.ErrorAs(t, err, &transition)
	assert.Equal(t, model.StatusReadyForPickup, transition.Current)
}

// ---- claim ---------------------------------------------------------------

func TestClaimRequiresActiveDriver(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.CreateRide(client, createReq("CLIENT_INITIATED"))
	require.NoError(t, err)

	pending := ports.Caller{UserId: 399, Role: RoleDriver}
	_, err = f.svc.Claim(pending, created.RideId)
	var notEligible *model.DriverNotEligibleError
	require.ErrorAs(t, err, &notEligible)
	assert.Equal(t, "PENDING_ADMIN_APPROVAL", notEligible.Status)

	unknown := ports.Caller{UserId: 555, Role: RoleDriver}
	_, err = f.svc.Claim(unknown, created.RideId)
	assert.ErrorIs(t, err, myerrors.ErrUserNotFound)
}

func TestClaimWinnerTakesRide(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.CreateRide(client, createReq("CLIENT_INITIATED"))
	require.NoError(t, err)

	res, err := f.svc.Claim(driver, created.RideId)
	require.NoError(t, err)
	assert.Equal(t, string(model.StatusDriverAccepted), res.Status)
	require.NotNil(t, res.DriverId)
	assert.Equal(t, driver.UserId, *res.DriverId)
	assert.Len(t, f.broker.assigned, 1)
}

func TestClaimSecondDriverLoses(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.CreateRide(client, createReq("CLIENT_INITIATED"))
	require.NoError(t, err)

	_, err = f.svc.Claim(driver, created.RideId)
	require.NoError(t, err)

	second := ports.Caller{UserId: 301, Role: RoleDriver}
	_, err = f.svc.Claim(second, created.RideId)
	var taken *model.AlreadyTakenError
	require.ErrorAs(t, err, &taken)
	assert.Equal(t, model.StatusDriverAccepted, taken.Current)
}

// TestClaimRace fires many concurrent claims at one ride and asserts exactly
// one wins while every loser gets the conflict error.
func TestClaimRace(t *testing.T) {
	f := newFixture(t)

	const drivers = 32
	for i := int64(0); i < drivers; i++ {
		f.drivers.statuses[1000+i] = DriverStatusActive
	}

	created, err := f.svc.CreateRide(client, createReq("CLIENT_INITIATED"))
	require.NoError(t, err)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		wins   int
		losses int
	)
	start := make(chan struct{})
	for i := int64(0); i < drivers; i++ {
		wg.Add(1)
		go func(driverId int64) {
			defer wg.Done()
			<-start
			_, err := f.svc.Claim(ports.Caller{UserId: driverId, Role: RoleDriver}, created.RideId)

			mu.Lock()
			defer mu.Unlock()
			var taken *model.AlreadyTakenError
			switch {
			case err == nil:
				wins++
			case errors.As(err, &taken):
				losses++
			default:
				t.Errorf("unexpected claim error: %v", err)
			}
		}(1000 + i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, wins, "exactly one driver must win")
	assert.Equal(t, drivers-1, losses)
	assert.Len(t, f.broker.assigned, 1, "only the winner is announced")
}

// ---- pickup / delivery ---------------------------------------------------

func TestFullDeliveryFlow(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.CreateRide(client, createReq("CLIENT_INITIATED"))
	require.NoError(t, err)
	pickupCode, deliveryCode := *created.PickupCode, *created.DeliveryCode

	_, err = f.svc.Claim(driver, created.RideId)
	require.NoError(t, err)

	res, err := f.svc.ConfirmPickup(driver, created.RideId, pickupCode)
	require.NoError(t, err)
	assert.Equal(t, string(model.StatusInTransit), res.Status)

	res, err = f.svc.ConfirmDelivery(driver, created.RideId, deliveryCode)
	require.NoError(t, err)
	assert.Equal(t, string(model.StatusCompleted), res.Status)

	// terminal: nothing moves anymore
	_, err = f.svc.ConfirmDelivery(driver, created.RideId, deliveryCode)
	var transition *model.InvalidTransitionError
	assert.ErrorAs(t, err, &transition)
}

func TestConfirmPickupExactCodeOnly(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.CreateRide(client, createReq("CLIENT_INITIATED"))
	require.NoError(t, err)
	_, err = f.svc.Claim(driver, created.RideId)
	require.NoError(t, err)

	_, err = f.svc.ConfirmPickup(driver, created.RideId, "000000")
	assert.ErrorIs(t, err, myerrors.ErrInvalidCode)

	// a failed code never advances the ride
	res, err := f.svc.GetRide(client, created.RideId)
	require.NoError(t, err)
	assert.Equal(t, string(model.StatusDriverAccepted), res.Status)
}

func TestConfirmPickupOnlyByAssignedDriver(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.CreateRide(client, createReq("CLIENT_INITIATED"))
	require.NoError(t, err)
	_, err = f.svc.Claim(driver, created.RideId)
	require.NoError(t, err)

	other := ports.Caller{UserId: 301, Role: RoleDriver}
	_, err = f.svc.ConfirmPickup(other, created.RideId, *created.PickupCode)
	assert.ErrorIs(t, err, myerrors.ErrAccessDenied)
}

// ---- cancel / price ------------------------------------------------------

func TestCancelBeforeClaim(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.CreateRide(client, createReq("CLIENT_INITIATED"))
	require.NoError(t, err)

	res, err := f.svc.Cancel(client, created.RideId)
	require.NoError(t, err)
	assert.Equal(t, string(model.StatusCanceled), res.Status)
}

func TestCancelAfterClaimRefused(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.CreateRide(client, createReq("CLIENT_INITIATED"))
	require.NoError(t, err)
	_, err = f.svc.Claim(driver, created.RideId)
	require.NoError(t, err)

	_, err = f.svc.Cancel(client, created.RideId)
	var transition *model.InvalidTransitionError
	require.ErrorAs(t, err, &transition)
	assert.Equal(t, model.StatusDriverAccepted, transition.Current)
}

func TestCancelOnlyByClient(t *testing.T) {
	f := newFixture(t)

	req := createReq("SUPPLIER_INITIATED")
	req.ClientId = i64Ptr(client.UserId)
	created, err := f.svc.CreateRide(supplier, req)
	require.NoError(t, err)

	_, err = f.svc.Cancel(supplier, created.RideId)
	assert.ErrorIs(t, err, myerrors.ErrAccessDenied)
}

func TestUpdatePriceWhileUnclaimed(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.CreateRide(client, createReq("CLIENT_INITIATED"))
	require.NoError(t, err)

	res, err := f.svc.UpdatePrice(client, created.RideId, 7500)
	require.NoError(t, err)
	assert.Equal(t, 7500.0, res.Price)

	_, err = f.svc.Claim(driver, created.RideId)
	require.NoError(t, err)

	_, err = f.svc.UpdatePrice(client, created.RideId, 9000)
	var transition *model.InvalidTransitionError
	assert.ErrorAs(t, err, &transition)
}

// ---- visibility ----------------------------------------------------------

func TestCodesHiddenFromDriver(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.CreateRide(client, createReq("CLIENT_INITIATED"))
	require.NoError(t, err)

	asDriver, err := f.svc.GetRide(driver, created.RideId)
	require.NoError(t, err)
	assert.Nil(t, asDriver.PickupCode)
	assert.Nil(t, asDriver.DeliveryCode)

	asClient, err := f.svc.GetRide(client, created.RideId)
	require.NoError(t, err)
	assert.NotNil(t, asClient.PickupCode)
	assert.NotNil(t, asClient.DeliveryCode)
}

func TestBrokerFailureDoesNotFailTransition(t *testing.T) {
	f := newFixture(t)
	f.broker.fail = errors.New("broker down")

	res, err := f.svc.CreateRide(client, createReq("CLIENT_INITIATED"))
	require.NoError(t, err, "notification failure must never surface")
	assert.Equal(t, string(model.StatusReadyForPickup), res.Status)
}

// ---- listings ------------------------------------------------------------

func TestDriverHistoryPaginated(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 3; i++ {
		created, err := f.svc.CreateRide(client, createReq("CLIENT_INITIATED"))
		require.NoError(t, err)
		_, err = f.svc.Claim(driver, created.RideId)
		require.NoError(t, err)
		_, err = f.svc.ConfirmPickup(driver, created.RideId, *created.PickupCode)
		require.NoError(t, err)
		_, err = f.svc.ConfirmDelivery(driver, created.RideId, *created.DeliveryCode)
		require.NoError(t, err)
	}

	res, err := f.svc.History(driver, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Meta.Total)
	assert.Equal(t, 2, res.Meta.TotalPages)
	assert.Len(t, res.Data, 2)
}

func TestListReadyShowsOnlyReady(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.CreateRide(client, createReq("CLIENT_INITIATED"))
	require.NoError(t, err)
	_, err = f.svc.CreateRide(client, createReq("CLIENT_INITIATED"))
	require.NoError(t, err)
	_, err = f.svc.Claim(driver, first.RideId)
	require.NoError(t, err)

	res, err := f.svc.ListReady(driver)
	require.NoError(t, err)
	assert.Len(t, res, 1)
}
