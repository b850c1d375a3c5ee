package consumer

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/finere-dem/MaliTrans/internal/mylogger"
	"github.com/finere-dem/MaliTrans/internal/ride-service/core/domain/brokerdto"
	"github.com/finere-dem/MaliTrans/internal/ride-service/core/domain/wsdto"
	"github.com/finere-dem/MaliTrans/internal/ride-service/core/ports"

	"github.com/rabbitmq/amqp091-go"
)

const (
	queueRideReady  = "ride.ready"
	queueValidation = "ride.validation"
	queueAssigned   = "ride.assigned"
)

// Notification consumes ride events from the broker and pushes them to the
// websocket dispatcher: ready rides go to every connected driver, validation
// requests and assignments go to the one user they concern.
type Notification struct {
	ctx        context.Context
	wg         *sync.WaitGroup
	log        mylogger.Logger
	dispatcher ports.INotifyDispatcher
	broker     ports.IRidesBroker
}

func New(
	ctx context.Context,
	wg *sync.WaitGroup,
	log mylogger.Logger,
	dispatcher ports.INotifyDispatcher,
	broker ports.IRidesBroker,
) *Notification {
	return &Notification{
		ctx:        ctx,
		wg:         wg,
		log:        log,
		dispatcher: dispatcher,
		broker:     broker,
	}
}

func (n *Notification) Run() error {
	chReady, err := n.broker.Consume(n.ctx, queueRideReady)
	if err != nil {
		return err
	}
	chValidation, err := n.broker.Consume(n.ctx, queueValidation)
	if err != nil {
		return err
	}
	chAssigned, err := n.broker.Consume(n.ctx, queueAssigned)
	if err != nil {
		return err
	}

	n.wg.Add(3)
	go n.work(n.ctx, chReady, n.rideReady)
	go n.work(n.ctx, chValidation, n.validationRequested)
	go n.work(n.ctx, chAssigned, n.rideAssigned)

	return nil
}

func (n *Notification) work(
	ctx context.Context,
	ch <-chan amqp091.Delivery,
	do func(msg amqp091.Delivery) error,
) {
	log := n.log.Action("work")
	defer func() {
		log.Info("notification worker done")
		n.wg.Done()
	}()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := do(msg); err != nil {
				continue
			}
		case <-ctx.Done():
			return
		}
	}
}

func (n *Notification) rideReady(msg amqp091.Delivery) error {
	log := n.log.Action("rideReady")

	var m brokerdto.RideReady
	if err := json.Unmarshal(msg.Body, &m); err != nil {
		log.Error("cannot unmarshal ride_ready", err)
		_ = msg.Nack(false, false)
		return err
	}

	n.dispatcher.Broadcast(wsdto.Event{Type: wsdto.TypeRideReady, Data: msg.Body})
	log.Debug("ride_ready broadcast to drivers", "ride_id", m.RideID)
	return msg.Ack(false)
}

func (n *Notification) validationRequested(msg amqp091.Delivery) error {
	log := n.log.Action("validationRequested")

	var m brokerdto.ValidationRequested
	if err := json.Unmarshal(msg.Body, &m); err != nil {
		log.Error("cannot unmarshal validation_requested", err)
		_ = msg.Nack(false, false)
		return err
	}

	n.dispatcher.WriteToUser(m.UserID, wsdto.Event{Type: wsdto.TypeValidationRequested, Data: msg.Body})
	return msg.Ack(false)
}

func (n *Notification) rideAssigned(msg amqp091.Delivery) error {
	log := n.log.Action("rideAssigned")

	var m brokerdto.RideAssigned
	if err := json.Unmarshal(msg.Body, &m); err != nil {
		log.Error("cannot unmarshal ride_assigned", err)
		_ = msg.Nack(false, false)
		return err
	}

	// the winner is the only driver told about the assignment
	n.dispatcher.WriteToUser(m.DriverID, wsdto.Event{Type: wsdto.TypeRideAssigned, Data: msg.Body})
	return msg.Ack(false)
}
