package ports

import (
	"context"

	"github.com/finere-dem/MaliTrans/internal/ride-service/core/domain/brokerdto"
	"github.com/finere-dem/MaliTrans/internal/ride-service/core/domain/wsdto"

	amqp "github.com/rabbitmq/amqp091-go"
)

type IRidesBroker interface {
	PublishRideReady(ctx context.Context, msg brokerdto.RideReady) error
	PublishValidationRequested(ctx context.Context, msg brokerdto.ValidationRequested) error
	PublishRideAssigned(ctx context.Context, msg brokerdto.RideAssigned) error
	Consume(ctx context.Context, queue string) (<-chan amqp.Delivery, error)
	Close() error
}

type INotifyDispatcher interface {
	// Broadcast pushes an event to every connected driver.
	Broadcast(event wsdto.Event)
	// WriteToUser pushes an event to one connected user, dropping it
	// silently when that user has no open connection.
	WriteToUser(userId int64, event wsdto.Event)
}
