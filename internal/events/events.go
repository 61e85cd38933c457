package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/twmb/franz-go/pkg/kgo"

	"storefront/admin/internal/auth"
	"storefront/admin/internal/metrics"
)

const (
	OrderStatusChanged  = "order.status_changed"
	InventoryCreated    = "inventory.created"
	InventoryUpdated    = "inventory.updated"
	UserCreated         = "user.created"
	UserDeleted         = "user.deleted"
	UserBanned          = "user.banned"
	UserUnbanned        = "user.unbanned"
	UserWarned          = "user.warned"
	UserRoleChanged     = "user.role_changed"
	ProductCreated      = "product.created"
	ProductUpdated      = "product.updated"
	ProductDeleted      = "product.deleted"
	ProductToggled      = "product.active_toggled"
	ProductImageAdded   = "product.image_uploaded"
	ProductImageRemoved = "product.image_deleted"
	ReviewDeleted       = "review.deleted"
)

const publishTimeout = 5 * time.Second

// Event records one confirmed admin action.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	ActorID   int64       `json:"actorId"`
	ActorRole auth.Role   `json:"actorRole"`
	Entity    string      `json:"entity"`
	EntityID  int64       `json:"entityId"`
	Data      interface{} `json:"data,omitempty"`
	At        time.Time   `json:"at"`
}

func New(eventType string, actor *auth.Principal, entity string, entityID int64, data interface{}) Event {
	ev := Event{
		ID:       uuid.NewString(),
		Type:     eventType,
		Entity:   entity,
		EntityID: entityID,
		Data:     data,
		At:       time.Now().UTC(),
	}
	if actor != nil {
		ev.ActorID = actor.ID
		ev.ActorRole = actor.Role
	}
	return ev
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close()
}

type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() {}

// Kafka publishes events as JSON records keyed by entity id.
type Kafka struct {
	client *kgo.Client
}

func NewKafka(ctx context.Context, brokers []string, topic string) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("kafka ping: %w", err)
	}
	return &Kafka{client: client}, nil
}

func (k *Kafka) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	record := &kgo.Record{
		Key:   []byte(ev.Entity + ":" + strconv.FormatInt(ev.EntityID, 10)),
		Value: data,
		Headers: []kgo.RecordHeader{
			{Key: "type", Value: []byte(ev.Type)},
		},
	}
	return k.client.ProduceSync(ctx, record).FirstErr()
}

func (k *Kafka) Close() {
	k.client.Close()
}

// Emitter publishes events on behalf of handlers. Failures are logged and
// counted; the operator's action has already succeeded.
type Emitter struct {
	pub     Publisher
	metrics *metrics.Metrics
	log     logrus.FieldLogger
}

func NewEmitter(pub Publisher, m *metrics.Metrics, log logrus.FieldLogger) *Emitter {
	if pub == nil {
		pub = Noop{}
	}
	return &Emitter{pub: pub, metrics: m, log: log}
}

func (e *Emitter) Emit(ctx context.Context, ev Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	err := e.pub.Publish(ctx, ev)
	e.metrics.EventsPublished.WithLabelValues(ev.Type, metrics.Result(err)).Inc()
	if err != nil {
		e.log.WithError(err).WithFields(logrus.Fields{
			"event_type": ev.Type,
			"entity":     ev.Entity,
			"entity_id":  ev.EntityID,
		}).Warn("admin event not published")
	}
}

func (e *Emitter) Close() {
	e.pub.Close()
}
