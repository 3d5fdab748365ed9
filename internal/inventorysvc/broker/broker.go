package broker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/avvvet/pokecard-services/internal/comm"
	"github.com/avvvet/pokecard-services/internal/inventorysvc/models"
	"github.com/avvvet/pokecard-services/internal/inventorysvc/service"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// Refresher is the part of the price update service driven by NATS requests.
type Refresher interface {
	EnqueueCards(ctx context.Context, cardIDs []string) (int, error)
	EnqueueTier(ctx context.Context, tier service.Tier, limit int) (int, error)
	ProcessQueue(ctx context.Context, maxBursts int) (*models.PriceRun, error)
}

type Broker struct {
	Conn   *nats.Conn
	Source string

	ctx    context.Context
	prices Refresher
}

// NewBroker publishes events as source. Work started from NATS requests
// runs under ctx and stops with it.
func NewBroker(ctx context.Context, nc *nats.Conn, source string) *Broker {
	return &Broker{Conn: nc, Source: source, ctx: ctx}
}

// PublishEvent wraps data in a comm.Event and publishes it on the events
// subject. Failures are logged; a lost progress event never fails the work
// that produced it.
func (b *Broker) PublishEvent(eventType string, data any) {
	payload, err := encodeEvent(eventType, b.Source, data, time.Now())
	if err != nil {
		log.Errorf("[PublishEvent] unable to marshal %s event: %s", eventType, err)
		return
	}
	b.Publish(comm.SubjectEvents, payload)
}

func encodeEvent(eventType, source string, data any, at time.Time) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(comm.Event{Type: eventType, Data: raw, Source: source, At: at.UTC()})
}

// handles price refresh requests coming from other services
func (b *Broker) handleRefresh(msg *nats.Msg) {
	req := comm.PriceRefreshRequest{}
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		log.Errorf("Error decoding price refresh request: %s", err)
		return
	}
	b.refresh(req)
}

func (b *Broker) refresh(req comm.PriceRefreshRequest) {
	ctx, cancel := context.WithTimeout(b.ctx, 30*time.Second)
	defer cancel()

	var (
		added int
		err   error
	)
	if len(req.CardIDs) > 0 {
		added, err = b.prices.EnqueueCards(ctx, req.CardIDs)
	} else {
		tier, perr := service.ParseTier(req.Tier)
		if perr != nil {
			log.Errorf("Error price refresh request: %s", perr)
			return
		}
		added, err = b.prices.EnqueueTier(ctx, tier, req.Limit)
	}
	if err != nil {
		log.Errorf("Error [PriceUpdateService] enqueue from nats: %s", err)
		return
	}

	log.Infof("price refresh request queued %d card(s)", added)
	if added == 0 {
		return
	}

	go func() {
		_, err := b.prices.ProcessQueue(b.ctx, 0)
		if err != nil && !errors.Is(err, service.ErrQueueBusy) && !errors.Is(err, context.Canceled) {
			log.Errorf("Error [PriceUpdateService.ProcessQueue] %s", err)
		}
	}()
}

// consume price refresh requests; one inventorysvc instance per request
func (b *Broker) QueueSubscribePriceRefresh(queueGroup string, prices Refresher) (*nats.Subscription, error) {
	b.prices = prices
	return b.Conn.QueueSubscribe(comm.SubjectPriceRefresh, queueGroup, b.handleRefresh)
}

// RequestPriceRefresh asks whichever inventorysvc instance is listening to
// queue a refresh.
func (b *Broker) RequestPriceRefresh(req comm.PriceRefreshRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return b.Publish(comm.SubjectPriceRefresh, payload)
}

func (b *Broker) Publish(topic string, payload []byte) error {
	if b.Conn == nil {
		return nil
	}
	err := b.Conn.Publish(topic, payload)
	if err != nil {
		log.Errorf("Error publishing to topic %s: %s", topic, err)
		return err
	}

	return nil
}
