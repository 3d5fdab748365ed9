package broker

import (
	"encoding/json"

	"github.com/avvvet/pokecard-services/internal/comm"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

type Broker struct {
	Conn      *nats.Conn
	Broadcast func([]byte) int
}

func NewBroker(conn *nats.Conn, fncBroadcast func([]byte) int) *Broker {
	return &Broker{
		Conn:      conn,
		Broadcast: fncBroadcast,
	}
}

// consume inventory events; every socketsvc instance gets each one
func (b *Broker) Subscribe(topic string) (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(topic, b.handleMessages)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

func (b *Broker) handleMessages(msgNats *nats.Msg) {
	b.relay(msgNats.Data)
}

// relay forwards a well formed event to the dashboard sockets unchanged.
func (b *Broker) relay(data []byte) {
	event := comm.Event{}
	if err := json.Unmarshal(data, &event); err != nil {
		log.Errorf("Error decoding inventory event: %s", err)
		return
	}
	if event.Type == "" {
		log.Error("Unknown message")
		return
	}

	n := b.Broadcast(data)
	log.Debugf("relayed %s from %s to %d socket(s)", event.Type, event.Source, n)
}
