package realtime

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Sink mirrors emitted events (the JSON envelope) to an external broker.
type Sink interface {
	Name() string
	Publish(event string, body []byte) error
	Close()
}

const subjectPrefix = "smartbus"

// NATSSink publishes each event on smartbus.<event>.
type NATSSink struct {
	nc *nats.Conn
}

func NewNATSSink(url string) (*NATSSink, error) {
	nc, err := nats.Connect(url,
		nats.Name("smartbus"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("[NATS] disconnected error=%v", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Printf("[NATS] reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NATSSink{nc: nc}, nil
}

func (s *NATSSink) Name() string { return "nats" }

func (s *NATSSink) Publish(event string, body []byte) error {
	return s.nc.Publish(Subject(event), body)
}

func (s *NATSSink) Close() {
	if s.nc != nil {
		_ = s.nc.Drain()
		s.nc.Close()
	}
}

// Subject builds the NATS subject of an event.
func Subject(event string) string {
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	token := repl.Replace(strings.TrimSpace(event))
	if token == "" {
		token = "_"
	}
	return subjectPrefix + "." + token
}

const (
	exchangeName   = "smartbus"
	reconnectDelay = 5 * time.Second
	publishTimeout = 2 * time.Second
)

var (
	errAMQPNotReady = errors.New("amqp: not connected")
	errAMQPClosed   = errors.New("amqp: sink closed")
)

// AMQPSink publishes to the fanout exchange "smartbus" with the event name as
// routing key. It reconnects in the background; events emitted while
// disconnected are reported as errors and not retried.
type AMQPSink struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	ready   bool
	done    chan struct{}
}

func NewAMQPSink(url string) *AMQPSink {
	s := &AMQPSink{done: make(chan struct{})}
	go s.handleReconnect(url)
	return s
}

func (s *AMQPSink) Name() string { return "amqp" }

func (s *AMQPSink) handleReconnect(url string) {
	for {
		closed, err := s.connect(url)
		if errors.Is(err, errAMQPClosed) {
			return
		}
		if err != nil {
			log.Printf("[AMQP] connect failed error=%v, retrying in %s", err, reconnectDelay)
			select {
			case <-s.done:
				return
			case <-time.After(reconnectDelay):
			}
			continue
		}
		log.Printf("[AMQP] connected exchange=%s", exchangeName)

		select {
		case <-s.done:
			return
		case err := <-closed:
			log.Printf("[AMQP] connection closed error=%v, reconnecting", err)
			s.mu.Lock()
			s.ready = false
			s.mu.Unlock()
		}
	}
}

func (s *AMQPSink) connect(url string) (chan *amqp.Error, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchangeName, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, err
	}
	closed := make(chan *amqp.Error, 1)
	conn.NotifyClose(closed)

	if !s.adopt(conn, ch) {
		_ = conn.Close()
		return nil, errAMQPClosed
	}
	return closed, nil
}

// adopt installs a fresh connection unless Close ran while it was dialing.
func (s *AMQPSink) adopt(conn *amqp.Connection, ch *amqp.Channel) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
		return false
	default:
	}
	s.conn, s.channel, s.ready = conn, ch, true
	return true
}

func (s *AMQPSink) Publish(event string, body []byte) error {
	s.mu.Lock()
	ch, ready := s.channel, s.ready
	s.mu.Unlock()
	if !ready {
		return errAMQPNotReady
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	return ch.PublishWithContext(ctx, exchangeName, event, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Transient,
		Timestamp:    time.Now(),
		Type:         event,
		Body:         body,
	})
}

func (s *AMQPSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
		return
	default:
		close(s.done)
	}
	s.ready = false
	if s.channel != nil {
		_ = s.channel.Close()
	}
	if s.conn != nil {
		_ = s.conn.Close()
	}
}
