package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	publishTimeout   = 5 * time.Second
	consumerTag      = "lead-intake"
	reconnectInitial = time.Second
	reconnectMax     = 30 * time.Second
)

type amqpQueue struct {
	url     string
	name    string
	workers int

	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	lost     chan *amqp.Error
	closing  bool
	ctx      context.Context
	handler  Handler
	done     chan struct{}
	watching sync.WaitGroup
	wg       sync.WaitGroup
}

// NewAMQPQueue connects to RabbitMQ and declares a durable queue
func NewAMQPQueue(url, name string, workers int) (Queue, error) {
	if workers < 1 {
		workers = 1
	}
	q := &amqpQueue{
		url:     url,
		name:    name,
		workers: workers,
		done:    make(chan struct{}),
	}
	if err := q.connect(); err != nil {
		return nil, err
	}
	return q, nil
}

// connect dials the broker and replaces the current connection and channel
func (q *amqpQueue) connect() error {
	conn, err := amqp.Dial(q.url)
	if err != nil {
		return fmt.Errorf("rabbit dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("channel: %w", err)
	}
	if _, err := ch.QueueDeclare(q.name, true, false, false, false, nil); err != nil {
		conn.Close()
		return fmt.Errorf("queue declare: %w", err)
	}
	if err := ch.Qos(q.workers, 0, false); err != nil {
		conn.Close()
		return fmt.Errorf("qos: %w", err)
	}

	q.mu.Lock()
	q.conn = conn
	q.ch = ch
	q.lost = conn.NotifyClose(make(chan *amqp.Error, 1))
	q.mu.Unlock()
	return nil
}

func (q *amqpQueue) Enqueue(ctx context.Context, job Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("error encoding job: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	// amqp channels are not safe for concurrent publishing
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closing {
		return ErrClosed
	}
	if q.ch == nil || q.ch.IsClosed() {
		return ErrUnavailable
	}
	err = q.ch.PublishWithContext(ctx, "", q.name, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID,
		Timestamp:    job.EnqueuedAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Start consumes deliveries and keeps consuming across broker reconnects
func (q *amqpQueue) Start(ctx context.Context, handler Handler) error {
	q.mu.Lock()
	q.ctx = ctx
	q.handler = handler
	q.mu.Unlock()

	if err := q.consume(); err != nil {
		return err
	}
	q.watching.Add(1)
	go q.watch()
	return nil
}

func (q *amqpQueue) consume() error {
	q.mu.Lock()
	ch, ctx, handler := q.ch, q.ctx, q.handler
	q.mu.Unlock()

	msgs, err := ch.Consume(q.name, consumerTag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			processDeliveries(ctx, msgs, handler)
		}()
	}
	return nil
}

// watch reconnects with exponential backoff whenever the broker drops the connection
func (q *amqpQueue) watch() {
	defer q.watching.Done()
	for {
		q.mu.Lock()
		lost := q.lost
		q.mu.Unlock()

		select {
		case <-q.done:
			return
		case err := <-lost:
			if q.isClosing() {
				return
			}
			log.Printf("[queue] BROKER CONNECTION LOST: %v; notifications paused until reconnect", err)
		}

		backoff := reconnectInitial
		for {
			select {
			case <-q.done:
				return
			case <-time.After(backoff):
			}
			if err := q.connect(); err != nil {
				log.Printf("[queue] reconnect failed: %v (retrying in %s)", err, backoff)
				if backoff *= 2; backoff > reconnectMax {
					backoff = reconnectMax
				}
				continue
			}
			if err := q.consume(); err != nil {
				log.Printf("[queue] resume consuming failed: %v", err)
				q.mu.Lock()
				q.conn.Close()
				q.mu.Unlock()
				continue
			}
			log.Printf("[queue] reconnected to broker, consuming %s", q.name)
			break
		}
	}
}

func (q *amqpQueue) isClosing() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closing
}

// Healthy reports whether the broker connection is currently usable
func (q *amqpQueue) Healthy() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return !q.closing && q.ch != nil && !q.ch.IsClosed()
}

// Close cancels the consumer, lets in-flight handlers finish and ack, then
// closes the channel and connection.
func (q *amqpQueue) Close() error {
	q.mu.Lock()
	if q.closing {
		q.mu.Unlock()
		return nil
	}
	q.closing = true
	close(q.done)
	q.mu.Unlock()

	q.watching.Wait()

	q.mu.Lock()
	ch, conn := q.ch, q.conn
	q.mu.Unlock()
	if ch != nil && !ch.IsClosed() {
		if err := ch.Cancel(consumerTag, false); err != nil {
			log.Printf("[queue] cancel consumer: %v", err)
		}
	}
	q.wg.Wait()

	var chErr error
	if ch != nil && !ch.IsClosed() {
		chErr = ch.Close()
	}
	if conn != nil && !conn.IsClosed() {
		if err := conn.Close(); err != nil {
			return err
		}
	}
	return chErr
}

// processDeliveries decodes and runs each delivery, acking it whatever the outcome.
// Malformed bodies are acked and dropped.
func processDeliveries(ctx context.Context, msgs <-chan amqp.Delivery, handler Handler) {
	for d := range msgs {
		var job Job
		if err := json.Unmarshal(d.Body, &job); err != nil {
			log.Printf("[queue] dropping malformed delivery %s: %v", d.MessageId, err)
			if err := d.Ack(false); err != nil {
				log.Printf("[queue] ack %s: %v", d.MessageId, err)
			}
			continue
		}
		run(ctx, handler, job)
		if err := d.Ack(false); err != nil {
			log.Printf("[queue] ack job %s: %v", job.ID, err)
		}
	}
}
