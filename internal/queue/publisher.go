package queue

import (
    "context"
    "encoding/json"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

// Publisher sends events to RabbitMQ.  Each call dials a short-lived
// connection, so the broker being down only affects the call in flight.
type Publisher struct {
    URL string
    Log *zap.Logger
}

func NewPublisher(url string, log *zap.Logger) *Publisher {
    return &Publisher{URL: url, Log: log}
}

// Publish declares the events queue and publishes ev as a persistent JSON
// message.  Errors are logged and returned so the caller can ignore them
// without interrupting the request.
func (p *Publisher) Publish(ctx context.Context, ev Event) error {
    conn, err := amqp.Dial(p.URL)
    if err != nil {
        p.Log.Warn("rabbitmq dial failed", zap.Error(err))
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        p.Log.Warn("rabbitmq channel open failed", zap.Error(err))
        return err
    }
    defer func() { _ = ch.Close() }()

    // Idempotent; durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
        p.Log.Warn("rabbitmq queue declare failed", zap.Error(err))
        return err
    }

    body, err := json.Marshal(ev)
    if err != nil {
        return err
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Type:         ev.Type,
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", QueueName, false, false, pub); err != nil {
        p.Log.Warn("rabbitmq publish failed", zap.String("type", ev.Type), zap.Error(err))
        return err
    }
    return nil
}

// Discard drops every event.  It stands in when no broker is configured.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
