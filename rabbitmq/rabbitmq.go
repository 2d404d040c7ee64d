package rabbitmq

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/staglieno/soulhub/db/models"
	"github.com/ziflex/lecho/v3"
)

const (
	defaultHeartbeat = 10 * time.Second
	defaultLocale    = "en_US"

	contentTypeJSON = "application/json"
)

// Client publishes settled souls to an exchange. Reconnects are
// handled internally with exponential backoff.
type Client interface {
	StartPublishSouls(ctx context.Context, subscribe SoulSubscribeFunc) error
	PublishSoul(soul models.Soul) error
	Close() error
}

type SoulSubscribeFunc = func(ctx context.Context) (<-chan models.Soul, func(), error)

type DefaultClient struct {
	uri      string
	exchange string
	logger   *lecho.Logger

	conn    *amqp.Connection
	channel *amqp.Channel
}

type ClientOption = func(client *DefaultClient)

func WithLogger(logger *lecho.Logger) ClientOption {
	return func(client *DefaultClient) {
		client.logger = logger
	}
}

func WithSoulExchange(exchange string) ClientOption {
	return func(client *DefaultClient) {
		client.exchange = exchange
	}
}

func Dial(uri string, options ...ClientOption) (*DefaultClient, error) {
	client := &DefaultClient{
		uri:      uri,
		exchange: "soulhub_soul",
	}
	for _, opt := range options {
		opt(client)
	}

	err := client.connect()
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (client *DefaultClient) connect() error {
	conn, err := amqp.DialConfig(client.uri, amqp.Config{
		Heartbeat: defaultHeartbeat,
		Locale:    defaultLocale,
	})
	if err != nil {
		return err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}

	err = channel.ExchangeDeclare(
		client.exchange,
		// topic exchange so consumers can filter on tier
		"topic",
		// durable
		true,
		// auto-deleted
		false,
		// internal
		false,
		// no-wait
		false,
		// arguments
		nil,
	)
	if err != nil {
		conn.Close()
		return err
	}

	client.conn = conn
	client.channel = channel
	return nil
}

func (client *DefaultClient) reconnect() error {
	op := func() error {
		if client.conn != nil && !client.conn.IsClosed() {
			return nil
		}
		return client.connect()
	}
	return backoff.Retry(op, backoff.NewExponentialBackOff())
}

func (client *DefaultClient) Close() error {
	if client.conn == nil {
		return nil
	}
	return client.conn.Close()
}

// StartPublishSouls pumps every settled soul from the subscription
// into the exchange until the context is done.
func (client *DefaultClient) StartPublishSouls(ctx context.Context, subscribe SoulSubscribeFunc) error {
	souls, unsub, err := subscribe(ctx)
	if err != nil {
		return err
	}
	defer unsub()

	for {
		select {
		case <-ctx.Done():
			return context.Canceled
		case soul := <-souls:
			err := client.PublishSoul(soul)
			if err != nil {
				if client.logger != nil {
					client.logger.Errorf("Error publishing soul id:%s error: %v", soul.ID, err)
				}
			}
		}
	}
}

func (client *DefaultClient) PublishSoul(soul models.Soul) error {
	if err := client.reconnect(); err != nil {
		return err
	}

	payload, err := json.Marshal(soul)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	key := "soul.settled." + soul.Tier
	err = client.channel.PublishWithContext(ctx,
		client.exchange,
		key,
		// mandatory
		false,
		// immediate
		false,
		amqp.Publishing{
			ContentType: contentTypeJSON,
			Body:        payload,
		},
	)
	if err == nil && client.logger != nil {
		client.logger.Debugf("Published soul id:%s key:%s", soul.ID, key)
	}
	return err
}
