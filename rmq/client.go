package rmq

import (
	"text2phenotype.com/ner/logger"
	"fmt"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

type Config struct {
	Host                    string `envconfig:"MDL_COMN_RMQ_HOST" required:"true"`
	Port                    int    `envconfig:"MDL_COMN_RMQ_PORT" required:"true"`
	Username                string `envconfig:"MDL_COMN_RMQ_USERNAME" required:"true"`
	Password                string `envconfig:"MDL_COMN_RMQ_PASSWORD" required:"true"`
	Exchange                string `envconfig:"MDL_COMN_RMQ_DEFAULT_EXCHANGE" default:"text2phenotype-default-exchange"`
	MaxParallelRequestCount int    `envconfig:"NER_TAGGER_MQ_MAX_PARALLEL_REQUESTS" default:"5"`
	TaggerTaskQueue         string `envconfig:"MDL_COMN_NER_TAGGER_TASK_QUEUE" required:"true"`
	SequencerTaskQueue      string `envconfig:"MDL_COMN_SEQUENCER_TASK_QUEUE" required:"true"`
}

func (config Config) URL() string {
	return amqp.URI{
		Scheme:   "amqp",
		Host:     config.Host,
		Port:     config.Port,
		Username: config.Username,
		Password: config.Password,
		Vhost:    "/",
	}.String()
}

// Client consumes tagging tasks on one connection and publishes sequencer messages on
// another one, so a blocked publisher never stalls consumption.
type Client struct {
	Deliveries     <-chan amqp.Delivery
	ReqChanErrors  <-chan *amqp.Error
	RespChanErrors <-chan *amqp.Error

	config    Config
	consumer  *amqp.Connection
	publisher *amqp.Connection
	channel   *amqp.Channel
	rmqLogger zerolog.Logger
}

func NewClient() (*Client, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to read rmq environment: %w", err)
	}
	return Dial(config)
}

func Dial(config Config) (*Client, error) {
	client := &Client{
		config:    config,
		rmqLogger: logger.NewLogger("RMQ client").With().Str("queue", config.TaggerTaskQueue).Logger(),
	}

	var consumeChannel *amqp.Channel
	var err error
	if client.publisher, client.channel, err = open(config.URL()); err != nil {
		return nil, fmt.Errorf("failed to open publisher connection: %w", err)
	}
	if client.consumer, consumeChannel, err = open(config.URL()); err != nil {
		_ = client.publisher.Close()
		return nil, fmt.Errorf("failed to open consumer connection: %w", err)
	}
	if client.Deliveries, err = client.consume(consumeChannel); err != nil {
		client.Close()
		return nil, err
	}
	client.ReqChanErrors = consumeChannel.NotifyClose(make(chan *amqp.Error, 1))
	client.RespChanErrors = client.channel.NotifyClose(make(chan *amqp.Error, 1))

	client.rmqLogger.Info().
		Int("prefetch", config.MaxParallelRequestCount).
		Msg("Consuming tagging tasks")
	return client, nil
}

func (c *Client) consume(channel *amqp.Channel) (<-chan amqp.Delivery, error) {
	queue := c.config.TaggerTaskQueue
	if _, err := channel.QueueDeclarePassive(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("queue %s: %w", queue, err)
	}
	if err := channel.QueueBind(queue, queue, c.config.Exchange, false, nil); err != nil {
		return nil, fmt.Errorf("bind %s to %s: %w", queue, c.config.Exchange, err)
	}
	// at most MaxParallelRequestCount unacknowledged chunks are tagged at once
	if err := channel.Qos(c.config.MaxParallelRequestCount, 0, false); err != nil {
		return nil, fmt.Errorf("qos: %w", err)
	}
	deliveries, err := channel.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", queue, err)
	}
	return deliveries, nil
}

// PublishToSequencer hands a processed task back to the sequencer queue.
func (c *Client) PublishToSequencer(contentType string, body []byte) error {
	return c.channel.Publish(c.config.Exchange, c.config.SequencerTaskQueue, false, false,
		amqp.Publishing{
			ContentType: contentType,
			Body:        body,
		})
}

func (c *Client) Close() {
	c.rmqLogger.Info().Msg("Closing RMQ connections")
	if c.consumer != nil {
		_ = c.consumer.Close()
	}
	_ = c.publisher.Close()
}

func open(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}
	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, channel, nil
}
