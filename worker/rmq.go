package worker

import (
	"text2phenotype.com/ner/rmq"
	"encoding/json"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

type rmqTransactions interface {
	pingSequencer(task *Task, message Message) error
	acknowledgeDelivery(delivery *amqp.Delivery) error
	rejectDelivery(delivery *amqp.Delivery, deliveryLogger *zerolog.Logger)
	getDeliveriesCh() <-chan amqp.Delivery
	getReqChanErrorsCh() <-chan *amqp.Error
	getRespChanErrorsCh() <-chan *amqp.Error
	close()
}

type rmqClientWrapper struct {
	client *rmq.Client
}

func (wrapper *rmqClientWrapper) getDeliveriesCh() <-chan amqp.Delivery {
	return wrapper.client.Deliveries
}

func (wrapper *rmqClientWrapper) getReqChanErrorsCh() <-chan *amqp.Error {
	return wrapper.client.ReqChanErrors
}

func (wrapper *rmqClientWrapper) getRespChanErrorsCh() <-chan *amqp.Error {
	return wrapper.client.RespChanErrors
}

// pingSequencer echoes the task message back, signed by the tagger.
func (wrapper *rmqClientWrapper) pingSequencer(task *Task, message Message) error {
	message.Sender = TaskName
	body, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return wrapper.client.PublishToSequencer(task.delivery.ContentType, body)
}

func (wrapper *rmqClientWrapper) acknowledgeDelivery(delivery *amqp.Delivery) error {
	return delivery.Ack(false)
}

// rejectDelivery requeues a delivery once and drops it the second time.
func (wrapper *rmqClientWrapper) rejectDelivery(delivery *amqp.Delivery, deliveryLogger *zerolog.Logger) {
	requeue := !delivery.Redelivered
	deliveryLogger.Info().Bool("requeue", requeue).Msg("Rejecting delivery")
	if err := delivery.Reject(requeue); err != nil {
		deliveryLogger.Err(err).Bool("requeue", requeue).Msg("Failed to reject delivery")
	}
}

func (wrapper *rmqClientWrapper) close() {
	wrapper.client.Close()
}
