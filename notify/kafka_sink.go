// notify/kafka_sink.go

package notify

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const defaultPublishTimeout = 5 * time.Second

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes notifications as JSON to a topic so that UI clients
// subscribed to it can display them. Publishing happens in the background.
type KafkaSink struct {
	writer  messageWriter
	log     *logrus.Entry
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewKafkaSink creates a sink writing to topic on the given brokers.
func NewKafkaSink(brokers []string, topic string, log *logrus.Entry) *KafkaSink {
	return newKafkaSink(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}, log)
}

func newKafkaSink(w messageWriter, log *logrus.Entry) *KafkaSink {
	return &KafkaSink{writer: w, log: log, timeout: defaultPublishTimeout}
}

func (s *KafkaSink) Notify(n Notification) {
	msg, err := encodeMessage(n)
	if err != nil {
		s.log.WithError(err).Error("failed to encode notification")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.writer.WriteMessages(ctx, msg); err != nil {
			s.log.WithError(err).WithField("notification_id", n.ID.String()).Error("failed to publish notification")
		}
	}()
}

// Close waits for in-flight publishes and closes the writer.
func (s *KafkaSink) Close() error {
	s.wg.Wait()
	return s.writer.Close()
}

func encodeMessage(n Notification) (kafka.Message, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(strconv.Itoa(n.ProductID)),
		Value: data,
		Time:  n.Time,
	}, nil
}
