package kafka_test

import (
	"context"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/leonia/pkg/eventstream"
	"github.com/papercomputeco/leonia/pkg/eventstream/kafka"
	"github.com/papercomputeco/leonia/pkg/merkle"
)

type fakeWriter struct {
	messages []kafkago.Message
	err      error
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

var _ = Describe("Publisher", func() {
	var (
		ctx    context.Context
		writer *fakeWriter
		pub    *kafka.Publisher
		event  *eventstream.TurnPersistedEvent
	)

	BeforeEach(func() {
		ctx = context.Background()
		writer = &fakeWriter{}

		var err error
		pub, err = kafka.NewPublisher(kafka.Config{Writer: writer})
		Expect(err).NotTo(HaveOccurred())

		event = eventstream.NewTurnPersistedEvent(merkle.NewNode(merkle.Bucket{
			Session: "session-42",
			Human:   "hi",
			Bot:     "hello",
		}, nil))
	})

	It("uses the default topic", func() {
		Expect(pub.Topic()).To(Equal(kafka.DefaultTopic))
	})

	It("writes the event as JSON keyed by session", func() {
		Expect(pub.PublishTurn(ctx, event)).To(Succeed())
		Expect(writer.messages).To(HaveLen(1))

		msg := writer.messages[0]
		Expect(string(msg.Key)).To(Equal("session-42"))
		Expect(msg.Headers).To(ContainElement(kafkago.Header{Key: "event_type", Value: []byte(eventstream.EventTypeTurnPersisted)}))

		var got eventstream.TurnPersistedEvent
		Expect(json.Unmarshal(msg.Value, &got)).To(Succeed())
		Expect(got.EventID).To(Equal(event.EventID))
		Expect(got.Turn.Bot).To(Equal("hello"))
	})

	It("rejects nil events", func() {
		Expect(pub.PublishTurn(ctx, nil)).To(MatchError(eventstream.ErrNilTurnEvent))
		Expect(writer.messages).To(BeEmpty())
	})

	It("wraps writer failures", func() {
		writer.err = errors.New("leader not available")
		err := pub.PublishTurn(ctx, event)
		Expect(err).To(MatchError(ContainSubstring("leader not available")))
		Expect(err).To(MatchError(ContainSubstring(kafka.DefaultTopic)))
	})

	It("closes the writer", func() {
		Expect(pub.Close()).To(Succeed())
		Expect(writer.closed).To(BeTrue())
	})

	It("requires brokers without a writer", func() {
		_, err := kafka.NewPublisher(kafka.Config{Topic: "turns"})
		Expect(err).To(HaveOccurred())
	})

	It("builds a kafka-go writer from brokers", func() {
		p, err := kafka.NewPublisher(kafka.Config{Brokers: []string{"localhost:9092"}, Topic: "turns"})
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Topic()).To(Equal("turns"))
		Expect(p.Close()).To(Succeed())
	})
})
