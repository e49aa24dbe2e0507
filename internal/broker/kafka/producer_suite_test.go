package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BearBump/PickupBox/internal/broker/messages"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const eventsTopic = "pickup.events"

type writerMock struct {
	mock.Mock
}

func (m *writerMock) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

type ProducerSuite struct {
	suite.Suite
	wm *writerMock
	p  *Producer
}

func (s *ProducerSuite) SetupTest() {
	s.wm = &writerMock{}
	s.p = newProducerWithWriter(s.wm)
}

func (s *ProducerSuite) scheduledEvent() []byte {
	b, err := (&messages.PickupEvent{
		EventID:     "e-1",
		Type:        messages.TypePickupScheduled,
		OccurredAt:  time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC),
		OwnerKey:    "12345678Z",
		PointID:     "pt-1",
		ContainerID: "c-1",
		PickupID:    "p-1",
		Day:         "2024-05-08",
		Cadence:     "3 por semana",
	}).Marshal()
	s.Require().NoError(err)
	return b
}

func (s *ProducerSuite) TestPublish_PickupScheduled() {
	var sent []kafka.Message
	s.wm.On("WriteMessages", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).([]kafka.Message) }).
		Return(nil).
		Once()

	s.Require().NoError(s.p.Publish(context.Background(), eventsTopic, []byte("12345678Z"), s.scheduledEvent()))
	s.wm.AssertExpectations(s.T())

	s.Require().Len(sent, 1)
	s.Require().Equal(eventsTopic, sent[0].Topic)
	s.Require().Equal("12345678Z", string(sent[0].Key))

	ev, err := messages.UnmarshalPickupEvent(sent[0].Value)
	s.Require().NoError(err)
	s.Require().Equal(messages.TypePickupScheduled, ev.Type)
	s.Require().Equal("c-1", ev.ContainerID)
	s.Require().Equal("2024-05-08", ev.Day)
	s.Require().Equal("3 por semana", ev.Cadence)
}

func (s *ProducerSuite) TestPublish_SameOwnerSameKey() {
	keys := map[string]int{}
	s.wm.On("WriteMessages", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			for _, m := range args.Get(1).([]kafka.Message) {
				keys[string(m.Key)]++
			}
		}).
		Return(nil).
		Twice()

	ev := s.scheduledEvent()
	s.Require().NoError(s.p.Publish(context.Background(), eventsTopic, []byte("12345678Z"), ev))
	s.Require().NoError(s.p.Publish(context.Background(), eventsTopic, []byte("12345678Z"), ev))
	s.Require().Equal(map[string]int{"12345678Z": 2}, keys)
}

func (s *ProducerSuite) TestPublish_BrokerErrorWrapped() {
	want := errors.New("leader not available")
	s.wm.On("WriteMessages", mock.Anything, mock.Anything).Return(want).Once()

	err := s.p.Publish(context.Background(), eventsTopic, []byte("12345678Z"), s.scheduledEvent())
	s.Require().ErrorIs(err, want)
	s.Require().Contains(err.Error(), "kafka publish")
	s.wm.AssertExpectations(s.T())
}

func (s *ProducerSuite) TestClose() {
	s.Require().NoError(s.p.Close())

	p := NewProducer([]string{"localhost:0"})
	s.Require().NotNil(p)
	s.Require().NoError(p.Close())
}

func TestProducerSuite(t *testing.T) {
	suite.Run(t, new(ProducerSuite))
}
