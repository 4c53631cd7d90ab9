package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

type captureSink struct {
	events []Event
	err    error
}

func (s *captureSink) Publish(_ context.Context, event Event) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

type failingStore struct{}

func (failingStore) Append(context.Context, Event) error {
	return errors.New("disk full")
}

func (failingStore) ListByApplicant(context.Context, string) ([]Event, error) {
	return nil, nil
}

type PublisherSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func TestPublisherSuite(t *testing.T) {
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func (s *PublisherSuite) TestEmitFillsIDAndTimestamp() {
	p := NewPublisher(s.store)

	err := p.Emit(s.ctx, Event{
		Action:          ActionAssessmentCompleted,
		ApplicantIDHash: "abcd1234",
	})
	s.Require().NoError(err)

	events, err := s.store.ListByApplicant(s.ctx, "abcd1234")
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.NotEmpty(events[0].ID)
	s.False(events[0].Timestamp.IsZero())
}

func (s *PublisherSuite) TestEmitPreservesProvidedTimestamp() {
	p := NewPublisher(s.store)

	err := p.Emit(s.ctx, Event{
		ID:              "evt-1",
		Action:          ActionAssessmentCompleted,
		ApplicantIDHash: "abcd1234",
	})
	s.Require().NoError(err)

	events, _ := s.store.ListByApplicant(s.ctx, "abcd1234")
	s.Require().Len(events, 1)
	s.Equal("evt-1", events[0].ID)
}

func (s *PublisherSuite) TestEmitFansOutToSinks() {
	sink := &captureSink{}
	p := NewPublisher(s.store, WithSink(sink))

	err := p.Emit(s.ctx, Event{Action: ActionAssessmentCompleted, ApplicantIDHash: "h1"})
	s.Require().NoError(err)
	s.Require().Len(sink.events, 1)
	s.Equal("h1", sink.events[0].ApplicantIDHash)
}

func (s *PublisherSuite) TestSinkFailureDoesNotPropagate() {
	sink := &captureSink{err: errors.New("broker down")}
	p := NewPublisher(s.store, WithSink(sink))

	err := p.Emit(s.ctx, Event{Action: ActionAssessmentCompleted, ApplicantIDHash: "h1"})
	s.Require().NoError(err)

	// The store still has the event; the store is the source of truth.
	events, _ := s.store.ListByApplicant(s.ctx, "h1")
	s.Len(events, 1)
}

func (s *PublisherSuite) TestStoreFailurePropagates() {
	p := NewPublisher(failingStore{})

	err := p.Emit(s.ctx, Event{Action: ActionAssessmentCompleted})
	s.Require().Error(err)
}

func (s *PublisherSuite) TestListRecent() {
	p := NewPublisher(s.store)
	for _, hash := range []string{"h1", "h2", "h3"} {
		s.Require().NoError(p.Emit(s.ctx, Event{Action: ActionAssessmentCompleted, ApplicantIDHash: hash}))
	}

	recent, err := s.store.ListRecent(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(recent, 2)
	s.Equal("h2", recent[0].ApplicantIDHash)
	s.Equal("h3", recent[1].ApplicantIDHash)
}
