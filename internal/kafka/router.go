package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// HandlerFunc processes one integration event. Returning nil acknowledges the
// message; returning an error leaves the offset uncommitted so the bus
// redelivers. Handlers must therefore treat domain-level dead ends (terminal
// aggregate, illegal transition on replay) as success.
type HandlerFunc func(ctx context.Context, msg kafka.Message) error

// Router runs one consumer-group reader per subscribed topic and fans
// messages into the registered handlers. Delivery is at-least-once; there is
// no ordering guarantee across topics.
type Router struct {
	brokers  []string
	groupID  string
	logger   *zap.Logger
	handlers map[string]HandlerFunc
}

func NewRouter(brokers []string, groupID string, logger *zap.Logger) *Router {
	return &Router{
		brokers:  brokers,
		groupID:  groupID,
		logger:   logger,
		handlers: make(map[string]HandlerFunc),
	}
}

func (r *Router) Handle(topic string, handler HandlerFunc) {
	r.handlers[topic] = handler
}

func (r *Router) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for topic, handler := range r.handlers {
		g.Go(func() error {
			return r.consume(ctx, topic, handler)
		})
	}
	return g.Wait()
}

func (r *Router) consume(ctx context.Context, topic string, handler HandlerFunc) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        r.brokers,
		GroupID:        r.groupID,
		Topic:          topic,
		MinBytes:       10e3,
		MaxBytes:       10e6,
		CommitInterval: 0, // commit explicitly, only after the handler succeeds
		MaxWait:        3 * time.Second,
	})
	defer func() {
		if err := reader.Close(); err != nil {
			r.logger.Error("failed to close kafka reader", zap.String("topic", topic), zap.Error(err))
		}
	}()

	l := r.logger.With(zap.String("topic", topic), zap.String("group", r.groupID))
	l.Info("consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.Info("consumer stopping")
				return nil
			}
			l.Error("failed to fetch message", zap.Error(err))
			time.Sleep(5 * time.Second)
			continue
		}

		if err := handler(ctx, msg); err != nil {
			// Offset stays uncommitted: the bus will redeliver. The
			// idempotent dispatcher makes the retry safe.
			l.Error("handler failed, message will be redelivered",
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			time.Sleep(time.Second)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			l.Error("failed to commit offset", zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}
