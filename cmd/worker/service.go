package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/workoutbrothers/storefront-backend/pkg/logger"
)

const (
	heartbeatInterval = 30 * time.Second
	pingTimeout       = 5 * time.Second
)

type pinger interface {
	Ping(context.Context) error
}

type subscriptionSource interface {
	pinger
	NotificationSubscription() *pubsub.Subscriber
}

type subscriptionConsumer interface {
	Run(ctx context.Context, subscription *pubsub.Subscriber) error
}

// dependency is something the worker must reach before it starts consuming.
type dependency struct {
	name string
	ping pinger
}

type ServiceParams struct {
	Logger   *logger.Logger
	DB       pinger
	Redis    pinger
	PubSub   subscriptionSource
	Consumer subscriptionConsumer
}

// Service runs the notification consumer once every dependency answers.
type Service struct {
	logg     *logger.Logger
	deps     []dependency
	source   subscriptionSource
	consumer subscriptionConsumer
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger is required")
	case params.DB == nil:
		return nil, errors.New("database client is required")
	case params.Redis == nil:
		return nil, errors.New("redis client is required")
	case params.PubSub == nil:
		return nil, errors.New("pubsub client is required")
	case params.Consumer == nil:
		return nil, errors.New("notification consumer is required")
	}
	return &Service{
		logg: params.Logger,
		deps: []dependency{
			{name: "database", ping: params.DB},
			{name: "redis", ping: params.Redis},
			{name: "pubsub", ping: params.PubSub},
		},
		source:   params.PubSub,
		consumer: params.Consumer,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	for _, dep := range s.deps {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := dep.ping.Ping(pingCtx)
		cancel()
		if err != nil {
			s.logg.Error(s.logg.WithField(ctx, "dependency", dep.name), "dependency ping failed", err)
			return fmt.Errorf("%s ping failed: %w", dep.name, err)
		}
	}
	s.logg.Info(ctx, "worker dependencies ready")
	return nil
}

// Run blocks until ctx is canceled or the consumer stops on its own.
func (s *Service) Run(ctx context.Context) error {
	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- s.consumer.Run(ctx, s.source.NotificationSubscription())
	}()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "worker context canceled")
			return ctx.Err()
		case err := <-done:
			if err != nil && !errors.Is(err, context.Canceled) {
				s.logg.Error(ctx, "notification consumer stopped", err)
			}
			return err
		case <-heartbeat.C:
			s.logg.Debug(ctx, "worker heartbeat")
		}
	}
}
