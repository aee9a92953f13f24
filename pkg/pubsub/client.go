package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/workoutbrothers/storefront-backend/pkg/config"
	"github.com/workoutbrothers/storefront-backend/pkg/logger"
)

// Resource names a Pub/Sub object a process depends on.
type Resource int

const (
	// NotificationTopic is required by processes that publish notification events.
	NotificationTopic Resource = iota
	// NotificationSubscription is required by processes that consume them.
	NotificationSubscription
)

const defaultCheckTimeout = 10 * time.Second

var errProjectIDRequired = errors.New("gcp project id is required")

// Client wraps the v2 client and remembers which resources the process needs.
type Client struct {
	client    *pubsub.Client
	projectID string
	cfg       config.PubSubConfig
	required  []Resource
}

// NewClient connects to Pub/Sub and verifies every required resource exists.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger, required ...Resource) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}

	raw, err := pubsub.NewClient(ctx, projectID, clientOptions(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	c := &Client{client: raw, projectID: projectID, cfg: cfg, required: required}
	if err := c.Ping(ctx); err != nil {
		_ = raw.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"project_id":   projectID,
			"topic":        cfg.NotificationTopic,
			"subscription": cfg.NotificationSubscription,
		}), "pubsub client initialized")
	}
	return c, nil
}

// clientOptions prefers inline credentials, then a credentials file, then ambient ADC.
func clientOptions(gcp config.GCPConfig) []option.ClientOption {
	switch {
	case strings.TrimSpace(gcp.CredentialsJSON) != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(gcp.CredentialsJSON))}
	case strings.TrimSpace(gcp.ApplicationCredentials) != "":
		return []option.ClientOption{option.WithCredentialsFile(gcp.ApplicationCredentials)}
	default:
		return nil
	}
}

// Ping checks that every required topic and subscription still exists.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errors.New("pubsub client not initialized")
	}
	timeout := c.cfg.DialTimeout
	if timeout <= 0 {
		timeout = defaultCheckTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for _, res := range c.required {
		var err error
		switch res {
		case NotificationTopic:
			_, err = c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{
				Topic: c.topicName(c.cfg.NotificationTopic),
			})
			err = describe("topic", c.cfg.NotificationTopic, err)
		case NotificationSubscription:
			_, err = c.client.SubscriptionAdminClient.GetSubscription(ctx, &pubsubpb.GetSubscriptionRequest{
				Subscription: c.subscriptionName(c.cfg.NotificationSubscription),
			})
			err = describe("subscription", c.cfg.NotificationSubscription, err)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func describe(kind, name string, err error) error {
	switch {
	case err == nil:
		return nil
	case status.Code(err) == codes.NotFound:
		return fmt.Errorf("%s %q does not exist", kind, name)
	default:
		return fmt.Errorf("checking %s %q: %w", kind, name, err)
	}
}

// Subscription returns a subscriber for a subscription id or full resource name.
func (c *Client) Subscription(name string) *pubsub.Subscriber {
	if c == nil || c.client == nil || strings.TrimSpace(name) == "" {
		return nil
	}
	return c.client.Subscriber(c.subscriptionName(name))
}

// NotificationSubscription is what the worker consumes.
func (c *Client) NotificationSubscription() *pubsub.Subscriber {
	return c.Subscription(c.cfg.NotificationSubscription)
}

// Publisher returns a publisher for a topic id or full resource name.
func (c *Client) Publisher(name string) *pubsub.Publisher {
	if c == nil || c.client == nil || strings.TrimSpace(name) == "" {
		return nil
	}
	return c.client.Publisher(c.topicName(name))
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) topicName(name string) string {
	return ResourceName(c.projectID, "topics", name)
}

func (c *Client) subscriptionName(name string) string {
	return ResourceName(c.projectID, "subscriptions", name)
}

// ResourceName expands a short id into projects/<project>/<collection>/<id>.
// Names that are already fully qualified pass through unchanged.
func ResourceName(projectID, collection, name string) string {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, "projects/") && strings.Contains(name, "/"+collection+"/") {
		return name
	}
	return fmt.Sprintf("projects/%s/%s/%s", strings.TrimSpace(projectID), collection, name)
}
