// Package worker provides background job processing for zone alerts.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/saferoute/saferoute/internal/zones"
)

// errUnknownJob marks messages that should be acked without processing,
// preventing redelivery loops.
var errUnknownJob = errors.New("unknown job type")

// PubSubHandler handles Pub/Sub messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	zones            *zones.Service
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Zones            *zones.Service
	Logger           zerolog.Logger
}

// ZoneMessage represents a zone lifecycle job message.
type ZoneMessage struct {
	JobType string `json:"job_type"`

	// Zone carries the new zone for zone_alert jobs.
	Zone *ZonePayload `json:"zone,omitempty"`

	// ZoneID identifies the zone for zone_clear jobs.
	ZoneID string `json:"zone_id,omitempty"`
}

// ZonePayload is the zone description carried by alert messages.
type ZonePayload struct {
	Type         string     `json:"type"`
	Name         string     `json:"name"`
	CenterLat    float64    `json:"center_lat"`
	CenterLon    float64    `json:"center_lon"`
	RadiusMeters float64    `json:"radius_meters"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Configure receive settings.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		zones:            cfg.Zones,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received pubsub message")

	jobType, err := h.process(ctx, msg.Data)
	if err != nil {
		if errors.Is(err, errUnknownJob) {
			logger.Warn().Str("job_type", jobType).Msg("unknown job type")
			msg.Ack() // Ack unknown messages to prevent redelivery
			return
		}
		logger.Error().Err(err).Str("job_type", jobType).Msg("job failed")
		msg.Nack()
		return
	}

	logger.Info().
		Str("job_type", jobType).
		Dur("duration", time.Since(startTime)).
		Msg("job completed successfully")

	msg.Ack()
}

// process parses and dispatches one message, returning the job type for
// logging.
func (h *PubSubHandler) process(ctx context.Context, data []byte) (string, error) {
	var zoneMsg ZoneMessage
	if err := json.Unmarshal(data, &zoneMsg); err != nil {
		return "", fmt.Errorf("parsing message: %w", err)
	}

	switch zoneMsg.JobType {
	case "zone_alert":
		return zoneMsg.JobType, h.handleZoneAlert(ctx, zoneMsg)
	case "zone_clear":
		return zoneMsg.JobType, h.handleZoneClear(ctx, zoneMsg)
	case "expire_sweep":
		return zoneMsg.JobType, h.handleExpireSweep(ctx)
	default:
		return zoneMsg.JobType, errUnknownJob
	}
}

func (h *PubSubHandler) handleZoneAlert(ctx context.Context, msg ZoneMessage) error {
	if msg.Zone == nil {
		return errors.New("zone_alert message missing zone payload")
	}

	zone, err := h.zones.Create(ctx, zones.CreateInput{
		Type:         zones.Type(msg.Zone.Type),
		Name:         msg.Zone.Name,
		CenterLat:    msg.Zone.CenterLat,
		CenterLon:    msg.Zone.CenterLon,
		RadiusMeters: msg.Zone.RadiusMeters,
		ExpiresAt:    msg.Zone.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("registering zone: %w", err)
	}

	h.logger.Info().
		Str("zone_id", zone.ID).
		Str("zone_type", string(zone.Type)).
		Msg("zone alert registered")
	return nil
}

func (h *PubSubHandler) handleZoneClear(ctx context.Context, msg ZoneMessage) error {
	if msg.ZoneID == "" {
		return errors.New("zone_clear message missing zone_id")
	}

	if err := h.zones.Deactivate(ctx, msg.ZoneID); err != nil {
		if errors.Is(err, zones.ErrZoneNotFound) {
			// Already cleared or never registered; nothing to redo.
			h.logger.Warn().Str("zone_id", msg.ZoneID).Msg("zone_clear for unknown zone")
			return nil
		}
		return fmt.Errorf("clearing zone: %w", err)
	}
	return nil
}

func (h *PubSubHandler) handleExpireSweep(ctx context.Context) error {
	swept, err := h.zones.SweepExpired(ctx)
	if err != nil {
		return fmt.Errorf("sweeping expired zones: %w", err)
	}
	h.logger.Debug().Int("swept", swept).Msg("expire sweep completed")
	return nil
}
