package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeNotifyEvent       = "notify:event"
	TypeClipThumbnail     = "clip:thumbnail"
	TypeExpireOverdueJobs = "jobs:expire-overdue"
)

// Marketplace events delivered to a user's webhook.
const (
	EventApplicationCreated = "application.created"
	EventApplicationDecided = "application.decided"
	EventClipSubmitted      = "clip.submitted"
	EventClipReviewed       = "clip.reviewed"
	EventPaymentCreated     = "payment.created"
	EventPaymentPaid        = "payment.paid"
	EventPaymentCancelled   = "payment.cancelled"
)

type NotificationPayload struct {
	Event       string          `json:"event"`
	RecipientID string          `json:"recipientId"`
	Data        json.RawMessage `json:"data"`
	OccurredAt  time.Time       `json:"occurredAt"`
}

// NewNotification marshals data into a payload for recipientID.
func NewNotification(event, recipientID string, data any, at time.Time) (NotificationPayload, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return NotificationPayload{}, fmt.Errorf("marshal notification data: %w", err)
	}
	return NotificationPayload{
		Event:       event,
		RecipientID: recipientID,
		Data:        body,
		OccurredAt:  at.UTC(),
	}, nil
}

func NewNotifyEventTask(payload NotificationPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal notification payload: %w", err)
	}
	return asynq.NewTask(TypeNotifyEvent, body), nil
}

func ParseNotificationPayload(task *asynq.Task) (NotificationPayload, error) {
	var payload NotificationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return NotificationPayload{}, fmt.Errorf("unmarshal notification payload: %w", err)
	}
	return payload, nil
}

type ThumbnailPayload struct {
	ClipID      string    `json:"clipId"`
	ObjectKey   string    `json:"objectKey"`
	RequestedAt time.Time `json:"requestedAt"`
}

func NewClipThumbnailTask(payload ThumbnailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal thumbnail payload: %w", err)
	}
	return asynq.NewTask(TypeClipThumbnail, body), nil
}

func ParseThumbnailPayload(task *asynq.Task) (ThumbnailPayload, error) {
	var payload ThumbnailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ThumbnailPayload{}, fmt.Errorf("unmarshal thumbnail payload: %w", err)
	}
	return payload, nil
}

// NewExpireOverdueJobsTask carries no payload; the worker uses its own clock.
func NewExpireOverdueJobsTask() *asynq.Task {
	return asynq.NewTask(TypeExpireOverdueJobs, nil)
}
