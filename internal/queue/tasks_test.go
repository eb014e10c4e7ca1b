package queue

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNotifyEventTaskRoundTrip(t *testing.T) {
	payload, err := NewNotification(EventClipSubmitted, "creator-1", map[string]string{"clipId": "clip-9"}, time.Now())
	if err != nil {
		t.Fatalf("NewNotification returned error: %v", err)
	}

	task, err := NewNotifyEventTask(payload)
	if err != nil {
		t.Fatalf("NewNotifyEventTask returned error: %v", err)
	}
	if task.Type() != TypeNotifyEvent {
		t.Fatalf("expected task type %q, got %q", TypeNotifyEvent, task.Type())
	}

	parsed, err := ParseNotificationPayload(task)
	if err != nil {
		t.Fatalf("ParseNotificationPayload returned error: %v", err)
	}
	if parsed.Event != EventClipSubmitted || parsed.RecipientID != "creator-1" {
		t.Fatalf("unexpected payload %+v", parsed)
	}

	var data map[string]string
	if err := json.Unmarshal(parsed.Data, &data); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if data["clipId"] != "clip-9" {
		t.Fatalf("expected clipId clip-9, got %q", data["clipId"])
	}
}

func TestClipThumbnailTaskRoundTrip(t *testing.T) {
	payload := ThumbnailPayload{
		ClipID:      "clip-1",
		ObjectKey:   "uploads/user-1/thumbnail/abc",
		RequestedAt: time.Now().UTC(),
	}

	task, err := NewClipThumbnailTask(payload)
	if err != nil {
		t.Fatalf("NewClipThumbnailTask returned error: %v", err)
	}

	parsed, err := ParseThumbnailPayload(task)
	if err != nil {
		t.Fatalf("ParseThumbnailPayload returned error: %v", err)
	}
	if parsed.ClipID != payload.ClipID || parsed.ObjectKey != payload.ObjectKey {
		t.Fatalf("unexpected payload %+v", parsed)
	}
}

func TestParseRejectsMalformedPayload(t *testing.T) {
	task := NewExpireOverdueJobsTask()
	if task.Type() != TypeExpireOverdueJobs {
		t.Fatalf("unexpected task type %q", task.Type())
	}
	if _, err := ParseThumbnailPayload(task); err == nil {
		t.Fatal("expected empty payload to fail parsing")
	}
}
