package store

import (
	"context"
	"testing"
)

// TestCampaign_SetAndGet sets a campaign label and retrieves it
func TestCampaign_SetAndGet(t *testing.T) {
	t.Parallel()

	base := context.Background()
	ctx := WithCampaign(base, "masterbox")

	id, ok := Campaign(ctx)
	if !ok {
		t.Fatalf("Campaign not found")
	}
	if id != "masterbox" {
		t.Fatalf("Campaign mismatch got=%q want=%q", id, "masterbox")
	}
}

// TestCampaign_EmptyString reports false when empty string is stored
func TestCampaign_EmptyString(t *testing.T) {
	t.Parallel()

	ctx := WithCampaign(context.Background(), "")

	id, ok := Campaign(ctx)
	if ok {
		t.Fatalf("Campaign ok should be false for empty value")
	}
	if id != "" {
		t.Fatalf("Campaign should be empty got=%q", id)
	}
}

// TestCampaign_NotPresent returns false on base context
func TestCampaign_NotPresent(t *testing.T) {
	t.Parallel()

	id, ok := Campaign(context.Background())
	if ok || id != "" {
		t.Fatalf("Campaign should be absent on base context")
	}
}

// TestCampaign_NoLeak ensures adding value returns a new ctx and base has no value
func TestCampaign_NoLeak(t *testing.T) {
	t.Parallel()

	base := context.Background()
	_ = WithCampaign(base, "masterbox")

	id, ok := Campaign(base)
	if ok || id != "" {
		t.Fatalf("base context should not have campaign value")
	}
}

// TestRequestID_SetAndGet sets a request id and retrieves it
func TestRequestID_SetAndGet(t *testing.T) {
	t.Parallel()

	base := context.Background()
	ctx := WithRequestID(base, "req-123")

	id, ok := RequestID(ctx)
	if !ok {
		t.Fatalf("RequestID not found")
	}
	if id != "req-123" {
		t.Fatalf("RequestID mismatch got=%q want=%q", id, "req-123")
	}
}

// TestRequestID_EmptyString reports false when empty string is stored
func TestRequestID_EmptyString(t *testing.T) {
	t.Parallel()

	ctx := WithRequestID(context.Background(), "")

	id, ok := RequestID(ctx)
	if ok {
		t.Fatalf("RequestID ok should be false for empty value")
	}
	if id != "" {
		t.Fatalf("RequestID should be empty got=%q", id)
	}
}

// TestRequestID_NotPresent returns false on base context
func TestRequestID_NotPresent(t *testing.T) {
	t.Parallel()

	id, ok := RequestID(context.Background())
	if ok || id != "" {
		t.Fatalf("RequestID should be absent on base context")
	}
}

// TestKeys_Isolation ensures campaign and request keys do not collide
func TestKeys_Isolation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ctx = WithCampaign(ctx, "masterbox")
	ctx = WithRequestID(ctx, "req-123")

	camp, cok := Campaign(ctx)
	req, rok := RequestID(ctx)

	if !cok || camp != "masterbox" {
		t.Fatalf("Campaign mismatch cok=%v camp=%q", cok, camp)
	}
	if !rok || req != "req-123" {
		t.Fatalf("RequestID mismatch rok=%v req=%q", rok, req)
	}
}
