package messaging

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestInMemoryAppendFillsIDAndTimestamp(t *testing.T) {
	store := NewInMemoryStore()

	msg, err := store.Append(context.Background(), &Message{
		Direction: DirectionIn,
		Channel:   ChannelSimulate,
		Body:      "  yes, confirm  ",
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if msg.ID == "" {
		t.Error("expected generated id")
	}
	if msg.Timestamp.IsZero() {
		t.Error("expected generated timestamp")
	}
	if msg.Body != "yes, confirm" {
		t.Errorf("expected trimmed body, got %q", msg.Body)
	}
}

func TestInMemoryListNewestFirst(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Append(ctx, &Message{
			Direction: DirectionIn,
			Channel:   ChannelSimulate,
			Body:      fmt.Sprintf("message %d", i),
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	msgs, err := store.List(ctx, 10, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].Body != "message 2" || msgs[2].Body != "message 0" {
		t.Errorf("expected newest first, got %q ... %q", msgs[0].Body, msgs[2].Body)
	}
}

func TestInMemoryListSearchFilter(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	bodies := []string{"yes, CONFIRM please", "see you Friday", "cancel my visit"}
	for _, b := range bodies {
		if _, err := store.Append(ctx, &Message{Direction: DirectionIn, Channel: ChannelSimulate, Body: b}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	msgs, err := store.List(ctx, 10, "confirm")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 match, got %d", len(msgs))
	}
	if msgs[0].Body != "yes, CONFIRM please" {
		t.Errorf("unexpected match %q", msgs[0].Body)
	}
}

func TestInMemoryListClampsLimit(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := store.Append(ctx, &Message{Direction: DirectionOut, Channel: ChannelMock, Body: "ping"}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	msgs, err := store.List(ctx, 0, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("limit 0 should clamp to 1, got %d", len(msgs))
	}

	msgs, err = store.List(ctx, 2, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
}

func TestInMemoryReturnsCopiesOfEntries(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	if _, err := store.Append(ctx, &Message{Direction: DirectionIn, Channel: ChannelSimulate, Body: "original"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	msgs, err := store.List(ctx, 1, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	msgs[0].Body = "mutated"

	again, err := store.List(ctx, 1, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if again[0].Body != "original" {
		t.Errorf("store entry mutated through returned copy: %q", again[0].Body)
	}
}

func TestClampLimit(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{-5, 1},
		{0, 1},
		{1, 1},
		{500, 500},
		{1000, 1000},
		{5000, 1000},
	}
	for _, tc := range cases {
		if got := clampLimit(tc.in); got != tc.want {
			t.Errorf("clampLimit(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestPrepareKeepsExistingIDAndTimestamp(t *testing.T) {
	ts := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	stamped := prepare(&Message{ID: "m1", Timestamp: ts, Body: "x"})
	if stamped.ID != "m1" {
		t.Errorf("id overwritten: %q", stamped.ID)
	}
	if !stamped.Timestamp.Equal(ts) {
		t.Errorf("timestamp overwritten: %v", stamped.Timestamp)
	}
}
