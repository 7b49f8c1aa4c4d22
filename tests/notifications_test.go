package tests

import (
	"fmt"
	"net/http"
	"testing"
)

func TestTagNotificationsOverHTTP(t *testing.T) {
	srv := newServer(t)
	owner, _ := register(t, srv, "owner@x.com", "Own", "Er")
	bobTok, _ := register(t, srv, "bob@x.com", "Bob", "Byte")
	chID := createChannel(t, srv, owner, "general", true)
	post(t, srv, "/v1/channel/join", bobTok, map[string]any{"channel_id": chID})

	sendMessage(t, srv, owner, chID, "morning @bobbyte, standup in five")

	status, body := get(t, srv, "/v1/notifications/get", bobTok)
	if status != http.StatusOK {
		t.Fatalf("notifications: status %d", status)
	}
	notifs := body["notifications"].([]any)
	if len(notifs) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifs))
	}
	n := notifs[0].(map[string]any)
	if n["notification_message"] != "owner tagged you in general: morning @bobbyte, st" {
		t.Fatalf("unexpected text: %q", n["notification_message"])
	}
}

func TestReactionNotificationOverHTTP(t *testing.T) {
	srv := newServer(t)
	owner, _ := register(t, srv, "owner@x.com", "Own", "Er")
	bobTok, _ := register(t, srv, "bob@x.com", "Bob", "Byte")
	chID := createChannel(t, srv, owner, "general", true)
	post(t, srv, "/v1/channel/join", bobTok, map[string]any{"channel_id": chID})
	msgID := sendMessage(t, srv, owner, chID, "anyone around?")

	status, _ := post(t, srv, "/v1/message/react", bobTok, map[string]any{
		"message_id": msgID, "react_id": int64(1),
	})
	if status != http.StatusOK {
		t.Fatalf("react: status %d", status)
	}

	status, body := get(t, srv, "/v1/notifications/get", owner)
	if status != http.StatusOK {
		t.Fatalf("notifications: status %d", status)
	}
	notifs := body["notifications"].([]any)
	if len(notifs) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifs))
	}
	n := notifs[0].(map[string]any)
	if n["notification_message"] != "bobbyte reacted to your message in general" {
		t.Fatalf("unexpected text: %q", n["notification_message"])
	}
}

func TestNotificationFeedCapOverHTTP(t *testing.T) {
	srv := newServer(t)
	owner, _ := register(t, srv, "owner@x.com", "Own", "Er")
	bobTok, _ := register(t, srv, "bob@x.com", "Bob", "Byte")
	chID := createChannel(t, srv, owner, "general", true)
	post(t, srv, "/v1/channel/join", bobTok, map[string]any{"channel_id": chID})

	for i := 0; i < 25; i++ {
		sendMessage(t, srv, owner, chID, fmt.Sprintf("ping %02d @bobbyte", i))
	}

	status, body := get(t, srv, "/v1/notifications/get", bobTok)
	if status != http.StatusOK {
		t.Fatalf("notifications: status %d", status)
	}
	notifs := body["notifications"].([]any)
	if len(notifs) != 20 {
		t.Fatalf("feed should cap at 20, got %d", len(notifs))
	}
	newest := notifs[0].(map[string]any)["notification_message"].(string)
	if newest != "owner tagged you in general: ping 24 @bobbyte" {
		t.Fatalf("feed not newest first: %q", newest)
	}
}
