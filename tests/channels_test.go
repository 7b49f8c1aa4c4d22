package tests

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func createChannel(t *testing.T, srv *httptest.Server, tok, name string, public bool) int64 {
	t.Helper()
	status, body := post(t, srv, "/v1/channels/create", tok, map[string]any{
		"name": name, "is_public": public,
	})
	if status != http.StatusOK {
		t.Fatalf("create channel %s: status %d, body %v", name, status, body)
	}
	return num(t, body, "channel_id")
}

func TestChannelLifecycle(t *testing.T) {
	srv := newServer(t)
	owner, _ := register(t, srv, "owner@x.com", "Own", "Er")
	bobTok, bobID := register(t, srv, "bob@x.com", "Bob", "Byte")

	chID := createChannel(t, srv, owner, "general", true)
	privID := createChannel(t, srv, bobTok, "private", false)

	// listing is scoped to membership, listall is not
	status, body := get(t, srv, "/v1/channels/list", owner)
	if status != http.StatusOK {
		t.Fatalf("list: status %d", status)
	}
	if n := len(body["channels"].([]any)); n != 1 {
		t.Fatalf("owner should see 1 channel, saw %d", n)
	}
	status, body = get(t, srv, "/v1/channels/listall", owner)
	if status != http.StatusOK {
		t.Fatalf("listall: status %d", status)
	}
	if n := len(body["channels"].([]any)); n != 2 {
		t.Fatalf("listall should see 2 channels, saw %d", n)
	}

	// non-member details are forbidden
	status, _ = get(t, srv, fmt.Sprintf("/v1/channel/details?channel_id=%d", chID), bobTok)
	if status != http.StatusForbidden {
		t.Fatalf("outsider details: status %d", status)
	}

	status, _ = post(t, srv, "/v1/channel/join", bobTok, map[string]any{"channel_id": chID})
	if status != http.StatusOK {
		t.Fatalf("join: status %d", status)
	}
	status, body = get(t, srv, fmt.Sprintf("/v1/channel/details?channel_id=%d", chID), bobTok)
	if status != http.StatusOK {
		t.Fatalf("member details: status %d", status)
	}
	if body["name"] != "general" || body["is_public"] != true {
		t.Fatalf("unexpected details: %v", body)
	}
	if n := len(body["all_members"].([]any)); n != 2 {
		t.Fatalf("expected 2 members, got %d", n)
	}
	if n := len(body["owner_members"].([]any)); n != 1 {
		t.Fatalf("expected 1 owner, got %d", n)
	}

	// bob can't join the private channel, but the global owner can
	status, _ = post(t, srv, "/v1/channel/join", owner, map[string]any{"channel_id": privID})
	if status != http.StatusOK {
		t.Fatalf("global owner private join: status %d", status)
	}

	status, _ = post(t, srv, "/v1/channel/addowner", owner, map[string]any{
		"channel_id": chID, "u_id": bobID,
	})
	if status != http.StatusOK {
		t.Fatalf("addowner: status %d", status)
	}
	status, _ = post(t, srv, "/v1/channel/leave", owner, map[string]any{"channel_id": chID})
	if status != http.StatusOK {
		t.Fatalf("leave: status %d", status)
	}

	status, body = get(t, srv, fmt.Sprintf("/v1/channel/details?channel_id=%d", chID), bobTok)
	if status != http.StatusOK {
		t.Fatalf("details after leave: status %d", status)
	}
	if n := len(body["all_members"].([]any)); n != 1 {
		t.Fatalf("expected 1 member after leave, got %d", n)
	}
}

func TestChannelInviteOverHTTP(t *testing.T) {
	srv := newServer(t)
	owner, _ := register(t, srv, "owner@x.com", "Own", "Er")
	bobTok, bobID := register(t, srv, "bob@x.com", "Bob", "Byte")

	chID := createChannel(t, srv, owner, "secret", false)
	status, _ := post(t, srv, "/v1/channel/invite", owner, map[string]any{
		"channel_id": chID, "u_id": bobID,
	})
	if status != http.StatusOK {
		t.Fatalf("invite: status %d", status)
	}

	status, body := get(t, srv, "/v1/notifications/get", bobTok)
	if status != http.StatusOK {
		t.Fatalf("notifications: status %d", status)
	}
	notifs := body["notifications"].([]any)
	if len(notifs) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifs))
	}
	n := notifs[0].(map[string]any)
	if n["notification_message"] != "owner added you to secret" {
		t.Fatalf("unexpected notification: %v", n)
	}
	if num(t, n, "channel_id") != chID || num(t, n, "dm_id") != -1 {
		t.Fatalf("unexpected notification refs: %v", n)
	}
}

func TestDmLifecycleOverHTTP(t *testing.T) {
	srv := newServer(t)
	_, _ = register(t, srv, "owner@x.com", "Own", "Er")
	bobTok, _ := register(t, srv, "bob@x.com", "Bob", "Byte")
	carolTok, carolID := register(t, srv, "carol@x.com", "Carol", "Code")

	status, body := post(t, srv, "/v1/dm/create", bobTok, map[string]any{
		"u_ids": []int64{carolID},
	})
	if status != http.StatusOK {
		t.Fatalf("dm create: status %d, body %v", status, body)
	}
	dmID := num(t, body, "dm_id")

	status, body = get(t, srv, fmt.Sprintf("/v1/dm/details?dm_id=%d", dmID), carolTok)
	if status != http.StatusOK {
		t.Fatalf("dm details: status %d", status)
	}
	if body["name"] != "bobbyte, carolcode" {
		t.Fatalf("unexpected dm name: %v", body["name"])
	}

	// only the creator may remove
	status, _ = del(t, srv, fmt.Sprintf("/v1/dm/remove?dm_id=%d", dmID), carolTok)
	if status != http.StatusForbidden {
		t.Fatalf("non-creator remove: status %d", status)
	}
	status, _ = del(t, srv, fmt.Sprintf("/v1/dm/remove?dm_id=%d", dmID), bobTok)
	if status != http.StatusOK {
		t.Fatalf("creator remove: status %d", status)
	}
	status, _ = get(t, srv, "/v1/dm/list", bobTok)
	if status != http.StatusOK {
		t.Fatalf("dm list: status %d", status)
	}
}
