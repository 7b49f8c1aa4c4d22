package tests

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func sendMessage(t *testing.T, srv *httptest.Server, tok string, chID int64, text string) int64 {
	t.Helper()
	status, body := post(t, srv, "/v1/message/send", tok, map[string]any{
		"channel_id": chID, "message": text,
	})
	if status != http.StatusOK {
		t.Fatalf("send %q: status %d, body %v", text, status, body)
	}
	return num(t, body, "message_id")
}

func TestMessageFlow(t *testing.T) {
	srv := newServer(t)
	owner, _ := register(t, srv, "owner@x.com", "Own", "Er")
	bobTok, _ := register(t, srv, "bob@x.com", "Bob", "Byte")

	chID := createChannel(t, srv, owner, "general", true)
	post(t, srv, "/v1/channel/join", bobTok, map[string]any{"channel_id": chID})

	msgID := sendMessage(t, srv, bobTok, chID, "hello world")

	// edit by sender, then by channel owner
	status, _ := put(t, srv, "/v1/message/edit", bobTok, map[string]any{
		"message_id": msgID, "message": "hello, world",
	})
	if status != http.StatusOK {
		t.Fatalf("sender edit: status %d", status)
	}
	status, _ = put(t, srv, "/v1/message/edit", owner, map[string]any{
		"message_id": msgID, "message": "hello, moderated world",
	})
	if status != http.StatusOK {
		t.Fatalf("owner edit: status %d", status)
	}

	status, body := get(t, srv, fmt.Sprintf("/v1/channel/messages?channel_id=%d&start=0", chID), bobTok)
	if status != http.StatusOK {
		t.Fatalf("messages: status %d", status)
	}
	msgs := body["messages"].([]any)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	m := msgs[0].(map[string]any)
	if m["message"] != "hello, moderated world" {
		t.Fatalf("edit not applied: %v", m["message"])
	}
	if num(t, body, "end") != -1 {
		t.Fatalf("single page should end at -1, got %v", body["end"])
	}

	status, _ = del(t, srv, fmt.Sprintf("/v1/message/remove?message_id=%d", msgID), bobTok)
	if status != http.StatusOK {
		t.Fatalf("remove: status %d", status)
	}
	status, body = get(t, srv, fmt.Sprintf("/v1/channel/messages?channel_id=%d&start=0", chID), bobTok)
	if status != http.StatusOK {
		t.Fatalf("messages after remove: status %d", status)
	}
	if len(body["messages"].([]any)) != 0 {
		t.Fatalf("message not removed")
	}
}

func TestMessagePagination(t *testing.T) {
	srv := newServer(t)
	owner, _ := register(t, srv, "owner@x.com", "Own", "Er")
	chID := createChannel(t, srv, owner, "general", true)
	for i := 0; i < 52; i++ {
		sendMessage(t, srv, owner, chID, fmt.Sprintf("msg %02d", i))
	}

	status, body := get(t, srv, fmt.Sprintf("/v1/channel/messages?channel_id=%d&start=0", chID), owner)
	if status != http.StatusOK {
		t.Fatalf("page 0: status %d", status)
	}
	msgs := body["messages"].([]any)
	if len(msgs) != 50 {
		t.Fatalf("page 0 size: %d", len(msgs))
	}
	if msgs[0].(map[string]any)["message"] != "msg 51" {
		t.Fatalf("page 0 not newest first: %v", msgs[0])
	}
	if num(t, body, "end") != 50 {
		t.Fatalf("page 0 end: %v", body["end"])
	}

	status, body = get(t, srv, fmt.Sprintf("/v1/channel/messages?channel_id=%d&start=50", chID), owner)
	if status != http.StatusOK {
		t.Fatalf("page 1: status %d", status)
	}
	if len(body["messages"].([]any)) != 2 || num(t, body, "end") != -1 {
		t.Fatalf("page 1: %v", body)
	}

	status, _ = get(t, srv, fmt.Sprintf("/v1/channel/messages?channel_id=%d&start=99", chID), owner)
	if status != http.StatusBadRequest {
		t.Fatalf("start beyond total: status %d", status)
	}

	status, _ = get(t, srv, fmt.Sprintf("/v1/channel/messages?channel_id=%d&start=-1", chID), owner)
	if status != http.StatusBadRequest {
		t.Fatalf("negative start: status %d", status)
	}
}

func TestMessageShareOverHTTP(t *testing.T) {
	srv := newServer(t)
	owner, _ := register(t, srv, "owner@x.com", "Own", "Er")
	src := createChannel(t, srv, owner, "source", true)
	dst := createChannel(t, srv, owner, "target", true)
	ogID := sendMessage(t, srv, owner, src, "original")

	// both refs set, and both unset, are transport errors
	for _, refs := range []map[string]any{
		{"channel_id": dst, "dm_id": int64(1)},
		{"channel_id": int64(-1), "dm_id": int64(-1)},
	} {
		req := map[string]any{"og_message_id": ogID, "message": ""}
		for k, v := range refs {
			req[k] = v
		}
		status, _ := post(t, srv, "/v1/message/share", owner, req)
		if status != http.StatusBadRequest {
			t.Fatalf("share with refs %v: status %d", refs, status)
		}
	}

	status, body := post(t, srv, "/v1/message/share", owner, map[string]any{
		"og_message_id": ogID, "message": "plus commentary",
		"channel_id": dst, "dm_id": int64(-1),
	})
	if status != http.StatusOK {
		t.Fatalf("share: status %d, body %v", status, body)
	}
	sharedID := num(t, body, "shared_message_id")

	status, body = get(t, srv, fmt.Sprintf("/v1/channel/messages?channel_id=%d&start=0", dst), owner)
	if status != http.StatusOK {
		t.Fatalf("target messages: status %d", status)
	}
	m := body["messages"].([]any)[0].(map[string]any)
	if num(t, m, "message_id") != sharedID || m["message"] != "original plus commentary" {
		t.Fatalf("unexpected shared message: %v", m)
	}
}

func TestReactAndPinOverHTTP(t *testing.T) {
	srv := newServer(t)
	owner, _ := register(t, srv, "owner@x.com", "Own", "Er")
	bobTok, _ := register(t, srv, "bob@x.com", "Bob", "Byte")
	chID := createChannel(t, srv, owner, "general", true)
	post(t, srv, "/v1/channel/join", bobTok, map[string]any{"channel_id": chID})
	msgID := sendMessage(t, srv, owner, chID, "react to me")

	status, _ := post(t, srv, "/v1/message/react", bobTok, map[string]any{
		"message_id": msgID, "react_id": int64(1),
	})
	if status != http.StatusOK {
		t.Fatalf("react: status %d", status)
	}
	// bob is not an owner
	status, _ = post(t, srv, "/v1/message/pin", bobTok, map[string]any{"message_id": msgID})
	if status != http.StatusForbidden {
		t.Fatalf("member pin: status %d", status)
	}
	status, _ = post(t, srv, "/v1/message/pin", owner, map[string]any{"message_id": msgID})
	if status != http.StatusOK {
		t.Fatalf("owner pin: status %d", status)
	}

	// bob's view carries his reaction and the pin
	status, body := get(t, srv, fmt.Sprintf("/v1/channel/messages?channel_id=%d&start=0", chID), bobTok)
	if status != http.StatusOK {
		t.Fatalf("messages: status %d", status)
	}
	m := body["messages"].([]any)[0].(map[string]any)
	if m["is_pinned"] != true {
		t.Fatalf("pin not visible: %v", m)
	}
	reacts := m["reacts"].([]any)
	if len(reacts) != 1 {
		t.Fatalf("expected 1 reaction, got %d", len(reacts))
	}
	r := reacts[0].(map[string]any)
	if r["is_this_user_reacted"] != true {
		t.Fatalf("viewer reaction flag missing: %v", r)
	}

	// the owner's view of the same reaction carries the flag unset
	status, body = get(t, srv, fmt.Sprintf("/v1/channel/messages?channel_id=%d&start=0", chID), owner)
	if status != http.StatusOK {
		t.Fatalf("owner messages: status %d", status)
	}
	r = body["messages"].([]any)[0].(map[string]any)["reacts"].([]any)[0].(map[string]any)
	if r["is_this_user_reacted"] != false {
		t.Fatalf("owner should not appear reacted: %v", r)
	}
}

func TestSendLaterOverHTTP(t *testing.T) {
	srv := newServer(t)
	owner, _ := register(t, srv, "owner@x.com", "Own", "Er")
	chID := createChannel(t, srv, owner, "general", true)

	status, body := post(t, srv, "/v1/message/sendlater", owner, map[string]any{
		"channel_id": chID, "message": "from the future",
		"time_sent": time.Now().Unix() + 1,
	})
	if status != http.StatusOK {
		t.Fatalf("sendlater: status %d, body %v", status, body)
	}
	deferredID := num(t, body, "message_id")

	// invisible until the fire instant
	status, body = get(t, srv, fmt.Sprintf("/v1/channel/messages?channel_id=%d&start=0", chID), owner)
	if status != http.StatusOK {
		t.Fatalf("messages: status %d", status)
	}
	if len(body["messages"].([]any)) != 0 {
		t.Fatalf("deferred message visible early")
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		status, body = get(t, srv, fmt.Sprintf("/v1/channel/messages?channel_id=%d&start=0", chID), owner)
		if status == http.StatusOK && len(body["messages"].([]any)) == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("deferred message never fired")
		}
		time.Sleep(20 * time.Millisecond)
	}
	m := body["messages"].([]any)[0].(map[string]any)
	if num(t, m, "message_id") != deferredID || m["message"] != "from the future" {
		t.Fatalf("unexpected fired message: %v", m)
	}
}

func TestSearchOverHTTP(t *testing.T) {
	srv := newServer(t)
	owner, _ := register(t, srv, "owner@x.com", "Own", "Er")
	bobTok, _ := register(t, srv, "bob@x.com", "Bob", "Byte")
	mine := createChannel(t, srv, owner, "mine", true)
	theirs := createChannel(t, srv, bobTok, "theirs", true)
	sendMessage(t, srv, owner, mine, "the Launch is friday")
	sendMessage(t, srv, bobTok, theirs, "launch party prep")

	status, body := get(t, srv, "/v1/search?query_str=LAUNCH", owner)
	if status != http.StatusOK {
		t.Fatalf("search: status %d", status)
	}
	hits := body["messages"].([]any)
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit in joined conversations, got %d", len(hits))
	}
	if hits[0].(map[string]any)["message"] != "the Launch is friday" {
		t.Fatalf("unexpected hit: %v", hits[0])
	}
}
