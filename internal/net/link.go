package net

import (
	"fmt"
	"net/url"
	"strings"
)

// LinkScheme prefixes shareable board links: livecanvas://host:port/room.
const LinkScheme = "livecanvas"

// DefaultRoom is used when a link names no room.
const DefaultRoom = "main"

// Target names a room on a relay.
type Target struct {
	Addr   string
	Room   string
	Secure bool
}

// ParseLink accepts livecanvas://, ws:// and wss:// links, or a bare host:port.
func ParseLink(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, fmt.Errorf("empty link")
	}
	if !strings.Contains(raw, "://") {
		raw = LinkScheme + "://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("parse link: %w", err)
	}
	t := Target{Addr: u.Host}
	switch u.Scheme {
	case LinkScheme, "ws":
	case "wss":
		t.Secure = true
	default:
		return Target{}, fmt.Errorf("unsupported link scheme %q", u.Scheme)
	}
	if t.Addr == "" {
		return Target{}, fmt.Errorf("link %q has no host", raw)
	}
	path := strings.Trim(u.Path, "/")
	if u.Scheme != LinkScheme {
		path = strings.TrimPrefix(path, "rooms/")
		path = strings.TrimSuffix(path, "/sync")
	}
	switch {
	case path == "":
		t.Room = DefaultRoom
	case strings.Contains(path, "/"):
		return Target{}, fmt.Errorf("link %q names more than one room", raw)
	default:
		t.Room = path
	}
	return t, nil
}

// Link formats the shareable form of t.
func (t Target) Link() string {
	return (&url.URL{Scheme: LinkScheme, Host: t.Addr, Path: "/" + t.Room}).String()
}

// SyncURL is the websocket endpoint for t.
func (t Target) SyncURL() string {
	scheme := "ws"
	if t.Secure {
		scheme = "wss"
	}
	return (&url.URL{Scheme: scheme, Host: t.Addr, Path: "/rooms/" + t.Room + "/sync"}).String()
}
