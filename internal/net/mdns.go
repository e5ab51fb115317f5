package net

import (
	"context"
	"fmt"
	"net"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

// DefaultService is the mDNS service type boards are advertised under.
const DefaultService = "_livecanvas._tcp"

const roomTXT = "room="

// Host is a board found on the local network.
type Host struct {
	Name   string
	Target Target
}

// Advertise announces a relay serving room on port until the returned server
// is shut down.
func Advertise(service string, port int, room string) (*mdns.Server, error) {
	if service == "" {
		service = DefaultService
	}
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}
	info := []string{"LiveCanvas", roomTXT + room}
	zone, err := mdns.NewMDNSService(host, service, "", "", port, nil, info)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: zone})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}
	return server, nil
}

// Browse collects advertised boards for up to timeout.
func Browse(ctx context.Context, service string, timeout time.Duration) ([]Host, error) {
	if service == "" {
		service = DefaultService
	}
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}
	entries := make(chan *mdns.ServiceEntry, 16)
	done := make(chan []Host, 1)
	go func() {
		var hosts []Host
		for e := range entries {
			if h, ok := hostFromEntry(e); ok && !slices.ContainsFunc(hosts, func(x Host) bool { return x.Target == h.Target }) {
				hosts = append(hosts, h)
			}
		}
		done <- hosts
	}()

	params := mdns.DefaultParams(service)
	params.Entries = entries
	params.Timeout = timeout
	err := mdns.Query(params)
	close(entries)
	hosts := <-done
	if err != nil {
		return hosts, fmt.Errorf("mdns query: %w", err)
	}
	return hosts, nil
}

func hostFromEntry(e *mdns.ServiceEntry) (Host, bool) {
	if e == nil || e.AddrV4 == nil || e.Port == 0 {
		return Host{}, false
	}
	room := DefaultRoom
	for _, field := range e.InfoFields {
		if v, ok := strings.CutPrefix(field, roomTXT); ok && v != "" {
			room = v
		}
	}
	return Host{
		Name:   strings.TrimSuffix(e.Name, "."),
		Target: Target{Addr: net.JoinHostPort(e.AddrV4.String(), fmt.Sprint(e.Port)), Room: room},
	}, true
}
