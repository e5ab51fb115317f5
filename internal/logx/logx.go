package logx

import (
	"context"

	"pkt.systems/pslog"
)

// Ctx returns the logger bound to the provided context.
func Ctx(ctx context.Context) pslog.Logger {
	if ctx == nil {
		ctx = context.Background()
	}
	return pslog.Ctx(ctx)
}

// OrDefault returns log, or the background logger when log is nil.
func OrDefault(log pslog.Logger) pslog.Logger {
	if log == nil {
		return pslog.Ctx(context.Background())
	}
	return log
}

// WithRoom annotates the logger with the room id if present.
func WithRoom(log pslog.Logger, roomID string) pslog.Logger {
	log = OrDefault(log)
	if roomID != "" {
		log = log.With("room", roomID)
	}
	return log
}

// WithConn annotates the logger with a connection id. Zero means unassigned.
func WithConn(log pslog.Logger, connID int) pslog.Logger {
	log = OrDefault(log)
	if connID > 0 {
		log = log.With("conn", connID)
	}
	return log
}

// WithSite annotates the logger with the replica site id.
func WithSite(log pslog.Logger, site string) pslog.Logger {
	log = OrDefault(log)
	if site != "" {
		log = log.With("site", site)
	}
	return log
}
