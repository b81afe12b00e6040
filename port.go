// FILE: lixenwraith/tvconfig/port.go
package tvconfig

import (
	"context"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	psnet "github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

// Listen port bounds and the offset reserved for the TLS-terminating companion
const (
	MinPort             = 1024
	MaxPort             = 65525
	CompanionPortOffset = 10
)

// ProcessIdentity identifies a process and its parent.
type ProcessIdentity struct {
	PID  int32
	PPID int32
}

// SelfIdentity returns the identity of the running process.
func SelfIdentity() ProcessIdentity {
	return ProcessIdentity{PID: int32(os.Getpid()), PPID: int32(os.Getppid())}
}

// Listener is a listening socket with its resolved owner.
type Listener struct {
	Port int
	ProcessIdentity
}

// ListenerSource enumerates listening sockets whose owning process is known.
type ListenerSource interface {
	Listeners(ctx context.Context) ([]Listener, error)
}

// SystemListeners reads listening sockets from the operating system.
type SystemListeners struct{}

// Listeners returns every LISTEN socket with a resolvable owner and parent.
func (SystemListeners) Listeners(ctx context.Context) ([]Listener, error) {
	conns, err := psnet.ConnectionsWithContext(ctx, "inet")
	if err != nil {
		return nil, errors.Wrap(err, "enumerate connections")
	}

	ppids := make(map[int32]int32)
	var listeners []Listener
	for _, conn := range conns {
		if conn.Status != "LISTEN" || conn.Pid == 0 {
			continue
		}

		ppid, ok := ppids[conn.Pid]
		if !ok {
			proc, err := process.NewProcessWithContext(ctx, conn.Pid)
			if err != nil {
				continue
			}
			if ppid, err = proc.PpidWithContext(ctx); err != nil {
				continue
			}
			ppids[conn.Pid] = ppid
		}

		listeners = append(listeners, Listener{
			Port:            int(conn.Laddr.Port),
			ProcessIdentity: ProcessIdentity{PID: conn.Pid, PPID: ppid},
		})
	}
	return listeners, nil
}

// related reports whether owner is p, its parent, a child, or a sibling.
func (p ProcessIdentity) related(owner ProcessIdentity) bool {
	return owner.PID == p.PID ||
		owner.PID == p.PPID ||
		owner.PPID == p.PID ||
		owner.PPID == p.PPID
}

// checkPort rejects out-of-range ports and ports held by unrelated processes,
// including the companion port at port+CompanionPortOffset.
func checkPort(ctx context.Context, port int, src ListenerSource, self ProcessIdentity, log *zap.Logger) *FieldError {
	if port < MinPort || port > MaxPort {
		return domainError("server.port",
			"The port number setting is invalid, so the server cannot start.",
			fmt.Sprintf("Check that the port number is between %d and %d (not 65535).", MinPort, MaxPort))
	}

	ctx, cancel := context.WithTimeout(ctx, PortScanTimeout)
	defer cancel()

	listeners, err := src.Listeners(ctx)
	if err != nil {
		log.Warn("Could not enumerate listening ports; skipping the port conflict check.", zap.Error(err))
		return nil
	}

	used := make(map[int]bool)
	for _, l := range listeners {
		if self.related(l.ProcessIdentity) {
			continue
		}
		used[l.Port] = true
	}

	if used[port] {
		return domainError("server.port",
			fmt.Sprintf("Port %d is used by another process, so the server cannot start.", port),
			fmt.Sprintf("Check that the server is not already running and that no other software uses port %d.", port))
	}
	if companion := port + CompanionPortOffset; used[companion] {
		return domainError("server.port",
			fmt.Sprintf("Port %d (%d + %d) is used by another process, so the server cannot start.", companion, port, CompanionPortOffset),
			fmt.Sprintf("Check that the server is not already running and that no other software uses port %d.", companion))
	}
	return nil
}
