package httpd

import (
	"context"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// listen opens a listening socket with SO_REUSEADDR set, so restarts do not
// trip over sockets lingering in TIME_WAIT. The IPv6 socket is additionally
// marked v6-only: the IPv4 listener owns that address family.
func listen(ctx context.Context, network, address string) (net.Listener, error) {
	lc := net.ListenConfig{
		Control: func(netw, _ string, raw syscall.RawConn) error {
			var ctrlErr error
			err := raw.Control(func(fd uintptr) {
				ctrlErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
				if ctrlErr == nil && netw == "tcp6" {
					ctrlErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, 1)
				}
			})
			if err != nil {
				return err
			}
			return ctrlErr
		},
	}
	return lc.Listen(ctx, network, address)
}
