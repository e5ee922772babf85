//go:build linux

package udp

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

func newSocket(nonBlocking bool) (int, error) {
	typ := unix.SOCK_DGRAM
	if nonBlocking {
		typ |= unix.SOCK_NONBLOCK
	}
	fd, err := unix.Socket(unix.AF_INET, typ, 0)
	if err != nil {
		return -1, fmt.Errorf("socket: %w", err)
	}
	return fd, nil
}

func bindSocket(fd int, ip string, port uint16) error {
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}
	addr, err := resolveIPv4(ip)
	if err != nil {
		return err
	}
	sa := &unix.SockaddrInet4{Port: int(port), Addr: addr}
	if err := unix.Bind(fd, sa); err != nil {
		return fmt.Errorf("bind: %w", err)
	}
	return nil
}

func enableBroadcast(fd int) error {
	return unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
}

func recvFrom(fd int, p []byte) (n int, host string, port uint16, err error) {
	n, sa, err := unix.Recvfrom(fd, p, 0)
	if err != nil {
		return 0, "", 0, err
	}
	if a, ok := sa.(*unix.SockaddrInet4); ok {
		host = net.IP(a.Addr[:]).String()
		port = uint16(a.Port)
	}
	return n, host, port, nil
}

func sendTo(fd int, p []byte, host string, port uint16) error {
	addr, err := resolveIPv4(host)
	if err != nil {
		return err
	}
	sa := &unix.SockaddrInet4{Port: int(port), Addr: addr}
	return unix.Sendto(fd, p, 0, sa)
}

func recvFixed(fd int, p []byte) (int, error) {
	return unix.Read(fd, p)
}

func closeSocket(fd int) {
	_ = unix.Close(fd)
}

func isWouldBlock(err error) bool {
	return err == unix.EAGAIN || err == unix.EWOULDBLOCK
}

func resolveIPv4(ip string) (addr [4]byte, err error) {
	if ip == "" {
		return addr, nil
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return addr, fmt.Errorf("invalid IPv4 address %q", ip)
	}
	v4 := parsed.To4()
	if v4 == nil {
		return addr, fmt.Errorf("not an IPv4 address %q", ip)
	}
	copy(addr[:], v4)
	return addr, nil
}
