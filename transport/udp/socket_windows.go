//go:build windows

package udp

import (
	"fmt"
	"net"

	"golang.org/x/sys/windows"
)

func newSocket(nonBlocking bool) (int, error) {
	fd, err := windows.Socket(windows.AF_INET, windows.SOCK_DGRAM, 0)
	if err != nil {
		return -1, fmt.Errorf("socket: %w", err)
	}
	if nonBlocking {
		var mode uint32 = 1
		if err := windows.IoctlSocket(fd, windows.FIONBIO, &mode); err != nil {
			windows.Closesocket(fd)
			return -1, fmt.Errorf("ioctlsocket FIONBIO: %w", err)
		}
	}
	return int(fd), nil
}

func bindSocket(fd int, ip string, port uint16) error {
	if err := windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_REUSEADDR, 1); err != nil {
		return fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}
	addr, err := resolveIPv4(ip)
	if err != nil {
		return err
	}
	sa := &windows.SockaddrInet4{Port: int(port), Addr: addr}
	if err := windows.Bind(windows.Handle(fd), sa); err != nil {
		return fmt.Errorf("bind: %w", err)
	}
	return nil
}

func enableBroadcast(fd int) error {
	return windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_BROADCAST, 1)
}

func recvFrom(fd int, p []byte) (n int, host string, port uint16, err error) {
	n, sa, err := windows.Recvfrom(windows.Handle(fd), p, 0)
	if err != nil {
		return 0, "", 0, err
	}
	if a, ok := sa.(*windows.SockaddrInet4); ok {
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
	sa := &windows.SockaddrInet4{Port: int(port), Addr: addr}
	return windows.Sendto(windows.Handle(fd), p, 0, sa)
}

func recvFixed(fd int, p []byte) (int, error) {
	return windows.Recv(windows.Handle(fd), p, 0)
}

func closeSocket(fd int) {
	_ = windows.Closesocket(windows.Handle(fd))
}

func isWouldBlock(err error) bool {
	return err == windows.WSAEWOULDBLOCK
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
