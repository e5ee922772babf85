//go:build windows

package tcp

import (
	"fmt"
	"net"

	"golang.org/x/sys/windows"
)

const backlog = 10

func listenSocket(ip string, port uint16) (int, error) {
	fd, err := windows.Socket(windows.AF_INET, windows.SOCK_STREAM, 0)
	if err != nil {
		return -1, fmt.Errorf("socket: %w", err)
	}
	if err := windows.SetsockoptInt(fd, windows.SOL_SOCKET, windows.SO_REUSEADDR, 1); err != nil {
		windows.Closesocket(fd)
		return -1, fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}
	if err := setNonBlocking(fd); err != nil {
		windows.Closesocket(fd)
		return -1, err
	}

	addr, err := resolveIPv4(ip)
	if err != nil {
		windows.Closesocket(fd)
		return -1, err
	}
	sa := &windows.SockaddrInet4{Port: int(port), Addr: addr}
	if err := windows.Bind(fd, sa); err != nil {
		windows.Closesocket(fd)
		return -1, fmt.Errorf("bind: %w", err)
	}
	if err := windows.Listen(fd, backlog); err != nil {
		windows.Closesocket(fd)
		return -1, fmt.Errorf("listen: %w", err)
	}
	return int(fd), nil
}

func acceptConn(listenFd int) (fd int, host string, port uint16, err error) {
	nfd, sa, err := windows.Accept(windows.Handle(listenFd))
	if err != nil {
		return -1, "", 0, err
	}
	if err := setNonBlocking(nfd); err != nil {
		windows.Closesocket(nfd)
		return -1, "", 0, err
	}
	switch a := sa.(type) {
	case *windows.SockaddrInet4:
		host = net.IP(a.Addr[:]).String()
		port = uint16(a.Port)
	}
	return int(nfd), host, port, nil
}

func dialSocket(localIP string, localPort uint16) (int, error) {
	fd, err := windows.Socket(windows.AF_INET, windows.SOCK_STREAM, 0)
	if err != nil {
		return -1, fmt.Errorf("socket: %w", err)
	}
	if err := setNonBlocking(fd); err != nil {
		windows.Closesocket(fd)
		return -1, err
	}
	if localIP != "" || localPort != 0 {
		addr, err := resolveIPv4(localIP)
		if err != nil {
			windows.Closesocket(fd)
			return -1, err
		}
		sa := &windows.SockaddrInet4{Port: int(localPort), Addr: addr}
		if err := windows.Bind(fd, sa); err != nil {
			windows.Closesocket(fd)
			return -1, fmt.Errorf("bind: %w", err)
		}
	}
	return int(fd), nil
}

func connect(fd int, remoteIP string, remotePort uint16) (inProgress bool, err error) {
	addr, err := resolveIPv4(remoteIP)
	if err != nil {
		return false, err
	}
	sa := &windows.SockaddrInet4{Port: int(remotePort), Addr: addr}
	err = windows.Connect(windows.Handle(fd), sa)
	if err == nil {
		return false, nil
	}
	if err == windows.WSAEWOULDBLOCK {
		return true, nil
	}
	return false, err
}

// waitWritable polls briefly for the connect completion via select,
// matching the Linux path's bounded wait.
func waitWritable(fd int, timeoutSec, timeoutUsec int64) (bool, error) {
	var wfds windows.FdSet
	wfds.Array[0] = windows.Handle(fd)
	wfds.Count = 1
	tv := windows.Timeval{Sec: int32(timeoutSec), Usec: int32(timeoutUsec)}
	n, err := windows.Select(fd+1, nil, &wfds, nil, &tv)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func connectError(fd int) error {
	errno, err := windows.GetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_ERROR)
	if err != nil {
		return err
	}
	if errno != 0 {
		return windows.Errno(errno)
	}
	return nil
}

func setKeepAlive(fd int) {
	_ = windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_KEEPALIVE, 1)
}

func recvInto(fd int, p []byte) (int, error) {
	return windows.Recv(windows.Handle(fd), p, 0)
}

func sendFrom(fd int, p []byte) (int, error) {
	return windows.Send(windows.Handle(fd), p, 0)
}

func closeSocket(fd int) {
	_ = windows.Closesocket(windows.Handle(fd))
}

func isWouldBlock(err error) bool {
	return err == windows.WSAEWOULDBLOCK
}

func setNonBlocking(fd windows.Handle) error {
	var mode uint32 = 1
	return windows.IoctlSocket(fd, windows.FIONBIO, &mode)
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
