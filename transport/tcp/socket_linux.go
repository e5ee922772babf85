//go:build linux

package tcp

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

const backlog = 10

// listenSocket creates a non-blocking listening socket bound to ip:port.
// ip == "" binds INADDR_ANY.
func listenSocket(ip string, port uint16) (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		return -1, fmt.Errorf("socket: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}

	addr, err := resolveIPv4(ip)
	if err != nil {
		unix.Close(fd)
		return -1, err
	}
	sa := &unix.SockaddrInet4{Port: int(port), Addr: addr}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("bind: %w", err)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("listen: %w", err)
	}
	return fd, nil
}

// acceptConn accepts one pending connection as a non-blocking socket and
// returns its fd plus the peer's address.
func acceptConn(listenFd int) (fd int, host string, port uint16, err error) {
	nfd, sa, err := unix.Accept4(listenFd, unix.SOCK_NONBLOCK)
	if err != nil {
		return -1, "", 0, err
	}
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		host = net.IP(a.Addr[:]).String()
		port = uint16(a.Port)
	default:
		host = ""
	}
	return nfd, host, port, nil
}

// dialSocket creates a non-blocking socket, optionally bound to a local
// address. It does not connect; connect does that.
func dialSocket(localIP string, localPort uint16) (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		return -1, fmt.Errorf("socket: %w", err)
	}
	if localIP != "" || localPort != 0 {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			unix.Close(fd)
			return -1, fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
		}
		addr, err := resolveIPv4(localIP)
		if err != nil {
			unix.Close(fd)
			return -1, err
		}
		sa := &unix.SockaddrInet4{Port: int(localPort), Addr: addr}
		if err := unix.Bind(fd, sa); err != nil {
			unix.Close(fd)
			return -1, fmt.Errorf("bind: %w", err)
		}
	}
	return fd, nil
}

// connect starts a non-blocking connect to remoteIP:remotePort. It returns
// immediately with inProgress=true when the kernel hasn't completed the
// three-way handshake yet; the caller waits for writability and then calls
// connectError to learn the outcome.
func connect(fd int, remoteIP string, remotePort uint16) (inProgress bool, err error) {
	addr, err := resolveIPv4(remoteIP)
	if err != nil {
		return false, err
	}
	sa := &unix.SockaddrInet4{Port: int(remotePort), Addr: addr}
	err = unix.Connect(fd, sa)
	if err == nil {
		return false, nil
	}
	if err == unix.EINPROGRESS {
		return true, nil
	}
	return false, err
}

// waitWritable blocks up to the given timeout for fd to become writable,
// the non-blocking-connect completion signal, using poll(2) for the
// bounded wait.
func waitWritable(fd int, timeoutSec, timeoutUsec int64) (bool, error) {
	pfd := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLOUT}}
	timeoutMs := int(timeoutSec*1000 + timeoutUsec/1000)
	n, err := unix.Poll(pfd, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return false, nil
		}
		return false, err
	}
	return n > 0 && pfd[0].Revents&unix.POLLOUT != 0, nil
}

// connectError reads SO_ERROR to determine whether an async connect
// succeeded.
func connectError(fd int) error {
	errno, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return err
	}
	if errno != 0 {
		return unix.Errno(errno)
	}
	return nil
}

// setKeepAlive enables TCP keepalive with the idle=3s/interval=1s/count=2
// tuning carried over from the reference implementation.
func setKeepAlive(fd int) {
	_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1)
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPIDLE, 3)
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPINTVL, 1)
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPCNT, 2)
}

func recvInto(fd int, p []byte) (int, error) {
	return unix.Read(fd, p)
}

func sendFrom(fd int, p []byte) (int, error) {
	return unix.Write(fd, p)
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
