//go:build !windows

package unix

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

const backlog = 10
const recvBufferMaxSize = 4096

// listenSocket unlinks any stale socket file at path, then creates,
// binds, and listens on a non-blocking AF_UNIX stream socket there.
func listenSocket(path string) (int, error) {
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		return -1, fmt.Errorf("socket: %w", err)
	}

	_ = os.Remove(path)

	if err := unix.Bind(fd, &unix.SockaddrUnix{Name: path}); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("bind: %w", err)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("listen: %w", err)
	}
	return fd, nil
}

func acceptConn(listenFd int) (int, error) {
	nfd, _, err := unix.Accept4(listenFd, unix.SOCK_NONBLOCK)
	if err != nil {
		return -1, err
	}
	return nfd, nil
}

func dialSocket() (int, error) {
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		return -1, fmt.Errorf("socket: %w", err)
	}
	return fd, nil
}

// connect issues a non-blocking connect to the listening socket at path.
func connect(fd int, path string) (inProgress bool, err error) {
	err = unix.Connect(fd, &unix.SockaddrUnix{Name: path})
	if err == nil {
		return false, nil
	}
	if err == unix.EINPROGRESS {
		return true, nil
	}
	return false, err
}

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

func recvInto(fd int, p []byte) (int, error) {
	return unix.Read(fd, p)
}

func sendFrom(fd int, p []byte) (int, error) {
	return unix.Write(fd, p)
}

func closeSocket(fd int) {
	_ = unix.Close(fd)
}

func removeSocketFile(path string) {
	_ = os.Remove(path)
}

func isWouldBlock(err error) bool {
	return err == unix.EAGAIN || err == unix.EWOULDBLOCK
}
