package network

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetIdleUDPPortReturnsBindablePort(t *testing.T) {
	port := GetIdleUDPPort()
	require.NotZero(t, port)

	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: int(port)})
	require.NoError(t, err)
	conn.Close()
}

func TestGetIdleUDPPortAdvancesOnRepeatedCalls(t *testing.T) {
	first := GetIdleUDPPort()
	second := GetIdleUDPPort()
	assert.NotEqual(t, first, second)
}

func TestGetIdleUDPPortPairReturnsAdjacentPorts(t *testing.T) {
	first := GetIdleUDPPortPair()
	require.NotZero(t, first)

	c1, err := net.ListenUDP("udp", &net.UDPAddr{Port: int(first)})
	require.NoError(t, err)
	defer c1.Close()

	c2, err := net.ListenUDP("udp", &net.UDPAddr{Port: int(first + 1)})
	require.NoError(t, err)
	defer c2.Close()
}
