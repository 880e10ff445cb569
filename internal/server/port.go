package server

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"strconv"

	"github.com/alnah/go-mdlive/internal/hints"
)

// ErrNoFreePort is returned when every port of the window is taken.
var ErrNoFreePort = errors.New("no free port")

// blockedPorts are refused by browsers (ERR_UNSAFE_PORT).
var blockedPorts = map[int]bool{
	5060: true, // SIP
	5061: true, // SIP over TLS
}

// Listen binds host:port, or when port is zero a random free port in
// [portMin, portMax] that browsers accept.
func Listen(host string, port, portMin, portMax int) (net.Listener, error) {
	if port != 0 {
		ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		if err != nil {
			return nil, fmt.Errorf("listening on port %d: %w%s", port, err, hints.ForPortInUse())
		}
		return ln, nil
	}
	return listenInRange(host, portMin, portMax, rand.Perm)
}

func listenInRange(host string, portMin, portMax int, perm func(int) []int) (net.Listener, error) {
	if portMin <= 0 || portMax < portMin {
		return nil, fmt.Errorf("%w: invalid port window %d-%d", ErrNoFreePort, portMin, portMax)
	}
	for _, offset := range perm(portMax - portMin + 1) {
		port := portMin + offset
		if blockedPorts[port] {
			continue
		}
		ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		if err == nil {
			return ln, nil
		}
	}
	return nil, fmt.Errorf("%w in %d-%d%s", ErrNoFreePort, portMin, portMax, hints.ForPortInUse())
}

// Port returns the TCP port ln is bound to.
func Port(ln net.Listener) int {
	if addr, ok := ln.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}
