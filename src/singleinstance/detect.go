package singleinstance

import (
	"bufio"
	"context"
	"io"
	"net"
	"strconv"
	"time"
)

// detectTimeout bounds each PING while scanning the port range.
const detectTimeout = 300 * time.Millisecond

// DetectResidentPort probes the configured port range in order and returns
// the first port whose listener answers PING with PONG. Ports held by
// unrelated programs are skipped.
func DetectResidentPort(ctx context.Context) (int, bool) {
	timeout := probeTimeout(ctx, detectTimeout)
	start, end := getPortRange()
	for port := start; port <= end; port++ {
		if ctx.Err() != nil {
			return 0, false
		}
		if ping(residentAddr(port), timeout) {
			return port, true
		}
	}
	return 0, false
}

func residentAddr(port int) string {
	return net.JoinHostPort(residentHost, strconv.Itoa(port))
}

// probeTimeout returns d, shortened to whatever is left of ctx's deadline.
func probeTimeout(ctx context.Context, d time.Duration) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left > 0 && left < d {
			return left
		}
	}
	return d
}

func ping(addr string, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return false
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))
	if _, err := io.WriteString(conn, pingRequest); err != nil {
		return false
	}
	resp, err := bufio.NewReader(conn).ReadString('\n')
	return err == nil && resp == pongResponse
}
