package singleinstance

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"strings"
	"time"
)

type tcpClient struct{}

func newTcpClient() Client { return &tcpClient{} }

// commandTimeout bounds the CAPTURE exchange once a resident is found.
const commandTimeout = 2 * time.Second

func (c *tcpClient) TryTrigger(ctx context.Context) (bool, error) {
	port, ok := DetectResidentPort(ctx)
	if !ok {
		return false, ctx.Err()
	}
	addr := residentAddr(port)
	log.Printf("singleinstance: resident found on %s", addr)
	return true, sendCommand(addr, CommandCapture, probeTimeout(ctx, commandTimeout))
}

func sendCommand(addr string, cmd Command, timeout time.Duration) error {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return fmt.Errorf("connect to resident: %w", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))

	w := bufio.NewWriter(conn)
	if _, err := w.WriteString(string(cmd) + "\n"); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	br := bufio.NewReader(conn)
	status, err := br.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read resident response: %w", err)
	}
	switch status {
	case successResponse:
		return nil
	case errorResponse:
		msg, _ := io.ReadAll(br)
		return errors.New(strings.TrimSpace(string(msg)))
	default:
		return fmt.Errorf("unexpected resident response %q", status)
	}
}
