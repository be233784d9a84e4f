package notifier

import (
	"context"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// silentListener accepts connections and never writes a greeting
func silentListener(t *testing.T) (port int, accepted *int32) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	accepted = new(int32)
	var conns []net.Conn
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			atomic.AddInt32(accepted, 1)
			conns = append(conns, conn)
		}
	}()
	t.Cleanup(func() {
		ln.Close()
		<-done
		for _, c := range conns {
			c.Close()
		}
	})
	return ln.Addr().(*net.TCPAddr).Port, accepted
}

func TestSMTPHungServerTimesOutAndFallsBack(t *testing.T) {
	port, accepted := silentListener(t)

	n := NewSMTPNotifier("127.0.0.1", "owner@example.com", "app-pw")
	n.startTLSPort = port
	n.implicitPort = port
	n.timeout = 200 * time.Millisecond

	done := make(chan error, 1)
	go func() { done <- n.Notify(context.Background(), testLead) }()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected an error from a server that never greets")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Notify blocked on a silent server")
	}

	if got := atomic.LoadInt32(accepted); got != 2 {
		t.Fatalf("expected a STARTTLS attempt and an implicit TLS attempt, got %d connections", got)
	}
}

func TestSMTPContextCancelInterruptsSession(t *testing.T) {
	port, _ := silentListener(t)

	n := NewSMTPNotifier("127.0.0.1", "owner@example.com", "app-pw")
	n.startTLSPort = port
	n.implicitPort = port

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	if err := n.Notify(ctx, testLead); err == nil {
		t.Fatal("expected an error")
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("context deadline was ignored, Notify took %s", elapsed)
	}
}

func TestSMTPDefaultSessionTimeout(t *testing.T) {
	n := NewSMTPNotifier("smtp.example.com", "o@example.com", "pw")
	if n.timeout < 10*time.Second || n.timeout > 12*time.Second {
		t.Fatalf("session timeout %s outside 10-12s", n.timeout)
	}
}

// fakeSMTPServer speaks just enough SMTP for one plain-text AUTH PLAIN session
func fakeSMTPServer(t *testing.T) (port int, received <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	out := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		tp := textproto.NewConn(conn)
		_ = tp.PrintfLine("220 fake ESMTP")
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			cmd := strings.ToUpper(line)
			switch {
			case strings.HasPrefix(cmd, "EHLO"):
				_ = tp.PrintfLine("250-fake")
				_ = tp.PrintfLine("250 AUTH PLAIN")
			case strings.HasPrefix(cmd, "AUTH"):
				_ = tp.PrintfLine("235 2.7.0 accepted")
			case strings.HasPrefix(cmd, "MAIL"), strings.HasPrefix(cmd, "RCPT"):
				_ = tp.PrintfLine("250 ok")
			case strings.HasPrefix(cmd, "DATA"):
				_ = tp.PrintfLine("354 go ahead")
				data, err := tp.ReadDotBytes()
				if err != nil {
					return
				}
				out <- string(data)
				_ = tp.PrintfLine("250 queued")
			case strings.HasPrefix(cmd, "QUIT"):
				_ = tp.PrintfLine("221 bye")
				return
			default:
				_ = tp.PrintfLine("502 not implemented")
			}
		}
	}()
	return ln.Addr().(*net.TCPAddr).Port, out
}

func TestSMTPSessionDeliversMessage(t *testing.T) {
	port, received := fakeSMTPServer(t)

	n := NewSMTPNotifier("127.0.0.1", "owner@example.com", "app-pw")
	msg := n.compose(testLead)
	session := newSMTPSession("127.0.0.1", port, "owner@example.com", "app-pw", false, 2*time.Second)

	if err := session.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send to %s: %v", strconv.Itoa(port), err)
	}

	select {
	case data := <-received:
		if !strings.Contains(data, "Subject: New Lead from Ann") || !strings.Contains(data, "Name: Ann") {
			t.Fatalf("unexpected message:\n%s", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server never received DATA")
	}
}
