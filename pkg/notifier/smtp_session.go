package notifier

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"gopkg.in/gomail.v2"
)

// sessionTimeout bounds one whole SMTP attempt: connect, greeting, TLS, AUTH and DATA
const sessionTimeout = 12 * time.Second

// smtpSession is a single authenticated SMTP attempt with an absolute deadline.
// gomail composes the message; the session is driven here because gomail's
// Dialer only bounds the TCP connect.
type smtpSession struct {
	host     string
	port     int
	username string
	password string
	ssl      bool
	timeout  time.Duration
}

func newSMTPSession(host string, port int, username, password string, ssl bool, timeout time.Duration) mailDialer {
	return &smtpSession{
		host:     host,
		port:     port,
		username: username,
		password: password,
		ssl:      ssl,
		timeout:  timeout,
	}
}

func (s *smtpSession) Send(ctx context.Context, msg *gomail.Message) error {
	deadline := time.Now().Add(s.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	dialer := &net.Dialer{Deadline: deadline}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("error connecting to %s: %w", addr, err)
	}
	defer conn.Close()

	// The deadline survives the TLS wrap and STARTTLS upgrade below
	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("error setting deadline: %w", err)
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	tlsConfig := &tls.Config{ServerName: s.host}
	if s.ssl {
		conn = tls.Client(conn, tlsConfig)
	}

	c, err := smtp.NewClient(conn, s.host)
	if err != nil {
		return fmt.Errorf("error reading greeting from %s: %w", addr, err)
	}
	defer c.Close()

	if !s.ssl {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(tlsConfig); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}
	if ok, _ := c.Extension("AUTH"); ok && s.username != "" {
		if err := c.Auth(smtp.PlainAuth("", s.username, s.password, s.host)); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	send := gomail.SendFunc(func(from string, to []string, m io.WriterTo) error {
		if err := c.Mail(from); err != nil {
			return fmt.Errorf("mail from: %w", err)
		}
		for _, rcpt := range to {
			if err := c.Rcpt(rcpt); err != nil {
				return fmt.Errorf("rcpt to %s: %w", rcpt, err)
			}
		}
		w, err := c.Data()
		if err != nil {
			return fmt.Errorf("data: %w", err)
		}
		if _, err := m.WriteTo(w); err != nil {
			w.Close()
			return fmt.Errorf("writing message: %w", err)
		}
		return w.Close()
	})
	if err := gomail.Send(send, msg); err != nil {
		return err
	}
	return c.Quit()
}
