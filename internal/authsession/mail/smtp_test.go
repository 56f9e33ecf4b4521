package mail

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeRelay speaks just enough SMTP to accept one message.
func fakeRelay(t *testing.T) (host string, port int, got <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	out := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		r := bufio.NewReader(conn)
		reply := func(s string) { _, _ = conn.Write([]byte(s + "\r\n")) }
		reply("220 localhost ESMTP")

		var data strings.Builder
		inData := false
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			if inData {
				if line == ".\r\n" {
					inData = false
					out <- data.String()
					reply("250 OK")
					continue
				}
				data.WriteString(line)
				continue
			}

			cmd := strings.ToUpper(strings.TrimSpace(line))
			switch {
			case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
				reply("250 localhost")
			case strings.HasPrefix(cmd, "DATA"):
				inData = true
				reply("354 go ahead")
			case strings.HasPrefix(cmd, "QUIT"):
				reply("221 bye")
				return
			default:
				reply("250 OK")
			}
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return "127.0.0.1", addr.Port, out
}

func TestSMTPSender_Send(t *testing.T) {
	host, port, got := fakeRelay(t)
	s := NewSMTPSender(SMTPConfig{Host: host, Port: port, From: "noreply@example.com"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msg := Message{To: "a@b.com", Subject: "Verification Code", Text: "code 123456", HTML: "<b>123456</b>"}
	require.NoError(t, s.Send(ctx, msg))

	select {
	case body := <-got:
		require.Contains(t, body, "a@b.com")
		require.Contains(t, body, "multipart/alternative")
		require.Contains(t, body, "code 123456")
		require.Contains(t, body, "<b>123456</b>")
	case <-ctx.Done():
		t.Fatal("relay never received the message")
	}
}

func TestSMTPSender_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	s := NewSMTPSender(SMTPConfig{Host: "127.0.0.1", Port: port, From: "noreply@example.com"})
	err = s.Send(context.Background(), Message{To: "a@b.com"})
	require.ErrorIs(t, err, ErrDelivery)
}

func TestSMTPSender_InvalidRecipient(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "127.0.0.1", Port: 1, From: "noreply@example.com"})
	err := s.Send(context.Background(), Message{To: "not an address"})
	require.ErrorIs(t, err, ErrDelivery)
}

func TestSMTPSender_MessageHeaders(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "mail.example.com", Port: 587, From: "noreply@example.com"})
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	m, err := s.message(Message{To: "a@b.com", Subject: "Password Reset Request", Text: "t", HTML: "h"})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)

	raw := buf.String()
	require.Contains(t, raw, "noreply@example.com")
	require.Contains(t, raw, "Subject: Password Reset Request")
	require.Contains(t, raw, "Date: "+s.now().Format(time.RFC1123Z))
	require.Contains(t, raw, "MIME-Version: 1.0")
	require.Contains(t, raw, "@mail.example.com>")
	require.Contains(t, raw, "multipart/alternative")
	require.Equal(t, 2, strings.Count(raw, "Content-Type: text/"), "one text and one html part")
}
