package ccd

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
	"time"
)

const (
	// pollTick шаг опроса сокета в ожидании ответа
	pollTick = 10 * time.Millisecond

	// drainTick шаг дочитывания хвоста после найденного маркера
	drainTick = 50 * time.Millisecond

	readBufferSize = 1024
)

// Client низкоуровневый клиент строкового протокола CCD. Ответы камеры
// приходят фрагментами, поэтому поиск маркера идёт по накопленному
// буферу целиком, без учёта регистра. Любая ошибка сокета на этом
// уровне сворачивается в пустой результат и наружу не поднимается.
type Client struct {
	conn net.Conn
}

// Dial открывает соединение с контроллером
func Dial(host string, port int, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, fmt.Sprintf("%d", port)), timeout)
	if err != nil {
		return nil, fmt.Errorf("dial ccd: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Send отправляет строку как ASCII. false при любой ошибке сокета.
func (c *Client) Send(text string) bool {
	if c == nil || c.conn == nil {
		return false
	}
	if _, err := c.conn.Write([]byte(text)); err != nil {
		log.Printf("ccd: send failed: %v", err)
		return false
	}
	return true
}

// ReceiveUntil накапливает ответ, пока в буфере не появится marker или
// не истечёт timeout. При drainExtra > 0 после совпадения дочитывает
// хвост: не дольше drainExtra и не дальше второй пары CRLF. Так
// захватывается многострочный ответ без ожидания полного таймаута.
// Пустая строка означает таймаут, отмену или ошибку сокета.
func (c *Client) ReceiveUntil(ctx context.Context, marker string, timeout, drainExtra time.Duration) string {
	if c == nil || c.conn == nil {
		return ""
	}

	deadline := time.Now().Add(timeout)
	lowerMarker := strings.ToLower(marker)
	var acc strings.Builder
	buf := make([]byte, readBufferSize)

	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return ""
		}

		_ = c.conn.SetReadDeadline(time.Now().Add(pollTick))
		n, err := c.conn.Read(buf)
		if n > 0 {
			acc.Write(buf[:n])
			if strings.Contains(strings.ToLower(acc.String()), lowerMarker) {
				if drainExtra <= 0 {
					return acc.String()
				}
				return c.drain(ctx, &acc, drainExtra)
			}
		}
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			log.Printf("ccd: receive failed: %v", err)
			return ""
		}
	}

	log.Printf("ccd: timed out waiting for %q", marker)
	return ""
}

// drain дочитывает хвост ответа после найденного маркера
func (c *Client) drain(ctx context.Context, acc *strings.Builder, extra time.Duration) string {
	end := time.Now().Add(extra)
	buf := make([]byte, readBufferSize)

	for time.Now().Before(end) {
		if strings.Count(acc.String(), "\r\n") >= 2 {
			return acc.String()
		}
		if ctx.Err() != nil {
			return acc.String()
		}

		_ = c.conn.SetReadDeadline(time.Now().Add(drainTick))
		n, err := c.conn.Read(buf)
		if n > 0 {
			acc.Write(buf[:n])
		}
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			break
		}
	}

	return acc.String()
}

// Close закрывает соединение; повторный вызов безопасен
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
