package ccd

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gwgplus/nikkle/internal/domain/port"
)

// State состояние сессии CCD
type State int

const (
	StateDisconnected State = iota
	StateAwaitingUser
	StateAwaitingPassword
	StateAwaitingLoginConfirm
	StateReady
	StateFailed
)

// Config параметры соединения с контроллером камеры
type Config struct {
	Host           string
	Port           int
	ConnectTimeout time.Duration // по умолчанию 3s
	StageTimeout   time.Duration // по умолчанию 5s на каждый шаг
	SettleDelay    time.Duration // по умолчанию 200ms после входа
}

func (c Config) withDefaults() Config {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 3 * time.Second
	}
	if c.StageTimeout <= 0 {
		c.StageTimeout = 5 * time.Second
	}
	if c.SettleDelay < 0 {
		c.SettleDelay = 0
	}
	return c
}

// Session рукопожатие с контроллером камеры: вход, команда съёмки и
// запрос распознанного кода. Одна сессия обслуживает одну попытку.
type Session struct {
	cfg    Config
	client *Client
	state  State
}

// NewSession создаёт сессию; соединение открывается в Connect
func NewSession(cfg Config) *Session {
	return &Session{cfg: cfg.withDefaults(), state: StateDisconnected}
}

// State возвращает текущее состояние сессии
func (s *Session) State() State {
	return s.state
}

// Connect выполняет сценарий подключения: вход по фиксированной учётке
// и команда съёмки se8. Ошибка каждого шага переводит сессию в Failed
// с сообщением, пригодным для показа оператору. Повторов нет: решение
// о новой попытке принимает вызывающий.
func (s *Session) Connect(ctx context.Context) error {
	client, err := Dial(s.cfg.Host, s.cfg.Port, s.cfg.ConnectTimeout)
	if err != nil {
		return s.fail("CCD connection failed: " + err.Error())
	}
	s.client = client

	s.state = StateAwaitingUser
	if s.wait(ctx, "User:") == "" {
		return s.fail("CCD connection failed: timed out waiting for User: prompt")
	}

	s.state = StateAwaitingPassword
	s.client.Send("admin\r\n")
	if s.wait(ctx, "PASSWORD") == "" {
		return s.fail("CCD connection failed: timed out waiting for PASSWORD prompt")
	}

	s.state = StateAwaitingLoginConfirm
	s.client.Send("\r\n") // пустой пароль
	if s.wait(ctx, "logged") == "" {
		return s.fail("CCD connection failed: timed out waiting for login confirmation")
	}

	// Контроллеру нужна пауза после входа, иначе команды теряются
	if !sleepCtx(ctx, s.cfg.SettleDelay) {
		return s.fail("CCD connection failed: cancelled")
	}

	s.client.Send("se8\r\n")
	if s.wait(ctx, "1") == "" {
		return s.fail("CCD connection failed: se8 trigger not acknowledged")
	}

	s.state = StateReady
	return nil
}

// RequestCode запрашивает распознанный камерой код командой gvstring.
// Ответ действителен, только если первый сегмент (по CR) равен "1";
// код лежит во втором сегменте. Любое отклонение трактуется как
// мягкое «нет результата», а не ошибка.
func (s *Session) RequestCode(ctx context.Context) (string, bool) {
	if s.client == nil || s.state != StateReady {
		return "", false
	}

	if !s.client.Send("gvstring\r\n") {
		return "", false
	}

	response := s.client.ReceiveUntil(ctx, "1\r", s.cfg.StageTimeout, 0)
	if response == "" {
		return "", false
	}

	lines := strings.Split(response, "\r")
	if len(lines) < 2 {
		log.Printf("ccd: gvstring response too short: %q", response)
		return "", false
	}
	if strings.TrimSpace(lines[0]) != "1" {
		log.Printf("ccd: gvstring status is not 1: %q", lines[0])
		return "", false
	}

	return strings.TrimSpace(lines[1]), true
}

// Close закрывает соединение на любом пути выхода
func (s *Session) Close() error {
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	if s.state != StateFailed {
		s.state = StateDisconnected
	}
	return err
}

func (s *Session) wait(ctx context.Context, marker string) string {
	return s.client.ReceiveUntil(ctx, marker, s.cfg.StageTimeout, 0)
}

func (s *Session) fail(reason string) error {
	s.state = StateFailed
	_ = s.Close()
	return errors.New(reason)
}

// sleepCtx ждёт d или отмену контекста; false при отмене
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// Dialer фабрика сессий: по одной на попытку
type Dialer struct {
	cfg Config
}

// NewDialer создаёт фабрику с фиксированными параметрами соединения
func NewDialer(cfg Config) *Dialer {
	return &Dialer{cfg: cfg.withDefaults()}
}

// Dial создаёт новую неподключённую сессию
func (d *Dialer) Dial() port.CameraSession {
	return NewSession(d.cfg)
}

var _ port.CameraSession = (*Session)(nil)
var _ port.CameraDialer = (*Dialer)(nil)
