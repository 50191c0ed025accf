package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	app "github.com/gwgplus/nikkle/internal/application"
	"github.com/gwgplus/nikkle/internal/domain/entity"
	"github.com/gwgplus/nikkle/internal/domain/port"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 45 * time.Second
	sendBuffer = 64
)

// Message конверт сообщений панели оператора
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type loginRequest struct {
	Account  string `json:"account"`
	Password string `json:"password"`
}

type startTestRequest struct {
	Code1 string `json:"code1"`
	Code2 string `json:"code2"`
}

type judgmentRequest struct {
	Event string `json:"event"`
}

// judgmentEvents закрытая таблица команд панели. Неизвестная команда
// отклоняется, а не игнорируется.
var judgmentEvents = map[string]entity.JudgmentEvent{
	"allow":                entity.EventAllow,
	"back":                 entity.EventBack,
	"fold":                 entity.EventFold,
	"ocr_error":            entity.EventOCRError,
	"cannot_ocr":           entity.EventCannotOCR,
	"exterior_ok":          entity.EventExteriorOK,
	"exterior_ng":          entity.EventExteriorNG,
	"toggle_class1":        entity.EventToggleClass1,
	"toggle_class2":        entity.EventToggleClass2,
	"reason_oxidation":     entity.EventReasonOxidation,
	"reason_leak":          entity.EventReasonLeak,
	"reason_foreign":       entity.EventReasonForeignMatter,
	"reason_hole_abnormal": entity.EventReasonHoleAbnormal,
}

type client struct {
	conn *websocket.Conn
	send chan Message
}

// Display размещение снимка на экране киоска
type Display struct {
	Scale   float64
	OffsetX int
	OffsetY int
}

// Server WebSocket-граница панели оператора. Команды панели уходят в
// сервисы, уведомления движка рассылаются всем подключённым панелям.
type Server struct {
	inspection *app.InspectionService
	auth       *app.AuthService
	display    Display

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

var _ port.Notifier = (*Server)(nil)

// NewServer создаёт сервер панели оператора.
func NewServer(inspection *app.InspectionService, auth *app.AuthService, display Display) *Server {
	if display.Scale <= 0 {
		display.Scale = 1.0
	}
	return &Server{
		inspection: inspection,
		auth:       auth,
		display:    display,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Handler возвращает маршруты HTTP-сервера.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("api: websocket upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan Message, sendBuffer)}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	log.Printf("api: panel connected: %s", conn.RemoteAddr())

	go s.writePump(c)
	s.readPump(c)
}

func (s *Server) readPump(c *client) {
	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
		c.conn.Close()
		log.Printf("api: panel disconnected: %s", c.conn.RemoteAddr())
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("api: websocket read: %v", err)
			}
			return
		}
		s.dispatch(c, msg)
	}
}

func (s *Server) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) dispatch(c *client, msg Message) {
	switch msg.Type {
	case "login":
		s.handleLogin(c, msg.Payload)
	case "start_test":
		s.handleStartTest(c, msg.Payload)
	case "judgment":
		s.handleJudgment(c, msg.Payload)
	case "save_log":
		s.handleSaveLog(c)
	case "get_info":
		s.handleGetInfo(c)
	default:
		log.Printf("api: unknown message type: %s", msg.Type)
	}
}

func (s *Server) handleLogin(c *client, payload json.RawMessage) {
	var req loginRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendTo(c, "login_result", map[string]any{"success": false, "error": "bad login payload"})
		return
	}

	acc, err := s.auth.Login(context.Background(), req.Account, req.Password)
	if err != nil {
		s.sendTo(c, "login_result", map[string]any{"success": false, "error": err.Error()})
		return
	}

	s.inspection.SetOperator(acc)
	s.sendTo(c, "login_result", map[string]any{
		"success":  true,
		"name":     acc.Name,
		"is_admin": acc.IsAdmin,
	})
}

func (s *Server) handleStartTest(c *client, payload json.RawMessage) {
	var req startTestRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.Alert("bad start_test payload")
		return
	}

	// Проверка идёт долго, читающий цикл блокировать нельзя
	go func() {
		if _, err := s.inspection.StartTest(context.Background(), req.Code1, req.Code2); err != nil {
			if errors.Is(err, app.ErrBusy) {
				s.sendTo(c, "alert", map[string]any{"message": "Test is already running"})
				return
			}
			log.Printf("api: start_test: %v", err)
		}
	}()
}

func (s *Server) handleJudgment(c *client, payload json.RawMessage) {
	var req judgmentRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendTo(c, "alert", map[string]any{"message": "bad judgment payload"})
		return
	}

	ev, ok := judgmentEvents[req.Event]
	if !ok {
		s.sendTo(c, "alert", map[string]any{"message": "unknown judgment: " + req.Event})
		return
	}

	if err := s.inspection.Judge(ev); err != nil {
		s.sendTo(c, "alert", map[string]any{"message": err.Error()})
	}
}

func (s *Server) handleSaveLog(c *client) {
	id, err := s.inspection.SaveLog(context.Background())
	if err != nil {
		s.sendTo(c, "save_result", map[string]any{"success": false, "error": err.Error()})
		return
	}
	s.sendTo(c, "save_result", map[string]any{"success": true, "id": id})
}

func (s *Server) handleGetInfo(c *client) {
	info := s.inspection.CurrentInfo()
	now := time.Now()
	s.sendTo(c, "info", map[string]any{
		"date":            now.Format("2006-01-02"),
		"time":            now.Format("15:04:05"),
		"expected_code":   info.ExpectedCode,
		"recognized_text": info.RecognizedText,
		"operator":        info.Operator,
		"pass":            info.Counters.Pass,
		"fail":            info.Counters.Fail,
		"total":           info.Counters.Total(),
	})
}

// Alert показывает оператору сообщение об ошибке этапа.
func (s *Server) Alert(message string) {
	s.broadcast("alert", map[string]any{"message": message})
}

// ShowImage показывает полученный с камеры снимок.
func (s *Server) ShowImage(path string) {
	s.broadcast("image", map[string]any{
		"path":     path,
		"scale":    s.display.Scale,
		"offset_x": s.display.OffsetX,
		"offset_y": s.display.OffsetY,
	})
}

// OCRResult показывает итоговый распознанный текст.
func (s *Server) OCRResult(text string) {
	s.broadcast("ocr_result", map[string]any{"text": text})
}

// TestResult сообщает итог сравнения с ожидаемым кодом.
func (s *Server) TestResult(correct bool) {
	s.broadcast("test_result", map[string]any{"correct": correct})
}

// Counters обновляет суточные счётчики на экране.
func (s *Server) Counters(c entity.DailyCounters) {
	s.broadcast("counters", map[string]any{
		"date":  c.Date.Format("2006-01-02"),
		"pass":  c.Pass,
		"fail":  c.Fail,
		"total": c.Total(),
	})
}

func (s *Server) broadcast(msgType string, payload any) {
	msg, ok := encode(msgType, payload)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
			// Переполненный клиент пропускает уведомление
		}
	}
}

func (s *Server) sendTo(c *client, msgType string, payload any) {
	msg, ok := encode(msgType, payload)
	if !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

func encode(msgType string, payload any) (Message, bool) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("api: encode %s: %v", msgType, err)
		return Message{}, false
	}
	return Message{Type: msgType, Payload: raw}, true
}
