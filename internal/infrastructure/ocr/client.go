package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gwgplus/nikkle/internal/domain/entity"
	"github.com/gwgplus/nikkle/internal/domain/port"
)

const defaultTimeout = 15 * time.Second

// Client клиент HTTP-сервиса распознавания. Сервис принимает путь к
// снимку и возвращает найденные текстовые области с таймингами этапов.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ port.Recognizer = (*Client)(nil)

// NewClient создаёт клиент сервиса распознавания.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type recognizeRequest struct {
	ImagePath string `json:"image_path"`
}

type regionPayload struct {
	BBox       [4]int  `json:"bbox"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

type timingPayload struct {
	TotalMS     float64 `json:"total_ms"`
	DetectMS    float64 `json:"yolo_ms"`
	RecognizeMS float64 `json:"trocr_ms"`
	TextCount   int     `json:"text_count"`
}

type recognizeResponse struct {
	Success bool            `json:"success"`
	Results []regionPayload `json:"results"`
	Timing  timingPayload   `json:"timing"`
	Error   string          `json:"error"`
}

// Recognize отправляет снимок на распознавание и возвращает результат.
func (c *Client) Recognize(ctx context.Context, imagePath string) (*entity.Recognition, error) {
	body, err := json.Marshal(recognizeRequest{ImagePath: imagePath})
	if err != nil {
		return nil, fmt.Errorf("ocr request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/recognize", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ocr request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ocr service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ocr service: unexpected status %d", resp.StatusCode)
	}

	var payload recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("ocr response: %w", err)
	}

	rec := &entity.Recognition{
		Success: payload.Success,
		Timing: entity.RecognitionTiming{
			TotalMS:     payload.Timing.TotalMS,
			DetectMS:    payload.Timing.DetectMS,
			RecognizeMS: payload.Timing.RecognizeMS,
			TextCount:   payload.Timing.TextCount,
		},
	}
	if payload.Error != "" {
		rec.Err = payload.Error
	}
	for _, r := range payload.Results {
		rec.Regions = append(rec.Regions, entity.TextRegion{
			X1:         r.BBox[0],
			Y1:         r.BBox[1],
			X2:         r.BBox[2],
			Y2:         r.BBox[3],
			Text:       r.Text,
			Confidence: r.Confidence,
		})
	}
	return rec, nil
}
