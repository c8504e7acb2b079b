package domain

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultIdempotencyTTL: срок жизни ключа, если вызывающий не задал ttlAt.
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyStatus описывает жизненный цикл ключа идемпотентности.
type IdempotencyStatus string

const (
	IdempotencyStatusProcessing IdempotencyStatus = "processing"
	IdempotencyStatusDone       IdempotencyStatus = "done"
	IdempotencyStatusFailed     IdempotencyStatus = "failed"
)

// ParseIdempotencyStatus разбирает статус, прочитанный из хранилища.
func ParseIdempotencyStatus(raw string) (IdempotencyStatus, error) {
	switch s := IdempotencyStatus(raw); s {
	case IdempotencyStatusProcessing, IdempotencyStatusDone, IdempotencyStatusFailed:
		return s, nil
	default:
		return "", fmt.Errorf("invalid idempotency status %q", raw)
	}
}

// StatusForHTTP переводит код ответа в итоговый статус: 4xx/5xx сохраняются как failed.
func StatusForHTTP(code int) IdempotencyStatus {
	if code >= http.StatusBadRequest {
		return IdempotencyStatusFailed
	}
	return IdempotencyStatusDone
}

// IdempotentResponse: то, что нужно повторить клиенту. Location задан у 201.
type IdempotentResponse struct {
	HTTPStatus int
	Location   string
	Body       []byte
}

// IdempotencyRecord: сохранённый ответ на POST под Idempotency-Key.
type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	ResponseBody []byte
	HTTPStatus   int
	Location     string
	Status       IdempotencyStatus
	TTLAt        time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewIdempotencyRecord собирает запись в статусе processing.
// Пустой ttlAt заменяется на now + DefaultIdempotencyTTL.
func NewIdempotencyRecord(key, requestHash string, ttlAt, now time.Time) (IdempotencyRecord, error) {
	key = strings.TrimSpace(key)
	requestHash = strings.TrimSpace(requestHash)
	if key == "" {
		return IdempotencyRecord{}, ErrIdempotencyKeyRequired
	}
	if requestHash == "" {
		return IdempotencyRecord{}, ErrIdempotencyRequestHashRequired
	}
	if ttlAt.IsZero() {
		ttlAt = now.Add(DefaultIdempotencyTTL)
	}
	return IdempotencyRecord{
		Key:         key,
		RequestHash: requestHash,
		Status:      IdempotencyStatusProcessing,
		TTLAt:       ttlAt.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Conflict объясняет, почему повторный запрос с этим ключом не может занять запись.
func (r IdempotencyRecord) Conflict(requestHash string) error {
	if r.RequestHash != strings.TrimSpace(requestHash) {
		return ErrIdempotencyHashMismatch
	}
	return ErrIdempotencyKeyAlreadyExists
}

// Expired: запись пережила ttl и её ключ можно занимать заново.
func (r IdempotencyRecord) Expired(now time.Time) bool {
	return !r.TTLAt.After(now)
}

// Replayable: ответ сохранён и его можно отдать повторно.
func (r IdempotencyRecord) Replayable() bool {
	return r.Status == IdempotencyStatusDone || r.Status == IdempotencyStatusFailed
}

// Complete фиксирует ответ; статус выбирается по коду.
func (r IdempotencyRecord) Complete(resp IdempotentResponse, now time.Time) IdempotencyRecord {
	r.Status = StatusForHTTP(resp.HTTPStatus)
	r.HTTPStatus = resp.HTTPStatus
	r.Location = resp.Location
	r.ResponseBody = append([]byte(nil), resp.Body...)
	r.UpdatedAt = now
	return r
}

// Response возвращает сохранённый ответ; пустой код читается как 200.
func (r IdempotencyRecord) Response() IdempotentResponse {
	status := r.HTTPStatus
	if status == 0 {
		status = http.StatusOK
	}
	return IdempotentResponse{HTTPStatus: status, Location: r.Location, Body: r.ResponseBody}
}
