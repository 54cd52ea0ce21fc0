package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

const (
	responseKeyPrefix = "idempotency:"
	inFlightMarker    = "processing"
)

var (
	ErrInFlight    = errors.New("request with this key is still in progress")
	ErrNoResponse  = errors.New("no stored response")
	ErrKeyRequired = errors.New("idempotency key is required")
)

// StoredResponse is a replayable HTTP response.
type StoredResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

// ResponseStore keeps responses of idempotent requests in Redis.
type ResponseStore struct {
	lockTTL      time.Duration
	retentionTTL time.Duration
}

var (
	setResponseValue   = Set
	getResponseValue   = Get
	setNXResponseValue = SetNX
	delResponseValue   = Del
)

// NewResponseStore creates a store holding the in-flight marker for lockTTL
// and completed responses for retentionTTL.
func NewResponseStore(lockTTL, retentionTTL time.Duration) *ResponseStore {
	return &ResponseStore{lockTTL: lockTTL, retentionTTL: retentionTTL}
}

func responseKey(scope, key string) string {
	return responseKeyPrefix + scope + ":" + key
}

// Load returns the stored response for key, ErrInFlight while another request
// holds it, or ErrNoResponse when nothing is stored.
func (s *ResponseStore) Load(ctx context.Context, scope, key string) (*StoredResponse, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}
	raw, err := getResponseValue(ctx, responseKey(scope, key))
	if err != nil {
		if IsNil(err) {
			return nil, ErrNoResponse
		}
		return nil, err
	}
	if raw == inFlightMarker {
		return nil, ErrInFlight
	}
	var stored StoredResponse
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// Acquire marks key as in flight. It returns ErrInFlight when already held.
func (s *ResponseStore) Acquire(ctx context.Context, scope, key string) error {
	if key == "" {
		return ErrKeyRequired
	}
	ok, err := setNXResponseValue(ctx, responseKey(scope, key), inFlightMarker, s.lockTTL)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInFlight
	}
	return nil
}

// Save replaces the in-flight marker with the final response.
func (s *ResponseStore) Save(ctx context.Context, scope, key string, resp *StoredResponse) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return setResponseValue(ctx, responseKey(scope, key), payload, s.retentionTTL)
}

// Release drops the key so the request can be retried.
func (s *ResponseStore) Release(ctx context.Context, scope, key string) error {
	return delResponseValue(ctx, responseKey(scope, key))
}
