package services

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"honeytrap/internal/domain/models"
	"honeytrap/pkg/logger"
)

// Callback delivery headers
const (
	HeaderDelivery  = "X-Honeytrap-Delivery"
	HeaderSession   = "X-Honeytrap-Session"
	HeaderTimestamp = "X-Honeytrap-Timestamp"
	HeaderSignature = "X-Honeytrap-Signature"
)

// CallbackDispatcher delivers session reports to a callback endpoint from a
// pool of workers. Enqueue never blocks: a full queue drops the report.
type CallbackDispatcher struct {
	queue      chan *callbackJob
	httpClient *http.Client
	secret     string
	logger     *logger.Logger

	maxAttempts   int
	retryInterval time.Duration
	maxRetryDelay time.Duration

	wg       sync.WaitGroup
	stopCh   chan struct{}
	stopOnce sync.Once
	workers  int

	queued    atomic.Int64
	delivered atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
}

// callbackJob is one report on its way to one URL
type callbackJob struct {
	id       uuid.UUID
	url      string
	report   models.Report
	attempts int
}

// CallbackConfig contains configuration for the dispatcher
type CallbackConfig struct {
	Workers       int
	QueueSize     int
	Timeout       time.Duration
	Secret        string
	MaxAttempts   int
	RetryInterval time.Duration
	MaxRetryDelay time.Duration
}

// DefaultCallbackConfig returns sensible defaults
func DefaultCallbackConfig() *CallbackConfig {
	return &CallbackConfig{
		Workers:       2,
		QueueSize:     100,
		Timeout:       5 * time.Second,
		MaxAttempts:   3,
		RetryInterval: 500 * time.Millisecond,
		MaxRetryDelay: 30 * time.Second,
	}
}

// CallbackStats are delivery counters since start
type CallbackStats struct {
	Queued    int64 `json:"queued"`
	Delivered int64 `json:"delivered"`
	Failed    int64 `json:"failed"`
	Dropped   int64 `json:"dropped"`
}

// NewCallbackDispatcher creates a dispatcher and starts its workers
func NewCallbackDispatcher(log *logger.Logger, cfg *CallbackConfig) *CallbackDispatcher {
	if cfg == nil {
		cfg = DefaultCallbackConfig()
	}
	defaults := DefaultCallbackConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = defaults.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaults.QueueSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = defaults.RetryInterval
	}
	if cfg.MaxRetryDelay <= 0 {
		cfg.MaxRetryDelay = defaults.MaxRetryDelay
	}
	if log == nil {
		log = logger.NewNop()
	}

	d := &CallbackDispatcher{
		queue: make(chan *callbackJob, cfg.QueueSize),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		secret:        cfg.Secret,
		logger:        log.WithComponent("callback-dispatcher"),
		maxAttempts:   cfg.MaxAttempts,
		retryInterval: cfg.RetryInterval,
		maxRetryDelay: cfg.MaxRetryDelay,
		stopCh:        make(chan struct{}),
		workers:       cfg.Workers,
	}

	d.startWorkers()

	return d
}

func (d *CallbackDispatcher) startWorkers() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.deliveryWorker(i)
	}
	d.logger.Info().Int("workers", d.workers).Msg("callback workers started")
}

func (d *CallbackDispatcher) deliveryWorker(id int) {
	defer d.wg.Done()

	for {
		select {
		case <-d.stopCh:
			d.logger.Debug().Int("worker", id).Msg("callback worker stopping")
			return
		case job := <-d.queue:
			d.deliver(job)
		}
	}
}

// Stop halts the workers and any pending retries. Reports still queued are
// abandoned.
func (d *CallbackDispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.stopCh)
		d.wg.Wait()
		d.logger.Info().Msg("callback dispatcher stopped")
	})
}

// Enqueue schedules delivery of report to url. It reports false when the
// report was dropped because the queue is full, the url is empty or the
// dispatcher is stopped.
func (d *CallbackDispatcher) Enqueue(url string, report models.Report) bool {
	if url == "" {
		return false
	}
	select {
	case <-d.stopCh:
		return false
	default:
	}

	job := &callbackJob{id: uuid.New(), url: url, report: report}
	select {
	case d.queue <- job:
		d.queued.Add(1)
		return true
	default:
		d.dropped.Add(1)
		d.logger.Warn().
			Str("session_id", report.SessionID).
			Int("queue_size", cap(d.queue)).
			Msg("callback queue full, dropping report")
		return false
	}
}

// Stats returns the delivery counters.
func (d *CallbackDispatcher) Stats() CallbackStats {
	return CallbackStats{
		Queued:    d.queued.Load(),
		Delivered: d.delivered.Load(),
		Failed:    d.failed.Load(),
		Dropped:   d.dropped.Load(),
	}
}

func (d *CallbackDispatcher) deliver(job *callbackJob) {
	startTime := time.Now()

	body, err := json.Marshal(job.report)
	if err != nil {
		d.recordFailure(job, "marshal_error", err.Error())
		return
	}

	req, err := http.NewRequest(http.MethodPost, job.url, bytes.NewReader(body))
	if err != nil {
		d.recordFailure(job, "request_error", err.Error())
		return
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Honeytrap-Callback/1.0")
	req.Header.Set(HeaderDelivery, job.id.String())
	req.Header.Set(HeaderSession, job.report.SessionID)
	req.Header.Set(HeaderTimestamp, strconv.FormatInt(time.Now().Unix(), 10))
	if d.secret != "" {
		req.Header.Set(HeaderSignature, "sha256="+SignPayload(body, d.secret))
	}

	job.attempts++
	resp, err := d.httpClient.Do(req)
	duration := time.Since(startTime)

	if err != nil {
		d.logger.Warn().
			Err(err).
			Str("session_id", job.report.SessionID).
			Str("url", job.url).
			Int("attempt", job.attempts).
			Msg("callback delivery failed")
		d.handleDeliveryError(job, err.Error())
		return
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		d.delivered.Add(1)
		d.logger.Info().
			Str("session_id", job.report.SessionID).
			Str("delivery_id", job.id.String()).
			Int("status", resp.StatusCode).
			Int("attempt", job.attempts).
			Dur("duration", duration).
			Msg("callback delivered")
		return
	}

	errMsg := fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(respBody))
	d.logger.Warn().
		Str("session_id", job.report.SessionID).
		Int("status", resp.StatusCode).
		Int("attempt", job.attempts).
		Msg("callback rejected")
	d.handleDeliveryError(job, errMsg)
}

func (d *CallbackDispatcher) handleDeliveryError(job *callbackJob, errMsg string) {
	if job.attempts >= d.maxAttempts {
		d.recordFailure(job, "max_attempts", errMsg)
		return
	}

	delay := d.retryDelay(job.attempts)

	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-d.stopCh:
			return
		}

		select {
		case d.queue <- job:
			d.logger.Debug().
				Str("session_id", job.report.SessionID).
				Int("attempt", job.attempts).
				Msg("callback retry queued")
		case <-d.stopCh:
		}
	}()

	d.logger.Warn().
		Str("session_id", job.report.SessionID).
		Int("attempt", job.attempts).
		Dur("retry_in", delay).
		Msg("callback delivery will retry")
}

// retryDelay doubles the retry interval per completed attempt, capped.
func (d *CallbackDispatcher) retryDelay(attempts int) time.Duration {
	delay := d.retryInterval
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= d.maxRetryDelay {
			return d.maxRetryDelay
		}
	}
	return min(delay, d.maxRetryDelay)
}

func (d *CallbackDispatcher) recordFailure(job *callbackJob, reason, errMsg string) {
	d.failed.Add(1)
	d.logger.Error().
		Str("session_id", job.report.SessionID).
		Str("delivery_id", job.id.String()).
		Str("reason", reason).
		Str("error", errMsg).
		Int("attempts", job.attempts).
		Msg("callback delivery failed permanently")
}

// SignPayload returns the hex HMAC-SHA256 of payload under secret.
func SignPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
