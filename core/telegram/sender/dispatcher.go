package sender

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/relaybot/core/logger"
	"github.com/m3rciful/relaybot/core/metrics"

	tele "gopkg.in/telebot.v4"
)

var (
	// ErrQueueClosed is returned when a job is submitted after Close.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull indicates the shard queue is saturated and the job was not accepted.
	ErrQueueFull = errors.New("telegram sender: queue full")

	tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)
)

// Options sizes the dispatcher.
type Options struct {
	// Workers is the number of shards; each shard runs its jobs one at a time.
	Workers int
	// QueueSize bounds each shard queue.
	QueueSize int
	// Timeout is the deadline given to every job.
	Timeout time.Duration
}

// Job is one unit of work. ctx carries the job deadline.
type Job func(ctx context.Context) error

type task struct {
	ctx  context.Context
	key  int64
	name string
	run  Job
}

// Dispatcher runs jobs on a fixed set of shards picked by key, so jobs sharing a
// key execute in submission order while different keys proceed in parallel.
type Dispatcher struct {
	opts   Options
	shards []chan task

	mu     sync.RWMutex
	closed bool
	once   sync.Once
	wg     sync.WaitGroup

	errs atomic.Uint64
}

// NewDispatcher starts the shard workers, filling zero options with defaults.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	d := &Dispatcher{
		opts:   opts,
		shards: make([]chan task, opts.Workers),
	}
	d.wg.Add(opts.Workers)
	for i := range d.shards {
		d.shards[i] = make(chan task, opts.QueueSize)
		go d.worker(d.shards[i])
	}
	return d
}

func (d *Dispatcher) shardFor(key int64) chan task {
	if key < 0 {
		key = -key
	}
	return d.shards[key%int64(len(d.shards))]
}

// TrySubmit queues run on the shard owning key without blocking.
func (d *Dispatcher) TrySubmit(ctx context.Context, key int64, name string, run Job) error {
	if run == nil {
		return errors.New("telegram sender: nil job")
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.shardFor(key) <- task{ctx: ctx, key: key, name: name, run: run}:
		metrics.AddQueueDepth(1)
		return nil
	default:
		return ErrQueueFull
	}
}

// Submit queues run on the shard owning key, waiting for room when the shard is full.
// Waiting keeps per-key order intact; it ends early only when ctx is done.
func (d *Dispatcher) Submit(ctx context.Context, key int64, name string, run Job) error {
	err := d.TrySubmit(ctx, key, name, run)
	if !errors.Is(err, ErrQueueFull) {
		return err
	}
	logger.Warn(ctx, "tg.sender", "queue.backpressure",
		slog.String("job", name),
		slog.Int64("key", key),
	)

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.shardFor(key) <- task{ctx: ctx, key: key, name: name, run: run}:
		metrics.AddQueueDepth(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ErrorCount returns the number of failed jobs.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.errs.Load()
}

// Close stops accepting jobs and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		for _, ch := range d.shards {
			close(ch)
		}
		d.mu.Unlock()
		d.wg.Wait()
	})
}

func (d *Dispatcher) worker(tasks <-chan task) {
	defer d.wg.Done()
	for t := range tasks {
		metrics.AddQueueDepth(-1)
		d.handle(t)
	}
}

func (d *Dispatcher) handle(t task) {
	ctx := t.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.opts.Timeout)
	defer cancel()

	start := time.Now()
	err := d.runSafe(jobCtx, t)
	if err == nil {
		logger.Debug(ctx, "tg.sender", "job.done", jobAttrs(ctx, t, start)...)
		return
	}
	if outcome := handledOutcome(err); outcome != "" {
		logger.Debug(ctx, "tg.sender", "job.done", append(jobAttrs(ctx, t, start), slog.String("outcome", outcome))...)
		return
	}
	d.errs.Add(1)
	attrs := append(jobAttrs(ctx, t, start),
		slog.String("err", SanitizeError(err)),
		slog.String("error_kind", ClassifyError(err)),
	)
	logger.Error(ctx, "tg.sender", "job.fail", attrs...)
}

func (d *Dispatcher) runSafe(ctx context.Context, t task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "tg.sender", "tg.panic",
				slog.String("job", t.name),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("job %s panicked: %v", t.name, r)
		}
	}()
	return t.run(ctx)
}

// handledOutcome returns the outcome of errors that were already reported to the
// user (denied, rejected and the like). Such jobs are not counted as failures.
func handledOutcome(err error) string {
	var oc interface{ Outcome() string }
	if errors.As(err, &oc) {
		if o := oc.Outcome(); o != "" && o != "fail" {
			return o
		}
	}
	return ""
}

func jobAttrs(ctx context.Context, t task, start time.Time) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("job", t.name),
		slog.Int64("key", t.key),
		slog.Duration("duration", logger.Took(start)),
	}
	if rid := logger.RIDFrom(ctx); rid != "" {
		attrs = append(attrs, slog.String("rid", rid))
	}
	return attrs
}

// ClassifyError names the failure family of a Bot API call for logs.
func ClassifyError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return "timeout"
		}
		return "dns"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Op == "dial" {
			return "dial"
		}
		if opErr.Op == "read" || opErr.Op == "write" {
			if kind := ClassifyError(opErr.Err); kind != "" && kind != "unknown" {
				return kind
			}
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil && !errors.Is(urlErr.Err, err) {
		if kind := ClassifyError(urlErr.Err); kind != "" && kind != "unknown" {
			return kind
		}
	}

	var alertErr tls.AlertError
	if errors.As(err, &alertErr) {
		return "tls"
	}

	status := httpStatusFromError(err)
	switch {
	case status == http.StatusTooManyRequests:
		return "flood"
	case status >= 500:
		return "http_5xx"
	case status >= 400:
		return "http_4xx"
	}
	return "unknown"
}

// SanitizeError renders err with bot tokens redacted.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}

func httpStatusFromError(err error) int {
	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var floodErr tele.FloodError
	if errors.As(err, &floodErr) {
		return http.StatusTooManyRequests
	}
	var groupErr tele.GroupError
	if errors.As(err, &groupErr) {
		return http.StatusBadRequest
	}

	msg := err.Error()
	lastOpen := strings.LastIndex(msg, "(")
	lastClose := strings.LastIndex(msg, ")")
	if lastOpen >= 0 && lastClose > lastOpen+1 {
		if code, convErr := strconv.Atoi(strings.TrimSpace(msg[lastOpen+1 : lastClose])); convErr == nil {
			return code
		}
	}
	return 0
}
