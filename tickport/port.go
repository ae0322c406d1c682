package tickport

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/c360/tickfifo/errors"
	"github.com/c360/tickfifo/health"
	"github.com/c360/tickfifo/metric"
	"github.com/c360/tickfifo/pkg/fifo"
)

// Transport is the subset of the NATS client the port needs.
type Transport interface {
	Subscribe(ctx context.Context, subject string, handler func(context.Context, []byte)) error
	Publish(ctx context.Context, subject string, data []byte) error
}

// DefaultPrefix is the subject prefix used when Config.Prefix is empty.
const DefaultPrefix = "tickfifo"

// Config configures a Port.
type Config struct {
	// Prefix roots the subjects: requests arrive on <Prefix>.tick and
	// responses leave on <Prefix>.state.
	Prefix string `json:"prefix"`
}

// TickSubject returns the request subject.
func (c Config) TickSubject() string {
	return c.prefix() + ".tick"
}

// StateSubject returns the response subject.
func (c Config) StateSubject() string {
	return c.prefix() + ".state"
}

func (c Config) prefix() string {
	if c.Prefix == "" {
		return DefaultPrefix
	}
	return c.Prefix
}

// TickRequest is one tick's inputs. ID is echoed in the response.
type TickRequest struct {
	ID    string `json:"id,omitempty"`
	Reset bool   `json:"reset,omitempty"`
	Write bool   `json:"write,omitempty"`
	Data  uint64 `json:"data,omitempty"`
	Read  bool   `json:"read,omitempty"`
}

// Inputs converts the request to tick inputs.
func (r TickRequest) Inputs() fifo.Inputs {
	return fifo.Inputs{Reset: r.Reset, WriteRequest: r.Write, WriteData: r.Data, ReadRequest: r.Read}
}

// TickResponse is the buffer state after a tick. For a malformed request
// Error is set and Tick is zero.
type TickResponse struct {
	ID            string `json:"id,omitempty"`
	Tick          uint64 `json:"tick"`
	ReadData      uint64 `json:"read_data"`
	Full          bool   `json:"full"`
	Empty         bool   `json:"empty"`
	Count         int    `json:"count"`
	WriteAccepted bool   `json:"write_accepted"`
	ReadAccepted  bool   `json:"read_accepted"`
	Error         string `json:"error,omitempty"`
}

// Port applies tick requests received over a Transport to a buffer.
type Port struct {
	buf       *fifo.Buffer
	transport Transport
	cfg       Config
	logger    *slog.Logger
	metrics   *metric.Metrics

	// tickMu keeps the tick number and the buffer tick in step when
	// requests are handled concurrently.
	tickMu sync.Mutex
	ticks  uint64

	running   atomic.Bool
	cancel    context.CancelFunc
	mu        sync.Mutex
	lastError atomic.Value // string
}

// New creates a port. A nil logger uses slog.Default(); metrics may be nil.
func New(buf *fifo.Buffer, transport Transport, cfg Config, logger *slog.Logger, metrics *metric.Metrics) *Port {
	if logger == nil {
		logger = slog.Default()
	}
	return &Port{
		buf:       buf,
		transport: transport,
		cfg:       cfg,
		logger:    logger.With("component", "tickport", "subject", cfg.TickSubject()),
		metrics:   metrics,
	}
}

// Start subscribes to the tick subject. Handlers stop when ctx is done or
// Stop is called.
func (p *Port) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running.Load() {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Port", "Start", "subscribe")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := p.transport.Subscribe(runCtx, p.cfg.TickSubject(), p.handle); err != nil {
		cancel()
		return errors.WrapTransient(err, "Port", "Start", "subscribe to "+p.cfg.TickSubject())
	}

	p.cancel = cancel
	p.running.Store(true)
	p.logger.Info("tick port started", "state_subject", p.cfg.StateSubject())
	return nil
}

// Stop makes the port ignore further requests and releases its
// subscription.
func (p *Port) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running.Load() {
		return errors.WrapInvalid(errors.ErrNotStarted, "Port", "Stop", "unsubscribe")
	}
	p.running.Store(false)
	p.cancel()
	p.logger.Info("tick port stopped")
	return nil
}

// Running reports whether the port accepts requests.
func (p *Port) Running() bool {
	return p.running.Load()
}

// Health reports unhealthy while stopped or after a failed publish.
func (p *Port) Health() health.Status {
	if !p.running.Load() {
		return health.NewUnhealthy("tickport", "not started")
	}
	if msg, _ := p.lastError.Load().(string); msg != "" {
		return health.NewDegraded("tickport", msg)
	}
	return health.NewHealthy("tickport", "listening on "+p.cfg.TickSubject())
}

func (p *Port) handle(ctx context.Context, data []byte) {
	if !p.running.Load() || ctx.Err() != nil {
		return
	}
	p.respond(ctx, p.process(data))
}

// process decodes one request and applies it as exactly one tick. A
// malformed request yields an error response and no tick.
func (p *Port) process(data []byte) TickResponse {
	p.count("in")

	var req TickRequest
	if err := json.Unmarshal(data, &req); err != nil {
		p.count("invalid")
		p.logger.Debug("malformed tick request", "error", err)
		return TickResponse{Error: "invalid tick request: " + err.Error()}
	}

	p.tickMu.Lock()
	out := p.buf.Tick(req.Inputs())
	p.ticks++
	tick := p.ticks
	p.tickMu.Unlock()

	return TickResponse{
		ID:            req.ID,
		Tick:          tick,
		ReadData:      out.ReadData,
		Full:          out.Full,
		Empty:         out.Empty,
		Count:         out.Count,
		WriteAccepted: out.WriteAccepted,
		ReadAccepted:  out.ReadAccepted,
	}
}

func (p *Port) respond(ctx context.Context, resp TickResponse) {
	payload, err := json.Marshal(resp)
	if err != nil {
		p.fail("marshal response", err)
		return
	}
	if err := p.transport.Publish(ctx, p.cfg.StateSubject(), payload); err != nil {
		p.fail("publish response", err)
		return
	}
	p.lastError.Store("")
	p.count("out")
}

func (p *Port) fail(action string, err error) {
	p.lastError.Store(action + " failed")
	p.logger.Error("tick port "+action+" failed", "error", err)
	if p.metrics != nil {
		p.metrics.RecordError("tickport", action)
	}
}

func (p *Port) count(direction string) {
	if p.metrics != nil {
		p.metrics.RecordPortMessage(direction)
	}
}
