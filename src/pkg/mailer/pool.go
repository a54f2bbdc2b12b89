package mailer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wneessen/go-mail"
	"golang.org/x/time/rate"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
)

// ErrPoolClosed is returned by Send after Close.
var ErrPoolClosed = errors.New("smtp pool is closed")

// session is one open SMTP connection. *mail.Client satisfies it.
type session interface {
	Send(messages ...*mail.Msg) error
	Close() error
}

type dialFunc func(ctx context.Context) (session, error)

type slot struct {
	index   int
	session session
	sent    int
}

/*
Pool keeps up to MaxConnections SMTP sessions open and shares them between callers.

A session is closed and dialed again after MaxMessages deliveries, and dropped
after any failed delivery. A reused session the server already hung up on is
redialed once within the same Send. Sends are paced by a token bucket of RateLimitPerSecond.
Pool is safe for concurrent use and is meant to be built once per process.
*/
type Pool struct {
	slots       chan *slot
	size        int
	maxMessages int
	limiter     *rate.Limiter
	dial        dialFunc
	closed      atomic.Bool
	closeOnce   sync.Once
}

func NewPool(cfg Config) *Pool {
	return newPool(cfg, func(ctx context.Context) (session, error) {
		return dialClient(ctx, cfg)
	})
}

func newPool(cfg Config, dial dialFunc) *Pool {
	size := max(cfg.MaxConnections, 1)
	limit := rate.Inf
	burst := 1
	if cfg.RateLimitPerSecond > 0 {
		limit = rate.Limit(cfg.RateLimitPerSecond)
		burst = cfg.RateLimitPerSecond
	}

	pool := &Pool{
		slots:       make(chan *slot, size),
		size:        size,
		maxMessages: max(cfg.MaxMessages, 1),
		limiter:     rate.NewLimiter(limit, burst),
		dial:        dial,
	}
	for index := range size {
		pool.slots <- &slot{index: index}
	}
	return pool
}

/*
Send delivers msg over a pooled session, dialing one when the slot is empty.

It blocks while every session is busy or the rate limit is exhausted, until ctx is done.
*/
func (p *Pool) Send(ctx context.Context, msg *mail.Msg) (err error) {
	if p.closed.Load() {
		return ErrPoolClosed
	}
	if err = p.limiter.Wait(ctx); err != nil {
		return err
	}

	var current *slot
	select {
	case acquired, ok := <-p.slots:
		if !ok {
			return ErrPoolClosed
		}
		current = acquired
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { p.slots <- current }()

	if current.session != nil && current.sent >= p.maxMessages {
		tl.Log(tl.Detailed, palette.Gray, "SMTP session %s sent %s messages, %s", current.index, current.sent, "recycling")
		current.drop()
	}
	reused := current.session != nil
	if !reused {
		if err = p.open(ctx, current); err != nil {
			return err
		}
	}

	err = current.session.Send(msg)
	if err != nil && reused && isStale(err) {
		tl.Log(tl.Detailed, palette.Gray, "SMTP session %s went %s, redialing", current.index, "stale")
		current.drop()
		if err = p.open(ctx, current); err != nil {
			return err
		}
		err = current.session.Send(msg)
	}
	if err != nil {
		current.drop()
		return err
	}
	current.sent++
	return nil
}

func (p *Pool) open(ctx context.Context, current *slot) (err error) {
	current.session, err = p.dial(ctx)
	if err != nil {
		current.session = nil
		return err
	}
	tl.Log(tl.Detailed, palette.Gray, "SMTP session %s %s", current.index, "opened")
	return nil
}

// isStale reports whether the server had closed an idle session before the send started.
func isStale(err error) bool {
	var sendErr *mail.SendError
	return errors.As(err, &sendErr) && sendErr.Reason == mail.ErrConnCheck
}

/*
Verify dials a fresh session and closes it right away.

Pooled sessions are not touched.
*/
func (p *Pool) Verify(ctx context.Context) error {
	checked, err := p.dial(ctx)
	if err != nil {
		return err
	}
	return checked.Close()
}

/*
Close waits for in-flight sends, then closes every open session.

It is safe to call more than once.
*/
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		for range p.size {
			current := <-p.slots
			current.drop()
		}
		close(p.slots)
		tl.Log(tl.Info, palette.Purple, "SMTP pool %s (%s sessions)", "closed", p.size)
	})
}

func (s *slot) drop() {
	if s.session != nil {
		if closeErr := s.session.Close(); closeErr != nil {
			tl.Log(tl.Detailed, palette.GrayDim, "SMTP session %s close: %s", s.index, closeErr)
		}
	}
	s.session = nil
	s.sent = 0
}

// newClient builds an unconnected go-mail client from cfg.
func newClient(cfg Config) (client *mail.Client, err error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	options := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(timeout),
		mail.WithLogger(smtpLogger{}),
	}
	switch cfg.Security {
	case SecuritySSL:
		options = append(options, mail.WithSSL())
	case SecurityOpportunistic:
		options = append(options, mail.WithTLSPolicy(mail.TLSOpportunistic))
	case SecurityNone:
		options = append(options, mail.WithTLSPolicy(mail.NoTLS))
	default:
		options = append(options, mail.WithTLSPolicy(mail.TLSMandatory))
	}
	if cfg.Username != "" {
		options = append(options,
			mail.WithSMTPAuth(mail.SMTPAuthAutoDiscover),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	if cfg.Debug {
		options = append(options, mail.WithDebugLog())
	}

	client, err = mail.NewClient(cfg.Host, options...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client for %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return client, nil
}

func dialClient(ctx context.Context, cfg Config) (session, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	if err = client.DialWithContext(ctx); err != nil {
		return nil, fmt.Errorf("dial %s:%d (%s): %w", cfg.Host, cfg.Port, cfg.Security, err)
	}
	return client, nil
}
