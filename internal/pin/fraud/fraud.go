package fraud

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/logger"
)

var (
	ErrInvalidMSISDN = errors.New("invalid msisdn")
	ErrInvalidIP     = errors.New("invalid ip")
	ErrVelocity      = errors.New("msisdn velocity limit exceeded")
)

var msisdnRE = regexp.MustCompile(`^\+?[0-9]{8,15}$`)

// Counter increments a windowed counter and returns the new value.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

type Config struct {
	// VelocityLimit caps requests per MSISDN inside VelocityWindow. 0 disables.
	VelocityLimit  int64
	VelocityWindow time.Duration
}

type Params struct {
	MSISDN string
	IP     string
}

type Checker struct {
	cfg     Config
	counter Counter
	log     *logger.Logger
}

// NewChecker builds a checker. counter may be nil, which disables the
// velocity check.
func NewChecker(cfg Config, counter Counter, baseLog *logger.Logger) *Checker {
	if cfg.VelocityWindow <= 0 {
		cfg.VelocityWindow = time.Hour
	}
	return &Checker{
		cfg:     cfg,
		counter: counter,
		log:     baseLog.With("component", "FraudChecker"),
	}
}

// Check returns an error when the request must not proceed. Counter failures
// are returned too, so callers fail closed.
func (c *Checker) Check(ctx context.Context, p Params) error {
	msisdn := strings.TrimSpace(p.MSISDN)
	if !msisdnRE.MatchString(msisdn) {
		return ErrInvalidMSISDN
	}
	if ip := strings.TrimSpace(p.IP); ip != "" && net.ParseIP(ip) == nil {
		return ErrInvalidIP
	}
	if c.counter == nil || c.cfg.VelocityLimit <= 0 {
		return nil
	}
	n, err := c.counter.Incr(ctx, "fraud:msisdn:"+strings.TrimPrefix(msisdn, "+"), c.cfg.VelocityWindow)
	if err != nil {
		return fmt.Errorf("fraud velocity counter: %w", err)
	}
	if n > c.cfg.VelocityLimit {
		c.log.Warn("msisdn velocity exceeded", "msisdn", msisdn, "count", n, "limit", c.cfg.VelocityLimit)
		return ErrVelocity
	}
	return nil
}
