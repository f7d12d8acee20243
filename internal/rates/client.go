package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/theirongolddev/tripbudget/internal/resilience"
)

const (
	// DefaultURL is the public endpoint the rate source queries.
	DefaultURL = "https://api.exchangerate-api.com/v4/latest"

	defaultTimeout = 10 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
)

var tracer = otel.Tracer("tripbudget/rates")

// ErrRateLimited indicates the rate endpoint answered 429.
var ErrRateLimited = errors.New("rates: rate limited")

// HTTPSource fetches live tables from an exchangerate-api style endpoint:
// GET {url}/{base} answering {"rates": {...}, "date": "YYYY-MM-DD"}.
type HTTPSource struct {
	url     string
	timeout time.Duration
	retry   resilience.Config
	http    *http.Client
	cb      *gobreaker.CircuitBreaker
	now     func() time.Time
}

// NewHTTPSource returns a source for url. A zero timeout means 10s.
func NewHTTPSource(url string, timeout time.Duration, retry resilience.Config) *HTTPSource {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPSource{
		url:     strings.TrimRight(url, "/"),
		timeout: timeout,
		retry:   retry,
		http:    &http.Client{},
		cb:      resilience.NewCircuitBreaker("rates"),
		now:     time.Now,
	}
}

type latestResponse struct {
	Base  string                     `json:"base"`
	Date  string                     `json:"date"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// Fetch retrieves the latest table for base, retrying transient failures
// behind a circuit breaker.
func (s *HTTPSource) Fetch(ctx context.Context, base string) (Table, error) {
	ctx, span := tracer.Start(ctx, "HTTPSource.Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("rates.base", base))

	result, err := s.cb.Execute(func() (any, error) {
		var t Table
		err := resilience.RetryWithBackoff(ctx, s.retry, func() error {
			var err error
			t, err = s.fetchOnce(ctx, base)
			return err
		})
		if err != nil {
			return nil, err
		}
		return t, nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Table{}, err
	}

	t := result.(Table)
	span.SetAttributes(attribute.Int("rates.count", t.Len()))
	return t, nil
}

func (s *HTTPSource) fetchOnce(ctx context.Context, base string) (Table, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url+"/"+base, nil)
	if err != nil {
		return Table{}, resilience.Permanent(fmt.Errorf("rates: creating request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "tripbudget/1.0")

	resp, err := s.http.Do(req)
	if err != nil {
		return Table{}, fmt.Errorf("rates: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return Table{}, ErrRateLimited
	case resp.StatusCode >= 500:
		return Table{}, fmt.Errorf("rates: unexpected status %d", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return Table{}, resilience.Permanent(fmt.Errorf("rates: unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return Table{}, fmt.Errorf("rates: reading response: %w", err)
	}

	t, err := parseLatest(body, base)
	if err != nil {
		return Table{}, resilience.Permanent(err)
	}
	t.UpdatedAt = s.now()
	return t, nil
}

func parseLatest(body []byte, base string) (Table, error) {
	var raw latestResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return Table{}, fmt.Errorf("rates: parsing response: %w", err)
	}
	if len(raw.Rates) == 0 {
		return Table{}, errors.New("rates: response has no rates")
	}

	out := make(map[string]decimal.Decimal, len(raw.Rates))
	for code, r := range raw.Rates {
		if !r.IsPositive() {
			return Table{}, fmt.Errorf("rates: non-positive rate for %s", code)
		}
		out[strings.ToUpper(code)] = r
	}

	t := Table{Base: base, Rates: out, Origin: OriginLive}
	if raw.Base != "" && !strings.EqualFold(raw.Base, base) {
		return Table{}, fmt.Errorf("rates: asked for base %s, got %s", base, raw.Base)
	}
	if raw.Date != "" {
		if d, err := time.Parse(time.DateOnly, raw.Date); err == nil {
			t.AsOf = d
		}
	}
	return t, nil
}
