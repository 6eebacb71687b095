package httputils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
)

// StatusError is returned by MakeAPIRequest for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// NewRetryableHttpClient returns a standard client that retries transient failures up to
// retries times and waits on rl before every attempt. A nil rl disables rate limiting.
func NewRetryableHttpClient(timeout time.Duration, retries int, rl ratelimit.Limiter, log *logrus.Entry) *http.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = retries
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 10 * time.Second
	client.HTTPClient.Timeout = timeout
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if rl != nil {
			rl.Take()
		}
		if log != nil && attempt > 0 {
			log.Debugf("Retrying %s %s (attempt %d)", req.Method, req.URL.Redacted(), attempt+1)
		}
	}

	if log != nil {
		client.Logger = &leveledLogger{log: log}
	} else {
		client.Logger = nil
	}

	return client.StandardClient()
}

// MakeAPIRequest sends body as JSON (when non-nil) and decodes a 2xx JSON response into out.
func MakeAPIRequest(ctx context.Context, client *http.Client, method string, requestURL string,
	body interface{}, headers map[string]string, out interface{}) error {

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshal request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
	if err != nil {
		return errors.Wrap(err, "create request")
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}

	return nil
}

// leveledLogger adapts a logrus entry to retryablehttp.LeveledLogger.
type leveledLogger struct {
	log *logrus.Entry
}

func (l *leveledLogger) fields(keysAndValues []interface{}) *logrus.Entry {
	entry := l.log
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if k, ok := keysAndValues[i].(string); ok {
			entry = entry.WithField(k, keysAndValues[i+1])
		}
	}
	return entry
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Error(msg)
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Debug(msg)
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Trace(msg)
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Warn(msg)
}
