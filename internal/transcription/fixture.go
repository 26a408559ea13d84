package transcription

import (
	"context"
	"fmt"
	"sync"
)

// FixtureClient is a recorded-response Client for deterministic tests: it
// returns a pre-recorded Result for each audio path it is configured with,
// rather than calling out to a real provider.
type FixtureClient struct {
	mu        sync.Mutex
	Responses map[string]Result
	Err       map[string]error
	calls     []string
}

// NewFixtureClient builds a FixtureClient with no recorded responses.
func NewFixtureClient() *FixtureClient {
	return &FixtureClient{
		Responses: make(map[string]Result),
		Err:       make(map[string]error),
	}
}

// Record registers the Result to return for a given chunk path.
func (c *FixtureClient) Record(audioPath string, r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Responses[audioPath] = deriveDuration(r)
}

// RecordError registers the error to return for a given chunk path.
func (c *FixtureClient) RecordError(audioPath string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Err[audioPath] = err
}

// Calls returns the audio paths Transcribe was invoked with, in order.
func (c *FixtureClient) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.calls))
	copy(out, c.calls)
	return out
}

// Transcribe implements Client.
func (c *FixtureClient) Transcribe(_ context.Context, audioPath string) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, audioPath)

	if err, ok := c.Err[audioPath]; ok {
		return Result{}, err
	}
	if r, ok := c.Responses[audioPath]; ok {
		return r, nil
	}
	return Result{}, fmt.Errorf("transcription fixture: no recorded response for %q", audioPath)
}

var _ Client = (*FixtureClient)(nil)
