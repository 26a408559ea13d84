package transcription

import (
	"context"
	"errors"
	"testing"
)

func TestFixtureClientReturnsRecordedResponse(t *testing.T) {
	c := NewFixtureClient()
	c.Record("chunk_000.mp3", Result{
		Text: "hello world",
		Segments: []Segment{
			{StartSec: 0, EndSec: 1.2, Text: "hello"},
			{StartSec: 1.2, EndSec: 2.5, Text: "world"},
		},
	})

	r, err := c.Transcribe(context.Background(), "chunk_000.mp3")
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if r.Text != "hello world" {
		t.Errorf("Text = %q", r.Text)
	}
	if r.Duration != 2.5 {
		t.Errorf("expected derived duration 2.5 from last segment, got %v", r.Duration)
	}
}

func TestFixtureClientReturnsRecordedError(t *testing.T) {
	c := NewFixtureClient()
	want := errors.New("provider unavailable")
	c.RecordError("chunk_001.mp3", want)

	_, err := c.Transcribe(context.Background(), "chunk_001.mp3")
	if !errors.Is(err, want) {
		t.Errorf("expected recorded error, got %v", err)
	}
}

func TestFixtureClientUnrecordedPathIsError(t *testing.T) {
	c := NewFixtureClient()
	if _, err := c.Transcribe(context.Background(), "missing.mp3"); err == nil {
		t.Error("expected error for unrecorded chunk path")
	}
}

func TestFixtureClientRecordsCallOrder(t *testing.T) {
	c := NewFixtureClient()
	c.Record("a.mp3", Result{Text: "a"})
	c.Record("b.mp3", Result{Text: "b"})

	c.Transcribe(context.Background(), "a.mp3")
	c.Transcribe(context.Background(), "b.mp3")

	calls := c.Calls()
	if len(calls) != 2 || calls[0] != "a.mp3" || calls[1] != "b.mp3" {
		t.Errorf("unexpected call order: %v", calls)
	}
}
