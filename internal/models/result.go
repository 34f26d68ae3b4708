package models

import (
	"bytes"
	"encoding/json"
)

// ChannelResult is the outcome of running the pipeline for one channel.
// The zero value means the channel produced no content.
type ChannelResult struct {
	MessagesFile string `json:"messages_file_path,omitempty"`
	SummaryFile  string `json:"summary_file_path,omitempty"`
	Summary      string `json:"summary_text,omitempty"`
	Error        string `json:"error,omitempty"`
}

// IsEmpty reports whether the run found nothing to summarize.
func (r ChannelResult) IsEmpty() bool {
	return r == ChannelResult{}
}

// Failed reports whether the run ended with an error.
func (r ChannelResult) Failed() bool {
	return r.Error != ""
}

// BatchResult maps channel identifiers to results, remembering insertion order.
type BatchResult struct {
	order   []string
	results map[string]ChannelResult
}

// NewBatchResult creates an empty batch result.
func NewBatchResult() *BatchResult {
	return &BatchResult{results: make(map[string]ChannelResult)}
}

// Set records the result for a channel. Re-setting a channel keeps its position.
func (b *BatchResult) Set(channel string, r ChannelResult) {
	if _, ok := b.results[channel]; !ok {
		b.order = append(b.order, channel)
	}
	b.results[channel] = r
}

// Get returns the result for a channel.
func (b *BatchResult) Get(channel string) (ChannelResult, bool) {
	r, ok := b.results[channel]
	return r, ok
}

// Channels returns channel identifiers in insertion order.
func (b *BatchResult) Channels() []string {
	return append([]string(nil), b.order...)
}

// Len returns the number of channels recorded.
func (b *BatchResult) Len() int {
	return len(b.order)
}

// Succeeded returns channels that produced a summary.
func (b *BatchResult) Succeeded() []string {
	return b.filter(func(r ChannelResult) bool { return !r.Failed() && !r.IsEmpty() })
}

// Empty returns channels that had nothing to summarize.
func (b *BatchResult) Empty() []string {
	return b.filter(ChannelResult.IsEmpty)
}

// Failed returns channels whose pipeline failed.
func (b *BatchResult) Failed() []string {
	return b.filter(ChannelResult.Failed)
}

func (b *BatchResult) filter(keep func(ChannelResult) bool) []string {
	var out []string
	for _, ch := range b.order {
		if keep(b.results[ch]) {
			out = append(out, ch)
		}
	}
	return out
}

// MarshalJSON encodes the batch as a JSON object in insertion order.
func (b *BatchResult) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, ch := range b.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(ch)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(b.results[ch])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
