package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/weiihann/bindlebench/bench"
	"github.com/weiihann/bindlebench/compat"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		input int64
		want  string
	}{
		{0, "0.0 B"},
		{1, "1.0 B"},
		{1023, "1023.0 B"},
		{1024, "1.0 KB"},
		{1536, "1.0 KB"}, // truncating, not rounding
		{1_048_576, "1.0 MB"},
		{10 * 1024 * 1024 * 1024, "10.0 GB"},
		{1024 * 1024 * 1024 * 1024, "1.0 TB"},
	}

	for _, tt := range tests {
		if got := FormatSize(tt.input); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		input time.Duration
		want  string
	}{
		{0, "0.0 µs"},
		{500 * time.Microsecond, "500.0 µs"},
		{time.Millisecond, "1.0 ms"},
		{500 * time.Millisecond, "500.0 ms"},
		{1500 * time.Millisecond, "1.500 s"},
		{2 * time.Minute, "120.000 s"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.input); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatRatio(t *testing.T) {
	tests := []struct {
		size  int64
		total int64
		want  string
	}{
		{250, 1000, "25.0%"},
		{1000, 1000, "100.0%"},
		{5, 1000, "0.5%"},
		{0, 0, "0.0%"},
	}

	for _, tt := range tests {
		if got := FormatRatio(tt.size, tt.total); got != tt.want {
			t.Errorf("FormatRatio(%d, %d) = %q, want %q",
				tt.size, tt.total, got, tt.want)
		}
	}
}

func TestRenderTable(t *testing.T) {
	results := []bench.Result{
		{
			Format:      "bindle-zstd",
			PackTime:    250 * time.Millisecond,
			UnpackTime:  100 * time.Millisecond,
			ArchiveSize: 1_048_576,
		},
		{
			Format: "zip",
			Failed: true,
			Reason: "zip exited with code 12",
		},
	}

	var buf bytes.Buffer
	if err := Render(&buf, results, 112, 12_000_000); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "bindle-zstd") {
		t.Error("expected bindle-zstd row")
	}
	if !strings.Contains(output, "250.0 ms") {
		t.Error("expected formatted pack time")
	}
	if !strings.Contains(output, "1.0 MB") {
		t.Error("expected formatted archive size")
	}
	if !strings.Contains(output, "FAILED") {
		t.Error("expected FAILED marker for zip")
	}
	if !strings.Contains(output, "Test dataset: 112 files") {
		t.Error("expected dataset summary line")
	}
}

func TestRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, nil, 0, 0); err == nil {
		t.Error("expected error for empty results")
	}
}

func TestWriteJSON(t *testing.T) {
	results := []bench.Result{
		{Format: "tar", PackTime: time.Second, ArchiveSize: 12_100_096},
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, results); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var parsed []bench.Result
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if len(parsed) != 1 {
		t.Fatalf("expected 1 result, got %d", len(parsed))
	}
	if parsed[0].Format != "tar" {
		t.Errorf("format = %q, want tar", parsed[0].Format)
	}
	if parsed[0].ArchiveSize != 12_100_096 {
		t.Errorf("archive_size = %d, want 12100096", parsed[0].ArchiveSize)
	}
}

func TestRenderCompat(t *testing.T) {
	outcomes := []compat.Outcome{
		{Phase: "write A, read B", Passed: true, Expected: "aa", Actual: "aa"},
		{Phase: "write B, read A", Expected: "aa", Actual: "bb"},
	}

	var buf bytes.Buffer
	RenderCompat(&buf, outcomes)

	output := buf.String()

	if !strings.Contains(output, "PASS  write A, read B") {
		t.Error("expected PASS line for first phase")
	}
	if !strings.Contains(output, "FAIL  write B, read A") {
		t.Error("expected FAIL line for second phase")
	}
	if !strings.Contains(output, "expected digest aa") {
		t.Error("expected digest diagnostic")
	}
	if !strings.Contains(output, "actual digest   bb") {
		t.Error("expected actual digest diagnostic")
	}
}
