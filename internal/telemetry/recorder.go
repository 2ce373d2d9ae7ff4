// SPDX-License-Identifier: MPL-2.0

package telemetry

import (
	"context"
	"os"
	"sync"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName  = "kernlet"
	loggerName = "kernlet"
)

// recorderInstruments holds all lazy-initialized OTel metric instruments.
type recorderInstruments struct {
	bootTotal     metric.Int64Counter
	dispatchTotal metric.Int64Counter
	fileOpTotal   metric.Int64Counter

	dispatchDurationHist metric.Float64Histogram
}

var (
	instOnce sync.Once
	inst     recorderInstruments
)

// initInstruments registers the recorder instruments against the current
// global MeterProvider. Must run after Init so the real provider is set;
// also called lazily on first use as a safety net.
func initInstruments() {
	instOnce.Do(func() {
		m := otel.GetMeterProvider().Meter(meterName)

		inst.bootTotal, _ = m.Int64Counter("kernlet.kernel.boots.total",
			metric.WithDescription("Total kernel boots"),
		)
		inst.dispatchTotal, _ = m.Int64Counter("kernlet.console.dispatches.total",
			metric.WithDescription("Total console command dispatches"),
		)
		inst.fileOpTotal, _ = m.Int64Counter("kernlet.fs.ops.total",
			metric.WithDescription("Total passthrough filesystem operations"),
		)

		inst.dispatchDurationHist, _ = m.Float64Histogram("kernlet.console.dispatch.duration_ms",
			metric.WithDescription("Console dispatch latency in milliseconds"),
			metric.WithUnit("ms"),
		)
	})
}

// statusStr returns "ok" or "error" depending on whether err is nil.
func statusStr(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// codeStatus returns "ok" for status code 0 and "error" otherwise.
func codeStatus(code int) string {
	if code != 0 {
		return "error"
	}
	return "ok"
}

// emit sends an OTel log event with the given body and key-value attributes.
func emit(ctx context.Context, body string, sev otellog.Severity, attrs ...otellog.KeyValue) {
	logger := global.GetLoggerProvider().Logger(loggerName)
	var r otellog.Record
	r.SetBody(otellog.StringValue(body))
	r.SetSeverity(sev)
	r.AddAttributes(attrs...)
	logger.Emit(ctx, r)
}

// errKV returns a log KeyValue with the error message, or empty string if nil.
func errKV(err error) otellog.KeyValue {
	if err != nil {
		return otellog.String("error", err.Error())
	}
	return otellog.String("error", "")
}

// severity returns SeverityInfo on success, SeverityError on failure.
func severity(err error) otellog.Severity {
	if err != nil {
		return otellog.SeverityError
	}
	return otellog.SeverityInfo
}

// maxOutputLog is the maximum number of bytes of command output captured
// in a dispatch log event.
const maxOutputLog = 2048

// truncateOutput trims s to max bytes and appends "…" when truncated.
// Avoids splitting multi-byte UTF-8 characters at the boundary.
func truncateOutput(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	truncated := s[:limit]
	for len(truncated) > 0 && !utf8.ValidString(truncated) {
		truncated = truncated[:len(truncated)-1]
	}
	return truncated + "…"
}

// RecordBoot records a kernel boot (metrics + log event).
func RecordBoot(ctx context.Context, backend, state string) {
	initInstruments()
	inst.bootTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("backend", backend)),
	)
	emit(ctx, "kernel.boot", otellog.SeverityInfo,
		otellog.String("backend", backend),
		otellog.String("state", state),
	)
}

// RecordDispatch records one console command dispatch with its duration
// (metrics + log event). verb is the parsed command verb, possibly empty
// for a rejected line; code is the result status code.
//
// The command output is only included in the log event when
// KERNLET_LOG_OUTPUT=true, since sandbox file contents may be sensitive.
func RecordDispatch(ctx context.Context, verb string, code int, durationMs float64, output string) {
	initInstruments()
	status := codeStatus(code)
	attrs := metric.WithAttributes(
		attribute.String("verb", verb),
		attribute.String("status", status),
	)
	inst.dispatchTotal.Add(ctx, 1, attrs)
	inst.dispatchDurationHist.Record(ctx, durationMs, attrs)

	sev := otellog.SeverityInfo
	if code != 0 {
		sev = otellog.SeverityWarn
	}
	kvs := []otellog.KeyValue{
		otellog.String("verb", verb),
		otellog.Int("code", code),
		otellog.Float64("duration_ms", durationMs),
		otellog.String("status", status),
	}
	if os.Getenv("KERNLET_LOG_OUTPUT") == "true" {
		kvs = append(kvs, otellog.String("output", truncateOutput(output, maxOutputLog)))
	}
	emit(ctx, "console.dispatch", sev, kvs...)
}

// RecordFileOp records a passthrough filesystem operation (metrics + log
// event). op is one of "write", "read", "exists", "delete", "list".
func RecordFileOp(ctx context.Context, op, path string, err error) {
	initInstruments()
	status := statusStr(err)
	inst.fileOpTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("op", op),
			attribute.String("status", status),
		),
	)
	emit(ctx, "fs.op", severity(err),
		otellog.String("op", op),
		otellog.String("path", path),
		otellog.String("status", status),
		errKV(err),
	)
}
