// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// DebugObserver provides detailed step-by-step debugging
type DebugObserver struct {
	*StandardObserver
	stepMu sync.Mutex
	indent int
}

// NewDebugObserver creates a debug observer with step-by-step logging. The
// returned observer is also reachable through its StandardObserver.
func NewDebugObserver(writer io.Writer) *DebugObserver {
	d := &DebugObserver{
		StandardObserver: NewStandardObserver(ObservabilityDebug, writer),
	}
	d.StandardObserver.DebugObserver = d
	return d
}

// StartStep begins a processing step with indentation
func (d *DebugObserver) StartStep(component, step, filePath string) func(success bool, details string) {
	if d == nil {
		return func(bool, string) {}
	}
	start := time.Now()

	d.stepMu.Lock()
	fmt.Fprintf(d.writer, "%s🔄 %s: %s (%s)\n", d.indentation(), component, step, filePath)
	d.indent++
	d.stepMu.Unlock()

	return func(success bool, details string) {
		d.stepMu.Lock()
		defer d.stepMu.Unlock()
		if d.indent > 0 {
			d.indent--
		}
		duration := time.Since(start)

		if success {
			fmt.Fprintf(d.writer, "%s✅ %s: %s completed (%dms) %s\n",
				d.indentation(), component, step, duration.Milliseconds(), details)
		} else {
			fmt.Fprintf(d.writer, "%s❌ %s: %s failed (%dms) %s\n",
				d.indentation(), component, step, duration.Milliseconds(), details)
		}
	}
}

// LogDetail logs a detail within the current step
func (d *DebugObserver) LogDetail(component, detail string) {
	if d == nil {
		return
	}
	d.stepMu.Lock()
	defer d.stepMu.Unlock()
	fmt.Fprintf(d.writer, "%s   → %s: %s\n", d.indentation(), component, detail)
}

// LogMetric logs a metric value
func (d *DebugObserver) LogMetric(component, metric string, value interface{}) {
	if d == nil {
		return
	}
	d.stepMu.Lock()
	defer d.stepMu.Unlock()
	fmt.Fprintf(d.writer, "%s   📊 %s: %s = %v\n", d.indentation(), component, metric, value)
}

func (d *DebugObserver) indentation() string {
	return strings.Repeat("  ", d.indent)
}
