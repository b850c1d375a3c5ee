package mylogger

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// generateStartupID tags every log line of one process run. The pid keeps
// concurrently started services apart.
func generateStartupID() string {
	return fmt.Sprintf("startup-%d-%d", os.Getpid(), time.Now().Unix()%100000)
}

// captureFrames collects stack trace frames
func captureFrames(skip, depth int) []stackFrame {
	pc := make([]uintptr, depth)
	n := runtime.Callers(skip, pc)
	frames := runtime.CallersFrames(pc[:n])

	var stack []stackFrame
	for {
		frame, more := frames.Next()
		stack = append(stack, stackFrame{
			Func:   filepath.Base(frame.Function),
			Source: filepath.Join(filepath.Base(filepath.Dir(frame.File)), filepath.Base(frame.File)),
			Line:   frame.Line,
		})
		if !more {
			break
		}
	}
	return stack
}

type stackFrame struct {
	Func   string `json:"func"`
	Source string `json:"source"`
	Line   int    `json:"line"`
}
