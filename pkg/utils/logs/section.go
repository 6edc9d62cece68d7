package logs

import (
	"log"
	"time"
)

// Section marks a named span of work in the log.
//
// It writes an opening line immediately and returns a closer writing the
// matching closing line with the elapsed time. Call the closer with defer so
// that the section is closed even when the wrapped work panics or fails:
//
//	defer logs.Section(logger, "model training")()
func Section(l *log.Logger, name string) func() {
	begin := time.Now()
	l.Printf("**** STARTING: %s ****", name)
	return func() {
		l.Printf("**** FINISHED: %s (in %v) ****", name, time.Since(begin))
	}
}
