// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"bufio"
	"io"
	"strings"
)

// forEachSSEEvent reads server-sent events from r and invokes handle once per
// complete event. Events without an explicit name are reported as "message".
// The scan stops when handle returns false or the stream ends; comment and
// retry lines are skipped.
func forEachSSEEvent(r io.Reader, handle func(event, data string) bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 4096), maxMessageSize)

	event := ""
	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			chunk := strings.TrimPrefix(line, "data:")
			data.WriteString(strings.TrimPrefix(chunk, " "))
		case line == "":
			if data.Len() > 0 {
				name := event
				if name == "" {
					name = "message"
				}
				if !handle(name, data.String()) {
					return nil
				}
			}
			event = ""
			data.Reset()
		}
	}
	return scanner.Err()
}
