package notify

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"
)

// FeedTerminator ends one document on a feed.
const FeedTerminator = "<LiveNote>"

// maxFeedLine bounds one feed line; whole documents arrive on a single line.
const maxFeedLine = 16 << 20

// Sender accepts updates.
type Sender interface {
	Send(Update)
}

var _ Sender = (*Mailbox[Update])(nil)

// ReadFeed reads documents from r and sends each as an inline update.
// Lines accumulate until one equals FeedTerminator; the accumulated text is a
// JSON string holding the markdown. An empty line or EOF ends the feed.
// Text that is not a JSON string is sent as-is.
func ReadFeed(ctx context.Context, r io.Reader, out Sender) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxFeedLine)

	var lines []string
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := sc.Text()
		switch {
		case line == "":
			return nil
		case line == FeedTerminator:
			out.Send(Update{Text: decodeFeed(strings.Join(lines, "\n"))})
			lines = lines[:0]
		default:
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading feed: %w", err)
	}
	return nil
}

func decodeFeed(text string) string {
	trimmed := strings.TrimSpace(text)
	if !gjson.Valid(trimmed) {
		return text
	}
	v := gjson.Parse(trimmed)
	if v.Type != gjson.String {
		return text
	}
	return v.String()
}
