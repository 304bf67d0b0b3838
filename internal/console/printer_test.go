package console

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/mqttconsole/internal/infrastructure/config"
)

func TestPrinterReceived(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	p.Received("Client 1", "all/test", "ping")

	assert.Equal(t, "Client 1 : Received message 'ping' on topic 'all/test'\n", buf.String())
}

func TestPrinterBanner(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	cfg, err := config.Load("")
	require.NoError(t, err)
	p.Banner(cfg.Sessions.Queued, cfg.Sessions.Direct)

	want := strings.Join([]string{
		"Please type a message in the form of [topic/path] [my message]",
		"Topic can contain / but no spaces.  Message can contain spaces.",
		"Client 1 is subscribed to all/# and client1/#",
		"Client 2 is subscribed to all/# and client2/#",
		"Start a line with . to quit",
	}, "\n") + "\n"
	assert.Equal(t, want, buf.String())
}

func TestPrinterNoticeAndInfo(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	p.Notice(InvalidInput)
	p.Info(Farewell)

	assert.Equal(t, InvalidInput+"\n"+Farewell+"\n", buf.String())
}

func TestJoinTopics(t *testing.T) {
	assert.Equal(t, "nothing", joinTopics(nil))
	assert.Equal(t, "all/#", joinTopics([]string{"all/#"}))
	assert.Equal(t, "all/# and client1/#", joinTopics([]string{"all/#", "client1/#"}))
	assert.Equal(t, "a, b and c", joinTopics([]string{"a", "b", "c"}))
}

func TestPrinterConcurrentLinesDoNotInterleave(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				p.Received("Client 2", "all/test", "ping")
			}
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 400)
	for _, line := range lines {
		assert.Equal(t, "Client 2 : Received message 'ping' on topic 'all/test'", line)
	}
}
