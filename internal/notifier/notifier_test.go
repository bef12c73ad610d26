package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketScanner/internal/model"
	"MarketScanner/internal/ranking"
	"MarketScanner/internal/scanner"
)

func testNotifier(url string) *TelegramNotifier {
	return &TelegramNotifier{
		BotToken:  "TOKEN",
		ChatID:    "42",
		BaseURL:   url,
		Client:    &http.Client{Timeout: 5 * time.Second},
		Log:       zerolog.Nop(),
		RetryBase: time.Millisecond,
	}
}

func TestSend(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	require.NoError(t, testNotifier(srv.URL).Send(context.Background(), "<b>hi</b>"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "<b>hi</b>", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestSendWithRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "busy", http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	require.NoError(t, testNotifier(srv.URL).SendWithRetry(context.Background(), "x", 3))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSendWithRetry_Exhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := testNotifier(srv.URL).SendWithRetry(context.Background(), "x", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 retries exhausted")
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))

	parts := splitMessage("aaaa\nbbbb\ncccc", 10)
	assert.Equal(t, []string{"aaaa\nbbbb", "cccc"}, parts)

	parts = splitMessage(strings.Repeat("x", 25), 10)
	assert.Equal(t, []string{strings.Repeat("x", 10), strings.Repeat("x", 10), strings.Repeat("x", 5)}, parts)
}

func TestStartPolling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu      sync.Mutex
		polls   int
		replies []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			mu.Lock()
			polls++
			first := polls == 1
			mu.Unlock()
			if first {
				fmt.Fprint(w, `{"ok":true,"result":[
					{"update_id":7,"message":{"text":"/help","chat":{"id":99}}},
					{"update_id":8,"message":{"text":" /help ","chat":{"id":42}}}
				]}`)
				return
			}
			assert.Equal(t, "9", r.URL.Query().Get("offset"))
			time.Sleep(5 * time.Millisecond)
			fmt.Fprint(w, `{"ok":true,"result":[]}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			mu.Lock()
			replies = append(replies, body["text"])
			mu.Unlock()
			fmt.Fprint(w, `{"ok":true}`)
			cancel()
		}
	}))
	defer srv.Close()

	var handled []string
	done := make(chan struct{})
	go func() {
		testNotifier(srv.URL).StartPolling(ctx, func(_ context.Context, cmd string) string {
			handled = append(handled, cmd)
			return "reply to " + cmd
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop")
	}
	assert.Equal(t, []string{"/help"}, handled, "messages from other chats are ignored")
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"reply to /help"}, replies)
}

func TestParseCommand(t *testing.T) {
	cmd, args := ParseCommand("/Scan@screener_bot aggressive now")
	assert.Equal(t, "/scan", cmd)
	assert.Equal(t, []string{"aggressive", "now"}, args)

	cmd, args = ParseCommand("   ")
	assert.Empty(t, cmd)
	assert.Empty(t, args)
}

func sampleReport() *scanner.Report {
	nvda := &model.ScoreResult{Ticker: "NVDA", DisplayName: "NVIDIA", CompositeScore: 40, LatestPrice: 71, PctChange: -1.39,
		Triggers: []model.Trigger{{Kind: model.TriggerOversold, Weight: 40, Detail: "RSI 12.0"}}}
	sel := ranking.Select([]*model.ScoreResult{nvda}, model.AdaptiveThreshold(50))
	return &scanner.Report{
		StartedAt: time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC),
		Scanned:   3,
		Results:   []*model.ScoreResult{nvda},
		Selection: sel,
		Rows: []scanner.Row{{
			Rank: 1, Ticker: "NVDA", DisplayName: "NVIDIA", Score: 40, Price: 71, PctChange: -1.39,
			Triggers: nvda.TriggerText(), Quantity: 14084, Unit: model.UnitShare, StopLoss: 67.45,
		}},
		Skips:        []scanner.Skip{{Ticker: "2330.TW", Kind: scanner.KindFetchFailure, Reason: "timeout"}},
		HedgeWarning: true,
		Message:      "no candidates met the 50 threshold, highest observed score was 40; keeping the top candidate",
	}
}

func TestFormatScanReport(t *testing.T) {
	msg := FormatScanReport(sampleReport())
	assert.Contains(t, msg, "2025-06-02 14:00")
	assert.Contains(t, msg, "<b>NVDA</b> NVIDIA")
	assert.Contains(t, msg, "14084 shares")
	assert.Contains(t, msg, "stop 67.45")
	assert.Contains(t, msg, "highest observed score was 40")
	assert.Contains(t, msg, "hedge instrument")
	assert.Contains(t, msg, "fetch_failure 1")
}

func TestFormatScanReport_NoCandidates(t *testing.T) {
	msg := FormatScanReport(&scanner.Report{NoCandidates: true, Scanned: 15})
	assert.Contains(t, msg, "No instrument met any condition")
	assert.NotContains(t, msg, "Picks")
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, sampleReport()))
	out := buf.String()
	assert.Contains(t, out, "TICKER")
	assert.Contains(t, out, "NVDA")
	assert.Contains(t, out, "14084 shares")
	assert.Contains(t, out, "RSI oversold(RSI 12.0)")
	assert.Contains(t, out, "warning:")

	buf.Reset()
	require.NoError(t, WriteTable(&buf, &scanner.Report{NoCandidates: true, Message: "no signals found"}))
	assert.Equal(t, "no signals found\n", buf.String())
}

func TestQuantityText(t *testing.T) {
	assert.Equal(t, "1 lot", QuantityText(1, model.UnitLot))
	assert.Equal(t, "0 lots", QuantityText(0, model.UnitLot))
	assert.Equal(t, "120 shares", QuantityText(120, model.UnitShare))
}
