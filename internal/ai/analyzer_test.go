package ai

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/support-deck/chat-service/internal/config"
	"github.com/support-deck/chat-service/internal/domain"
)

func TestParseReply(t *testing.T) {
	t.Run("valid json", func(t *testing.T) {
		got := ParseReply(`{"reply":"We are on it.","sentiment":"happy","flagged":false,"keywords":["Network Outage","network outage"]}`)
		if got.Reply != "We are on it." {
			t.Errorf("reply = %q", got.Reply)
		}
		if got.Sentiment != domain.SentimentHappy {
			t.Errorf("sentiment = %q", got.Sentiment)
		}
		if got.Flagged {
			t.Error("flagged should stay false")
		}
		if !reflect.DeepEqual(got.Keywords, []string{"network outage"}) {
			t.Errorf("keywords = %v", got.Keywords)
		}
	})

	t.Run("upset forces flagged", func(t *testing.T) {
		got := ParseReply(`{"reply":"Sorry about that.","sentiment":"upset","flagged":false}`)
		if !got.Flagged {
			t.Error("upset sentiment must force flagged")
		}
	})

	t.Run("plain text degrades to reply", func(t *testing.T) {
		got := ParseReply("Sure, rebooting the router usually helps.")
		if got.Reply != "Sure, rebooting the router usually helps." {
			t.Errorf("reply = %q", got.Reply)
		}
		if got.Sentiment != domain.SentimentNeutral {
			t.Errorf("sentiment = %q", got.Sentiment)
		}
	})

	t.Run("empty falls back to canned reply", func(t *testing.T) {
		got := ParseReply("")
		if got.Reply != fallbackReply {
			t.Errorf("reply = %q, want fallback", got.Reply)
		}
	})
}

func TestParseSummary(t *testing.T) {
	t.Run("valid json", func(t *testing.T) {
		got := ParseSummary(`{"summary":"Customer reported an outage; resolved after reset.","sentiment":"neutral","flagged":true,"keywords":["outage"]}`)
		if got.Summary != "Customer reported an outage; resolved after reset." {
			t.Errorf("summary = %q", got.Summary)
		}
		if !got.Flagged {
			t.Error("flagged should carry through")
		}
	})

	t.Run("plain text degrades to truncated summary", func(t *testing.T) {
		long := strings.Repeat("s", domain.SummaryMaxLen+100)
		got := ParseSummary(long)
		if len(got.Summary) != domain.SummaryMaxLen {
			t.Errorf("summary length = %d, want %d", len(got.Summary), domain.SummaryMaxLen)
		}
	})
}

type stubClient struct {
	lastReq CompletionRequest
	result  string
	err     error
}

func (s *stubClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	s.lastReq = req
	return s.result, s.err
}

func testAIConfig() config.AIConfig {
	return config.AIConfig{
		ReplyModel:              "reply-model",
		ReanalyzeModel:          "summary-model",
		ModelMaxTokens:          12000,
		ResponseTokens:          500,
		ReanalyzeResponseTokens: 400,
	}
}

func TestAnalyzerReply(t *testing.T) {
	client := &stubClient{result: `{"reply":"Done.","sentiment":"neutral","keywords":[]}`}
	analyzer := NewAnalyzer(client, testAIConfig())

	got, err := analyzer.Reply(context.Background(), &domain.Ticket{Title: "Slow internet"}, nil)
	if err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	if got.Reply != "Done." {
		t.Errorf("reply = %q", got.Reply)
	}
	if client.lastReq.Model != "reply-model" {
		t.Errorf("model = %q", client.lastReq.Model)
	}
	if client.lastReq.MaxTokens != 500 {
		t.Errorf("max tokens = %d", client.lastReq.MaxTokens)
	}
}

func TestAnalyzerSummarize(t *testing.T) {
	client := &stubClient{result: `{"summary":"All good.","sentiment":"happy"}`}
	analyzer := NewAnalyzer(client, testAIConfig())

	got, err := analyzer.Summarize(context.Background(), &domain.Ticket{Title: "Slow internet"}, nil)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if got.Summary != "All good." {
		t.Errorf("summary = %q", got.Summary)
	}
	if client.lastReq.Model != "summary-model" {
		t.Errorf("model = %q", client.lastReq.Model)
	}
	if client.lastReq.MaxTokens != 400 {
		t.Errorf("max tokens = %d", client.lastReq.MaxTokens)
	}
}
