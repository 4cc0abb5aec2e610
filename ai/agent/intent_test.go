package agent

import (
	"context"
	"fmt"
	"testing"
)

func TestClassifySpeechAct(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"What's on my calendar?", "question"},
		{"do i have anything tomorrow", "question"},
		{"Show me my habits", "question"},
		{"list my events", "question"},
		{"is it raining?", "question"}, // trailing question mark wins
		{"Add a task to buy milk", "command"},
		{"schedule a meeting for friday", "command"},
		{"Track my reading habit", "command"},
		{"plan my week", "command"},
		{"remind me to call mom", "command"},
		{"  Delete the gym habit  ", "command"},
		{"hello there", "chat"},
		{"I had a great day", "chat"},
		{"", "chat"},
	}

	for _, tt := range tests {
		if got := classifySpeechAct(tt.input); got != tt.want {
			t.Errorf("classifySpeechAct(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestClassifyValidLabel(t *testing.T) {
	svc := &scriptedLLM{textReplies: []string{"add_task"}}
	c := NewIntentClassifier(svc)

	got := c.Classify(context.Background(), "Add a task to buy milk")
	if got != IntentAddTask {
		t.Fatalf("Classify = %q, want %q", got, IntentAddTask)
	}
}

func TestClassifyNoisyReply(t *testing.T) {
	// Extra prose around the label is tolerated; only the first token counts.
	svc := &scriptedLLM{textReplies: []string{"list_events.\nThat is my answer."}}
	c := NewIntentClassifier(svc)

	got := c.Classify(context.Background(), "What's on my calendar tomorrow?")
	if got != IntentListEvents {
		t.Fatalf("Classify = %q, want %q", got, IntentListEvents)
	}
}

func TestClassifyOffVocabularyFallsBackToChat(t *testing.T) {
	svc := &scriptedLLM{textReplies: []string{"launch_rocket"}}
	c := NewIntentClassifier(svc)

	if got := c.Classify(context.Background(), "Add fuel"); got != IntentChat {
		t.Fatalf("Classify = %q, want %q", got, IntentChat)
	}
}

func TestClassifyOutOfBucketFallsBackToChat(t *testing.T) {
	// add_task is a real label but not a member of the question bucket.
	svc := &scriptedLLM{textReplies: []string{"add_task"}}
	c := NewIntentClassifier(svc)

	if got := c.Classify(context.Background(), "What's due today?"); got != IntentChat {
		t.Fatalf("Classify = %q, want %q", got, IntentChat)
	}
}

func TestClassifyModelFailureFallsBackToChat(t *testing.T) {
	svc := &scriptedLLM{textErr: fmt.Errorf("backend down")}
	c := NewIntentClassifier(svc)

	if got := c.Classify(context.Background(), "Add a task"); got != IntentChat {
		t.Fatalf("Classify = %q, want %q", got, IntentChat)
	}
}

func TestClassifyUnknownNeverEscapes(t *testing.T) {
	svc := &scriptedLLM{textReplies: []string{"unknown"}}
	c := NewIntentClassifier(svc)

	if got := c.Classify(context.Background(), "hmm"); got != IntentChat {
		t.Fatalf("Classify = %q, want %q", got, IntentChat)
	}
}
