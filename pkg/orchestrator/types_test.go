package orchestrator

import "testing"

// TestVocabularyClassify tests raw status classification
func TestVocabularyClassify(t *testing.T) {
	vocab := DefaultVocabulary()

	tests := []struct {
		name string
		raw  string
		want StatusClass
	}{
		{"succeeded", "SUCCEEDED", StatusSucceeded},
		{"success", "SUCCESS", StatusSucceeded},
		{"success with warnings", "SUCCESSWITHWARNINGS", StatusSucceeded},
		{"lowercase succeeded", "succeeded", StatusSucceeded},
		{"mixed case", "Succeeded", StatusSucceeded},
		{"whitespace", "  SUCCEEDED  ", StatusSucceeded},
		{"failed", "FAILED", StatusFailed},
		{"failure", "FAILURE", StatusFailed},
		{"canceled", "CANCELED", StatusCanceled},
		{"cancelled british", "CANCELLED", StatusCanceled},
		{"queued", "QUEUED", StatusPending},
		{"pending", "PENDING", StatusPending},
		{"acquiring", "ACQUIRING", StatusPending},
		{"running", "RUNNING", StatusRunning},
		{"finishing", "FINISHING", StatusRunning},
		{"to finish", "TO_FINISH", StatusRunning},
		{"unknown value", "EXFILTRATING", StatusUnknown},
		{"empty", "", StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := vocab.Classify(tt.raw); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

// TestVocabularyCustomRunning tests that a custom vocabulary controls the
// running and pending split without falling back to built-in names
func TestVocabularyCustomRunning(t *testing.T) {
	vocab := StatusVocabulary{
		Succeeded: []string{"DONE"},
		Failed:    []string{"BROKEN"},
		Canceled:  []string{"ABORTED"},
		Running:   []string{"IN_FLIGHT"},
		Pending:   []string{"WAITING"},
	}

	tests := []struct {
		raw  string
		want StatusClass
	}{
		{"IN_FLIGHT", StatusRunning},
		{"WAITING", StatusPending},
		{"DONE", StatusSucceeded},
		{"RUNNING", StatusUnknown},
	}

	for _, tt := range tests {
		if got := vocab.Classify(tt.raw); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

// TestStatusClassTerminal tests terminal status detection
func TestStatusClassTerminal(t *testing.T) {
	tests := []struct {
		class    StatusClass
		terminal bool
	}{
		{StatusPending, false},
		{StatusRunning, false},
		{StatusUnknown, false},
		{StatusTimeout, false},
		{StatusSucceeded, true},
		{StatusFailed, true},
		{StatusCanceled, true},
	}

	for _, tt := range tests {
		if got := tt.class.IsTerminal(); got != tt.terminal {
			t.Errorf("%s.IsTerminal() = %v, want %v", tt.class, got, tt.terminal)
		}
	}

	if !StatusSucceeded.Succeeded() {
		t.Error("StatusSucceeded.Succeeded() = false")
	}
	if StatusFailed.Succeeded() {
		t.Error("StatusFailed.Succeeded() = true")
	}
}
