package textutil

import (
	"sync"
	"testing"
)

func TestCapitalizeFirst(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"quarterly summary", "Quarterly summary"},
		{"Already", "Already"},
		{"élan vital", "Élan vital"},
	}
	for _, tt := range tests {
		if got := CapitalizeFirst(tt.in); got != tt.want {
			t.Errorf("CapitalizeFirst(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCollapseSpace(t *testing.T) {
	if got := CollapseSpace("  send \t the\n email  "); got != "send the email" {
		t.Errorf("CollapseSpace = %q", got)
	}
}

func TestTitleCase(t *testing.T) {
	if got := TitleCase("website  redesign"); got != "Website Redesign" {
		t.Errorf("TitleCase = %q", got)
	}
}

func TestHasFiller(t *testing.T) {
	if !HasFiller("um I need to call bob") {
		t.Error("expected filler in 'um ...'")
	}
	if !HasFiller("so, uhh, remind me") {
		t.Error("expected filler in 'uhh'")
	}
	if HasFiller("umbrella for the summit") {
		t.Error("did not expect filler inside other words")
	}
}

func TestDedupe(t *testing.T) {
	got := Dedupe([]string{"work", "email", "work", "call", "email"})
	want := []string{"work", "email", "call"}
	if len(got) != len(want) {
		t.Fatalf("Dedupe = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Dedupe = %v, want %v", got, want)
		}
	}
}

func TestClamp(t *testing.T) {
	if Clamp(-2, 0.1, 1) != 0.1 || Clamp(3, 0.1, 1) != 1 || Clamp(0.5, 0.1, 1) != 0.5 {
		t.Error("Clamp bounds incorrect")
	}
}

func TestCasingConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if got := TitleCase("home  renovation"); got != "Home Renovation" {
					t.Errorf("TitleCase = %q", got)
					return
				}
				if got := CapitalizeFirst("call mom"); got != "Call mom" {
					t.Errorf("CapitalizeFirst = %q", got)
					return
				}
			}
		}()
	}
	wg.Wait()
}
