package router

import "testing"

func TestTriggerPolicyMatch(t *testing.T) {
	t.Parallel()

	p := NewTriggerPolicy(nil, nil)

	tests := []struct {
		body       string
		wantPrompt string
		wantOK     bool
	}{
		{"ai quelle heure ?", "quelle heure ?", true},
		{"AI QUESTION", "QUESTION", true},
		{"edu  explique-moi  ", "explique-moi", true},
		{"bot", "", true},
		{"ask   ", "", true},
		{"bonjour", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		prompt, ok := p.Match(tt.body)
		if ok != tt.wantOK || prompt != tt.wantPrompt {
			t.Errorf("Match(%q) = (%q, %v), want (%q, %v)",
				tt.body, prompt, ok, tt.wantPrompt, tt.wantOK)
		}
	}
}

func TestTriggerPolicyIsClearCommand(t *testing.T) {
	t.Parallel()

	p := NewTriggerPolicy(nil, nil)

	tests := []struct {
		prompt string
		want   bool
	}{
		{"clean all", true},
		{"s'il te plaît effacer historique maintenant", true},
		{"SUPPRIMER MÉMOIRE", true},
		{"reset mémoire", true},
		{"clear all please", true},
		{"raconte une histoire", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := p.IsClearCommand(tt.prompt); got != tt.want {
			t.Errorf("IsClearCommand(%q) = %v, want %v", tt.prompt, got, tt.want)
		}
	}
}

func TestMatchGameStart(t *testing.T) {
	t.Parallel()

	tests := []struct {
		body     string
		wantArgs string
		wantOK   bool
	}{
		{"tictactoe 123", "123", true},
		{"ttt 123", "123", true},
		{"TTT", "", true},
		{"tictactoe", "", true},
		{"tttx", "", false},
		{"ai question", "", false},
	}
	for _, tt := range tests {
		args, ok := MatchGameStart(tt.body)
		if ok != tt.wantOK || args != tt.wantArgs {
			t.Errorf("MatchGameStart(%q) = (%q, %v), want (%q, %v)",
				tt.body, args, ok, tt.wantArgs, tt.wantOK)
		}
	}
}

func TestAdminPolicy(t *testing.T) {
	t.Parallel()

	p := NewAdminPolicy([]string{"Admin-1", " admin-2 "})
	if !p.IsAdmin("admin-1") || !p.IsAdmin("ADMIN-2") {
		t.Error("listed admins not recognized after normalization")
	}
	if p.IsAdmin("u1") {
		t.Error("stranger recognized as admin")
	}

	empty := NewAdminPolicy(nil)
	if empty.IsAdmin("anyone") {
		t.Error("empty policy granted admin")
	}
}

func TestDecorate(t *testing.T) {
	t.Parallel()

	if got := Decorate("HEADER", "body"); got != "HEADER\nbody" {
		t.Errorf("Decorate = %q", got)
	}
	if got := Decorate("", "body"); got != "body" {
		t.Errorf("Decorate with empty header = %q", got)
	}
}
