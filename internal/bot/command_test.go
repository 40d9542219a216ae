package bot

import "testing"

func TestParseCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		text    string
		wantCmd Command
		wantArg string
		wantOK  bool
	}{
		{"start", "/start", CommandStart, "", true},
		{"help", "/help", CommandHelp, "", true},
		{"number", "/number", CommandNumber, "", true},
		{"city with argument", "/city London", CommandCity, "London", true},
		{"argument whitespace trimmed", "/town   Little Whinging  ", CommandTown, "Little Whinging", true},
		{"botname suffix stripped", "/numbers@locator_bot", CommandNumbers, "", true},
		{"botname suffix with argument", "/postcode@locator_bot SW1A", CommandPostcode, "SW1A", true},
		{"case insensitive", "/START", CommandStart, "", true},
		{"unknown command", "/frobnicate", CommandUnknown, "", true},
		{"unknown command keeps argument", "/frobnicate now", CommandUnknown, "now", true},
		{"plain text", "London", CommandUnknown, "", false},
		{"empty", "", CommandUnknown, "", false},
		{"leading whitespace before slash", "  /invite", CommandInvite, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cmd, arg, ok := ParseCommand(tt.text)
			if cmd != tt.wantCmd || arg != tt.wantArg || ok != tt.wantOK {
				t.Errorf("ParseCommand(%q) = (%v, %q, %v), want (%v, %q, %v)",
					tt.text, cmd, arg, ok, tt.wantCmd, tt.wantArg, tt.wantOK)
			}
		})
	}
}

func TestIsReserved(t *testing.T) {
	t.Parallel()

	for _, spec := range CommandList() {
		if !IsReserved(spec.Name) {
			t.Errorf("IsReserved(%q) = false, want true", spec.Name)
		}
	}
	if IsReserved("frobnicate") {
		t.Error("IsReserved(\"frobnicate\") = true, want false")
	}
}

func TestCommandListCopy(t *testing.T) {
	t.Parallel()

	list := CommandList()
	if len(list) == 0 {
		t.Fatal("CommandList() is empty")
	}

	list[0].Name = "mutated"
	if CommandList()[0].Name == "mutated" {
		t.Error("CommandList() exposes internal table")
	}
}
