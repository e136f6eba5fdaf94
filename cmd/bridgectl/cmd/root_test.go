package cmd

import "testing"

func TestSubcommandsRegistered(t *testing.T) {
	want := map[string]bool{
		"send":     false,
		"simulate": false,
		"config":   false,
		"version":  false,
	}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestNewMessageID(t *testing.T) {
	a := newMessageID()
	b := newMessageID()

	if len(a) != 32 {
		t.Errorf("len(newMessageID()) = %d, want 32 hex chars", len(a))
	}
	if a == b {
		t.Error("two message IDs collided")
	}
}

func TestConfigSetRejectsUnknownKey(t *testing.T) {
	err := configSetCmd.RunE(configSetCmd, []string{"nope", "value"})
	if err == nil {
		t.Fatal("config set with unknown key succeeded")
	}
}

func TestConfigSetRejectsBadBool(t *testing.T) {
	err := configSetCmd.RunE(configSetCmd, []string{"json", "maybe"})
	if err == nil {
		t.Fatal("config set json=maybe succeeded")
	}
}
