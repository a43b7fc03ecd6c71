package domain

import "testing"

func TestParseModifiers(t *testing.T) {
	tests := []struct {
		csv  string
		want Modifier
	}{
		{"ctrl, alt", ModCtrl | ModAlt},
		{"ctrl,bogus", ModCtrl},
		{"CTRL,SHIFT", ModCtrl | ModShift},
		{"win", ModWin},
		{"windows", ModWin},
		{"", 0},
		{"nonsense", 0},
		{"ctrl,alt,shift,win", ModCtrl | ModAlt | ModShift | ModWin},
	}

	for _, tt := range tests {
		if got := ParseModifiers(tt.csv); got != tt.want {
			t.Errorf("ParseModifiers(%q) = %b, want %b", tt.csv, got, tt.want)
		}
	}
}

func TestModifierHas(t *testing.T) {
	m := ModCtrl | ModShift
	if !m.Has(ModCtrl) {
		t.Error("Expected Ctrl bit to be set")
	}
	if !m.Has(ModCtrl | ModShift) {
		t.Error("Expected combined mask to be set")
	}
	if m.Has(ModAlt) {
		t.Error("Expected Alt bit to be clear")
	}
	if m.Has(ModCtrl | ModAlt) {
		t.Error("Expected partial match to fail")
	}
}

func TestParseMouseButton(t *testing.T) {
	tests := []struct {
		token string
		want  MouseButton
	}{
		{"left", ButtonLeft},
		{"Right", ButtonRight},
		{" middle ", ButtonMiddle},
		{"bogus", ButtonLeft},
		{"", ButtonLeft},
	}

	for _, tt := range tests {
		if got := ParseMouseButton(tt.token); got != tt.want {
			t.Errorf("ParseMouseButton(%q) = %v, want %v", tt.token, got, tt.want)
		}
	}
}

func TestSessionActive(t *testing.T) {
	sess := &Session{ConnectionID: "conn-1"}
	if !sess.Active() {
		t.Error("Expected session without DisconnectedAt to be active")
	}
}

func TestUserGroup(t *testing.T) {
	if got := UserGroup(7); got != "User_7" {
		t.Errorf("Expected User_7, got %q", got)
	}
}

func TestCallerContext(t *testing.T) {
	anon := CallerContext{ConnectionID: "conn-1"}
	if anon.Resolved() || anon.IsAdmin() {
		t.Error("Expected anonymous caller to be unresolved and non-admin")
	}

	admin := CallerContext{ConnectionID: "conn-2", UserID: 3, Role: RoleAdmin}
	if !admin.Resolved() || !admin.IsAdmin() {
		t.Error("Expected resolved admin caller")
	}

	user := CallerContext{ConnectionID: "conn-3", UserID: 4, Role: RoleUser}
	if user.IsAdmin() {
		t.Error("Expected plain user to not be admin")
	}
}
