package domain

import (
	"testing"
	"time"
)

func TestCommGrantExpired(t *testing.T) {
	now := time.Now()

	perpetual := CommGrant{FromUnitID: 1, ToUnitID: 2, Kind: CommSms}
	if perpetual.Expired(now) {
		t.Error("Expected grant without expiry to never expire")
	}

	live := CommGrant{FromUnitID: 1, ToUnitID: 2, Kind: CommCall, ExpiresAt: now.Add(time.Hour)}
	if live.Expired(now) {
		t.Error("Expected future expiry to be live")
	}

	lapsed := CommGrant{FromUnitID: 1, ToUnitID: 2, Kind: CommNotification, ExpiresAt: now.Add(-time.Hour)}
	if !lapsed.Expired(now) {
		t.Error("Expected past expiry to be lapsed")
	}
}
