package reputation

import "testing"

// ─── Tier Classification ────────────────────────────────────────────────────

func TestTierForScore(t *testing.T) {
	tests := []struct {
		score int64
		want  Tier
	}{
		{0, TierNewcomer},
		{99, TierNewcomer},
		{100, TierBetaTester},
		{499, TierBetaTester},
		{500, TierCitizen},
		{999, TierCitizen},
		{1000, TierSovereign},
		{50000, TierSovereign},
	}

	for _, tt := range tests {
		if got := TierForScore(tt.score); got != tt.want {
			t.Errorf("TierForScore(%d) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestTierString(t *testing.T) {
	tests := []struct {
		tier Tier
		want string
	}{
		{TierNewcomer, "NEWCOMER"},
		{TierBetaTester, "BETA_TESTER"},
		{TierCitizen, "CITIZEN"},
		{TierSovereign, "SOVEREIGN"},
		{Tier(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.tier.String(); got != tt.want {
			t.Errorf("Tier(%d).String() = %q, want %q", tt.tier, got, tt.want)
		}
	}
}

// ─── Access Checks ──────────────────────────────────────────────────────────

func TestHasAccess(t *testing.T) {
	tests := []struct {
		name     string
		score    int64
		required Tier
		want     bool
	}{
		{"newcomer always has base access", 0, TierNewcomer, true},
		{"below citizen", 499, TierCitizen, false},
		{"exactly citizen", 500, TierCitizen, true},
		{"citizen not sovereign", 500, TierSovereign, false},
		{"sovereign has everything", 1000, TierSovereign, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasAccess(tt.score, tt.required); got != tt.want {
				t.Errorf("HasAccess(%d, %v) = %v, want %v", tt.score, tt.required, got, tt.want)
			}
		})
	}
}

func TestFeeExempt(t *testing.T) {
	if FeeExempt(999) {
		t.Error("score 999 should not be fee exempt")
	}
	if !FeeExempt(1000) {
		t.Error("score 1000 should be fee exempt")
	}
}

func TestRemaining(t *testing.T) {
	if got := Remaining(400, TierCitizen); got != 100 {
		t.Errorf("Remaining(400, Citizen) = %d, want 100", got)
	}
	if got := Remaining(600, TierCitizen); got != 0 {
		t.Errorf("Remaining(600, Citizen) = %d, want 0", got)
	}
}
