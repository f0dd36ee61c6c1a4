package domain

import "testing"

func TestPlatformForwardOf(t *testing.T) {
	cases := []struct {
		from, to Platform
		forward  bool
	}{
		{PlatformNone, PlatformOutreach, true},
		{PlatformNone, PlatformCRM, true},
		{PlatformOutreach, PlatformHybrid, true},
		{PlatformOutreach, PlatformCRM, true},
		{PlatformHybrid, PlatformCRM, true},
		{PlatformHybrid, PlatformOutreach, false},
		{PlatformCRM, PlatformHybrid, false},
		{PlatformOutreach, PlatformOutreach, false},
	}
	for _, tc := range cases {
		if got := tc.to.ForwardOf(tc.from); got != tc.forward {
			t.Fatalf("%s -> %s: forward = %v, want %v", tc.from, tc.to, got, tc.forward)
		}
	}
}

func TestPlatformTerminal(t *testing.T) {
	if !PlatformCRM.IsTerminal() {
		t.Fatal("crm is terminal for automated routing")
	}
	for _, p := range []Platform{PlatformNone, PlatformOutreach, PlatformHybrid} {
		if p.IsTerminal() {
			t.Fatalf("%s must not be terminal", p)
		}
	}
}

func TestDecisionKey(t *testing.T) {
	d := TransitionDecision{Target: PlatformCRM, AuthorizingVersion: 7}
	a := d.Key()
	d.AuthorizingVersion = 8
	if d.Key() == a {
		t.Fatal("key must change with the authorizing version")
	}
}

func TestCommandsFor(t *testing.T) {
	toCRM := TransitionDecision{From: PlatformOutreach, Target: PlatformCRM}
	cmds := CommandsFor(toCRM)
	if len(cmds) != 2 || cmds[0].Type != CommandEnrollInCRM || cmds[1].Type != CommandRemoveFromOutreach {
		t.Fatalf("crm from outreach: got %+v", cmds)
	}

	fromNone := TransitionDecision{From: PlatformNone, Target: PlatformCRM}
	cmds = CommandsFor(fromNone)
	if len(cmds) != 1 || cmds[0].Type != CommandEnrollInCRM {
		t.Fatalf("crm from none: got %+v", cmds)
	}

	toHybrid := TransitionDecision{From: PlatformOutreach, Target: PlatformHybrid}
	cmds = CommandsFor(toHybrid)
	if len(cmds) != 1 || cmds[0].Type != CommandMarkHybrid {
		t.Fatalf("hybrid: got %+v", cmds)
	}
}
