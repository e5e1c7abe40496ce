package nethttp

import "testing"

func TestTrustedProxies_trusts(t *testing.T) {
	tp := NewTrustedProxies("10.0.0.1, 10.0.0.2")

	if !tp.trusts("10.0.0.1") {
		t.Fatal("expected 10.0.0.1 to be trusted")
	}

	if tp.trusts("203.0.113.5") {
		t.Fatal("expected untrusted peer to not be trusted")
	}
}

func TestNewTrustedProxies_empty(t *testing.T) {
	tp := NewTrustedProxies("")
	if tp.trusts("anything") {
		t.Fatal("empty allow-list must trust nothing")
	}
}
