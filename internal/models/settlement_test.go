package models

import (
	"errors"
	"testing"
)

func TestSettlementValidate(t *testing.T) {
	tests := []struct {
		name    string
		s       Settlement
		wantErr bool
	}{
		{"valid", Settlement{FromUserID: "bob", ToUserID: "alice", Amount: 10}, false},
		{"missing payee", Settlement{FromUserID: "bob", Amount: 10}, true},
		{"same user", Settlement{FromUserID: "bob", ToUserID: "bob", Amount: 10}, true},
		{"zero amount", Settlement{FromUserID: "bob", ToUserID: "alice"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.s.Validate()
			if tt.wantErr != (err != nil) {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidSettlement) {
				t.Errorf("expected ErrInvalidSettlement, got %v", err)
			}
		})
	}
}

func TestSettlementInvolves(t *testing.T) {
	s := Settlement{FromUserID: "bob", ToUserID: "alice"}
	if !s.Involves("bob") || !s.Involves("alice") {
		t.Error("expected both parties to be involved")
	}
	if s.Involves("carol") || s.Involves("") {
		t.Error("expected outsiders not to be involved")
	}
}
