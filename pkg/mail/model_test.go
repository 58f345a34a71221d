package mail

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		msg     Message
		wantErr string // offending field, empty for valid
	}{
		{"valid", Message{From: "a@x.com", To: []string{"b@y.com"}}, ""},
		{"valid with cc", Message{From: "a@x.com", To: []string{"b@y.com"}, Cc: []string{"c@z.com"}}, ""},
		{"missing from", Message{To: []string{"b@y.com"}}, "from"},
		{"malformed from", Message{From: "not-an-address", To: []string{"b@y.com"}}, "from"},
		{"no recipients", Message{From: "a@x.com"}, "to"},
		{"empty recipient", Message{From: "a@x.com", To: []string{""}}, "to"},
		{"malformed recipient", Message{From: "a@x.com", To: []string{"b@y.com", "@@"}}, "to"},
		{"malformed cc", Message{From: "a@x.com", To: []string{"b@y.com"}, Cc: []string{"nope"}}, "cc"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.msg.Validate()
			if test.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, expected nil", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() = %v, expected *ValidationError", err)
			}
			if verr.Field != test.wantErr {
				t.Errorf("ValidationError.Field = %q, expected %q", verr.Field, test.wantErr)
			}
		})
	}
}

func TestValidateNormalizesAddresses(t *testing.T) {
	msg := Message{
		From: "  Jan Doe <jan@example.com> ",
		To:   []string{" Pol <pol@example.com>"},
		Cc:   []string{"cc@example.com "},
	}
	if err := msg.Validate(); err != nil {
		t.Fatalf("Validate() = %v, expected nil", err)
	}
	if msg.From != "jan@example.com" {
		t.Errorf("From = %q, expected jan@example.com", msg.From)
	}
	if msg.To[0] != "pol@example.com" {
		t.Errorf("To[0] = %q, expected pol@example.com", msg.To[0])
	}
	if msg.Cc[0] != "cc@example.com" {
		t.Errorf("Cc[0] = %q, expected cc@example.com", msg.Cc[0])
	}
}

func TestRecipientsOrder(t *testing.T) {
	msg := Message{
		From: "a@x.com",
		To:   []string{"to1@x.com", "to2@x.com"},
		Cc:   []string{"cc1@x.com"},
	}
	got := msg.Recipients()
	want := []string{"to1@x.com", "to2@x.com", "cc1@x.com"}
	if len(got) != len(want) {
		t.Fatalf("Recipients() = %v, expected %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Recipients()[%d] = %q, expected %q", i, got[i], want[i])
		}
	}
}

func TestUID(t *testing.T) {
	msg := &Message{From: "a@x.com", To: []string{"b@y.com"}, Subject: "Hi", Body: "hello"}

	uid1, err := msg.UID()
	if err != nil {
		t.Fatalf("UID() error: %v", err)
	}
	uid2, err := msg.UID()
	if err != nil {
		t.Fatalf("UID() error: %v", err)
	}
	if uid1 != uid2 {
		t.Errorf("UID not stable: %q != %q", uid1, uid2)
	}
	if len(uid1) != 48 { // Blake2b-192 in hex
		t.Errorf("UID length = %d, expected 48", len(uid1))
	}

	other := &Message{From: "a@x.com", To: []string{"b@y.com"}, Subject: "Hi", Body: "different"}
	uid3, err := other.UID()
	if err != nil {
		t.Fatalf("UID() error: %v", err)
	}
	if uid3 == uid1 {
		t.Error("different messages produced the same UID")
	}
}
