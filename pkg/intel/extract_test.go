package intel

import (
	"reflect"
	"testing"
)

func TestExtract(t *testing.T) {
	testCases := []struct {
		name string
		text string
		want Bundle
	}{
		{
			name: "empty text",
			text: "",
			want: Bundle{},
		},
		{
			name: "no artifacts",
			text: "hello, please call me back when free",
			want: Bundle{},
		},
		{
			name: "payment handle",
			text: "pay via test@upi now",
			want: Bundle{PaymentIDs: []string{"test@upi"}},
		},
		{
			name: "generic email ignored",
			text: "my email is someone@gmail.com",
			want: Bundle{},
		},
		{
			name: "link with trailing punctuation",
			text: "click http://fake-sbi.example/verify, then confirm",
			want: Bundle{
				Links:     []string{"http://fake-sbi.example/verify"},
				BankNames: []string{"SBI"},
			},
		},
		{
			name: "international phone",
			text: "call +91 9876543210 immediately",
			want: Bundle{Phones: []string{"+919876543210"}},
		},
		{
			name: "bare ten digit run is phone and account candidate",
			text: "reach me on 9876543210",
			want: Bundle{
				Phones:       []string{"9876543210"},
				BankAccounts: []string{"9876543210"},
			},
		},
		{
			name: "account number",
			text: "transfer to 123456789012345",
			want: Bundle{BankAccounts: []string{"123456789012345"}},
		},
		{
			name: "too short digit run",
			text: "code is 12345678",
			want: Bundle{},
		},
		{
			name: "too long digit run",
			text: "ref 1234567890123456789",
			want: Bundle{},
		},
		{
			name: "bank names canonicalized",
			text: "this is HDFC calling about your icici account",
			want: Bundle{BankNames: []string{"HDFC", "ICICI"}},
		},
		{
			name: "kitchen sink",
			text: "Urgent! Pay scammer@ybl or visit https://hdfc-verify.example/login. Call +919812345678. Acct 999888777666.",
			want: Bundle{
				Links:        []string{"https://hdfc-verify.example/login"},
				PaymentIDs:   []string{"scammer@ybl"},
				Phones:       []string{"+919812345678"},
				BankAccounts: []string{"999888777666"},
				BankNames:    []string{"HDFC"},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Extract(tc.text)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Extract(%q)\n  got  %+v\n  want %+v", tc.text, got, tc.want)
			}
		})
	}
}

func TestExtractKeepsDuplicates(t *testing.T) {
	// Dedup belongs to the state machine; the extractor reports raw matches.
	b := Extract("send to test@upi, yes test@upi")
	if len(b.PaymentIDs) != 2 {
		t.Errorf("PaymentIDs = %v, want two raw matches", b.PaymentIDs)
	}
}

func TestExtractIntlPhoneNotDoubleCounted(t *testing.T) {
	b := Extract("call +919876543210")
	if len(b.Phones) != 1 {
		t.Errorf("Phones = %v, want exactly one entry", b.Phones)
	}
	if len(b.BankAccounts) != 0 {
		t.Errorf("BankAccounts = %v, want none for a prefixed phone number", b.BankAccounts)
	}
}

func TestBundleEmpty(t *testing.T) {
	if !(Bundle{}).Empty() {
		t.Error("zero bundle should be empty")
	}
	if (Bundle{Links: []string{"http://x.example"}}).Empty() {
		t.Error("bundle with a link should not be empty")
	}
}

func BenchmarkExtract(b *testing.B) {
	text := "Urgent! Pay scammer@ybl or visit https://hdfc-verify.example/login. Call +919812345678. Acct 999888777666."
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Extract(text)
	}
}
