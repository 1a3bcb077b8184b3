package support

import (
	"testing"

	"proxycheck/internal/domain"
)

func TestFindIP(t *testing.T) {
	input := "Client address: 203.0.113.5 connected via [2001:db8::1]"

	if got := FindIP(input); got != "203.0.113.5" {
		t.Fatalf("FindIP returned %s, want 203.0.113.5", got)
	}

	if got := FindIP("no address here"); got != "" {
		t.Fatalf("FindIP returned %s, want empty", got)
	}
}

func TestFirstOrigin(t *testing.T) {
	tests := map[string]string{
		"1.2.3.4":            "1.2.3.4",
		"1.2.3.4, 5.6.7.8":   "1.2.3.4",
		"  9.9.9.9 ,1.1.1.1": "9.9.9.9",
		"":                   domain.UnknownOrigin,
		" , 1.1.1.1":         domain.UnknownOrigin,
	}

	for input, want := range tests {
		if got := FirstOrigin(input); got != want {
			t.Fatalf("FirstOrigin(%q) returned %q, want %q", input, got, want)
		}
	}
}

func TestGetAnonymityLevel(t *testing.T) {
	if got := GetAnonymityLevel([]string{"5.5.5.5"}, ""); got != "" {
		t.Fatalf("GetAnonymityLevel without direct ip returned %q, want empty", got)
	}
	if got := GetAnonymityLevel(nil, "10.0.0.1"); got != "" {
		t.Fatalf("GetAnonymityLevel without origins returned %q, want empty", got)
	}
	if got := GetAnonymityLevel([]string{"5.5.5.5", "10.0.0.1"}, "10.0.0.1"); got != domain.AnonymityTransparent {
		t.Fatalf("GetAnonymityLevel returned %q, want transparent", got)
	}
	if got := GetAnonymityLevel([]string{"5.5.5.5"}, "10.0.0.1"); got != domain.AnonymityAnonymous {
		t.Fatalf("GetAnonymityLevel returned %q, want anonymous", got)
	}
	if got := GetAnonymityLevel([]string{"11.2.3.45"}, "1.2.3.4"); got != domain.AnonymityAnonymous {
		t.Fatalf("GetAnonymityLevel matched a partial address, returned %q, want anonymous", got)
	}
	if got := GetAnonymityLevel([]string{"2001:db8::10"}, "2001:db8::1"); got != domain.AnonymityAnonymous {
		t.Fatalf("GetAnonymityLevel matched an ipv6 prefix, returned %q, want anonymous", got)
	}
	if got := GetAnonymityLevel([]string{"2001:0db8:0000:0000:0000:0000:0000:0001"}, "2001:db8::1"); got != domain.AnonymityTransparent {
		t.Fatalf("GetAnonymityLevel missed an expanded ipv6 form, returned %q, want transparent", got)
	}
}

func TestSameIP(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"1.2.3.4", "1.2.3.4", true},
		{" 1.2.3.4", "1.2.3.4 ", true},
		{"11.2.3.45", "1.2.3.4", false},
		{"::ffff:1.2.3.4", "1.2.3.4", true},
		{"::1", "0:0:0:0:0:0:0:1", true},
		{"unknown", "unknown", true},
		{"unknown", "1.2.3.4", false},
	}

	for _, tt := range tests {
		if got := SameIP(tt.a, tt.b); got != tt.want {
			t.Fatalf("SameIP(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
