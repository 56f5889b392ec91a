package dnstype

import "testing"

func TestStringKnownTypes(t *testing.T) {
	cases := map[QueryType]string{
		A:     "A",
		NS:    "NS",
		CNAME: "CNAME",
		MX:    "MX",
		AAAA:  "AAAA",
	}
	for qt, want := range cases {
		if got := qt.String(); got != want {
			t.Errorf("QueryType(%d).String() = %q, want %q", qt, got, want)
		}
	}
}

func TestStringUnknownType(t *testing.T) {
	if got, want := QueryType(65281).String(), "65281"; got != want {
		t.Errorf("QueryType(65281).String() = %q, want %q", got, want)
	}
}
