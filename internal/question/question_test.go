package question

import (
	"testing"

	"github.com/jthomson-dev/recursive-dns/internal/buffer"
	"github.com/jthomson-dev/recursive-dns/internal/dnstype"
)

func TestQuestionRoundTrip(t *testing.T) {
	q := Question{Name: "example.com", Type: dnstype.AAAA}
	buf := buffer.New()
	if err := q.Write(buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	buf.Seek(0)
	got, err := Read(buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got != q {
		t.Errorf("round trip mismatch: want %+v, got %+v", q, got)
	}
}

func TestQuestionClassAlwaysIN(t *testing.T) {
	q := Question{Name: "example.com", Type: dnstype.A}
	buf := buffer.New()
	if err := q.Write(buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	classBytes, err := buf.Range(buf.Pos()-2, 2)
	if err != nil {
		t.Fatalf("Range failed: %v", err)
	}
	if classBytes[0] != 0x00 || classBytes[1] != 0x01 {
		t.Errorf("expected class IN (0x0001), got %02x%02x", classBytes[0], classBytes[1])
	}
}
