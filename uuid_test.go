package btle

import (
	"bytes"
	"testing"
)

func TestUUID16(t *testing.T) {
	u := UUID16(0x180F)
	if !bytes.Equal(u, []byte{0x0F, 0x18}) {
		t.Fatalf("wire order % X", []byte(u))
	}
	if u.String() != "180f" {
		t.Fatalf("display %q", u.String())
	}
}

func TestParse(t *testing.T) {
	u, err := Parse("34DA3AD1-7110-41A1-B1EF-4430F509CDE7")
	if err != nil {
		t.Fatal(err)
	}
	if u.Len() != 16 {
		t.Fatalf("len %d", u.Len())
	}
	if u.String() != "34da3ad1711041a1b1ef4430f509cde7" {
		t.Fatalf("display %q", u.String())
	}

	if _, err := Parse("180f00"); err == nil {
		t.Fatal("no error for 3-byte uuid")
	}
	if _, err := Parse("xyz0"); err == nil {
		t.Fatal("no error for non-hex uuid")
	}
}

func TestContains(t *testing.T) {
	l := []UUID{UUID16(0x1800), UUID16(0x180F)}
	if !Contains(l, UUID16(0x180F)) {
		t.Fatal("member not found")
	}
	if Contains(l, UUID16(0x180A)) {
		t.Fatal("non-member found")
	}
	if Contains(l, UUID32(0x0000180F)) {
		t.Fatal("width ignored")
	}
}

func TestReverse(t *testing.T) {
	if !bytes.Equal(Reverse([]byte{1, 2, 3}), []byte{3, 2, 1}) {
		t.Fatal("odd length")
	}
	if !bytes.Equal(Reverse([]byte{1, 2, 3, 4}), []byte{4, 3, 2, 1}) {
		t.Fatal("even length")
	}
}
