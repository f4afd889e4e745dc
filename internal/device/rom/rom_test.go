package rom

import "testing"

func TestLoadRejectsWrongSize(t *testing.T) {
	r := New()
	if err := r.Load(make([]byte, Size-1)); err == nil {
		t.Fatal("expected error for undersized image")
	}
	if err := r.Load(make([]byte, Size+1)); err == nil {
		t.Fatal("expected error for oversized image")
	}
}

func TestLoadAndReadByte(t *testing.T) {
	r := New()
	image := make([]byte, Size)
	image[0] = 0xAB
	image[Size-1] = 0xCD
	if err := r.Load(image); err != nil {
		t.Fatal(err)
	}
	if got := r.ReadByte(0); got != 0xAB {
		t.Fatalf("ReadByte(0) = %#x, want 0xAB", got)
	}
	if got := r.ReadByte(Size - 1); got != 0xCD {
		t.Fatalf("ReadByte(Size-1) = %#x, want 0xCD", got)
	}
}

func TestZeroValueReadsZero(t *testing.T) {
	r := New()
	if got := r.ReadByte(10); got != 0 {
		t.Fatalf("ReadByte on unloaded ROM = %#x, want 0", got)
	}
}
