package reactor

import "testing"

func TestSlabInsertAndGet(t *testing.T) {
	s := NewSlab(4)
	c := &Connection{}
	tok := s.Insert(c)
	if tok == serverToken {
		t.Fatal("Insert must never hand out the server token")
	}
	if got := s.Get(tok); got != c {
		t.Fatalf("Get(%v) = %v, want %v", tok, got, c)
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
}

func TestSlabRemoveFreesSlotForReuse(t *testing.T) {
	s := NewSlab(4)
	a := s.Insert(&Connection{})
	s.Remove(a)
	if s.Get(a) != nil {
		t.Fatal("Get after Remove should be nil")
	}
	if s.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", s.Len())
	}

	b := s.Insert(&Connection{})
	if b != a {
		t.Fatalf("expected freed slot %v to be reused, got %v", a, b)
	}
}

func TestSlabTokensNeverIncludesServer(t *testing.T) {
	s := NewSlab(4)
	s.Insert(&Connection{})
	s.Insert(&Connection{})
	for _, tok := range s.Tokens() {
		if tok == serverToken {
			t.Fatal("Tokens() must never include the server token")
		}
	}
	if len(s.Tokens()) != 2 {
		t.Fatalf("len(Tokens()) = %d, want 2", len(s.Tokens()))
	}
}

func TestSlabGetOutOfRange(t *testing.T) {
	s := NewSlab(4)
	if s.Get(Token(99)) != nil {
		t.Fatal("Get with an out-of-range token should return nil")
	}
}
