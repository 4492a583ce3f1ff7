package users

import "testing"

func TestDirectoryList(t *testing.T) {
	d := NewDirectory()
	list := d.List()
	if len(list) != 3 {
		t.Fatalf("expected 3 users, got %d", len(list))
	}
	if d.Online() != 2 {
		t.Fatalf("expected 2 online users, got %d", d.Online())
	}

	list[0].Name = "changed"
	if d.List()[0].Name != "Alice Johnson" {
		t.Fatalf("List must return a copy")
	}
}
