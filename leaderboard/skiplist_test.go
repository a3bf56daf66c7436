package leaderboard

import (
	"testing"

	"seasonkit/core"
)

func TestSkipListBasic(t *testing.T) {
	s := NewSkipList()
	s.Update(core.UserID(1), 10)
	s.Update(core.UserID(2), 20)
	s.Update(core.UserID(3), 15)
	top := s.TopN(3)
	if len(top) != 3 || top[0].User != 2 || top[1].User != 3 || top[2].User != 1 {
		t.Fatalf("unexpected order: %#v", top)
	}
	s.Update(core.UserID(1), 25)
	top = s.TopN(1)
	if top[0].User != 1 {
		t.Fatalf("top should be user 1, got %#v", top)
	}
}

func TestSkipListRemove(t *testing.T) {
	s := NewSkipList()
	s.Update(core.UserID(1), 5)
	s.Update(core.UserID(2), 7)
	s.Remove(core.UserID(2))
	if _, ok := s.Get(core.UserID(2)); ok {
		t.Fatal("user 2 should be gone")
	}
	top := s.TopN(10)
	if len(top) != 1 || top[0].User != 1 {
		t.Fatalf("unexpected top: %#v", top)
	}
}

func TestSkipListTieOrder(t *testing.T) {
	s := NewSkipList()
	s.Update(core.UserID(9), 50)
	s.Update(core.UserID(3), 50)
	top := s.TopN(2)
	if top[0].User != 3 || top[1].User != 9 {
		t.Fatalf("ties should order by user id asc: %#v", top)
	}
}
