package chain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

type testMsg struct {
	id            uuid.UUID
	parentId      *uuid.UUID
	latestChildId *uuid.UUID
}

func (m *testMsg) GetId() uuid.UUID             { return m.id }
func (m *testMsg) GetParentId() *uuid.UUID      { return m.parentId }
func (m *testMsg) GetLatestChildId() *uuid.UUID { return m.latestChildId }

// buildChain links n messages under a root sentinel and returns the full set.
func buildChain(n int) []*testMsg {
	msgs := []*testMsg{{id: uuid.New()}}
	for i := 0; i < n; i++ {
		parent := msgs[len(msgs)-1]
		child := &testMsg{id: uuid.New(), parentId: &parent.id}
		parent.latestChildId = &child.id
		msgs = append(msgs, child)
	}
	return msgs
}

func TestResolveMainlineWellFormed(t *testing.T) {
	msgs := buildChain(4)

	tip, ancestors, err := ResolveMainline(msgs)
	if err != nil {
		t.Fatalf("ResolveMainline() unexpected error: %v", err)
	}
	if tip.id != msgs[4].id {
		t.Errorf("tip = %s, want %s", tip.id, msgs[4].id)
	}
	if len(ancestors) != 3 {
		t.Fatalf("ancestors length = %d, want 3", len(ancestors))
	}
	for i, a := range ancestors {
		if a.id != msgs[i+1].id {
			t.Errorf("ancestor[%d] = %s, want %s", i, a.id, msgs[i+1].id)
		}
	}
}

func TestResolveMainlineFollowsLatestChildOnly(t *testing.T) {
	msgs := buildChain(2)
	// An abandoned sibling branch must not appear on the mainline.
	stale := &testMsg{id: uuid.New(), parentId: &msgs[0].id}
	msgs = append(msgs, stale)

	tip, ancestors, err := ResolveMainline(msgs)
	if err != nil {
		t.Fatalf("ResolveMainline() unexpected error: %v", err)
	}
	if tip.id != msgs[2].id {
		t.Errorf("tip = %s, want %s", tip.id, msgs[2].id)
	}
	if len(ancestors) != 1 {
		t.Errorf("ancestors length = %d, want 1", len(ancestors))
	}
}

func TestResolveMainlineFailures(t *testing.T) {
	dangling := buildChain(2)
	missing := uuid.New()
	dangling[2].latestChildId = &missing

	rootOnly := buildChain(0)

	orphans := buildChain(1)[1:]

	tests := []struct {
		name    string
		msgs    []*testMsg
		wantErr error
	}{
		{name: "no messages", msgs: nil, wantErr: ErrNoMessages},
		{name: "dangling child pointer", msgs: dangling, wantErr: ErrBrokenChain},
		{name: "root only", msgs: rootOnly, wantErr: ErrEmptyMainline},
		{name: "no root", msgs: orphans, wantErr: ErrNoRoot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ResolveMainline(tt.msgs)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ResolveMainline() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
