package chain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNoMessages    = errors.New("session has no messages")
	ErrNoRoot        = errors.New("session has no root message")
	ErrBrokenChain   = errors.New("broken message chain")
	ErrEmptyMainline = errors.New("session has no messages past the root")
)

// Node is the message-tree view the resolver walks. Only the root sentinel
// has a nil parent.
type Node interface {
	GetId() uuid.UUID
	GetParentId() *uuid.UUID
	GetLatestChildId() *uuid.UUID
}

// ResolveMainline reconstructs the live branch of a message tree: starting at
// the root it follows latest-child pointers until a node has no child. It
// returns the tip plus its ancestors in root-to-tip order, excluding the root
// sentinel. Any pointer to a message outside the fetched set fails the walk.
func ResolveMainline[M Node](messages []M) (tip M, ancestors []M, err error) {
	var zero M
	if len(messages) == 0 {
		return zero, nil, ErrNoMessages
	}

	byId := make(map[uuid.UUID]M, len(messages))
	var root M
	rootFound := false
	for _, m := range messages {
		byId[m.GetId()] = m
		if m.GetParentId() == nil {
			if rootFound {
				return zero, nil, fmt.Errorf("%w: multiple root messages", ErrBrokenChain)
			}
			root = m
			rootFound = true
		}
	}
	if !rootFound {
		return zero, nil, ErrNoRoot
	}

	var mainline []M
	current := root
	for {
		childId := current.GetLatestChildId()
		if childId == nil {
			break
		}
		child, ok := byId[*childId]
		if !ok {
			return zero, nil, fmt.Errorf("%w: latest child %s not in session", ErrBrokenChain, *childId)
		}
		mainline = append(mainline, child)
		// A corrupted tree can point back into itself.
		if len(mainline) > len(messages) {
			return zero, nil, fmt.Errorf("%w: cycle detected", ErrBrokenChain)
		}
		current = child
	}

	if len(mainline) == 0 {
		return zero, nil, ErrEmptyMainline
	}
	return mainline[len(mainline)-1], mainline[:len(mainline)-1], nil
}
