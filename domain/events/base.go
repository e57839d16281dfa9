package events

import (
	"time"

	"mindboard/domain/core/valueobjects"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }

// Board events

// NodeAdded is raised when a node is appended to a board
type NodeAdded struct {
	BaseEvent
	NodeID valueobjects.NodeID `json:"node_id"`
	Kind   string              `json:"kind"`
}

// NewNodeAdded creates a NodeAdded event
func NewNodeAdded(boardID string, nodeID valueobjects.NodeID, kind string, timestamp time.Time) NodeAdded {
	return NodeAdded{
		BaseEvent: BaseEvent{
			AggregateID: boardID,
			EventType:   "board.node_added",
			Timestamp:   timestamp,
		},
		NodeID: nodeID,
		Kind:   kind,
	}
}

// NodeUpdated is raised when fields of a node are replaced
type NodeUpdated struct {
	BaseEvent
	NodeID valueobjects.NodeID `json:"node_id"`
	Fields []string            `json:"fields"`
}

// NewNodeUpdated creates a NodeUpdated event
func NewNodeUpdated(boardID string, nodeID valueobjects.NodeID, fields []string, timestamp time.Time) NodeUpdated {
	return NodeUpdated{
		BaseEvent: BaseEvent{
			AggregateID: boardID,
			EventType:   "board.node_updated",
			Timestamp:   timestamp,
		},
		NodeID: nodeID,
		Fields: fields,
	}
}

// NodesDeleted is raised once per cascade delete with every removed id
type NodesDeleted struct {
	BaseEvent
	RootID valueobjects.NodeID   `json:"root_id"`
	IDs    []valueobjects.NodeID `json:"ids"`
}

// NewNodesDeleted creates a NodesDeleted event
func NewNodesDeleted(boardID string, rootID valueobjects.NodeID, ids []valueobjects.NodeID, timestamp time.Time) NodesDeleted {
	return NodesDeleted{
		BaseEvent: BaseEvent{
			AggregateID: boardID,
			EventType:   "board.nodes_deleted",
			Timestamp:   timestamp,
		},
		RootID: rootID,
		IDs:    ids,
	}
}

// BoardReplaced is raised when a board adopts a history snapshot
type BoardReplaced struct {
	BaseEvent
	NodeCount int `json:"node_count"`
}

// NewBoardReplaced creates a BoardReplaced event
func NewBoardReplaced(boardID string, nodeCount int, timestamp time.Time) BoardReplaced {
	return BoardReplaced{
		BaseEvent: BaseEvent{
			AggregateID: boardID,
			EventType:   "board.replaced",
			Timestamp:   timestamp,
		},
		NodeCount: nodeCount,
	}
}
