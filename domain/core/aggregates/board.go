package aggregates

import (
	"time"

	"mindboard/domain/config"
	"mindboard/domain/core/entities"
	"mindboard/domain/core/valueobjects"
	"mindboard/domain/events"
	pkgerrors "mindboard/pkg/errors"
)

// NodePatch lists the fields UpdateNode replaces. Nil fields are left alone.
// A non-nil ParentID holding the zero id detaches the node.
type NodePatch struct {
	Label    *string
	Position *valueobjects.Point
	Size     *valueobjects.Size
	ParentID *valueobjects.NodeID
	Color    *string
	Shape    *entities.ShapeKind
}

// Board is the graph store: the live node list of one open document plus the
// current selection. It is the only writer of the node list.
type Board struct {
	id       string
	nodes    []entities.Node
	selected valueobjects.NodeID
	config   *config.DomainConfig
	events   []events.DomainEvent
}

// NewBoard creates a board over a copy of the given nodes
func NewBoard(id string, nodes []entities.Node, cfg *config.DomainConfig) *Board {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &Board{
		id:     id,
		nodes:  entities.CloneNodes(nodes),
		config: cfg,
		events: []events.DomainEvent{},
	}
}

// ID returns the id of the document the board edits
func (b *Board) ID() string {
	return b.id
}

// Nodes returns a snapshot of the node list in z-order
func (b *Board) Nodes() []entities.Node {
	return entities.CloneNodes(b.nodes)
}

// Len returns the number of nodes
func (b *Board) Len() int {
	return len(b.nodes)
}

// Node looks up a node by id
func (b *Board) Node(id valueobjects.NodeID) (entities.Node, bool) {
	i := b.indexOf(id)
	if i < 0 {
		return entities.Node{}, false
	}
	return b.nodes[i], true
}

// AddNode appends a descriptor under a fresh id and selects it
func (b *Board) AddNode(descriptor entities.Node) (valueobjects.NodeID, error) {
	if descriptor.Body() == nil {
		return valueobjects.NodeID{}, pkgerrors.NewValidation("node descriptor has no body")
	}

	id := valueobjects.NewNodeID()
	node := descriptor.WithID(id)
	b.nodes = append(b.nodes, node)
	b.selected = id

	b.addEvent(events.NewNodeAdded(b.id, id, string(node.Kind()), time.Now()))
	return id, nil
}

// UpdateNode merges the patch into the node matching id. The node is
// replaced as a whole; nothing outside the board aliases the old value.
func (b *Board) UpdateNode(id valueobjects.NodeID, patch NodePatch) error {
	i := b.indexOf(id)
	if i < 0 {
		return pkgerrors.NewNotFound("node " + id.String() + " not found")
	}

	node := b.nodes[i]
	var fields []string
	var err error

	if patch.Label != nil {
		node = node.WithLabel(*patch.Label)
		fields = append(fields, "label")
	}
	if patch.Position != nil {
		if node, err = node.WithPosition(*patch.Position); err != nil {
			return err
		}
		fields = append(fields, "position")
	}
	if patch.Size != nil {
		if node, err = node.WithSize(*patch.Size); err != nil {
			return err
		}
		fields = append(fields, "size")
	}
	if patch.Color != nil {
		node = node.WithColor(*patch.Color)
		fields = append(fields, "color")
	}
	if patch.Shape != nil {
		if node, err = node.WithShape(*patch.Shape); err != nil {
			return err
		}
		fields = append(fields, "shapeKind")
	}
	if patch.ParentID != nil {
		if err := b.checkParent(id, *patch.ParentID); err != nil {
			return err
		}
		node = node.WithParent(*patch.ParentID)
		fields = append(fields, "parentId")
	}

	b.nodes[i] = node
	if len(fields) > 0 {
		b.addEvent(events.NewNodeUpdated(b.id, id, fields, time.Now()))
	}
	return nil
}

// MoveNode adds a document-space delta to a node's position. It is called on
// every drag frame and raises no event.
func (b *Board) MoveNode(id valueobjects.NodeID, dx, dy float64) error {
	i := b.indexOf(id)
	if i < 0 {
		return pkgerrors.NewNotFound("node " + id.String() + " not found")
	}
	moved, err := b.nodes[i].Translate(dx, dy)
	if err != nil {
		return err
	}
	b.nodes[i] = moved
	return nil
}

// Resize replaces a node's size
func (b *Board) Resize(id valueobjects.NodeID, size valueobjects.Size) error {
	return b.UpdateNode(id, NodePatch{Size: &size})
}

// Reparent points a node at a new parent; the zero id detaches it.
// A node cannot become a child of itself or of one of its descendants.
func (b *Board) Reparent(id, parentID valueobjects.NodeID) error {
	return b.UpdateNode(id, NodePatch{ParentID: &parentID})
}

// AddChild creates a mind-map child to the right of parent and selects it.
// Siblings stack downward in creation order.
func (b *Board) AddChild(parentID valueobjects.NodeID) (valueobjects.NodeID, error) {
	parent, ok := b.Node(parentID)
	if !ok {
		return valueobjects.NodeID{}, pkgerrors.NewNotFound("parent " + parentID.String() + " not found")
	}

	d := b.config.KindDefaults(string(entities.KindNode))
	siblings := len(b.Children(parentID))
	pos := parent.Position()
	center := valueobjects.Point{
		X: pos.X + parent.Size().Width + b.config.ChildGapX + d.Width/2,
		Y: parent.Center().Y + float64(siblings)*b.config.ChildGapY,
	}

	child := entities.NewDefaultNode(entities.TopicBody{}, center, b.config).WithParent(parentID)
	return b.AddNode(child)
}

// DeleteNode removes id and every node whose parent chain reaches it, in one
// mutation, and returns the removed ids in z-order.
//
// The closure is a fixed point over a visited set: each pass marks any node
// whose parent is already marked, until a pass marks nothing. Marked nodes
// are never revisited, so cyclic parent chains terminate.
func (b *Board) DeleteNode(id valueobjects.NodeID) ([]valueobjects.NodeID, error) {
	if b.indexOf(id) < 0 {
		return nil, pkgerrors.NewNotFound("node " + id.String() + " not found")
	}

	marked := map[valueobjects.NodeID]bool{id: true}
	for changed := true; changed; {
		changed = false
		for _, n := range b.nodes {
			if marked[n.ID()] || !n.HasParent() {
				continue
			}
			if marked[n.ParentID()] {
				marked[n.ID()] = true
				changed = true
			}
		}
	}

	kept := make([]entities.Node, 0, len(b.nodes)-len(marked))
	removed := make([]valueobjects.NodeID, 0, len(marked))
	for _, n := range b.nodes {
		if marked[n.ID()] {
			removed = append(removed, n.ID())
			continue
		}
		kept = append(kept, n)
	}
	b.nodes = kept

	if marked[b.selected] {
		b.selected = valueobjects.NodeID{}
	}

	b.addEvent(events.NewNodesDeleted(b.id, id, removed, time.Now()))
	return removed, nil
}

// SelectNode selects id; the zero id clears the selection
func (b *Board) SelectNode(id valueobjects.NodeID) error {
	if id.IsZero() {
		b.ClearSelection()
		return nil
	}
	if b.indexOf(id) < 0 {
		return pkgerrors.NewNotFound("node " + id.String() + " not found")
	}
	b.selected = id
	return nil
}

// ClearSelection drops the selection
func (b *Board) ClearSelection() {
	b.selected = valueobjects.NodeID{}
}

// Selected returns the selected node, if any
func (b *Board) Selected() (entities.Node, bool) {
	if b.selected.IsZero() {
		return entities.Node{}, false
	}
	return b.Node(b.selected)
}

// SelectedID returns the selected id; zero when nothing is selected
func (b *Board) SelectedID() valueobjects.NodeID {
	return b.selected
}

// Replace adopts a snapshot, as undo and redo do. A selection that no longer
// exists in the snapshot is dropped.
func (b *Board) Replace(nodes []entities.Node) {
	b.nodes = entities.CloneNodes(nodes)
	if b.indexOf(b.selected) < 0 {
		b.selected = valueobjects.NodeID{}
	}
	b.addEvent(events.NewBoardReplaced(b.id, len(b.nodes), time.Now()))
}

// HitTest returns the topmost node whose bounds contain the document point
func (b *Board) HitTest(p valueobjects.Point) (entities.Node, bool) {
	for i := len(b.nodes) - 1; i >= 0; i-- {
		if b.nodes[i].Bounds().Contains(p) {
			return b.nodes[i], true
		}
	}
	return entities.Node{}, false
}

// Children returns the direct children of id in z-order
func (b *Board) Children(id valueobjects.NodeID) []entities.Node {
	var children []entities.Node
	for _, n := range b.nodes {
		if n.HasParent() && n.ParentID().Equals(id) {
			children = append(children, n)
		}
	}
	return children
}

// Descendants returns every node reachable from id through child links,
// excluding id itself. Safe on cyclic data.
func (b *Board) Descendants(id valueobjects.NodeID) []valueobjects.NodeID {
	visited := map[valueobjects.NodeID]bool{id: true}
	queue := []valueobjects.NodeID{id}
	var out []valueobjects.NodeID

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range b.Children(current) {
			if visited[child.ID()] {
				continue
			}
			visited[child.ID()] = true
			out = append(out, child.ID())
			queue = append(queue, child.ID())
		}
	}
	return out
}

// GetUncommittedEvents returns events raised since the last MarkEventsAsCommitted
func (b *Board) GetUncommittedEvents() []events.DomainEvent {
	out := make([]events.DomainEvent, len(b.events))
	copy(out, b.events)
	return out
}

// MarkEventsAsCommitted clears the pending events
func (b *Board) MarkEventsAsCommitted() {
	b.events = []events.DomainEvent{}
}

// checkParent rejects links that would make id its own ancestor
func (b *Board) checkParent(id, parentID valueobjects.NodeID) error {
	if parentID.IsZero() {
		return nil
	}
	if parentID.Equals(id) {
		return pkgerrors.NewInvalidTransition("a node cannot be its own parent")
	}
	if b.indexOf(parentID) < 0 {
		return pkgerrors.NewNotFound("parent " + parentID.String() + " not found")
	}
	for _, d := range b.Descendants(id) {
		if d.Equals(parentID) {
			return pkgerrors.NewInvalidTransition("reparenting onto a descendant would create a cycle")
		}
	}
	return nil
}

func (b *Board) indexOf(id valueobjects.NodeID) int {
	if id.IsZero() {
		return -1
	}
	for i, n := range b.nodes {
		if n.ID().Equals(id) {
			return i
		}
	}
	return -1
}

func (b *Board) addEvent(event events.DomainEvent) {
	b.events = append(b.events, event)
}
