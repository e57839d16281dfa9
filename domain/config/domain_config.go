package config

// ZoomAnchor selects the fixed point wheel zooming scales around
type ZoomAnchor string

const (
	// AnchorOrigin keeps the screen origin fixed; the pan offset is untouched
	AnchorOrigin ZoomAnchor = "origin"
	// AnchorCursor keeps the document point under the cursor fixed
	AnchorCursor ZoomAnchor = "cursor"
)

// KindDefaults are the creation-time defaults for one node kind
type KindDefaults struct {
	Width  float64 `yaml:"width" validate:"gt=0"`
	Height float64 `yaml:"height" validate:"gt=0"`
	Color  string  `yaml:"color"`
	Label  string  `yaml:"label"`
}

// DomainConfig holds all configurable board rules and constraints
type DomainConfig struct {
	// Viewport constraints
	MinScale         float64
	MaxScale         float64
	WheelSensitivity float64
	ZoomAnchor       ZoomAnchor

	// History constraints
	HistoryLimit int

	// Mind-map layout for new child nodes
	ChildGapX float64
	ChildGapY float64

	// Per-kind defaults keyed by node kind name
	Kinds map[string]KindDefaults
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MinScale:         0.1,
		MaxScale:         5.0,
		WheelSensitivity: 0.001,
		ZoomAnchor:       AnchorOrigin,

		HistoryLimit: 50,

		ChildGapX: 80,
		ChildGapY: 90,

		Kinds: map[string]KindDefaults{
			"root":    {Width: 220, Height: 90, Color: "primary", Label: "Central idea"},
			"node":    {Width: 160, Height: 60, Color: "default", Label: "New node"},
			"note":    {Width: 160, Height: 140, Color: "yellow", Label: "New note"},
			"text":    {Width: 150, Height: 40, Color: "transparent", Label: "Text"},
			"shape":   {Width: 120, Height: 120, Color: "blue", Label: ""},
			"sticker": {Width: 80, Height: 80, Color: "none", Label: ""},
			"comment": {Width: 200, Height: 100, Color: "orange", Label: "Comment"},
		},
	}
}

// KindDefaults returns the defaults for a kind, falling back to the built-in table
func (c *DomainConfig) KindDefaults(kind string) KindDefaults {
	if d, ok := c.Kinds[kind]; ok && d.Width > 0 && d.Height > 0 {
		return d
	}
	return DefaultDomainConfig().Kinds[kind]
}

// Clone returns a deep copy
func (c *DomainConfig) Clone() *DomainConfig {
	clone := *c
	clone.Kinds = make(map[string]KindDefaults, len(c.Kinds))
	for k, v := range c.Kinds {
		clone.Kinds[k] = v
	}
	return &clone
}

// Normalize repairs values that would make the engine degenerate.
// The viewport needs 0 < MinScale <= MaxScale; the history needs at least one slot.
func (c *DomainConfig) Normalize() *DomainConfig {
	d := DefaultDomainConfig()
	if c.MinScale <= 0 {
		c.MinScale = d.MinScale
	}
	if c.MaxScale < c.MinScale {
		c.MaxScale = c.MinScale
	}
	if c.WheelSensitivity <= 0 {
		c.WheelSensitivity = d.WheelSensitivity
	}
	if c.ZoomAnchor != AnchorCursor {
		c.ZoomAnchor = AnchorOrigin
	}
	if c.HistoryLimit < 1 {
		c.HistoryLimit = 1
	}
	if c.Kinds == nil {
		c.Kinds = d.Kinds
	}
	return c
}
