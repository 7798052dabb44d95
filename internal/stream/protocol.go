package stream

// Message types.
const (
	TypeFrame    = "frame"
	TypeConfig   = "config"
	TypeDisturb  = "disturb"
	TypeRelease  = "release"
	TypeSpeed    = "speed"
	TypeAutoWave = "auto_wave"
	TypeError    = "error"
)

// FrameMessage carries one heightfield state, row-major by j then i.
type FrameMessage struct {
	Type    string    `json:"type"`
	Size    int       `json:"size"`
	Step    uint64    `json:"step"`
	Heights []float32 `json:"heights"`
}

// ConfigMessage describes the surface a client is watching. It is sent on
// connect and whenever a setting changes.
type ConfigMessage struct {
	Type      string  `json:"type"`
	Size      int     `json:"size"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Viscosity float64 `json:"viscosity"`
	Speed     int     `json:"speed"`
	AutoWave  bool    `json:"auto_wave"`
	Backend   string  `json:"backend"`
}

// ClientMessage is anything a client sends. Radius and Strength are
// optional overrides for disturb.
type ClientMessage struct {
	Type     string   `json:"type"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Radius   *float64 `json:"radius,omitempty"`
	Strength *float64 `json:"strength,omitempty"`
	Speed    int      `json:"speed,omitempty"`
	Enabled  bool     `json:"enabled,omitempty"`
}

// ErrorMessage reports a rejected client message.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
