package reconcile

// Config controls how console cues are mirrored into QLab.
type Config struct {
	// NetworkPrefix is prepended to the console cue number to form the QLab cue number.
	NetworkPrefix string `mapstructure:"network_prefix" default:"LQ"`

	// PatchNumber is the network patch every generated network cue is bound to.
	PatchNumber int `mapstructure:"patch_number" default:"1"`

	// CueNumberParam is the network message parameter carrying the console cue number.
	CueNumberParam string `mapstructure:"cue_number_param" default:"cueNumber"`

	// AudioPosition is the one-based position of the audio cue inside a scene group.
	// Network cues follow it.
	AudioPosition int `mapstructure:"audio_position" default:"1"`
}

// DefaultConfig returns the settings for an Eos console on network patch 1.
func DefaultConfig() Config {
	return Config{
		NetworkPrefix:  "LQ",
		PatchNumber:    1,
		CueNumberParam: "cueNumber",
		AudioPosition:  1,
	}
}
