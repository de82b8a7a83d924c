package models

// SessionData is a snapshot of what the attached session is playing and which transport
// controls it currently accepts.
type SessionData struct {
	CanPlay         bool          `json:"isPlayEnabled"`
	CanPause        bool          `json:"isPauseEnabled"`
	CanPlayOrPause  bool          `json:"isPlayOrPauseEnabled"`
	CanSkipNext     bool          `json:"isNextEnabled"`
	CanSkipPrevious bool          `json:"isPreviousEnabled"`
	Title           string        `json:"title"`
	Artist          string        `json:"artist"`
	Album           string        `json:"album"`
	Artists         []string      `json:"artists"`
	Thumbnail       ThumbnailData `json:"thumbnail"`
}

// ThumbnailData is the artwork of the current item, ready to be sent to a UI.
// Base64 is an encoded PNG and is empty when no artwork could be produced.
type ThumbnailData struct {
	Base64         string  `json:"base64"`
	Palette        Palette `json:"palette"`
	ProminentColor RGB     `json:"prominentColor"`
	AverageColor   RGB     `json:"averageColor"`
}

type PlaybackData struct {
	IsPlaying bool `json:"isPlaying"`
}

// TimelineData is expressed in the OS' native tick unit. It is not milliseconds.
type TimelineData struct {
	StartTime uint64 `json:"timelineStartTime"`
	EndTime   uint64 `json:"timelineEndTime"`
	Position  uint64 `json:"timelinePosition"`
}
