package slideshow

import "github.com/nerrad567/photoframe-core/internal/picture"

// Snapshot is the wire form of State shared by the MQTT state topic, the
// HTTP API and the WebSocket feed. Pixels are never included.
type Snapshot struct {
	IsRunning           bool        `json:"is_running"`
	IsPausedForTheNight bool        `json:"is_paused_for_the_night"`
	Picture             PictureInfo `json:"picture"`
}

// PictureInfo describes the current picture result.
type PictureInfo struct {
	Kind       string `json:"kind"`
	FolderName string `json:"folder_name,omitempty"`
	Path       string `json:"path,omitempty"`
	Sequence   uint64 `json:"sequence,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// SnapshotOf converts s to its wire form.
func SnapshotOf(s State) Snapshot {
	info := PictureInfo{Kind: picture.KindOf(s.CurrentPictureResult)}
	switch r := s.CurrentPictureResult.(type) {
	case picture.Success:
		info.FolderName = r.FolderName
		info.Path = r.Path
		info.Sequence = r.Sequence
	case picture.BitmapOperationFailure:
		info.Path = r.Path
	case picture.StorageFailure:
		info.Reason = r.Reason
	}

	return Snapshot{
		IsRunning:           s.IsRunning,
		IsPausedForTheNight: s.IsPausedForTheNight,
		Picture:             info,
	}
}
