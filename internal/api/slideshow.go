package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"facette.io/natsort"
	"github.com/disintegration/imaging"

	"github.com/nerrad567/photoframe-core/internal/picture"
	"github.com/nerrad567/photoframe-core/internal/slideshow"
)

// pictureJPEGQuality is the quality used when serving the current picture.
const pictureJPEGQuality = 85

// StartRequest is the optional body of POST /slideshow/start. Missing or
// non-positive sizes fall back to the configured display.
type StartRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// LibraryResponse is the body of GET /library.
type LibraryResponse struct {
	Count   int      `json:"count"`
	Folders []string `json:"folders"`
}

// handleGetState returns the current slideshow snapshot.
func (s *Server) handleGetState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, slideshow.SnapshotOf(s.slideshow.State()))
}

// handleStart starts the slideshow.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(w, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	width, height := req.Width, req.Height
	if width <= 0 || height <= 0 {
		width, height = s.display.Width, s.display.Height
	}

	s.logger.Info("slideshow start requested", "width", width, "height", height)
	s.slideshow.Start(width, height)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"status": "accepted",
		"width":  width,
		"height": height,
	})
}

// handleTap forwards a tap to the slideshow.
func (s *Server) handleTap(w http.ResponseWriter, _ *http.Request) {
	s.slideshow.Tap()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// handleGetPicture serves the picture on screen as JPEG.
func (s *Server) handleGetPicture(w http.ResponseWriter, _ *http.Request) {
	switch res := s.slideshow.State().CurrentPictureResult.(type) {
	case picture.Success:
		if res.Image == nil {
			fail(w, ErrCodeNotFound, "no picture on screen")
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("X-Picture-Sequence", strconv.FormatUint(res.Sequence, 10))
		if res.FolderName != "" {
			w.Header().Set("X-Picture-Folder", res.FolderName)
		}
		w.WriteHeader(http.StatusOK)
		if err := imaging.Encode(w, res.Image, imaging.JPEG, imaging.JPEGQuality(pictureJPEGQuality)); err != nil {
			s.logger.Warn("encoding picture failed", "path", res.Path, "error", err)
		}
	case picture.BitmapOperationFailure:
		fail(w, ErrCodeBitmapFailure, "picture could not be decoded: "+res.Path)
	case picture.StorageFailure:
		fail(w, ErrCodeStorageFailure, "media library unavailable: "+res.Reason)
	default:
		fail(w, ErrCodeNotFound, "no picture on screen")
	}
}

// handleGetLibrary returns the number of indexed files and their folders in
// natural order.
func (s *Server) handleGetLibrary(w http.ResponseWriter, r *http.Request) {
	if s.library == nil {
		fail(w, ErrCodeUnavailable, "media library not configured")
		return
	}

	count, err := s.library.Count(r.Context())
	if err != nil {
		s.logger.Error("counting library failed", "error", err)
		fail(w, ErrCodeStorageFailure, "media library unavailable")
		return
	}
	folders, err := s.library.Folders(r.Context())
	if err != nil {
		s.logger.Error("listing library folders failed", "error", err)
		fail(w, ErrCodeStorageFailure, "media library unavailable")
		return
	}
	if folders == nil {
		folders = []string{}
	}
	natsort.Sort(folders)

	writeJSON(w, http.StatusOK, LibraryResponse{Count: count, Folders: folders})
}
