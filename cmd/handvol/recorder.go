package main

import (
	"github.com/ayusman/handvol/internal/app"
	"github.com/ayusman/handvol/internal/store"
)

// sessionRecorder persists finished sessions in the session table.
type sessionRecorder struct {
	sessions *store.SessionRepository
}

func (r sessionRecorder) RecordSession(s app.Summary) error {
	rec := &store.SessionRecord{
		Username:   s.User,
		StartedAt:  s.StartedAt,
		EndedAt:    s.EndedAt,
		Frames:     s.Frames,
		Detections: s.Detections,
		Accuracy:   s.Accuracy,
	}
	if s.Err != nil {
		rec.Error = s.Err.Error()
	}
	return r.sessions.Create(rec)
}
