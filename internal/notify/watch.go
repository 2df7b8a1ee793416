package notify

import (
	"context"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/tamaureus/tamaureus/internal/engine"
	"github.com/tamaureus/tamaureus/internal/errmsg"
	"github.com/tamaureus/tamaureus/internal/tags"
)

const trackTimeout = 5000

// StateSource is the part of engine.Client the watcher queries.
type StateSource interface {
	State() (engine.PlaybackState, error)
}

// Watch posts a notification for every newly loaded track and for every
// playback error until ctx is cancelled or sub is closed. Track
// notifications replace each other.
func Watch(ctx context.Context, src StateSource, sub *engine.Subscription, n Notifier, log logrus.FieldLogger) {
	log = log.WithField("component", "notify")
	var (
		current uint32
		serial  uint64
	)
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done:
			return

		case e := <-sub.StateChanged:
			if e.Current != engine.Playing || e.TrackSerial == serial {
				continue
			}
			st, err := src.State()
			if err != nil || st.Empty || st.Track.TrackSerial == serial {
				continue
			}
			serial = st.Track.TrackSerial
			notif := trackNotification(st.Track)
			notif.ReplacesID = current
			id, err := n.Notify(notif)
			if err != nil {
				log.WithError(err).Debug("track notification failed")
				continue
			}
			current = id

		case e := <-sub.Errors:
			op := errmsg.OpPlaybackStart
			if e.Operation == engine.OpSeek {
				op = errmsg.OpPlaybackSeek
			}
			if _, err := n.Notify(Notification{
				Title:   "Playback error",
				Body:    errmsg.FormatWith(op, filepath.Base(e.Path), e.Err),
				Timeout: -1,
				Urgency: UrgencyCritical,
			}); err != nil {
				log.WithError(err).Debug("error notification failed")
			}
		}
	}
}

// trackNotification describes track from its tags, with folder art as the
// icon when there is one.
func trackNotification(track engine.Track) Notification {
	notif := Notification{
		Title:   filepath.Base(track.Path),
		Icon:    tags.FolderArtPath(filepath.Dir(track.Path)),
		Timeout: trackTimeout,
		Urgency: UrgencyLow,
	}
	t, err := tags.Read(track.Path)
	if err != nil {
		return notif
	}
	notif.Title = t.Title
	switch {
	case t.Artist != "" && t.Album != "":
		notif.Body = t.Artist + " - " + t.Album
	case t.Artist != "":
		notif.Body = t.Artist
	default:
		notif.Body = t.Album
	}
	return notif
}
