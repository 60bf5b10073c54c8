package audiosource

import (
	"fmt"
	"log/slog"

	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v4"
)

// MeetingSession answers a caller's WebRTC offer and routes the negotiated
// audio track into a MeetingFeed. Signaling is the caller's problem; this
// side only produces the SDP answer.
type MeetingSession struct {
	pc   *webrtc.PeerConnection
	feed *MeetingFeed
}

// NewMeetingSession creates the receiving peer for feed.
func NewMeetingSession(feed *MeetingFeed) (*MeetingSession, error) {
	media := &webrtc.MediaEngine{}
	if err := media.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("register codecs: %w", err)
	}
	registry := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(media, registry); err != nil {
		return nil, fmt.Errorf("register interceptors: %w", err)
	}

	api := webrtc.NewAPI(
		webrtc.WithMediaEngine(media),
		webrtc.WithInterceptorRegistry(registry),
	)
	pc, err := api.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}

	s := &MeetingSession{pc: pc, feed: feed}

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		if track.Kind() != webrtc.RTPCodecTypeAudio {
			return
		}
		slog.Info("meeting audio track attached", "codec", track.Codec().MimeType)
		s.feed.AttachTrack(track)
	})
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		slog.Debug("meeting connection state", "state", state.String())
	})

	return s, nil
}

// Answer consumes the remote offer SDP and returns the local answer SDP with
// ICE candidates gathered.
func (s *MeetingSession) Answer(offerSDP string) (string, error) {
	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: offerSDP}
	if err := s.pc.SetRemoteDescription(offer); err != nil {
		return "", fmt.Errorf("set remote description: %w", err)
	}

	answer, err := s.pc.CreateAnswer(nil)
	if err != nil {
		return "", fmt.Errorf("create answer: %w", err)
	}

	gathered := webrtc.GatheringCompletePromise(s.pc)
	if err := s.pc.SetLocalDescription(answer); err != nil {
		return "", fmt.Errorf("set local description: %w", err)
	}
	<-gathered

	return s.pc.LocalDescription().SDP, nil
}

// Close tears the peer connection down.
func (s *MeetingSession) Close() error {
	return s.pc.Close()
}
