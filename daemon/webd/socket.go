package webd

import (
	"encoding/json"
	"github.com/olahol/melody"
	"github.com/rotblauer/globe/app"
)

type websocketAction string

var websocketActionFrame websocketAction = "frame"

type broadframe struct {
	Action websocketAction  `json:"action"`
	Frame  *app.FrameReport `json:"frame"`
}

func marshalFrame(f *app.FrameReport) ([]byte, error) {
	return json.Marshal(broadframe{Action: websocketActionFrame, Frame: f})
}

// initMelody sets up the websocket handler and starts forwarding frame
// reports to every connected client.
func (s *WebDaemon) initMelody() {
	s.melodyInstance = melody.New()

	// New clients get the latest frame straight away.
	s.melodyInstance.HandleConnect(func(session *melody.Session) {
		s.logger.Info("Websocket connected", "remote", session.Request.RemoteAddr)
		if last := s.source.LastFrame(); last != nil {
			if b, err := marshalFrame(last); err == nil {
				_ = session.Write(b)
			}
		}
	})

	// Incoming messages are logged and dropped.
	s.melodyInstance.HandleMessage(func(session *melody.Session, msg []byte) {
		s.logger.Debug("Websocket message", "remote", session.Request.RemoteAddr, "msg", string(msg))
	})

	s.melodyInstance.HandleDisconnect(func(session *melody.Session) {
		s.logger.Info("Websocket disconnected", "remote", session.Request.RemoteAddr)
	})

	s.melodyInstance.HandleError(func(session *melody.Session, e error) {
		s.logger.Warn("Websocket error", "error", e, "remote", session.Request.RemoteAddr)
	})

	// The engine's frame loop blocks on sends to this channel.
	frames := make(chan app.FrameReport, 16)
	sub := s.source.SubscribeFrames(frames)
	s.frameSub = sub
	m := s.melodyInstance
	go func() {
		for {
			select {
			case f := <-frames:
				if m.IsClosed() {
					return
				}
				if m.Len() == 0 {
					continue
				}
				b, err := marshalFrame(&f)
				if err != nil {
					s.logger.Error("Failed to marshal frame", "error", err)
					continue
				}
				if err := m.Broadcast(b); err != nil {
					s.logger.Warn("Failed to broadcast frame", "error", err)
				}
			case err := <-sub.Err():
				if err != nil {
					s.logger.Error("Frame subscription failed", "error", err)
				}
				return
			}
		}
	}()
}

func (s *WebDaemon) closeMelody() {
	if s.frameSub != nil {
		s.frameSub.Unsubscribe()
	}
	if s.melodyInstance != nil && !s.melodyInstance.IsClosed() {
		_ = s.melodyInstance.Close()
	}
}
