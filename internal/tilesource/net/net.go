// Package net implements a treemanager.Source backed by a websocket
// connection to a tile server: requests are sent as JSON control
// messages, completions arrive the same way and are handed to a Codec for
// decoding, and Poll drains a mutex-guarded slice rather than a channel so
// TreeManager.Update's non-blocking contract holds even if the read loop
// stalls.
package net

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Faultbox/lodbodies/internal/tile"
	"github.com/Faultbox/lodbodies/internal/tileid"
	"github.com/Faultbox/lodbodies/internal/tilesource"
	"github.com/Faultbox/lodbodies/internal/treemanager"
)

type wireID struct {
	Level int   `json:"level"`
	Root  int   `json:"root"`
	Patch int64 `json:"patch"`
}

func toWireID(id tileid.ID) wireID {
	return wireID{Level: id.Level, Root: id.Root, Patch: id.Patch}
}

func (w wireID) toTileID() tileid.ID {
	return tileid.ID{Level: w.Level, Root: w.Root, Patch: w.Patch}
}

type wireRequest struct {
	Type string   `json:"type"`
	IDs  []wireID `json:"ids"`
}

type wireCompletion struct {
	Type    string `json:"type"`
	ID      wireID `json:"id"`
	Payload []byte `json:"payload,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Source is a NetSource for one channel: it owns a single websocket
// connection to a tile endpoint and decodes payloads with codec.
type Source[T tile.Sample] struct {
	url   string
	codec tilesource.Codec[T]
	log   *zap.Logger

	writeMu sync.Mutex
	conn    *websocket.Conn

	completeMu  sync.Mutex
	completions []treemanager.Completion[T]

	done chan struct{}
}

// New builds a Source that will dial url on Init.
func New[T tile.Sample](url string, codec tilesource.Codec[T], log *zap.Logger) *Source[T] {
	return &Source[T]{url: url, codec: codec, log: log}
}

// Init dials the tile endpoint and starts the background read loop.
func (s *Source[T]) Init() error {
	conn, _, err := websocket.DefaultDialer.Dial(s.url, nil)
	if err != nil {
		return fmt.Errorf("tilesource/net: dialing %s: %w", s.url, err)
	}
	s.conn = conn
	s.done = make(chan struct{})
	go s.readLoop()
	return nil
}

// Fini closes the connection and stops the read loop. In-flight requests
// are simply dropped: the caller is expected to have already stopped
// issuing new ones.
func (s *Source[T]) Fini() {
	if s.conn == nil {
		return
	}
	close(s.done)
	s.conn.Close()
}

// Request sends a single JSON message naming every requested id. The
// server is expected to treat repeated ids for the same tile
// idempotently; this source does not deduplicate on its own since
// TreeManager already does before calling Request.
func (s *Source[T]) Request(ids []tileid.ID) {
	if s.conn == nil || len(ids) == 0 {
		return
	}
	wireIDs := make([]wireID, len(ids))
	for i, id := range ids {
		wireIDs[i] = toWireID(id)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(wireRequest{Type: "request", IDs: wireIDs}); err != nil {
		s.log.Warn("tilesource/net: request write failed", zap.Error(err))
	}
}

// Poll drains and returns every completion received since the last call.
func (s *Source[T]) Poll() []treemanager.Completion[T] {
	s.completeMu.Lock()
	defer s.completeMu.Unlock()
	out := s.completions
	s.completions = nil
	return out
}

func (s *Source[T]) readLoop() {
	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			s.log.Warn("tilesource/net: read loop stopping", zap.Error(err))
			return
		}

		var wc wireCompletion
		if err := json.Unmarshal(msg, &wc); err != nil {
			s.log.Warn("tilesource/net: malformed completion message", zap.Error(err))
			continue
		}

		id := wc.ID.toTileID()
		c := treemanager.Completion[T]{ID: id}
		if wc.Error != "" {
			c.Err = fmt.Errorf("tilesource/net: %s", wc.Error)
		} else {
			tl, err := s.codec.Decode(id, wc.Payload)
			if err != nil {
				c.Err = err
			} else {
				c.Tile = tl
			}
		}

		s.completeMu.Lock()
		s.completions = append(s.completions, c)
		s.completeMu.Unlock()
	}
}
