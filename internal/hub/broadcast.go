package hub

import (
	"log/slog"

	"github.com/pairsphere/paird/internal/protocol"
	"github.com/pairsphere/paird/internal/registry"
)

// broadcaster fans peer status changes out to the online population. The
// recipient set is snapshotted under the registry lock; writes happen
// outside it, so a slow client never stalls the registry.
type broadcaster struct {
	reg    *registry.Registry
	logger *slog.Logger
}

// peerStatus announces subject's status to every other online peer. The
// connectionMode is computed per recipient from the salted IP hashes.
func (b *broadcaster) peerStatus(subject registry.Peer, status string) {
	recipients := b.reg.OnlinePeerHandles(subject.UserID)
	profile := subject.Profile
	for _, r := range recipients {
		mode := protocol.ModeRemote
		if subject.IPHash != "" && subject.IPHash == r.Peer.IPHash {
			mode = protocol.ModeLAN
		}
		frame := protocol.MustFrame(protocol.EventPeerStatusUpdate, protocol.PeerStatusUpdatePayload{
			ID:             subject.UserID,
			Profile:        &profile,
			Status:         status,
			ConnectionMode: mode,
		})
		if err := r.Handle.SendFrame(frame); err != nil {
			b.logger.Debug("status broadcast delivery failed", "recipient", r.Peer.UserID, "error", err)
		}
	}
}
