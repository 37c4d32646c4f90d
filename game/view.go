package game

import "github.com/lazharichir/zhajinhua/cards"

// ViewFor returns the state as seen by playerID: every other hand is hidden,
// except the hands still in play once the round has finished.
// An empty playerID gets the spectator view.
func (s RoomState) ViewFor(playerID string) RoomState {
	view := s.Clone()
	showdown := s.Stage == StageRoundFinished

	for i := range view.Players {
		p := &view.Players[i]
		if p.ID == playerID && playerID != "" {
			continue
		}
		if showdown && !p.HasFolded {
			continue
		}
		p.Hand = cards.Cards{}
	}

	return view
}
