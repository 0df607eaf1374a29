package state

import "github.com/ledgerforge/utxochain/foundation/blockchain/database"

// TamperBlock lets tests mutate a committed block in place.
func (s *State) TamperBlock(index int, fn func(block *database.Block)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.blocks[index])
}
