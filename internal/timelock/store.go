package timelock

import (
	"fmt"

	"github.com/anilyagiz/dDef/internal/program"
	"github.com/anilyagiz/dDef/pkg/serialization/codec/borsh"
)

// LoadState decodes the state held by acc. An account with no data holds
// the empty state.
func LoadState(acc *program.AccountInfo) (ContractState, error) {
	if acc.DataLen() == 0 {
		return ContractState{}, nil
	}

	var state ContractState
	if err := borsh.Unmarshal(acc.Data, &state); err != nil {
		return ContractState{}, fmt.Errorf("%w: %w", ErrInvalidAccountData, err)
	}
	return state, nil
}

// SaveState overwrites the data of acc with state. The account is left
// untouched if the encoded state does not fit its capacity.
func SaveState(acc *program.AccountInfo, state ContractState) error {
	b, err := borsh.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	return acc.SetData(b)
}
