package bridge

import (
	"fmt"
	"slices"

	"github.com/cardbridge/cardbridge/msgbus"
)

// =============================================================================
// ACTION VALIDATION
// =============================================================================

// validator checks one action type against the current state. A nil return
// means the action is legal right now.
type validator func(cmd msgbus.ActionCommand, state *msgbus.GameState) error

var actionValidators = map[msgbus.ActionType]validator{
	msgbus.ActionPlayHand:        validatePlayHand,
	msgbus.ActionDiscardCards:    validateDiscardCards,
	msgbus.ActionGoToShop:        validateGoToShop,
	msgbus.ActionBuyItem:         validateBuyItem,
	msgbus.ActionSellJoker:       validateSellJoker,
	msgbus.ActionSellConsumable:  validateSellConsumable,
	msgbus.ActionReorderJokers:   validateReorderJokers,
	msgbus.ActionSelectBlind:     validateSelectBlind,
	msgbus.ActionRerollBoss:      validateRerollBoss,
	msgbus.ActionRerollShop:      validateRerollShop,
	msgbus.ActionSortHandByRank:  validateSortHand,
	msgbus.ActionSortHandBySuit:  validateSortHand,
	msgbus.ActionUseConsumable:   validateUseConsumable,
	msgbus.ActionSelectPackOffer: validateSelectPackOffer,
}

// ValidateAction checks whether cmd is legal against state. Validation here
// is a pre-flight check that saves a round trip for commands the game would
// certainly reject; the game side remains the authority.
func ValidateAction(cmd msgbus.ActionCommand, state *msgbus.GameState) error {
	if !cmd.ActionType.Valid() {
		return fmt.Errorf("unknown action type %q", cmd.ActionType)
	}
	if state == nil {
		return fmt.Errorf("no game state available")
	}
	if !slices.Contains(state.AvailableActions, string(cmd.ActionType)) {
		return fmt.Errorf("action %s not in available actions %v", cmd.ActionType, state.AvailableActions)
	}
	if v, ok := actionValidators[cmd.ActionType]; ok {
		return v(cmd, state)
	}
	return nil
}

func validateCardIndices(indices []int, handSize int) error {
	if len(indices) == 0 {
		return fmt.Errorf("at least one card must be selected")
	}
	for _, idx := range indices {
		if idx < 0 || idx >= handSize {
			return fmt.Errorf("card index %d out of range (hand size %d)", idx, handSize)
		}
	}
	return nil
}

func validatePlayHand(cmd msgbus.ActionCommand, state *msgbus.GameState) error {
	if state.CurrentPhase != msgbus.PhaseHandSelection {
		return fmt.Errorf("play_hand requires hand selection phase, current %s", state.CurrentPhase)
	}
	if state.HandsRemaining <= 0 {
		return fmt.Errorf("no hands remaining")
	}
	return validateCardIndices(cmd.CardIndices, len(state.HandCards))
}

func validateDiscardCards(cmd msgbus.ActionCommand, state *msgbus.GameState) error {
	if state.CurrentPhase != msgbus.PhaseHandSelection {
		return fmt.Errorf("discard_cards requires hand selection phase, current %s", state.CurrentPhase)
	}
	if state.DiscardsRemaining <= 0 {
		return fmt.Errorf("no discards remaining")
	}
	return validateCardIndices(cmd.CardIndices, len(state.HandCards))
}

func validateGoToShop(cmd msgbus.ActionCommand, state *msgbus.GameState) error {
	if state.CurrentPhase != msgbus.PhaseHandSelection {
		return fmt.Errorf("go_to_shop requires hand selection phase, current %s", state.CurrentPhase)
	}
	return nil
}

func validateBuyItem(cmd msgbus.ActionCommand, state *msgbus.GameState) error {
	if state.CurrentPhase != msgbus.PhaseShop {
		return fmt.Errorf("buy_item requires shop phase, current %s", state.CurrentPhase)
	}
	if cmd.ShopIndex == nil {
		return fmt.Errorf("buy_item requires shop_index")
	}
	idx := *cmd.ShopIndex
	if idx < 0 || idx >= len(state.ShopContents) {
		return fmt.Errorf("shop index %d out of range (%d items)", idx, len(state.ShopContents))
	}
	if item := state.ShopContents[idx]; state.Money < item.Cost {
		return fmt.Errorf("cannot afford %s: costs %d, have %d", item.Name, item.Cost, state.Money)
	}
	return nil
}

func validateSellJoker(cmd msgbus.ActionCommand, state *msgbus.GameState) error {
	if state.CurrentPhase != msgbus.PhaseShop {
		return fmt.Errorf("sell_joker requires shop phase, current %s", state.CurrentPhase)
	}
	if cmd.JokerIndex == nil {
		return fmt.Errorf("sell_joker requires joker_index")
	}
	if idx := *cmd.JokerIndex; idx < 0 || idx >= len(state.Jokers) {
		return fmt.Errorf("joker index %d out of range (%d jokers)", idx, len(state.Jokers))
	}
	return nil
}

func validateSellConsumable(cmd msgbus.ActionCommand, state *msgbus.GameState) error {
	if state.CurrentPhase != msgbus.PhaseShop {
		return fmt.Errorf("sell_consumable requires shop phase, current %s", state.CurrentPhase)
	}
	if cmd.ConsumableIndex == nil {
		return fmt.Errorf("sell_consumable requires consumable_index")
	}
	if idx := *cmd.ConsumableIndex; idx < 0 || idx >= len(state.Consumables) {
		return fmt.Errorf("consumable index %d out of range (%d consumables)", idx, len(state.Consumables))
	}
	return nil
}

// validateReorderJokers enforces the post-hand timing window and requires the
// new order to be a full permutation of the current joker positions. Both
// matter for ability-copying jokers whose effect depends on position.
func validateReorderJokers(cmd msgbus.ActionCommand, state *msgbus.GameState) error {
	if !state.PostHandJokerReorderAvailable {
		return fmt.Errorf("joker reordering is only available immediately after a hand is scored")
	}
	count := len(state.Jokers)
	if len(cmd.NewOrder) != count {
		return fmt.Errorf("new_order has %d entries, want %d", len(cmd.NewOrder), count)
	}
	seen := make([]bool, count)
	for _, idx := range cmd.NewOrder {
		if idx < 0 || idx >= count || seen[idx] {
			return fmt.Errorf("new_order %v is not a permutation of 0..%d", cmd.NewOrder, count-1)
		}
		seen[idx] = true
	}
	return nil
}

func validateSelectBlind(cmd msgbus.ActionCommand, state *msgbus.GameState) error {
	if state.CurrentPhase != msgbus.PhaseBlindSelection {
		return fmt.Errorf("select_blind requires blind selection phase, current %s", state.CurrentPhase)
	}
	switch cmd.BlindType {
	case "small", "big", "boss":
		return nil
	default:
		return fmt.Errorf("unknown blind type %q", cmd.BlindType)
	}
}

func validateSelectPackOffer(cmd msgbus.ActionCommand, state *msgbus.GameState) error {
	if cmd.PackIndex == nil {
		return fmt.Errorf("select_pack_offer requires pack_index")
	}
	if *cmd.PackIndex < 0 {
		return fmt.Errorf("pack index must be non-negative")
	}
	return nil
}

func validateRerollBoss(cmd msgbus.ActionCommand, state *msgbus.GameState) error {
	if state.CurrentPhase != msgbus.PhaseBlindSelection {
		return fmt.Errorf("reroll_boss requires blind selection phase, current %s", state.CurrentPhase)
	}
	return nil
}

func validateRerollShop(cmd msgbus.ActionCommand, state *msgbus.GameState) error {
	if state.CurrentPhase != msgbus.PhaseShop {
		return fmt.Errorf("reroll_shop requires shop phase, current %s", state.CurrentPhase)
	}
	return nil
}

func validateSortHand(cmd msgbus.ActionCommand, state *msgbus.GameState) error {
	if state.CurrentPhase != msgbus.PhaseHandSelection {
		return fmt.Errorf("hand sorting requires hand selection phase, current %s", state.CurrentPhase)
	}
	return nil
}

func validateUseConsumable(cmd msgbus.ActionCommand, state *msgbus.GameState) error {
	if cmd.ItemID == "" {
		return fmt.Errorf("use_consumable requires item_id")
	}
	for _, c := range state.Consumables {
		if c.ID == cmd.ItemID {
			return nil
		}
	}
	return fmt.Errorf("no consumable with id %q", cmd.ItemID)
}
