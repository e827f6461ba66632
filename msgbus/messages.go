// Package msgbus message payload definitions.
//
// These are the payload schemas carried inside envelopes, organized by
// channel: game-state snapshots from the game side, action commands toward
// it, and action results back. The transport layer never looks inside them.
package msgbus

// =============================================================================
// GAME STATE
// =============================================================================

// GamePhase represents the current phase of the run.
type GamePhase string

const (
	PhaseHandSelection  GamePhase = "hand_selection"
	PhaseShop           GamePhase = "shop"
	PhaseBlindSelection GamePhase = "blind_selection"
	PhaseScoring        GamePhase = "scoring"
)

// Card is a single playing card in hand.
type Card struct {
	ID          string `json:"id"`
	Rank        string `json:"rank"`
	Suit        string `json:"suit"`
	Enhancement string `json:"enhancement,omitempty"`
	Edition     string `json:"edition,omitempty"`
	Seal        string `json:"seal,omitempty"`
}

// Joker is an owned joker; Position matters for ability-copying strategies.
type Joker struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Position   int            `json:"position"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Consumable is an owned tarot/planet/spectral style card.
type Consumable struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	CardType   string         `json:"card_type"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Blind describes the current or upcoming blind.
type Blind struct {
	Name        string         `json:"name"`
	BlindType   string         `json:"blind_type"` // "small", "big", "boss"
	Requirement int            `json:"requirement"`
	Reward      int            `json:"reward"`
	Properties  map[string]any `json:"properties,omitempty"`
}

// ShopItem is one purchasable slot in the shop.
type ShopItem struct {
	Index      int            `json:"index"`
	ItemType   string         `json:"item_type"` // "joker", "consumable", "pack"
	Name       string         `json:"name"`
	Cost       int            `json:"cost"`
	Properties map[string]any `json:"properties,omitempty"`
}

// GameState is the complete snapshot published on the game_state channel.
// The bridge treats it as a pre-validated structure produced by the game
// side's extraction layer.
type GameState struct {
	SessionID         string       `json:"session_id"`
	CurrentPhase      GamePhase    `json:"current_phase"`
	Ante              int          `json:"ante"`
	Money             int          `json:"money"`
	HandsRemaining    int          `json:"hands_remaining"`
	DiscardsRemaining int          `json:"discards_remaining"`
	HandCards         []Card       `json:"hand_cards"`
	Jokers            []Joker      `json:"jokers"`
	Consumables       []Consumable `json:"consumables"`
	CurrentBlind      *Blind       `json:"current_blind"`
	ShopContents      []ShopItem   `json:"shop_contents"`
	AvailableActions  []string     `json:"available_actions"`

	// PostHandJokerReorderAvailable is the narrow window after scoring in
	// which reorder_jokers is legal.
	PostHandJokerReorderAvailable bool `json:"post_hand_joker_reorder_available"`
}

// =============================================================================
// ACTIONS
// =============================================================================

// ActionType selects the game operation an ActionCommand requests.
type ActionType string

const (
	ActionPlayHand        ActionType = "play_hand"
	ActionDiscardCards    ActionType = "discard_cards"
	ActionGoToShop        ActionType = "go_to_shop"
	ActionBuyItem         ActionType = "buy_item"
	ActionSellJoker       ActionType = "sell_joker"
	ActionSellConsumable  ActionType = "sell_consumable"
	ActionReorderJokers   ActionType = "reorder_jokers"
	ActionSelectBlind     ActionType = "select_blind"
	ActionSelectPackOffer ActionType = "select_pack_offer"
	ActionRerollBoss      ActionType = "reroll_boss"
	ActionRerollShop      ActionType = "reroll_shop"
	ActionSortHandByRank  ActionType = "sort_hand_by_rank"
	ActionSortHandBySuit  ActionType = "sort_hand_by_suit"
	ActionUseConsumable   ActionType = "use_consumable"
)

// ActionTypes returns every defined action type.
func ActionTypes() []ActionType {
	return []ActionType{
		ActionPlayHand, ActionDiscardCards, ActionGoToShop, ActionBuyItem,
		ActionSellJoker, ActionSellConsumable, ActionReorderJokers,
		ActionSelectBlind, ActionSelectPackOffer, ActionRerollBoss,
		ActionRerollShop, ActionSortHandByRank, ActionSortHandBySuit,
		ActionUseConsumable,
	}
}

// Valid reports whether the action type is part of the catalog.
func (a ActionType) Valid() bool {
	for _, t := range ActionTypes() {
		if t == a {
			return true
		}
	}
	return false
}

// ActionCommand is the payload carried on the action channel. The command
// carries its own SequenceID, drawn from the same counter as envelope ids;
// the executor echoes it in the matching ActionResult, which is how results
// are correlated to commands.
//
// Per-action fields are optional and only meaningful for the action types
// that declare them; the transport and correlation layers never inspect them.
type ActionCommand struct {
	ActionType ActionType `json:"action_type"`
	SequenceID uint64     `json:"sequence_id"`

	CardIndices     []int  `json:"card_indices,omitempty"`     // play_hand, discard_cards
	ShopIndex       *int   `json:"shop_index,omitempty"`       // buy_item
	JokerIndex      *int   `json:"joker_index,omitempty"`      // sell_joker
	ConsumableIndex *int   `json:"consumable_index,omitempty"` // sell_consumable
	NewOrder        []int  `json:"new_order,omitempty"`        // reorder_jokers
	BlindType       string `json:"blind_type,omitempty"`       // select_blind
	PackIndex       *int   `json:"pack_index,omitempty"`       // select_pack_offer
	ItemID          string `json:"item_id,omitempty"`          // use_consumable
}

// ActionResult is the payload carried on the action_result channel. It
// correlates to a command by SequenceID; ErrorMessage is populated iff
// Success is false; NewState lets a single round trip both confirm the
// action and refresh state.
type ActionResult struct {
	SequenceID   uint64     `json:"sequence_id"`
	Success      bool       `json:"success"`
	ErrorMessage string     `json:"error_message,omitempty"`
	NewState     *GameState `json:"new_state,omitempty"`
}

// =============================================================================
// AUXILIARY STATE PAYLOADS
// =============================================================================

// DeckState is the payload for the deck_state channel: the full remaining
// deck, independent of what is currently in hand.
type DeckState struct {
	SessionID string `json:"session_id"`
	Cards     []Card `json:"cards"`
}

// HandLevel describes upgrade progress for one poker hand.
type HandLevel struct {
	Hand  string `json:"hand"`
	Level int    `json:"level"`
	Chips int    `json:"chips"`
	Mult  int    `json:"mult"`
}

// HandLevels is the payload for the hand_levels channel.
type HandLevels struct {
	SessionID string      `json:"session_id"`
	Levels    []HandLevel `json:"levels"`
}

// VouchersAnte is the payload for the vouchers_ante channel.
type VouchersAnte struct {
	SessionID string   `json:"session_id"`
	Ante      int      `json:"ante"`
	Owned     []string `json:"owned_vouchers"`
	Offered   []string `json:"offered_vouchers,omitempty"`
}
