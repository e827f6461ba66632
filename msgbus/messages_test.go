package msgbus

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannel_FileNames(t *testing.T) {
	assert.Equal(t, "actions.json", ChannelAction.FileName())
	assert.Equal(t, "action_results.json", ChannelActionResult.FileName())
	assert.Equal(t, "game_state.json", ChannelGameState.FileName())
	assert.Equal(t, "", Channel("bogus").FileName())
}

func TestChannel_Valid(t *testing.T) {
	for _, c := range Channels() {
		assert.True(t, c.Valid(), c)
	}
	assert.False(t, Channel("bogus").Valid())
}

func TestActionType_Valid(t *testing.T) {
	for _, a := range ActionTypes() {
		assert.True(t, a.Valid(), a)
	}
	assert.False(t, ActionType("jump").Valid())
}

func TestActionCommand_OmitsUnsetFields(t *testing.T) {
	cmd := ActionCommand{
		ActionType:  ActionPlayHand,
		SequenceID:  42,
		CardIndices: []int{0, 1, 2, 3, 4},
	}

	payload, err := json.Marshal(cmd)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(payload, &wire))
	assert.Equal(t, "play_hand", wire["action_type"])
	assert.Equal(t, float64(42), wire["sequence_id"])
	assert.Contains(t, wire, "card_indices")
	assert.NotContains(t, wire, "shop_index")
	assert.NotContains(t, wire, "new_order")
	assert.NotContains(t, wire, "item_id")
}

func TestActionResult_ErrorMessageOnlyOnFailure(t *testing.T) {
	ok, err := json.Marshal(ActionResult{SequenceID: 1, Success: true})
	require.NoError(t, err)
	assert.NotContains(t, string(ok), "error_message")

	failed, err := json.Marshal(ActionResult{SequenceID: 2, Success: false, ErrorMessage: "invalid index"})
	require.NoError(t, err)
	assert.Contains(t, string(failed), "invalid index")
}

func TestActionResult_EmbeddedStateRoundTrip(t *testing.T) {
	result := ActionResult{
		SequenceID: 8,
		Success:    true,
		NewState: &GameState{
			SessionID:      "sess_1",
			CurrentPhase:   PhaseShop,
			Ante:           2,
			Money:          14,
			HandsRemaining: 3,
			ShopContents: []ShopItem{
				{Index: 0, ItemType: "joker", Name: "Blueprint", Cost: 10},
			},
			AvailableActions: []string{"buy_item", "reroll_shop"},
		},
	}

	payload, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded ActionResult
	require.NoError(t, json.Unmarshal(payload, &decoded))
	require.NotNil(t, decoded.NewState)
	assert.Equal(t, result.NewState.ShopContents, decoded.NewState.ShopContents)
	assert.Equal(t, PhaseShop, decoded.NewState.CurrentPhase)
}
