// Package schema validates wire payloads against embedded JSON Schema
// documents. The schemas are the cross-language contract with the game-side
// mod; keeping them as plain JSON files means both sides can share them
// verbatim.
package schema

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/cardbridge/cardbridge/msgbus"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

var (
	envelopeSchema *jsonschema.Schema

	// payloadSchemas maps channels whose data payloads have a fixed
	// contract. State snapshot channels are intentionally absent: their
	// payloads are produced by our own typed structs and evolve with the
	// game-side extractor.
	payloadSchemas map[msgbus.Channel]*jsonschema.Schema
)

func init() {
	envelopeSchema = mustCompile("envelope.schema.json")
	payloadSchemas = map[msgbus.Channel]*jsonschema.Schema{
		msgbus.ChannelAction:       mustCompile("action.schema.json"),
		msgbus.ChannelActionResult: mustCompile("action_result.schema.json"),
	}
}

func mustCompile(name string) *jsonschema.Schema {
	src, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		panic(fmt.Sprintf("schema: missing embedded %s: %v", name, err))
	}
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft7
	if err := c.AddResource(name, strings.NewReader(string(src))); err != nil {
		panic(fmt.Sprintf("schema: add %s: %v", name, err))
	}
	s, err := c.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("schema: compile %s: %v", name, err))
	}
	return s
}

// ValidateEnvelope checks raw envelope bytes against the envelope contract.
func ValidateEnvelope(payload []byte) error {
	v, err := decode(payload)
	if err != nil {
		return err
	}
	if err := envelopeSchema.Validate(v); err != nil {
		return fmt.Errorf("envelope schema violation: %w", err)
	}
	return nil
}

// ValidatePayload checks a channel's data payload against its contract.
// Channels without a payload schema pass unconditionally.
func ValidatePayload(channel msgbus.Channel, data []byte) error {
	s, ok := payloadSchemas[channel]
	if !ok {
		return nil
	}
	v, err := decode(data)
	if err != nil {
		return err
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("%s payload schema violation: %w", channel, err)
	}
	return nil
}

func decode(payload []byte) (any, error) {
	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return v, nil
}
