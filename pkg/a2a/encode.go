package a2a

import (
	"encoding/json"
	"fmt"
)

// EncodeAgentCard serializes a card. Output is deterministic and omits every
// optional field that is unset.
func EncodeAgentCard(card *AgentCard) ([]byte, error) {
	if card == nil {
		return nil, invalid("card", "must not be nil")
	}
	if err := card.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(card)
}

func DecodeAgentCard(data []byte) (*AgentCard, error) {
	var card AgentCard
	if err := json.Unmarshal(data, &card); err != nil {
		return nil, fmt.Errorf("a2a: decoding agent card: %w", err)
	}
	if err := card.Validate(); err != nil {
		return nil, err
	}
	return &card, nil
}

// EncodeResponse builds the wire form of a JSON-RPC response. When err is
// non-nil the result is discarded and err is mapped onto the taxonomy.
func EncodeResponse(id any, result any, err error) ([]byte, error) {
	var resp *Response
	if err != nil {
		resp = NewErrorResponse(id, ToError(err))
	} else {
		resp = NewResponse(id, result)
	}
	return json.Marshal(resp)
}

func DecodeResponse(data []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("a2a: decoding response: %w", err)
	}
	return &resp, nil
}
