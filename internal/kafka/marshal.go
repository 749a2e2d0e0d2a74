package kafka

import (
	"encoding/json"

	"github.com/ankurvermaj09-ux/e-commerce/internal/orders"
	"github.com/pkg/errors"
)

func Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "encode message")
	}
	return b, nil
}

func UnmarshalEnvelope(b []byte) (orders.Envelope, error) {
	var env orders.Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return orders.Envelope{}, errors.Wrap(err, "decode envelope")
	}
	return env, nil
}
