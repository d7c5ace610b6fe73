package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"quote-engine-go/market"
)

// Envelope wraps every feed message with a type discriminator.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type barPayload struct {
	Symbol string      `json:"symbol"`
	Ts     int64       `json:"ts"`
	Open   json.Number `json:"open"`
	High   json.Number `json:"high"`
	Low    json.Number `json:"low"`
	Close  json.Number `json:"close"`
	Volume json.Number `json:"volume"`
}

type quotePayload struct {
	Symbol string      `json:"symbol"`
	Bid    json.Number `json:"bid"`
	Ask    json.Number `json:"ask"`
	Ts     int64       `json:"ts"`
}

type sessionPayload struct {
	Open bool `json:"open"`
}

// Handler consumes parsed feed messages.
type Handler interface {
	OnBar(market.Bar)
	OnQuote(market.QuoteTick)
	OnSession(open bool)
}

// Dispatch parses one raw feed message and routes it to the handler.
// Unknown message types are ignored, not errors.
func Dispatch(raw []byte, h Handler) error {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("parse envelope: %w", err)
	}
	switch env.Type {
	case "bar":
		var p barPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return fmt.Errorf("parse bar: %w", err)
		}
		o, _ := p.Open.Float64()
		hi, _ := p.High.Float64()
		lo, _ := p.Low.Float64()
		c, _ := p.Close.Float64()
		v, _ := p.Volume.Float64()
		h.OnBar(market.Bar{
			Symbol: p.Symbol,
			Ts:     time.Unix(p.Ts, 0).UTC(),
			Open:   o,
			High:   hi,
			Low:    lo,
			Close:  c,
			Volume: v,
		})
	case "quote":
		var p quotePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return fmt.Errorf("parse quote: %w", err)
		}
		bid, _ := p.Bid.Float64()
		ask, _ := p.Ask.Float64()
		h.OnQuote(market.QuoteTick{
			Symbol: p.Symbol,
			Bid:    bid,
			Ask:    ask,
			Ts:     time.Unix(p.Ts, 0).UTC(),
		})
	case "session":
		var p sessionPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return fmt.Errorf("parse session: %w", err)
		}
		h.OnSession(p.Open)
	}
	return nil
}
