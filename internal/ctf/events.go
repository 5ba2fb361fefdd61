package ctf

import "go.uber.org/zap"

type conversionEvent struct {
	TsMs  int64  `json:"ts_ms"`
	RunID string `json:"run_id,omitempty"`
	Op    Op     `json:"op"`
	Stage Stage  `json:"stage"`

	Target      string `json:"target"`
	ConditionID string `json:"condition_id"`
	NegRisk     bool   `json:"neg_risk,omitempty"`
	Amount      string `json:"amount_units,omitempty"`
	From        string `json:"from,omitempty"`

	TxHash  string `json:"tx_hash,omitempty"`
	Nonce   uint64 `json:"nonce,omitempty"`
	Block   uint64 `json:"block,omitempty"`
	GasUsed uint64 `json:"gas_used,omitempty"`
	Status  uint64 `json:"status,omitempty"`

	Ok  bool   `json:"ok,omitempty"`
	Err string `json:"err,omitempty"`
}

func (c *Converter) record(ev conversionEvent) {
	if c.events == nil {
		return
	}
	ev.TsMs = c.now().UnixMilli()
	ev.RunID = c.runID
	ev.Target = c.target.Name()
	ev.ConditionID = c.market.ConditionID().Hex()
	ev.NegRisk = c.market.NegRisk()
	if err := c.events.Write(ev); err != nil {
		c.logger.Warn("event log write failed", zap.Error(err))
	}
}
