package api

// Wire types for the action protocol and the REST endpoints

// ActionGetResponse is the discovery payload an action client renders.
type ActionGetResponse struct {
	Title       string       `json:"title"`
	Icon        string       `json:"icon"`
	Description string       `json:"description"`
	// Label is ignored by clients when links.actions is present.
	Label string       `json:"label"`
	Links *ActionLinks `json:"links,omitempty"`
}

// ActionLinks lists the concrete actions a client can take.
type ActionLinks struct {
	Actions []LinkedAction `json:"actions"`
}

// LinkedAction is one button (or parameterized form) in the discovery
// payload.
type LinkedAction struct {
	Label      string            `json:"label"`
	Href       string            `json:"href"`
	Parameters []ActionParameter `json:"parameters,omitempty"`
}

// ActionParameter describes a free-text input substituted into the href.
type ActionParameter struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

// ActionPostRequest is the POST body: the requestor's wallet address.
type ActionPostRequest struct {
	Account string `json:"account"`
}

// ActionPostResponse carries the serialized unsigned transaction and a
// human-readable confirmation line.
type ActionPostResponse struct {
	Transaction string `json:"transaction"`
	Message     string `json:"message"`
}

// OrderInfo is the REST view of one order, amounts in display units.
type OrderInfo struct {
	ID        uint64 `json:"id"`
	Side      string `json:"side"`
	ExToken   string `json:"exToken"`
	Amount    string `json:"amount"`
	Filled    string `json:"filledAmount"`
	Remaining string `json:"remaining"`
	Value     string `json:"value"`
	CreatedAt int64  `json:"createdAt"`
}

// OrderDetail adds the current fill presets to an order view.
type OrderDetail struct {
	OrderInfo
	Presets []PresetInfo `json:"presets"`
}

// PresetInfo is one suggested partial-fill amount.
type PresetInfo struct {
	Portion string `json:"portion"`
	Amount  string `json:"amount"`
}

// ActionEvent is broadcast to websocket subscribers whenever an unsigned
// transaction is issued.
type ActionEvent struct {
	Type      string `json:"type"` // always "action_issued"
	Kind      string `json:"kind"` // "fill" or "create"
	OrderID   uint64 `json:"orderId"`
	Amount    string `json:"amount"`
	Requestor string `json:"requestor"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
}

// WSSubscribeRequest is the client->server subscription control message.
type WSSubscribeRequest struct {
	Op       string   `json:"op"` // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"`
}
