package outlet

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Message is one outbound line.
type Message struct {
	Outlet string `json:"outlet"`
	Value  any    `json:"value"`
}

// JSONOutlet writes each outbound value as a JSON line.
type JSONOutlet struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONOutlet writes to w, typically stdout.
func NewJSONOutlet(w io.Writer) *JSONOutlet {
	return &JSONOutlet{enc: json.NewEncoder(w)}
}

// Send writes {"outlet": name, "value": value}.
func (o *JSONOutlet) Send(name string, value any) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.enc.Encode(Message{Outlet: name, Value: value}); err != nil {
		return fmt.Errorf("send %s: %w", name, err)
	}
	return nil
}
