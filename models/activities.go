package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Activity represents a named, capacity-bounded enrollment record.
type Activity struct {
	Name            string   `json:"-"`
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

// SpotsLeft returns the remaining capacity, never less than zero.
func (a Activity) SpotsLeft() int {
	left := a.MaxParticipants - len(a.Participants)
	if left < 0 {
		return 0
	}
	return left
}

// Catalog is the activity mapping returned by GET /activities. Activities
// keep the order in which the server listed them.
type Catalog []Activity

// Names returns the activity names in catalog order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for _, a := range c {
		names = append(names, a.Name)
	}
	return names
}

// Find returns the activity with the given name.
func (c Catalog) Find(name string) (Activity, bool) {
	for _, a := range c {
		if a.Name == name {
			return a, true
		}
	}
	return Activity{}, false
}

// UnmarshalJSON decodes a JSON object keyed by activity name.
func (c *Catalog) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("activities: expected object, got %v", tok)
	}

	catalog := Catalog{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("activities: unexpected key %v", tok)
		}

		var activity Activity
		if err := dec.Decode(&activity); err != nil {
			return fmt.Errorf("activities: decode %q: %w", name, err)
		}
		activity.Name = name
		if activity.Participants == nil {
			activity.Participants = []string{}
		}
		catalog = append(catalog, activity)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*c = catalog
	return nil
}

// MarshalJSON encodes the catalog back into the keyed object form.
func (c Catalog) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, a := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(a.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(a)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
